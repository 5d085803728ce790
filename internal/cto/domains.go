package cto

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quill/internal/stage"
)

const (
	maxPrimaryDomains = 3
	fullStackDomains  = 3
)

var (
	frameworkTopics = set("react", "vue", "angular", "django", "flask", "express", "fastapi",
		"spring", "laravel", "rails", "nextjs", "nuxt", "svelte", "nest")
	toolTopics = set("docker", "kubernetes", "jenkins", "github-actions", "terraform",
		"ansible", "webpack", "vite", "babel", "eslint", "pytest", "jest")
)

type extractedSkills struct {
	skills     []string
	frameworks []string
	tools      []string
}

// extractSkills splits repository topics into frameworks, tools, and
// general skills. Language names count as skills.
func extractSkills(repos []stage.Repository) extractedSkills {
	skills := map[string]struct{}{}
	frameworks := map[string]struct{}{}
	tools := map[string]struct{}{}
	for _, repo := range repos {
		for _, topic := range repo.Topics {
			lower := strings.ToLower(topic)
			switch {
			case has(frameworkTopics, lower):
				frameworks[topic] = struct{}{}
			case has(toolTopics, lower):
				tools[topic] = struct{}{}
			default:
				skills[topic] = struct{}{}
			}
		}
		for _, lang := range repo.Languages {
			skills[lang.Name] = struct{}{}
		}
	}
	return extractedSkills{
		skills:     sortedKeys(skills),
		frameworks: sortedKeys(frameworks),
		tools:      sortedKeys(tools),
	}
}

type domainRule struct {
	name       string
	short      string
	comment    string
	keywords   []string
	frameworks []string
}

// Order matters: ties keep table order.
var domainRules = []domainRule{
	{
		name:       "Frontend Development",
		short:      "Frontend",
		comment:    "Making things pretty, one div at a time. CSS is their love language. 💅",
		keywords:   []string{"react", "vue", "angular", "svelte", "next.js", "nuxt", "tailwind", "bootstrap", "css", "html", "sass"},
		frameworks: []string{"React", "Vue.js", "Angular", "Svelte", "Next.js"},
	},
	{
		name:       "Backend Development",
		short:      "Backend",
		comment:    "Server-side sorcerer. Where the real magic happens (and nobody sees it). ⚙️",
		keywords:   []string{"django", "flask", "fastapi", "express", "nest", "spring", "laravel", "rails"},
		frameworks: []string{"Django", "Flask", "FastAPI", "Express.js", "NestJS", "Spring Boot"},
	},
	{
		name:     "Data Science & ML",
		short:    "Data Scientist",
		comment:  "Turning data into insights. Or at least trying to. 📈",
		keywords: []string{"pandas", "numpy", "pytorch", "tensorflow", "scikit-learn", "jupyter", "matplotlib", "seaborn"},
	},
	{
		name:       "DevOps & Cloud",
		short:      "DevOps",
		comment:    "Keeps the servers running so you can keep complaining. The unsung hero. ☁️",
		keywords:   []string{"docker", "kubernetes", "terraform", "ansible", "jenkins", "github-actions", "aws", "azure", "gcp"},
		frameworks: []string{"Docker", "Kubernetes", "Terraform"},
	},
	{
		name:       "Mobile Development",
		short:      "Mobile",
		comment:    "Building apps that you'll definitely uninstall after one use. 📱",
		keywords:   []string{"react-native", "flutter", "expo", "swift", "kotlin", "android", "ios"},
		frameworks: []string{"React Native", "Flutter", "Expo"},
	},
	{
		name:       "Database & Storage",
		keywords:   []string{"mongodb", "postgresql", "mysql", "redis", "elasticsearch", "prisma", "typeorm"},
		frameworks: []string{"MongoDB", "PostgreSQL", "Prisma"},
	},
	{
		name:       "Testing & QA",
		keywords:   []string{"jest", "pytest", "cypress", "playwright", "selenium", "mocha", "vitest"},
		frameworks: []string{"Jest", "Pytest", "Cypress"},
	},
	{
		name:     "Web3 & Blockchain",
		short:    "Web3",
		comment:  "Riding the blockchain wave! 🌊 Either building the future or the next crypto crash. Time will tell.",
		keywords: []string{"solidity", "ethereum", "web3", "blockchain", "smart-contract", "ethers", "hardhat", "truffle", "crypto", "nft", "defi"},
	},
	{
		name:       "AI & Machine Learning",
		short:      "AI/ML Engineer",
		comment:    "Teaching machines to think. Now if only we could teach them to debug... 🤖",
		keywords:   []string{"tensorflow", "pytorch", "keras", "scikit-learn", "opencv", "nlp", "deep-learning", "neural-network", "ml", "ai", "transformers", "huggingface"},
		frameworks: []string{"TensorFlow", "PyTorch"},
	},
	{
		name:     "Data Structures & Algorithms",
		short:    "Problem Solver",
		comment:  "LeetCode warrior spotted! Probably dreams in O(log n). 📊",
		keywords: []string{"leetcode", "algorithm", "data-structure", "competitive-programming", "dsa", "sorting", "graph", "tree", "dynamic-programming"},
	},
	{
		name:     "Automation & Scripting",
		comment:  "Why do it yourself when you can write a script? Peak lazy = peak efficient. 🤖",
		keywords: []string{"automation", "script", "selenium", "puppeteer", "playwright", "bot", "scraping", "beautifulsoup", "scrapy"},
	},
	{
		name:       "Game Development",
		short:      "Game Dev",
		comment:    "Making pixels dance since... well, since they started coding. 🎮",
		keywords:   []string{"unity", "unreal", "godot", "game", "pygame", "phaser", "three.js", "webgl", "gamedev"},
		frameworks: []string{"Unity", "Unreal Engine"},
	},
	{
		name:     "Cybersecurity",
		short:    "Security",
		comment:  "The digital locksmith. Breaks things professionally. 🔐",
		keywords: []string{"security", "penetration-testing", "ethical-hacking", "cybersecurity", "ctf", "vulnerability", "encryption"},
	},
}

// mapDomains scores every domain: one point per keyword found among the
// skills, two per framework found among topic frameworks or detected tech.
func mapDomains(skills extractedSkills, repos []stage.Repository) stage.SkillDomains {
	lowerSkills := make(map[string]struct{}, len(skills.skills))
	for _, s := range skills.skills {
		lowerSkills[strings.ToLower(s)] = struct{}{}
	}
	known := make(map[string]struct{})
	for _, f := range skills.frameworks {
		known[strings.ToLower(f)] = struct{}{}
	}
	for _, repo := range repos {
		for _, tech := range repo.TechStack {
			known[strings.ToLower(tech)] = struct{}{}
		}
	}

	title := cases.Title(language.English)
	var scored []stage.Domain
	for _, rule := range domainRules {
		d := stage.Domain{Name: rule.name, Technologies: []string{}}
		for _, kw := range rule.keywords {
			if has(lowerSkills, kw) {
				d.Score++
				d.Technologies = append(d.Technologies, title.String(kw))
			}
		}
		for _, fw := range rule.frameworks {
			if has(known, strings.ToLower(fw)) {
				d.Score += 2
				d.Technologies = append(d.Technologies, fw)
			}
		}
		if d.Score > 0 {
			scored = append(scored, d)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	out := stage.SkillDomains{
		Primary:     scored[:min(len(scored), maxPrimaryDomains)],
		Count:       len(scored),
		IsFullStack: len(scored) >= fullStackDomains,
		Comment:     domainComment(scored),
		Skills:      skills.skills,
		Frameworks:  skills.frameworks,
		Tools:       skills.tools,
	}
	if out.Primary == nil {
		out.Primary = []stage.Domain{}
	}
	return out
}

func domainComment(sorted []stage.Domain) string {
	if len(sorted) == 0 {
		return "Jack of all trades, master of... we're still figuring that out. 🤔"
	}
	if rule, ok := lookupDomain(sorted[0].Name); ok && rule.comment != "" {
		return rule.comment
	}
	switch n := len(sorted); {
	case n >= 5:
		return "Full-stack? More like FULL-EVERYTHING. This person doesn't sleep, they just context-switch. 🎯"
	case n >= 3:
		return "Versatile af. Can't decide on one thing, so why not do them all? 🔄"
	case n == 2:
		return "The classic hybrid. Two domains, double the imposter syndrome. 💪"
	default:
		return "Laser-focused specialist. One domain to rule them all. 🎯"
	}
}

func lookupDomain(name string) (domainRule, bool) {
	for _, rule := range domainRules {
		if rule.name == name {
			return rule, true
		}
	}
	return domainRule{}, false
}

func set(values ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func has(m map[string]struct{}, key string) bool {
	_, ok := m[key]
	return ok
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
