package detective

import (
	"sort"
	"strings"

	"quill/internal/services/github"
)

type techRule struct {
	name  string
	files []string
	dirs  []string
	exts  []string
}

// Only root-level entries are available, so nested markers such as
// .github/workflows/ match on their top directory.
var techRules = []techRule{
	{name: "React", exts: []string{".jsx", ".tsx"}},
	{name: "Next.js", files: []string{"next.config.js", "next.config.ts", "next.config.mjs"}},
	{name: "Vue.js", files: []string{"vue.config.js"}, exts: []string{".vue"}},
	{name: "Nuxt.js", files: []string{"nuxt.config.js", "nuxt.config.ts"}},
	{name: "Angular", files: []string{"angular.json"}},
	{name: "Svelte", files: []string{"svelte.config.js"}, exts: []string{".svelte"}},
	{name: "Tailwind CSS", files: []string{"tailwind.config.js", "tailwind.config.ts", "tailwind.config.cjs"}},
	{name: "Sass/SCSS", files: []string{"sass.config.js"}, exts: []string{".scss", ".sass"}},
	{name: "Less", files: []string{"less.config.js"}, exts: []string{".less"}},
	{name: "PostCSS", files: []string{"postcss.config.js", "postcss.config.cjs"}},
	{name: "NestJS", files: []string{"nest-cli.json"}},
	{name: "Django", files: []string{"manage.py"}},
	{name: "Ruby on Rails", files: []string{"config.ru"}},
	{name: "Laravel", files: []string{"artisan"}},
	{name: "SQLite", exts: []string{".sqlite", ".db"}},
	{name: "Prisma", dirs: []string{"prisma"}},
	{name: "Webpack", files: []string{"webpack.config.js", "webpack.config.ts"}},
	{name: "Vite", files: []string{"vite.config.js", "vite.config.ts"}},
	{name: "Rollup", files: []string{"rollup.config.js"}},
	{name: "Parcel", files: []string{".parcelrc"}},
	{name: "Jest", files: []string{"jest.config.js", "jest.config.ts"}},
	{name: "Vitest", files: []string{"vitest.config.js", "vitest.config.ts"}},
	{name: "Pytest", files: []string{"pytest.ini", "conftest.py"}},
	{name: "Cypress", files: []string{"cypress.json", "cypress.config.js", "cypress.config.ts"}, dirs: []string{"cypress"}},
	{name: "Playwright", files: []string{"playwright.config.js", "playwright.config.ts"}},
	{name: "Docker", files: []string{"dockerfile", "docker-compose.yml", "docker-compose.yaml", "compose.yaml", ".dockerignore"}},
	{name: "Kubernetes", files: []string{"deployment.yaml", "kustomization.yaml"}, dirs: []string{"k8s", "charts"}},
	{name: "Terraform", files: []string{"terraform.tfvars"}, exts: []string{".tf"}},
	{name: "GitHub Actions", dirs: []string{".github"}},
	{name: "CircleCI", dirs: []string{".circleci"}},
	{name: "npm", files: []string{"package.json", "package-lock.json"}},
	{name: "Yarn", files: []string{"yarn.lock", ".yarnrc.yml"}},
	{name: "pnpm", files: []string{"pnpm-lock.yaml", "pnpm-workspace.yaml"}},
	{name: "pip", files: []string{"requirements.txt", "pipfile"}},
	{name: "Poetry", files: []string{"poetry.lock"}},
	{name: "Maven", files: []string{"pom.xml"}},
	{name: "Gradle", files: []string{"build.gradle", "build.gradle.kts", "settings.gradle"}},
	{name: "Go Modules", files: []string{"go.mod"}},
	{name: "Cargo", files: []string{"cargo.toml"}},
	{name: "ESLint", files: []string{".eslintrc", ".eslintrc.js", ".eslintrc.json", "eslint.config.js"}},
	{name: "Prettier", files: []string{".prettierrc", "prettier.config.js"}},
	{name: "Ruff", files: []string{"ruff.toml"}},
	{name: "TypeScript", files: []string{"tsconfig.json"}, exts: []string{".ts", ".tsx"}},
	{name: "Expo", files: []string{"app.json", "eas.json"}},
	{name: "Flutter", files: []string{"pubspec.yaml"}, exts: []string{".dart"}},
}

// DetectTechStack matches root tree entries against file-name, directory,
// and extension patterns. The result is sorted and free of duplicates.
func DetectTechStack(entries []github.TreeEntry) []string {
	files := make(map[string]struct{}, len(entries))
	dirs := make(map[string]struct{})
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := strings.ToLower(strings.TrimSpace(entry.Name))
		if name == "" {
			continue
		}
		if entry.Type == "tree" {
			dirs[name] = struct{}{}
			continue
		}
		files[name] = struct{}{}
		names = append(names, name)
	}

	var detected []string
	for _, rule := range techRules {
		if matchRule(rule, files, dirs, names) {
			detected = append(detected, rule.name)
		}
	}
	sort.Strings(detected)
	return detected
}

func matchRule(rule techRule, files, dirs map[string]struct{}, names []string) bool {
	for _, f := range rule.files {
		if _, ok := files[f]; ok {
			return true
		}
	}
	for _, d := range rule.dirs {
		if _, ok := dirs[d]; ok {
			return true
		}
	}
	for _, ext := range rule.exts {
		for _, name := range names {
			if strings.HasSuffix(name, ext) {
				return true
			}
		}
	}
	return false
}
