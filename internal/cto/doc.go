// Package cto turns a collected GitHub profile into a deterministic
// technical assessment: language dominance, skill domains, grind score,
// tech diversity, key projects, archetype, and impact.
//
// The analysis makes no network calls. Given the same profile and clock it
// always produces the same result, which keeps generated READMEs stable
// across retries.
package cto
