// Package ghostwriter writes the final README from a profile, its analysis,
// and the user's tone and style preferences.
//
// With an LLM configured the package builds a system prompt from tone and
// style instructions and a user prompt from the collected data, then
// post-processes the model output so every README carries a stats block and
// at least one badge. Without an LLM it renders a deterministic template
// with the same sections.
package ghostwriter
