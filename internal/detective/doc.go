// Package detective implements the first pipeline stage: it gathers
// everything GitHub knows about a login and returns a *stage.Profile.
//
// The Detective fetches the user in one GraphQL query, then picks up to
// max_repos repositories (pinned first, then by stars) and fetches each
// repository's root tree and README in parallel to detect its tech stack.
// Profiles are cached per login when a cache is configured.
package detective
