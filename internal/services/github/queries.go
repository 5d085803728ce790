package github

const userQuery = `
query($login: String!) {
  user(login: $login) {
    name
    login
    bio
    company
    location
    email
    websiteUrl
    twitterUsername
    avatarUrl
    createdAt
    isHireable
    followers { totalCount }
    following { totalCount }
    contributionsCollection {
      contributionCalendar {
        totalContributions
        weeks { contributionDays { contributionCount date } }
      }
      totalCommitContributions
      totalIssueContributions
      totalPullRequestContributions
      totalPullRequestReviewContributions
    }
    repositories(first: 100, orderBy: {field: STARGAZERS, direction: DESC}, ownerAffiliations: OWNER, privacy: PUBLIC) {
      totalCount
      nodes {
        name
        description
        url
        stargazerCount
        forkCount
        primaryLanguage { name color }
        languages(first: 10) { edges { size node { name color } } }
        repositoryTopics(first: 10) { nodes { topic { name } } }
        createdAt
        updatedAt
        isFork
        isArchived
        licenseInfo { name }
      }
    }
    pinnedItems(first: 6, types: REPOSITORY) {
      nodes { ... on Repository { name } }
    }
    socialAccounts(first: 10) {
      edges { node { provider url displayName } }
    }
  }
}`

const repoDetailsQuery = `
query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    object(expression: "HEAD:") {
      ... on Tree { entries { name type path } }
    }
    readme: object(expression: "HEAD:README.md") { ... on Blob { text } }
    readmeLower: object(expression: "HEAD:readme.md") { ... on Blob { text } }
  }
}`

const profileReadmeQuery = `
query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    object(expression: "HEAD:README.md") { ... on Blob { text } }
  }
}`

const viewerQuery = `
query {
  viewer { login }
  rateLimit { remaining limit resetAt }
}`
