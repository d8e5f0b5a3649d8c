package ciutil

import (
	"log/slog"
	"os"
)

// Common environment variable names used across the codebase.
const (
	// CI environment detection variables
	EnvCI               = "CI"
	EnvGitHubActions    = "GITHUB_ACTIONS"
	EnvGitHubWorkspace  = "GITHUB_WORKSPACE"
	EnvGitLabCI         = "GITLAB_CI"
	EnvGitLabProjectDir = "CI_PROJECT_DIR"
	EnvJenkinsURL       = "JENKINS_URL"
	EnvTravisCI         = "TRAVIS"
	EnvCircleCI         = "CIRCLECI"

	// CI metadata variables
	EnvGitHubRunID  = "GITHUB_RUN_ID"
	EnvGitHubSHA    = "GITHUB_SHA"
	EnvGitHubRef    = "GITHUB_REF"
	EnvGitLabJobID  = "CI_JOB_ID"
	EnvGitLabSHA    = "CI_COMMIT_SHA"
	EnvGitLabBranch = "CI_COMMIT_REF_NAME"

	// Project-specific environment variables
	EnvProjectRoot = "TESTSIZE_PROJECT_ROOT"
)

// Provider names returned by Provider.
const (
	ProviderNone          = ""
	ProviderGitHubActions = "github-actions"
	ProviderGitLabCI      = "gitlab-ci"
	ProviderJenkins       = "jenkins"
	ProviderTravis        = "travis"
	ProviderCircleCI      = "circleci"
	ProviderGeneric       = "generic"
)

// IsCI returns true if the current environment is a CI environment.
// It checks for common CI environment variables across different CI providers.
func IsCI() bool {
	return os.Getenv(EnvCI) != "" ||
		os.Getenv(EnvGitHubActions) != "" ||
		os.Getenv(EnvGitLabCI) != "" ||
		os.Getenv(EnvJenkinsURL) != "" ||
		os.Getenv(EnvTravisCI) != "" ||
		os.Getenv(EnvCircleCI) != ""
}

// IsGitHubActions returns true if the current environment is GitHub Actions.
func IsGitHubActions() bool {
	return os.Getenv(EnvGitHubActions) != "" && os.Getenv(EnvGitHubWorkspace) != ""
}

// IsGitLabCI returns true if the current environment is GitLab CI.
func IsGitLabCI() bool {
	return os.Getenv(EnvGitLabCI) != "" && os.Getenv(EnvGitLabProjectDir) != ""
}

// Provider names the CI provider, or returns ProviderNone outside CI.
func Provider() string {
	switch {
	case os.Getenv(EnvGitHubActions) != "":
		return ProviderGitHubActions
	case os.Getenv(EnvGitLabCI) != "":
		return ProviderGitLabCI
	case os.Getenv(EnvJenkinsURL) != "":
		return ProviderJenkins
	case os.Getenv(EnvTravisCI) != "":
		return ProviderTravis
	case os.Getenv(EnvCircleCI) != "":
		return ProviderCircleCI
	case os.Getenv(EnvCI) != "":
		return ProviderGeneric
	default:
		return ProviderNone
	}
}

// Metadata returns CI run information suitable for attaching to log records.
// Only variables that are set are included. Outside CI the map is empty.
func Metadata() map[string]string {
	md := make(map[string]string)
	provider := Provider()
	if provider == ProviderNone {
		return md
	}
	md["ci_provider"] = provider

	add := func(key, envVar string) {
		if v := os.Getenv(envVar); v != "" {
			md[key] = v
		}
	}
	switch provider {
	case ProviderGitHubActions:
		add("ci_run_id", EnvGitHubRunID)
		add("ci_commit", EnvGitHubSHA)
		add("ci_ref", EnvGitHubRef)
	case ProviderGitLabCI:
		add("ci_run_id", EnvGitLabJobID)
		add("ci_commit", EnvGitLabSHA)
		add("ci_ref", EnvGitLabBranch)
	}
	return md
}

// GetEnvWithFallbacks returns the value of the first non-empty environment variable
// from the provided list. If no environment variables are set, it returns the defaultValue.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		if val := os.Getenv(envVar); val != "" {
			if i > 0 && logger != nil {
				logger.Debug("Using fallback environment variable",
					"used_var", envVar,
					"preferred_var", envVars[0],
				)
			}
			return val
		}
	}
	return defaultValue
}
