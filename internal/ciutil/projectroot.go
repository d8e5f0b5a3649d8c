package ciutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Project root marker files
const (
	GoModFile    = "go.mod" // Primary marker file for Go projects
	GitDirectory = ".git"   // Git directory marker
)

// maxTraversal limits how many parent directories are inspected.
const maxTraversal = 32

// Common errors for project root detection
var (
	ErrProjectRootNotFound = errors.New("unable to find project root")
	ErrInvalidProjectRoot  = errors.New("invalid project root: no go.mod file found")
)

// FindProjectRoot returns the absolute path to the project root directory.
// It checks several sources in the following order:
//
// 1. TESTSIZE_PROJECT_ROOT environment variable (explicit override)
// 2. GITHUB_WORKSPACE environment variable (GitHub Actions)
// 3. CI_PROJECT_DIR environment variable (GitLab CI)
// 4. Auto-detection by traversing directories upward from the working
// directory, looking for go.mod
func FindProjectRoot(logger *slog.Logger) (string, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return FindProjectRootFrom(workingDir, logger)
}

// FindProjectRootFrom is FindProjectRoot with an explicit starting directory
// for the upward traversal.
func FindProjectRootFrom(startDir string, logger *slog.Logger) (string, error) {
	if projectRoot := os.Getenv(EnvProjectRoot); projectRoot != "" {
		logDebug(logger, "Using project root from environment", "var", EnvProjectRoot, "project_root", projectRoot)
		return validProjectRoot(projectRoot)
	}

	if IsGitHubActions() {
		workspace := os.Getenv(EnvGitHubWorkspace)
		logDebug(logger, "Using project root from GitHub Actions workspace", "github_workspace", workspace)
		return validProjectRoot(workspace)
	}

	if IsGitLabCI() {
		projectDir := os.Getenv(EnvGitLabProjectDir)
		logDebug(logger, "Using project root from GitLab CI project directory", "gitlab_project_dir", projectDir)
		return validProjectRoot(projectDir)
	}

	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}
	return findProjectRootByTraversal(absStart, logger)
}

// findProjectRootByTraversal looks for project markers by traversing directories upward.
// A directory holding go.mod wins; a .git directory is accepted as a fallback.
func findProjectRootByTraversal(startDir string, logger *slog.Logger) (string, error) {
	currentDir := startDir

	for i := 0; i < maxTraversal; i++ {
		if fileExists(filepath.Join(currentDir, GoModFile)) {
			logDebug(logger, "Found project root with go.mod", "project_root", currentDir)
			return currentDir, nil
		}

		if dirExists(filepath.Join(currentDir, GitDirectory)) {
			logDebug(logger, "Found project root with .git directory", "project_root", currentDir)
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("%w above %s", ErrProjectRootNotFound, startDir)
}

func validProjectRoot(dir string) (string, error) {
	if !dirExists(dir) || !fileExists(filepath.Join(dir, GoModFile)) {
		return "", fmt.Errorf("%w at %s", ErrInvalidProjectRoot, dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	return abs, nil
}

func logDebug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
