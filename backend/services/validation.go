// ABOUTME: Input validation for identifiers that end up in model server URLs
// ABOUTME: Prevents URL injection via model names and path traversal via key paths

package services

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// modelNamePattern matches TF Serving model names (alphanumeric, dots, hyphens, underscores)
var modelNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1 // Remove control characters
		}
		return r
	}, s)
}

// ValidateModelName validates that a model name is safe to embed in a URL path
func ValidateModelName(name string) error {
	if name == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if strings.Contains(name, "..") || !modelNamePattern.MatchString(name) {
		return fmt.Errorf("invalid model name format: %s", sanitizeForLog(name))
	}
	return nil
}

// ValidateSSHKeyPath checks that path names an existing regular file and
// contains no traversal segments, before or after URL decoding.
func ValidateSSHKeyPath(path string) (string, error) {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("invalid key path encoding: %w", err)
	}
	for _, p := range []string{path, decoded} {
		for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
			if seg == ".." {
				return "", fmt.Errorf("key path must not contain '..': %s", sanitizeForLog(path))
			}
		}
	}

	clean := filepath.Clean(decoded)
	info, err := os.Stat(clean)
	if err != nil {
		return "", fmt.Errorf("key path not accessible: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("key path is not a regular file: %s", sanitizeForLog(path))
	}
	return clean, nil
}
