// Package secrets resolves credentials that settings reference indirectly,
// either as ${VAR} environment references or as mounted secret files.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/danbi-garden/danbi/internal/errors"
)

// maxFileSize bounds secret file reads. API keys and push URLs are short.
const maxFileSize = 64 * 1024

// Expand replaces ${VAR} and ${VAR:-fallback} references with environment
// values. A reference without a fallback to an unset variable is an error,
// so a missing key fails at startup instead of at the first request.
func Expand(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing environment variable(s): %s", strings.Join(missing, ", ")).
			Category(errors.CategoryConfiguration).
			Component("secrets").
			Build()
	}
	return expanded, nil
}

// ReadFile reads a secret from a file such as a container secret mount.
// Trailing newlines are dropped.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", fileError("secret file path is empty", path, nil)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "", fileError("secret file is not readable", path, err)
	case !info.Mode().IsRegular():
		return "", fileError("secret path is not a regular file", path, nil)
	case info.Size() > maxFileSize:
		return "", fileError("secret file is too large", path, nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fileError("failed to read secret file", path, err)
	}
	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fileError("secret file is empty", path, nil)
	}
	return secret, nil
}

// Resolve returns the secret from file when set, otherwise value with
// environment references expanded.
func Resolve(file, value string) (string, error) {
	if file != "" {
		return ReadFile(file)
	}
	return Expand(value)
}

func fileError(msg, path string, cause error) error {
	var b *errors.ErrorBuilder
	if cause != nil {
		b = errors.Newf("%s: %w", msg, cause)
	} else {
		b = errors.Newf("%s", msg)
	}
	return b.Category(errors.CategoryConfiguration).
		Component("secrets").
		Context("path", path).
		Build()
}
