package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/danbi-garden/danbi/internal/errors"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order. The first entry is where a default config is created.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "get-home-directory").
			Component("conf").
			Build()
	}

	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(homeDir, "AppData", "Roaming", "danbi"),
			".",
		}, nil
	default:
		return []string{
			filepath.Join(homeDir, ".config", "danbi"),
			".",
			"/etc/danbi",
		}, nil
	}
}
