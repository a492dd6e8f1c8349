//go:build windows

package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

func configSearchPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, "diskwatch", "config.yaml"),
		filepath.Join(os.Getenv("ProgramData"), "diskwatch", "config.yaml"),
	}
}
