//go:build !windows

package setup

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

func ResolvePaths(mode InstallMode) Paths {
	if mode == ModeUser {
		dataDir := filepath.Join(xdg.DataHome, "diskwatch")
		return Paths{
			ConfigDir:   filepath.Join(xdg.ConfigHome, "diskwatch"),
			ConfigPath:  filepath.Join(xdg.ConfigHome, "diskwatch", "config.yaml"),
			DataDir:     dataDir,
			HistoryPath: filepath.Join(dataDir, "history.db"),
		}
	}
	return Paths{
		ConfigDir:   "/etc/diskwatch",
		ConfigPath:  "/etc/diskwatch/config.yaml",
		DataDir:     "/var/lib/diskwatch",
		HistoryPath: "/var/lib/diskwatch/history.db",
	}
}
