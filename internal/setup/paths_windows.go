//go:build windows

package setup

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

func ResolvePaths(mode InstallMode) Paths {
	if mode == ModeUser {
		configDir := filepath.Join(xdg.ConfigHome, "Diskwatch")
		dataDir := filepath.Join(xdg.DataHome, "Diskwatch")
		return Paths{
			ConfigDir:   configDir,
			ConfigPath:  filepath.Join(configDir, "config.yaml"),
			DataDir:     dataDir,
			HistoryPath: filepath.Join(dataDir, "history.db"),
		}
	}
	base := filepath.Join(os.Getenv("ProgramData"), "Diskwatch")
	return Paths{
		ConfigDir:   base,
		ConfigPath:  filepath.Join(base, "config.yaml"),
		DataDir:     base,
		HistoryPath: filepath.Join(base, "history.db"),
	}
}
