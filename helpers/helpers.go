package helpers

import (
	"os"
	"path/filepath"
)

var dataDirPath = ""

func SetDataDirPath(newPath string) error {
	// NOTE: when path does not exist, use GetOrInitializeDataDir
	dataDirPath = newPath
	return nil
}

// GetDataDirPath returns the directory holding the analysis-history
// database: the path set by SetDataDirPath, else ANGEL_LSP_DIR, else
// ~/.angel-lsp.
func GetDataDirPath() string {
	if envPath := os.Getenv("ANGEL_LSP_DIR"); len(envPath) != 0 && len(dataDirPath) == 0 {
		SetDataDirPath(envPath)
	}

	if len(dataDirPath) != 0 {
		return dataDirPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		if homeEnv := os.Getenv("HOME"); len(homeEnv) != 0 {
			homeDir = homeEnv
		} else {
			homeDir = os.TempDir()
		}
	}

	return filepath.Join(homeDir, ".angel-lsp")
}

func GetOrInitializeDataDir() (string, error) {
	dirPath := GetDataDirPath()
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		if err := os.MkdirAll(dirPath, 0755); err != nil {
			return "", err
		}
	}

	return dirPath, nil
}
