package app

import (
	"os"
	"path/filepath"
	"strings"
)

const backupSuffix = ".backup"

// DocumentPaths are the files that live next to the primary document.
type DocumentPaths struct {
	DataPath   string `json:"dataPath"`
	BackupPath string `json:"backupPath"`
	StatePath  string `json:"statePath"`
	LockPath   string `json:"lockPath"`
}

func documentPaths(dataPath string) DocumentPaths {
	dir := filepath.Dir(dataPath)
	base := filepath.Base(dataPath)
	return DocumentPaths{
		DataPath:   dataPath,
		BackupPath: dataPath + backupSuffix,
		StatePath:  filepath.Join(dir, "."+base+".switch-state.json"),
		LockPath:   filepath.Join(dir, "."+base+".lock"),
	}
}

// resolveBaseDir picks the directory relative paths are resolved against:
// WALLPAPERS_HOME, then the config file's directory, then the working directory.
func resolveBaseDir(configPath string) (string, error) {
	home, _ := os.UserHomeDir()
	if env := strings.TrimSpace(os.Getenv("WALLPAPERS_HOME")); env != "" {
		return resolvePathWithHome(env, home), nil
	}
	if configPath != "" {
		return filepath.Dir(configPath), nil
	}
	return os.Getwd()
}

func resolvePath(raw string, base string) string {
	home, _ := os.UserHomeDir()
	resolved := resolvePathWithHome(raw, home)
	if filepath.IsAbs(resolved) || base == "" {
		return resolved
	}
	return filepath.Join(base, resolved)
}

func resolvePathWithHome(raw string, home string) string {
	if home != "" {
		if strings.HasPrefix(raw, "~/") {
			return filepath.Join(home, strings.TrimPrefix(raw, "~/"))
		}
		if strings.HasPrefix(raw, "~\\") {
			return filepath.Join(home, strings.TrimPrefix(raw, "~\\"))
		}
		if raw == "~" {
			return home
		}
	}
	return filepath.Clean(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
