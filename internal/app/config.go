package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataFile          = "hello.json"
	DefaultSource            = "free"
	DefaultExcludeCategories = 2
)

var defaultConfigNames = []string{"wallpapers.toml", "wallpapers.yaml", "wallpapers.yml"}

func defaultSources() map[string]string {
	return map[string]string{
		"free": "Free.json",
		"paid": "paid.json",
	}
}

// Config is the resolved configuration. All paths are absolute.
type Config struct {
	Path              string            `json:"path,omitempty"`
	BaseDir           string            `json:"baseDir"`
	DataPath          string            `json:"dataPath"`
	DefaultSource     string            `json:"defaultSource"`
	ExcludeCategories int               `json:"excludeCategories"`
	Backup            bool              `json:"backup"`
	Sources           map[string]string `json:"sources"`
}

type configFile struct {
	DataFile          string            `toml:"data_file" yaml:"data_file"`
	DefaultSource     string            `toml:"default_source" yaml:"default_source"`
	ExcludeCategories *int              `toml:"exclude_categories" yaml:"exclude_categories"`
	Backup            *bool             `toml:"backup" yaml:"backup"`
	Sources           map[string]string `toml:"sources" yaml:"sources"`
}

// LoadConfig reads the config file named by path, $WALLPAPERS_CONFIG or a
// wallpapers.{toml,yaml,yml} in the base directory. Without any of them the
// built-in defaults apply.
func LoadConfig(path string) (Config, error) {
	path = firstNonEmpty(path, os.Getenv("WALLPAPERS_CONFIG"))
	if path == "" {
		found, err := findDefaultConfig()
		if err != nil {
			return Config{}, err
		}
		path = found
	}

	var raw configFile
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return Config{}, err
		}
		path = abs
		if err := decodeConfigFile(path, &raw); err != nil {
			return Config{}, err
		}
	}

	base, err := resolveBaseDir(path)
	if err != nil {
		return Config{}, err
	}
	return buildConfig(raw, path, base)
}

func findDefaultConfig() (string, error) {
	base, err := resolveBaseDir("")
	if err != nil {
		return "", err
	}
	for _, name := range defaultConfigNames {
		candidate := filepath.Join(base, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func decodeConfigFile(path string, out *configFile) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config %s: %w", path, ErrMissingFile)
		}
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(bytes, out)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, out)
	default:
		return fmt.Errorf("unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func buildConfig(raw configFile, path string, base string) (Config, error) {
	cfg := Config{
		Path:              path,
		BaseDir:           base,
		DataPath:          resolvePath(firstNonEmpty(raw.DataFile, DefaultDataFile), base),
		DefaultSource:     strings.ToLower(firstNonEmpty(raw.DefaultSource, DefaultSource)),
		ExcludeCategories: DefaultExcludeCategories,
		Backup:            true,
		Sources:           map[string]string{},
	}
	if raw.ExcludeCategories != nil {
		cfg.ExcludeCategories = *raw.ExcludeCategories
	}
	if raw.Backup != nil {
		cfg.Backup = *raw.Backup
	}

	sources := raw.Sources
	if len(sources) == 0 {
		sources = defaultSources()
	}
	for name, file := range sources {
		name = strings.ToLower(strings.TrimSpace(name))
		if err := validateSourceName(name); err != nil {
			return Config{}, err
		}
		if strings.TrimSpace(file) == "" {
			return Config{}, fmt.Errorf("source %q has an empty path", name)
		}
		cfg.Sources[name] = resolvePath(strings.TrimSpace(file), base)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ExcludeCategories < 0 {
		return fmt.Errorf("exclude_categories must be >= 0, got %d", c.ExcludeCategories)
	}
	if strings.TrimSpace(c.DataPath) == "" {
		return fmt.Errorf("data_file is required")
	}
	if _, ok := c.Sources[c.DefaultSource]; !ok {
		return fmt.Errorf("default_source %q is not one of: %s", c.DefaultSource, strings.Join(c.SourceNames(), ", "))
	}
	return nil
}

func (c Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
