package app

type ShuffleResult struct {
	DataPath   string   `json:"dataPath"`
	Categories int      `json:"categories"`
	Excluded   int      `json:"excluded"`
	Shuffled   int      `json:"shuffled"`
	Items      int      `json:"items"`
	Order      []string `json:"order"`
	Bytes      int      `json:"bytes"`
	DryRun     bool     `json:"dryRun,omitempty"`

	Rendered []byte `json:"-"`
}

type SwitchResult struct {
	Source         string            `json:"source"`
	SourcePath     string            `json:"sourcePath"`
	DataPath       string            `json:"dataPath"`
	BackupPath     string            `json:"backupPath,omitempty"`
	BackedUp       bool              `json:"backedUp"`
	PreviousSource string            `json:"previousSource,omitempty"`
	Categories     []CategorySummary `json:"categories"`
	Items          int               `json:"items"`
	Warnings       []string          `json:"warnings,omitempty"`
	DryRun         bool              `json:"dryRun,omitempty"`
}

type SourceInfo struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Exists     bool   `json:"exists"`
	Default    bool   `json:"default,omitempty"`
	Active     bool   `json:"active,omitempty"`
	Categories int    `json:"categories"`
	Items      int    `json:"items"`
	Error      string `json:"error,omitempty"`
}
