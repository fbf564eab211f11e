package app

import (
	"os"
	"time"
)

// SwitchState remembers which source the document was last replaced with.
type SwitchState struct {
	Version        int    `json:"version"`
	ActiveSource   string `json:"activeSource,omitempty"`
	PreviousSource string `json:"previousSource,omitempty"`
	SourcePath     string `json:"sourcePath,omitempty"`
	LastSwitchAt   string `json:"lastSwitchAt,omitempty"`
}

func loadSwitchState(paths DocumentPaths) (SwitchState, error) {
	var s SwitchState
	err := readJSONFile(paths.StatePath, &s)
	if err != nil {
		if os.IsNotExist(err) {
			return SwitchState{Version: 1}, nil
		}
		return SwitchState{}, err
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return s, nil
}

func saveSwitchState(paths DocumentPaths, state SwitchState, now time.Time) error {
	state.Version = 1
	if state.LastSwitchAt == "" {
		state.LastSwitchAt = now.UTC().Format(time.RFC3339)
	}
	return writeJSONAtomic(paths.StatePath, state)
}
