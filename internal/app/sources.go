package app

import (
	"errors"
	"os"

	"go.uber.org/zap"
)

// Sources lists the configured sources with a quick look at their content.
// A missing or broken source is reported, not returned as an error.
func (s *Service) Sources() []SourceInfo {
	state, err := loadSwitchState(s.paths)
	if err != nil {
		s.logger.Warn("unreadable switch state", zap.String("state", s.paths.StatePath), zap.Error(err))
	}

	names := s.cfg.SourceNames()
	out := make([]SourceInfo, 0, len(names))
	for _, name := range names {
		info := SourceInfo{
			Name:    name,
			Path:    s.cfg.Sources[name],
			Default: name == s.cfg.DefaultSource,
			Active:  name == state.ActiveSource,
		}
		doc, err := loadDocument(info.Path)
		switch {
		case err == nil:
			info.Exists = true
			info.Categories = doc.Len()
			info.Items = doc.ItemCount()
		case errors.Is(err, ErrMissingFile):
		default:
			if _, statErr := os.Stat(info.Path); statErr == nil {
				info.Exists = true
			}
			info.Error = err.Error()
		}
		out = append(out, info)
	}
	return out
}
