package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const switchIndent = "    "

type SwitchOptions struct {
	// Source is the selection token; empty means the configured default.
	Source   string
	DryRun   bool
	NoBackup bool
}

// ResolveSource maps a selection token to a configured source. It never
// touches the filesystem.
func (s *Service) ResolveSource(token string) (string, string, error) {
	name := strings.ToLower(strings.TrimSpace(token))
	if name == "" {
		name = s.cfg.DefaultSource
	}
	path, ok := s.cfg.Sources[name]
	if !ok {
		return "", "", WrapExit(ExitUserError, fmt.Errorf("%w %q (choose one of: %s)", ErrUnknownSource, token, strings.Join(s.cfg.SourceNames(), ", ")))
	}
	return name, path, nil
}

// Switch replaces the document with the selected source document. Nothing
// is written until the token, both files and the source's JSON check out.
func (s *Service) Switch(opts SwitchOptions) (SwitchResult, error) {
	name, sourcePath, err := s.ResolveSource(opts.Source)
	if err != nil {
		return SwitchResult{}, err
	}
	log := s.logger.With(zap.String("source", name), zap.String("path", s.paths.DataPath))

	if err := requireFile(s.paths.DataPath); err != nil {
		return SwitchResult{}, WrapExit(ExitInputError, err)
	}
	source, err := loadDocument(sourcePath)
	if err != nil {
		return SwitchResult{}, err
	}
	if source.Len() == 0 {
		return SwitchResult{}, WrapExit(ExitInputError, fmt.Errorf("%s: %w", sourcePath, ErrEmptySource))
	}
	rendered, err := source.MarshalIndent(switchIndent)
	if err != nil {
		return SwitchResult{}, WrapExit(ExitIOFailure, fmt.Errorf("render %s: %w", sourcePath, err))
	}
	rendered = append(rendered, '\n')

	result := SwitchResult{
		Source:     name,
		SourcePath: sourcePath,
		DataPath:   s.paths.DataPath,
		Categories: source.Summary(),
		Items:      source.ItemCount(),
		DryRun:     opts.DryRun,
	}
	state, err := loadSwitchState(s.paths)
	if err != nil {
		log.Warn("unreadable switch state", zap.String("state", s.paths.StatePath), zap.Error(err))
		state = SwitchState{Version: 1}
	}
	result.PreviousSource = state.ActiveSource

	if opts.DryRun {
		log.Debug("dry run, document not written", zap.Int("categories", len(result.Categories)))
		return result, nil
	}

	lock, err := s.lockDocument()
	if err != nil {
		return SwitchResult{}, err
	}
	defer s.releaseLock(lock)

	if s.cfg.Backup && !opts.NoBackup {
		if err := copyFile(s.paths.DataPath, s.paths.BackupPath); err != nil {
			log.Warn("backup failed", zap.String("backup", s.paths.BackupPath), zap.Error(err))
			result.Warnings = append(result.Warnings, fmt.Sprintf("could not create backup: %v", err))
		} else {
			result.BackupPath = s.paths.BackupPath
			result.BackedUp = true
			log.Debug("backup created", zap.String("backup", s.paths.BackupPath))
		}
	}

	if err := writeFileAtomic(s.paths.DataPath, rendered, 0o644); err != nil {
		return SwitchResult{}, WrapExit(ExitIOFailure, fmt.Errorf("write %s: %w", s.paths.DataPath, err))
	}

	next := SwitchState{
		ActiveSource: name,
		SourcePath:   sourcePath,
	}
	if state.ActiveSource != name {
		next.PreviousSource = state.ActiveSource
	} else {
		next.PreviousSource = state.PreviousSource
	}
	if err := saveSwitchState(s.paths, next, s.clock.Now()); err != nil {
		log.Warn("save switch state", zap.String("state", s.paths.StatePath), zap.Error(err))
		result.Warnings = append(result.Warnings, fmt.Sprintf("could not record switch state: %v", err))
	}

	log.Info("switched document",
		zap.String("sourcePath", sourcePath),
		zap.Int("categories", source.Len()),
		zap.Int("items", source.ItemCount()),
		zap.Bool("backedUp", result.BackedUp),
	)
	return result, nil
}
