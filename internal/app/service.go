package app

import (
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X wallpaper-tools/internal/app.Version=...".
var Version = "dev"

type Service struct {
	cfg      Config
	paths    DocumentPaths
	logger   *zap.Logger
	clock    clockwork.Clock
	perm     PermFunc
	lockWait time.Duration
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithPermFunc replaces the time-seeded shuffle, mostly for tests that need
// a fixed order.
func WithPermFunc(perm PermFunc) Option {
	return func(s *Service) {
		s.perm = perm
	}
}

// WithLockWait bounds how long a write waits for another run's lock.
func WithLockWait(wait time.Duration) Option {
	return func(s *Service) {
		if wait >= 0 {
			s.lockWait = wait
		}
	}
}

func NewService(cfg Config, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		paths:    documentPaths(cfg.DataPath),
		logger:   zap.NewNop(),
		clock:    clockwork.NewRealClock(),
		lockWait: defaultLockWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) Paths() DocumentPaths {
	return s.paths
}

type ShuffleOptions struct {
	DryRun bool
}

func (s *Service) Shuffle(opts ShuffleOptions) (ShuffleResult, error) {
	log := s.logger.With(zap.String("path", s.paths.DataPath))

	if err := requireFile(s.paths.DataPath); err != nil {
		return ShuffleResult{}, WrapExit(ExitInputError, err)
	}

	var result ShuffleResult
	render := func() ([]byte, error) {
		var err error
		result, err = s.shuffleDocument()
		return result.Rendered, err
	}

	if opts.DryRun {
		if _, err := render(); err != nil {
			return ShuffleResult{}, err
		}
		result.DryRun = true
		log.Debug("dry run, document not written", zap.Int("categories", result.Categories))
		return result, nil
	}

	if err := s.rewriteLocked(s.paths.DataPath, render); err != nil {
		return ShuffleResult{}, err
	}
	log.Info("shuffled document",
		zap.Int("categories", result.Categories),
		zap.Int("excluded", result.Excluded),
		zap.Int("items", result.Items),
		zap.Int("bytes", result.Bytes),
	)
	return result, nil
}

// shuffleDocument reads, shuffles and renders the document without writing it.
func (s *Service) shuffleDocument() (ShuffleResult, error) {
	doc, err := loadDocument(s.paths.DataPath)
	if err != nil {
		return ShuffleResult{}, err
	}

	perm := s.perm
	if perm == nil {
		perm = TimeSeededPerm(s.clock)
	}
	shuffled, err := Shuffle(doc, s.cfg.ExcludeCategories, perm)
	if err != nil {
		return ShuffleResult{}, WrapExit(ExitUserError, err)
	}

	rendered, err := WriteCompact(shuffled)
	if err != nil {
		return ShuffleResult{}, WrapExit(ExitIOFailure, fmt.Errorf("render %s: %w", s.paths.DataPath, err))
	}

	return ShuffleResult{
		DataPath:   s.paths.DataPath,
		Categories: shuffled.Len(),
		Excluded:   min(s.cfg.ExcludeCategories, shuffled.Len()),
		Shuffled:   max(shuffled.Len()-s.cfg.ExcludeCategories, 0),
		Items:      shuffled.ItemCount(),
		Order:      shuffled.Keys(),
		Bytes:      len(rendered),
		Rendered:   rendered,
	}, nil
}

// rewriteLocked holds the document lock across render and write.
func (s *Service) rewriteLocked(path string, render func() ([]byte, error)) error {
	lock, err := s.lockDocument()
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	content, err := render()
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, content, 0o644); err != nil {
		return WrapExit(ExitIOFailure, fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}

func (s *Service) lockDocument() (*FileLock, error) {
	locker := documentLocker{path: s.paths.LockPath, clock: s.clock, wait: s.lockWait}
	lock, err := locker.acquire()
	if err != nil {
		return nil, WrapExit(ExitIOFailure, err)
	}
	return lock, nil
}

func (s *Service) releaseLock(lock *FileLock) {
	if err := lock.Release(); err != nil {
		s.logger.Warn("release lock", zap.String("lock", s.paths.LockPath), zap.Error(err))
	}
}

func loadDocument(path string) (*Document, error) {
	if err := requireFile(path); err != nil {
		return nil, WrapExit(ExitInputError, err)
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExit(ExitIOFailure, err)
	}
	doc, err := ParseDocument(bytes)
	if err != nil {
		return nil, WrapExit(ExitInputError, fmt.Errorf("%s is not a valid JSON object: %w", path, err))
	}
	return doc, nil
}
