package service

import (
	"context"
	"fmt"

	"github.com/torfstack/bust/internal/logging"
	"github.com/torfstack/bust/internal/watch"
)

// Watch builds once and then rebuilds whenever the source directory
// changes, until ctx is done. Every rebuild starts from a fresh mapping.
func (s *Service) Watch(ctx context.Context) error {
	if _, err := s.Build(ctx); err != nil {
		return fmt.Errorf("watch: initial build failed: %w", err)
	}

	w, err := watch.NewWatcher(s.cfg.SrcDir, s.cfg.Debounce, s.rebuild, s.cfg.OutDir)
	if err != nil {
		return fmt.Errorf("watch: could not create watcher: %w", err)
	}
	defer w.Close()

	logging.Infof("Watching '%s' for changes", s.cfg.SrcDir)
	if err = w.Run(ctx); err != nil {
		return fmt.Errorf("watch: error while running watcher: %w", err)
	}
	return nil
}

func (s *Service) rebuild(ctx context.Context, changed []string) error {
	logging.Debugf("Rebuilding after %d changes", len(changed))
	_, err := s.Build(ctx)
	return err
}
