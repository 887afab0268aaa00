package service

import (
	"context"
	"fmt"

	"github.com/torfstack/bust/internal/config"
	"github.com/torfstack/bust/internal/manifest"
)

type Service struct {
	cfg config.Config
}

func NewService(cfg config.Config) *Service {
	return &Service{cfg}
}

func (s *Service) Config() config.Config {
	return s.cfg
}

// LatestRun returns the most recent run recorded in the manifest database.
func (s *Service) LatestRun(ctx context.Context) (*manifest.Run, error) {
	store, err := manifest.Open(ctx, s.cfg.ManifestDB)
	if err != nil {
		return nil, fmt.Errorf("could not open manifest: %w", err)
	}
	defer store.Close()
	return store.Latest(ctx)
}
