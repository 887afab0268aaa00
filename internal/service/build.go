package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/torfstack/bust/internal/bust"
	"github.com/torfstack/bust/internal/logging"
	"github.com/torfstack/bust/internal/manifest"
	"github.com/torfstack/bust/internal/pipeline"
)

// Result summarises one build.
type Result struct {
	RunID      string
	Mappings   map[string]string
	Assets     int
	References int
	Written    int64
	Warnings   []error
	Duration   time.Duration
}

// Build renames the configured assets, rewrites references to them in
// the configured consumer files and writes everything to the output
// directory. Files matching both sets are renamed first and rewritten
// afterwards.
func (s *Service) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	b, err := bust.New(s.cfg.Options())
	if err != nil {
		return nil, fmt.Errorf("could not set up bust: %w", err)
	}

	src := pipeline.NewSource(s.cfg.SrcDir)
	all, assets, references, err := loadFiles(src, s.cfg.Assets, s.cfg.References)
	if err != nil {
		return nil, err
	}
	logging.Debugf("Loaded %d assets and %d reference files from '%s'", len(assets), len(references), src.Dir())

	res := &Result{Assets: len(assets), References: len(references)}

	renamed := &pipeline.Collector{}
	if err = pipeline.Run(b.Resources(), assets, renamed); err != nil {
		return nil, fmt.Errorf("could not rename assets: %w", err)
	}
	res.Warnings = append(res.Warnings, renamed.Errors...)

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	rewritten := &pipeline.Collector{}
	if err = pipeline.Run(b.References(), references, rewritten); err != nil {
		return nil, fmt.Errorf("could not rewrite references: %w", err)
	}
	res.Warnings = append(res.Warnings, rewritten.Errors...)

	res.Written, err = pipeline.WriteAll(s.cfg.OutDir, all)
	if err != nil {
		return nil, fmt.Errorf("could not write output: %w", err)
	}
	res.Mappings = b.Mappings()

	if s.cfg.ManifestDB != "" {
		res.RunID, err = s.record(ctx, b)
		if err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	logging.Infof(
		"Busted %d assets and rewrote %d files, wrote %s to '%s' in %s",
		res.Assets, res.References, humanize.Bytes(uint64(res.Written)), s.cfg.OutDir, res.Duration.Round(time.Millisecond),
	)
	return res, nil
}

func (s *Service) record(ctx context.Context, b *bust.Bust) (string, error) {
	store, err := manifest.Open(ctx, s.cfg.ManifestDB)
	if err != nil {
		return "", fmt.Errorf("could not open manifest: %w", err)
	}
	defer store.Close()

	opts := b.Options()
	run := &manifest.Run{
		HashType:   opts.HashType,
		Production: opts.Production,
		Mappings:   b.Mappings(),
	}
	if err = store.Record(ctx, run); err != nil {
		return "", fmt.Errorf("could not record run: %w", err)
	}
	return run.ID, nil
}

// loadFiles loads the union of both glob sets once, so a file in both
// sets is the same record in each pass.
func loadFiles(src *pipeline.Source, assetGlobs, referenceGlobs []string) (all, assets, references []*pipeline.File, err error) {
	assetPaths, err := src.Match(assetGlobs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not list assets: %w", err)
	}
	referencePaths, err := src.Match(referenceGlobs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not list reference files: %w", err)
	}

	loaded := make(map[string]*pipeline.File)
	load := func(paths []string) ([]*pipeline.File, error) {
		files := make([]*pipeline.File, 0, len(paths))
		for _, p := range paths {
			f, ok := loaded[p]
			if !ok {
				f, err = src.Load(p)
				if err != nil {
					return nil, err
				}
				loaded[p] = f
				all = append(all, f)
			}
			files = append(files, f)
		}
		return files, nil
	}

	if assets, err = load(assetPaths); err != nil {
		return nil, nil, nil, err
	}
	if references, err = load(referencePaths); err != nil {
		return nil, nil, nil, err
	}
	return all, assets, references, nil
}
