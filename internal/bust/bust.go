// Package bust renames assets after a digest of their content and
// rewrites references to the old names.
//
// A run uses one Bust: the stage returned by Resources renames every
// asset and records its new name, after which the stage returned by
// References replaces the recorded names in consumer files.
package bust

import (
	"errors"
	"fmt"
	"hash"
	"maps"
	"regexp"

	"github.com/torfstack/bust/internal/pipeline"
)

const PluginName = "bust"

var (
	// ErrUnsupportedHash indicates an unknown digest algorithm name.
	ErrUnsupportedHash = errors.New("unsupported hash type")

	// ErrInvalidHashLength indicates a negative hash truncation length.
	ErrInvalidHashLength = errors.New("hash length must not be negative")
)

type Options struct {
	HashLength int    // number of hex characters kept, 0 keeps the full digest
	HashType   string // digest algorithm, see HashTypes
	Production bool   // rename assets; when false every path maps to itself
}

func DefaultOptions() Options {
	return Options{
		HashLength: 0,
		HashType:   "md5",
		Production: true,
	}
}

// Bust owns the options and the mapping table of a single run.
type Bust struct {
	opts    Options
	newHash func() hash.Hash

	mappings   map[string]string
	generation int

	matcher    *regexp.Regexp
	matcherGen int
}

func New(opts Options) (*Bust, error) {
	if opts.HashLength < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHashLength, opts.HashLength)
	}
	newHash, err := lookupHash(opts.HashType)
	if err != nil {
		return nil, err
	}
	return &Bust{
		opts:       opts,
		newHash:    newHash,
		mappings:   make(map[string]string),
		matcherGen: -1,
	}, nil
}

func (b *Bust) Options() Options {
	return b.opts
}

// Mappings returns a copy of the original to busted path table.
func (b *Bust) Mappings() map[string]string {
	return maps.Clone(b.mappings)
}

// Resources returns a stage that renames each asset it receives.
func (b *Bust) Resources() pipeline.Stage {
	return &Funnel{op: b.ProcessAsset}
}

// References builds the matcher from the current mappings and returns a
// stage that rewrites references in each file it receives.
func (b *Bust) References() pipeline.Stage {
	b.BuildMatcher()
	return &Funnel{op: b.ProcessReferences}
}
