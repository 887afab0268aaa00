package bust

import (
	"cmp"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/torfstack/bust/internal/logging"
	"github.com/torfstack/bust/internal/pipeline"
)

// BuildMatcher compiles one pattern matching any mapping key literally.
// Longer keys come first so that a key which is a prefix of another
// never shadows it.
func (b *Bust) BuildMatcher() {
	b.matcherGen = b.generation
	if len(b.mappings) == 0 {
		b.matcher = nil
		return
	}

	keys := slices.SortedFunc(
		maps.Keys(b.mappings), func(x, y string) int {
			if c := cmp.Compare(len(y), len(x)); c != 0 {
				return c
			}
			return strings.Compare(x, y)
		},
	)
	for i, k := range keys {
		keys[i] = regexp.QuoteMeta(k)
	}
	b.matcher = regexp.MustCompile(strings.Join(keys, "|"))
	logging.Debugf("Built reference matcher over %d mappings", len(keys))
}

// ProcessReferences replaces every occurrence of a mapping key in the
// contents of f with the mapped value.
func (b *Bust) ProcessReferences(f *pipeline.File) {
	if len(b.mappings) == 0 {
		return
	}
	if b.matcherGen != b.generation {
		b.BuildMatcher()
	}

	replaced := 0
	contents := b.matcher.ReplaceAllFunc(
		f.Contents, func(match []byte) []byte {
			replaced++
			return []byte(b.mappings[string(match)])
		},
	)
	if contents == nil {
		contents = []byte{}
	}
	f.Contents = contents
	logging.Debugf("Rewrote %d references in '%s'", replaced, f.Relative())
}
