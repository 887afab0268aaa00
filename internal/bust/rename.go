package bust

import (
	"path/filepath"
	"strings"

	"github.com/torfstack/bust/internal/logging"
	"github.com/torfstack/bust/internal/pipeline"
)

// ProcessAsset renames f after its content digest in production mode and
// records the mapping from its original to its current relative path.
func (b *Bust) ProcessAsset(f *pipeline.File) {
	base := SanitisePath(f.Relative())

	if b.opts.Production {
		f.Path = b.rename(f.Path, digest(b.newHash, f.Contents))
	}

	b.mappings[base] = SanitisePath(f.Relative())
	b.generation++
	logging.Debugf("Mapped asset '%s' to '%s'", base, b.mappings[base])
}

// rename inserts hash in front of the final extension of p. Names
// without an extension get the hash appended.
func (b *Bust) rename(p, hash string) string {
	if b.opts.HashLength > 0 && b.opts.HashLength < len(hash) {
		hash = hash[:b.opts.HashLength]
	}

	dir, name := filepath.Split(p)
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return dir + name + "." + hash
	}
	return dir + strings.TrimSuffix(name, ext) + "." + hash + ext
}
