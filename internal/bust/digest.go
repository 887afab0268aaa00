package bust

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"maps"
	"slices"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

var hashes = map[string]func() hash.Hash{
	"md5":      md5.New,
	"sha1":     sha1.New,
	"sha256":   sha256.New,
	"sha512":   sha512.New,
	"sha3-256": sha3.New256,
	"blake2b-256": func() hash.Hash {
		// only fails for keys longer than 64 bytes
		h, _ := blake2b.New256(nil)
		return h
	},
}

// HashTypes lists the supported digest algorithm names.
func HashTypes() []string {
	return slices.Sorted(maps.Keys(hashes))
}

func lookupHash(name string) (func() hash.Hash, error) {
	h, ok := hashes[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedHash, name)
	}
	return h, nil
}

// Digest returns the lowercase hex digest of contents under hashType.
func Digest(hashType string, contents []byte) (string, error) {
	newHash, err := lookupHash(hashType)
	if err != nil {
		return "", err
	}
	return digest(newHash, contents), nil
}

func digest(newHash func() hash.Hash, contents []byte) string {
	h := newHash()
	h.Write(contents)
	return hex.EncodeToString(h.Sum(nil))
}
