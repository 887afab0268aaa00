package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/torfstack/bust/internal/bust"
	"github.com/torfstack/bust/internal/logging"
	"github.com/torfstack/bust/internal/util"
)

const DefaultPath = "bust.toml"

var (
	defaultSrcDir     = "src"
	defaultOutDir     = "dist"
	defaultAssets     = []string{"**/*.{png,jpg,jpeg,gif,svg,webp,ico,css,js,woff,woff2}"}
	defaultReferences = []string{"**/*.{html,css,js}"}
	defaultManifestDB = ".bust/manifest.sqlite"
	defaultDebounce   = 200 * time.Millisecond
)

type Config struct {
	SrcDir     string        `toml:"src_dir"`
	OutDir     string        `toml:"out_dir"`
	Assets     []string      `toml:"assets"`
	References []string      `toml:"references"`
	HashLength int           `toml:"hash_length"`
	HashType   string        `toml:"hash_type"`
	Production *bool         `toml:"production"`
	ManifestDB string        `toml:"manifest_db"`
	Debounce   time.Duration `toml:"debounce"`
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	c := initialConfig()
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logging.Debugf("No config file at '%s', using defaults", path)
		return c, nil
	case err != nil:
		return c, fmt.Errorf("could not open config file for reading '%s': %w", path, err)
	}
	defer f.Close()

	_, err = toml.NewDecoder(f).Decode(&c)
	if err != nil {
		return c, fmt.Errorf("could not decode config file '%s': %w", path, err)
	}
	return c, nil
}

// Init asks for the main settings on stdin and persists the result at path.
func Init(path string) (Config, error) {
	c, err := Load(path)
	if err != nil {
		return c, err
	}
	if err = guidedInitialization(&c); err != nil {
		return c, fmt.Errorf("could not initialize config interactively: %w", err)
	}
	return c, c.Persist(path)
}

func (c *Config) Persist(path string) error {
	f, err := util.OpenWithParents(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open config file for writing '%s': %w", path, err)
	}
	defer f.Close()

	logging.Debugf("Persisting config file to '%s'", path)
	err = toml.NewEncoder(f).Encode(c)
	if err != nil {
		return fmt.Errorf("could not persist config to file '%s': %w", path, err)
	}
	return nil
}

// Options merges the hashing settings over bust.DefaultOptions.
func (c *Config) Options() bust.Options {
	opts := bust.DefaultOptions()
	if c.HashLength > 0 {
		opts.HashLength = c.HashLength
	}
	if c.HashType != "" {
		opts.HashType = c.HashType
	}
	if c.Production != nil {
		opts.Production = *c.Production
	}
	return opts
}

func initialConfig() Config {
	return Config{
		SrcDir:     defaultSrcDir,
		OutDir:     defaultOutDir,
		Assets:     defaultAssets,
		References: defaultReferences,
		ManifestDB: defaultManifestDB,
		Debounce:   defaultDebounce,
	}
}
