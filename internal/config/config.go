// Package config loads jets.toml.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// FileName is the name discovery looks for.
const FileName = "jets.toml"

// Config is the decoded jets.toml. Zero fields mean "use the default".
type Config struct {
	LogLevel string `toml:"log_level"`
	Color    string `toml:"color"`
	View     View   `toml:"view"`
	Gen      Gen    `toml:"gen"`
	Trace    Trace  `toml:"trace"`
}

// View holds viewer and tree defaults.
type View struct {
	// DefaultSort is "<key>" or "<key>:desc", e.g. "start" or "name:desc".
	DefaultSort string `toml:"default_sort"`
	ExpandDepth int    `toml:"expand_depth"`
	SessionDir  string `toml:"session_dir"`
}

// Gen holds generator defaults.
type Gen struct {
	Clusters int    `toml:"clusters"`
	Cores    int    `toml:"cores"`
	Threads  int    `toml:"threads"`
	Instr    string `toml:"instr"`
	Out      string `toml:"out"`
}

// Trace holds self-trace defaults.
type Trace struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
	Mode  string `toml:"mode"`
}

// File is a loaded configuration and where it came from.
type File struct {
	Path   string
	Config Config
	// Unknown lists keys present in the file that Config does not define.
	Unknown []string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "warn",
		Color:    "auto",
		View:     View{DefaultSort: "start", ExpandDepth: 1},
		Gen:      Gen{Clusters: 1, Cores: 1, Threads: 1, Instr: "100", Out: "trace.jets"},
		Trace:    Trace{Level: "phase", Mode: "stream"},
	}
}

// Find walks up from startDir looking for jets.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, errors.Wrap(err, "resolve start directory")
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, errors.Wrapf(err, "stat %q", candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load decodes path over Default.
func Load(path string) (*File, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: parse TOML", path)
	}
	f := &File{Path: path, Config: cfg}
	for _, k := range meta.Undecoded() {
		f.Unknown = append(f.Unknown, k.String())
	}
	slices.Sort(f.Unknown)
	if err := f.Config.validate(); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return f, nil
}

// Resolve loads explicit when set, otherwise the first jets.toml found
// above startDir. Without either it returns Default with an empty Path.
func Resolve(explicit, startDir string) (*File, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &File{Config: Default()}, nil
	}
	return Load(path)
}

var (
	colorModes = []string{"auto", "on", "off"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

func (c *Config) validate() error {
	c.Color = strings.ToLower(strings.TrimSpace(c.Color))
	if !slices.Contains(colorModes, c.Color) {
		return errors.Newf("color: unsupported value %q (want auto, on or off)", c.Color)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if !slices.Contains(logLevels, c.LogLevel) {
		return errors.Newf("log_level: unsupported value %q", c.LogLevel)
	}
	if c.View.ExpandDepth < 0 {
		return errors.Newf("view.expand_depth: must not be negative, got %d", c.View.ExpandDepth)
	}
	if c.Gen.Clusters < 0 || c.Gen.Cores < 0 || c.Gen.Threads < 0 {
		return errors.New("gen: counts must not be negative")
	}
	return nil
}

// SessionDir returns the directory for viewer session files: the
// configured one, or "jets" under the user cache directory.
func (c *Config) SessionDir() (string, error) {
	if c.View.SessionDir != "" {
		return c.View.SessionDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "locate cache directory")
	}
	return filepath.Join(base, "jets"), nil
}
