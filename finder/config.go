package finder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultConfigFile        = "config.json"
	defaultHeaderMarker      = "MUNICIPIO"
	defaultHeaderScanLines   = 6
	defaultMinQueryLen       = 2
	defaultDisplayLimit      = 3
	defaultMaxCandidates     = 500
	defaultTopMunicipalities = 3
	defaultServerAddr        = ":8080"
	defaultWatchDebounceMs   = 250
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" toml:"addr"`
}

// WatchConfig configures reloading the dataset when its file changes.
type WatchConfig struct {
	Enabled    bool `json:"enabled" toml:"enabled"`
	DebounceMs int  `json:"debounceMs" toml:"debounceMs"`
}

// Config aggregates runtime settings persisted to config.json (or a .toml file).
type Config struct {
	DatasetPath       string          `json:"datasetPath" toml:"datasetPath"`
	Delimiter         string          `json:"delimiter,omitempty" toml:"delimiter,omitempty"`
	HeaderMarker      string          `json:"headerMarker" toml:"headerMarker"`
	HeaderScanLines   int             `json:"headerScanLines" toml:"headerScanLines"`
	MinQueryLen       int             `json:"minQueryLen" toml:"minQueryLen"`
	DisplayLimit      int             `json:"displayLimit" toml:"displayLimit"`
	MaxCandidates     int             `json:"maxCandidates" toml:"maxCandidates"`
	TopMunicipalities int             `json:"topMunicipalities" toml:"topMunicipalities"`
	FieldPriority     []string        `json:"fieldPriority" toml:"fieldPriority"`
	Weights           ScoreWeights    `json:"weights" toml:"weights"`
	ClosedMarkers     []string        `json:"closedMarkers" toml:"closedMarkers"`
	FieldCandidates   FieldCandidates `json:"fieldCandidates" toml:"fieldCandidates"`
	CategoryAllowList []CategoryAlias `json:"categoryAllowList" toml:"categoryAllowList"`
	Server            ServerConfig    `json:"server" toml:"server"`
	Watch             WatchConfig     `json:"watch" toml:"watch"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	out := c
	out.FieldPriority = cloneStrings(c.FieldPriority)
	out.ClosedMarkers = cloneStrings(c.ClosedMarkers)
	out.FieldCandidates = c.FieldCandidates.clone()
	out.CategoryAllowList = cloneAllowList(c.CategoryAllowList)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.HeaderMarker == "" {
		c.HeaderMarker = defaultHeaderMarker
	}
	if c.HeaderScanLines <= 0 {
		c.HeaderScanLines = defaultHeaderScanLines
	}
	if c.MinQueryLen <= 0 {
		c.MinQueryLen = defaultMinQueryLen
	}
	if c.DisplayLimit <= 0 {
		c.DisplayLimit = defaultDisplayLimit
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = defaultMaxCandidates
	}
	if c.TopMunicipalities <= 0 {
		c.TopMunicipalities = defaultTopMunicipalities
	}
	if len(ParseFields(c.FieldPriority)) == 0 {
		priority := DefaultFieldPriority()
		c.FieldPriority = make([]string, len(priority))
		for i, f := range priority {
			c.FieldPriority[i] = f.String()
		}
	}
	if c.Weights.ContainsBase <= 0 && c.Weights.FullText <= 0 {
		c.Weights = DefaultScoreWeights()
	}
	if c.ClosedMarkers == nil {
		c.ClosedMarkers = DefaultClosedMarkers()
	}
	c.FieldCandidates = c.FieldCandidates.WithDefaults()
	if c.CategoryAllowList == nil {
		c.CategoryAllowList = DefaultCategoryAllowList()
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if c.Watch.DebounceMs <= 0 {
		c.Watch.DebounceMs = defaultWatchDebounceMs
	}
}

// Priority returns the configured field priority as Fields.
func (c Config) Priority() []Field {
	fields := ParseFields(c.FieldPriority)
	if len(fields) == 0 {
		return DefaultFieldPriority()
	}
	return fields
}

// LoadOptions returns the loader settings of the configuration.
func (c Config) LoadOptions() LoadOptions {
	opts := LoadOptions{HeaderMarker: c.HeaderMarker, HeaderScanLines: c.HeaderScanLines}
	if r := []rune(c.Delimiter); len(r) == 1 {
		opts.Comma = r[0]
	} else if c.Delimiter == `\t` {
		opts.Comma = '\t'
	}
	return opts
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from path or the default config.json. A missing
// file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig persists configuration to disk through a temporary file.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
