package emoticon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Settings is the user-editable plugin configuration persisted as JSON.
// Emoticons is derived from the catalog and overwritten on every load.
type Settings struct {
	URLPrefix string   `json:"url_prefix"`
	UseURL    bool     `json:"use_url"`
	Emoticons []string `json:"emoticons"`
}

// DefaultSettings returns the settings written when no file exists.
func DefaultSettings() Settings {
	return Settings{Emoticons: []string{}}
}

// LoadState describes what SettingsStore.Load found on disk.
type LoadState int

const (
	StateLoaded   LoadState = iota // file present and complete
	StateCreated                   // file absent, defaults written
	StateRepaired                  // file present, missing keys back-filled
	StateCorrupt                   // file unreadable or not JSON, defaults used in memory
)

func (s LoadState) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateCreated:
		return "created"
	case StateRepaired:
		return "repaired"
	case StateCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// RepairPolicy decides whether back-filled defaults are written back immediately.
type RepairPolicy int

const (
	RepairInMemory RepairPolicy = iota // keep back-filled values in memory until the next Save
	RepairPersist                      // rewrite the file right after back-filling
)

// ParseRepairPolicy maps "memory" and "persist" to a RepairPolicy.
func ParseRepairPolicy(s string) (RepairPolicy, error) {
	switch s {
	case "", "memory":
		return RepairInMemory, nil
	case "persist":
		return RepairPersist, nil
	default:
		return RepairInMemory, fmt.Errorf("unknown repair policy %q (want memory or persist)", s)
	}
}

// SettingsStore reads and writes the plugin's JSON settings file.
type SettingsStore struct {
	path   string
	policy RepairPolicy
	logger zerolog.Logger
}

// NewSettingsStore creates a store for the file at path.
func NewSettingsStore(path string, policy RepairPolicy, logger zerolog.Logger) *SettingsStore {
	return &SettingsStore{path: path, policy: policy, logger: logger}
}

// Path returns the settings file path.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads the settings file. It never fails: a missing file is created with defaults,
// an unparsable file is logged and left untouched, and missing keys are back-filled.
func (s *SettingsStore) Load() (Settings, LoadState) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		settings := DefaultSettings()
		if err := s.Save(settings); err != nil {
			s.logger.Error().Err(err).Str("path", s.path).Msg("Failed to write default emoticon settings")
		}
		return settings, StateCreated
	}
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Failed to read emoticon settings, using defaults")
		return DefaultSettings(), StateCorrupt
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Failed to parse emoticon settings, using defaults")
		return DefaultSettings(), StateCorrupt
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Emoticon settings have invalid field types, using defaults")
		return DefaultSettings(), StateCorrupt
	}
	if settings.Emoticons == nil {
		settings.Emoticons = []string{}
	}

	var missing []string
	for _, key := range []string{"url_prefix", "use_url", "emoticons"} {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return settings, StateLoaded
	}

	s.logger.Info().Strs("keys", missing).Str("path", s.path).Msg("Back-filled missing emoticon settings with defaults")
	if s.policy == RepairPersist {
		if err := s.Save(settings); err != nil {
			s.logger.Error().Err(err).Str("path", s.path).Msg("Failed to persist back-filled emoticon settings")
		}
	}
	return settings, StateRepaired
}

// Save writes settings as indented JSON through a temp file and rename, so a failed
// write leaves the previous file intact.
func (s *SettingsStore) Save(settings Settings) error {
	if settings.Emoticons == nil {
		settings.Emoticons = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("encoding emoticon settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating settings directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".emoticon-settings-*")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0644); err != nil {
		s.logger.Debug().Err(err).Msg("Could not chmod temp settings file")
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp settings file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing settings file %s: %w", s.path, err)
	}
	return nil
}
