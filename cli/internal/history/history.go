// ABOUTME: Keeps a short history of diagnoses made from this machine
// ABOUTME: Stored as JSON in the XDG config directory

package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MaxEntries is the number of diagnoses kept
const MaxEntries = 10

// Entry is one completed diagnosis
type Entry struct {
	ID              string    `json:"id"`
	ImagePath       string    `json:"image_path"`
	Crop            string    `json:"crop"`
	Disease         string    `json:"disease"`
	SeverityPercent float64   `json:"severity_percent"`
	Stage           string    `json:"stage"`
	Language        string    `json:"language,omitempty"`
	DiagnosedAt     time.Time `json:"diagnosed_at"`
}

// History manages the on-disk diagnosis list, newest first
type History struct {
	configDir string
	entries   []Entry
}

type historyData struct {
	Entries []Entry `json:"entries"`
}

// New creates a History stored under configDir
func New(configDir string) *History {
	return &History{configDir: configDir}
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "leafdoctor")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "leafdoctor")
}

func (h *History) file() string {
	return filepath.Join(h.configDir, "history.json")
}

// Load reads the history from disk. A missing or corrupt file is an empty history.
func (h *History) Load() ([]Entry, error) {
	data, err := os.ReadFile(h.file())
	if errors.Is(err, os.ErrNotExist) {
		h.entries = []Entry{}
		return h.entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	var stored historyData
	if err := json.Unmarshal(data, &stored); err != nil {
		h.entries = []Entry{}
		return h.entries, nil
	}
	h.entries = stored.Entries
	if h.entries == nil {
		h.entries = []Entry{}
	}
	return h.entries, nil
}

func (h *History) save(entries []Entry) error {
	if err := os.MkdirAll(h.configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	h.entries = entries

	data, err := json.MarshalIndent(historyData{Entries: entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.file(), data, 0o644)
}

// Add records e at the front. An entry with the same ID replaces the old one.
func (h *History) Add(e Entry) error {
	if h.entries == nil {
		if _, err := h.Load(); err != nil {
			h.entries = []Entry{}
		}
	}

	next := make([]Entry, 0, len(h.entries)+1)
	next = append(next, e)
	for _, old := range h.entries {
		if e.ID == "" || old.ID != e.ID {
			next = append(next, old)
		}
	}
	return h.save(next)
}

// Latest returns the most recent diagnosis
func (h *History) Latest() (Entry, bool) {
	entries := h.List()
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[0], true
}

// List returns the history, newest first
func (h *History) List() []Entry {
	if h.entries == nil {
		h.Load()
	}
	return h.entries
}

// Clear removes the history file
func (h *History) Clear() error {
	h.entries = []Entry{}
	if err := os.Remove(h.file()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}
