package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/citycast-digest/internal/event"
)

// EventsFile is the name of the file holding the last parsed page
const EventsFile = "events.json"

// Storage handles persistence of parsed day groups
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Path returns the path to the events file
func (s *Storage) Path() string {
	return filepath.Join(s.dataDir, EventsFile)
}

// LoadDays loads the last saved day groups.
// A missing file yields an empty slice.
func (s *Storage) LoadDays() ([]event.DayGroup, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return []event.DayGroup{}, nil
		}
		return nil, fmt.Errorf("reading events: %w", err)
	}

	var days []event.DayGroup
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, fmt.Errorf("parsing events: %w", err)
	}
	if days == nil {
		days = []event.DayGroup{}
	}

	return days, nil
}

// SaveDays writes the day groups to disk, replacing the previous file
func (s *Storage) SaveDays(days []event.DayGroup) error {
	if days == nil {
		days = []event.DayGroup{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(days); err != nil {
		return fmt.Errorf("encoding events: %w", err)
	}

	// Write next to the target and rename so readers never see a partial file
	tmp, err := os.CreateTemp(s.dataDir, EventsFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing events: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("replacing events file: %w", err)
	}

	return nil
}
