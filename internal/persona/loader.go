// Package persona loads the persona and calendar description a brief is
// generated from.
package persona

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"morningbrief/internal/models"
)

// DefaultFile is the input file read when no path is given.
const DefaultFile = "persona+calendar.json"

// Load reads the record at path. Files ending in .yaml or .yml are decoded as
// YAML, anything else as JSON.
// Load never fails: on any read or parse error it logs the problem and
// returns an empty record, which callers treat as "use the backup prompt".
func Load(logger *slog.Logger, path string) models.Record {
	rec, err := Parse(path)
	if err != nil {
		logger.Error("Error loading data, falling back to the backup prompt", "file", path, "error", err)
		return models.Record{}
	}
	return rec
}

// Parse reads and decodes the record at path, returning any error.
func Parse(path string) (models.Record, error) {
	var rec models.Record

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Unknown keys are ignored, but still make the record non-empty.
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var keys map[string]any
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return models.Record{}, fmt.Errorf("failed to parse yaml %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return models.Record{}, fmt.Errorf("failed to parse yaml %s: %w", path, err)
		}
		rec.HasKeys = len(keys) > 0
	default:
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(data, &rec); err != nil {
			return models.Record{}, fmt.Errorf("failed to parse json %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &keys); err != nil {
			return models.Record{}, fmt.Errorf("failed to parse json %s: %w", path, err)
		}
		rec.HasKeys = len(keys) > 0
	}
	return rec, nil
}
