// Package seeddata reads combination tables from disk.
package seeddata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"infinicraft-backend/application/services"
)

// Format of a seed file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from the file extension; anything that is not YAML is read as JSON
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and parses a seed file
func Load(path string) ([]services.SeedRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	rows, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Parse decodes a list of {element1, element2, result} rows
func Parse(data []byte, format Format) ([]services.SeedRow, error) {
	var rows []services.SeedRow
	if len(bytes.TrimSpace(data)) == 0 {
		return rows, nil
	}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse seed JSON: %w", err)
		}
	}
	return rows, nil
}
