package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/opsched/core/schedule"
)

// ErrEmptyFile is returned when a schedule file holds no schedule.
var ErrEmptyFile = errors.New("no schedule in file")

// File is the on-disk collection format. A file may also hold a single
// schedule.Document at the top level.
type File struct {
	Schedules []schedule.Document `json:"schedules" yaml:"schedules"`
}

// ReadDocuments decodes the schedules of a YAML or JSON file.
func ReadDocuments(path string) ([]schedule.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var unmarshal func([]byte, any) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	case ".json":
		unmarshal = json.Unmarshal
	default:
		return nil, fmt.Errorf("unsupported schedule format: %s", ext)
	}
	var f File
	if err := unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(f.Schedules) > 0 {
		return f.Schedules, nil
	}
	var doc schedule.Document
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	return []schedule.Document{doc}, nil
}
