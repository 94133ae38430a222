// Package specfile reads and writes the JSON and YAML forms of a MapSpec.
//
// Both forms are the document {"entries": [...]} with entry keys in
// declaration order. Loading validates the document against an embedded
// JSON schema and rebuilds every entry through domain.NewEntry, so a loaded
// spec obeys the same rules as an ingested one.
package specfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/infrastructure/outfile"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from the file extension. Anything that is not
// .json is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

const indent = 2

func MarshalJSON(spec *domain.MapSpec) ([]byte, error) {
	data, err := json.MarshalIndent(normalized(spec), "", strings.Repeat(" ", indent))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal spec to json: %w", err)
	}
	return append(data, '\n'), nil
}

func MarshalYAML(spec *domain.MapSpec) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)

	if err := enc.Encode(normalized(spec)); err != nil {
		return nil, fmt.Errorf("failed to marshal spec to yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal spec to yaml: %w", err)
	}

	return buf.Bytes(), nil
}

func WriteJSON(spec *domain.MapSpec, path string) error {
	data, err := MarshalJSON(spec)
	if err != nil {
		return err
	}
	return outfile.Write(path, data)
}

func WriteYAML(spec *domain.MapSpec, path string) error {
	data, err := MarshalYAML(spec)
	if err != nil {
		return err
	}
	return outfile.Write(path, data)
}

// Write dumps spec in the format chosen by the path extension.
func Write(spec *domain.MapSpec, path string) error {
	if FormatOf(path) == FormatJSON {
		return WriteJSON(spec, path)
	}
	return WriteYAML(spec, path)
}

// normalized makes an empty spec dump as an empty list and nil meta as {}.
func normalized(spec *domain.MapSpec) *domain.MapSpec {
	out := &domain.MapSpec{Entries: make([]domain.MapEntry, len(spec.Entries))}
	for i, e := range spec.Entries {
		if e.Meta == nil {
			e.Meta = map[string]any{}
		}
		out.Entries[i] = e
	}
	return out
}
