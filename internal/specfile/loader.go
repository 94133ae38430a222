package specfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaURL = "mapspec-v1.json"

//go:embed schema/mapspec-v1.json
var mapSpecSchemaJSON string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource(schemaURL, bytes.NewReader([]byte(mapSpecSchemaJSON))); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return schema, nil
})

// Load reads a JSON or YAML spec document from path.
func Load(path string) (*domain.MapSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.FileAccessError{Op: "read", Path: path, Err: err}
	}

	spec, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load spec %s: %w", path, err)
	}

	return spec, nil
}

// Decode parses a spec document, validates it against the schema and
// rebuilds each entry with domain.NewEntry.
func Decode(data []byte, format Format) (*domain.MapSpec, error) {
	doc, err := toJSONValue(data, format)
	if err != nil {
		return nil, err
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("spec document does not match schema: %w: %w", domain.ErrValidation, err)
	}

	// The schema guarantees these shapes.
	raw := doc.(map[string]any)["entries"].([]any)

	spec := &domain.MapSpec{Entries: make([]domain.MapEntry, 0, len(raw))}
	for i, item := range raw {
		entry, err := domain.NewEntry(item.(map[string]any))
		if err != nil {
			return nil, fmt.Errorf("invalid entry #%d: %w", i+1, err)
		}
		spec.Entries = append(spec.Entries, entry)
	}

	return spec, nil
}

// toJSONValue decodes either format into the value shapes produced by
// encoding/json with UseNumber, which is what the schema validator expects.
func toJSONValue(data []byte, format Format) (any, error) {
	if format == FormatYAML {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}

		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("failed to convert yaml to json: %w", err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}

	return v, nil
}
