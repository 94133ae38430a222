package emit_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/emit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(t *testing.T, fields map[string]any) domain.MapEntry {
	t.Helper()

	e, err := domain.NewEntry(fields)
	require.NoError(t, err)

	return e
}

func sampleSpec(t *testing.T) *domain.MapSpec {
	t.Helper()

	return &domain.MapSpec{Entries: []domain.MapEntry{
		entry(t, map[string]any{
			"device": "DEV1", "name": "TEMP", "address": 100, "dtype": "INT16", "scale": 0.1, "offset": 0,
			"unit": "degC", "meta": map[string]any{"notes": "calibrated", "rack": int64(2)},
		}),
		entry(t, map[string]any{
			"device": "DEV1", "name": "HUM", "address": 101, "dtype": "UINT16", "scale": 1, "offset": 0,
			"rw": "RW", "description": "Relative */ humidity",
		}),
		entry(t, map[string]any{
			"device": "DEV2", "name": "FLOW", "address": 200, "dtype": "FLOAT32", "scale": 1, "offset": 0,
			"function": "IR",
		}),
		entry(t, map[string]any{
			"device": "DEV2", "name": "FLOW", "address": 204, "dtype": "FLOAT32R", "scale": 1, "offset": -2.5,
			"byte_order": "little",
		}),
	}}
}

func TestRenderDefs_GroupsByDevice(t *testing.T) {
	t.Parallel()

	data, err := emit.RenderDefs(sampleSpec(t))
	require.NoError(t, err)

	expected := `# Generated by modbus_map_maker. Do not edit.
# name;address;dtype;plc_type;registers;function;rw;byte_order;word_order;scale;offset;unit

[DEV1]
TEMP;100;INT16;INT;1;HR;R;big;normal;0.1;0;degC
HUM;101;UINT16;UINT;1;HR;RW;big;normal;1;0;

[DEV2]
FLOW;200;FLOAT32;REAL;2;IR;R;big;normal;1;0;
FLOW;204;FLOAT32R;REAL;2;HR;R;little;swapped;1;-2.5;
`
	assert.Equal(t, expected, string(data))
}

func TestRenderDefs_EscapesSeparators(t *testing.T) {
	t.Parallel()

	spec := &domain.MapSpec{Entries: []domain.MapEntry{
		entry(t, map[string]any{
			"device": "rack]\n[fake", "name": "a;b", "address": 1, "dtype": "INT16", "unit": `m\s`,
		}),
	}}

	data, err := emit.RenderDefs(spec)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, `[rack\]\n\[fake]`, lines[3])
	assert.Equal(t, `a\;b;1;INT16;INT;1;HR;R;big;normal;1;0;m\\s`, lines[4])
}

func TestRenderDefs_FirstSeenOrder(t *testing.T) {
	t.Parallel()

	spec := &domain.MapSpec{Entries: []domain.MapEntry{
		entry(t, map[string]any{"device": "A", "name": "r1", "address": 1, "dtype": "INT16"}),
		entry(t, map[string]any{"device": "B", "name": "r2", "address": 2, "dtype": "INT16"}),
		entry(t, map[string]any{"device": "A", "name": "r3", "address": 3, "dtype": "INT16"}),
		entry(t, map[string]any{"device": "C", "name": "r4", "address": 4, "dtype": "INT16"}),
	}}

	data, err := emit.RenderDefs(spec)
	require.NoError(t, err)

	text := string(data)
	a := strings.Index(text, "[A]")
	b := strings.Index(text, "[B]")
	c := strings.Index(text, "[C]")
	assert.True(t, a < b && b < c)
	assert.Equal(t, 3, strings.Count(text, "\n["))

	section := text[a:b]
	assert.Less(t, strings.Index(section, "r1;"), strings.Index(section, "r3;"))
}

func TestRenderPython(t *testing.T) {
	t.Parallel()

	data, err := emit.RenderPython(sampleSpec(t))
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "# Generated by modbus_map_maker."))
	assert.Contains(t, text, "MODBUS_MAP = [\n    {\n        \"device\": \"DEV1\",\n        \"name\": \"TEMP\",\n        \"address\": 100,\n")
	assert.Contains(t, text, `"scale": 0.1,`)
	assert.Contains(t, text, `"offset": -2.5,`)
	assert.Contains(t, text, `"unit": "degC",`)
	assert.Contains(t, text, `"unit": None,`)
	assert.Contains(t, text, `"struct_fmt": "H",`)
	assert.Contains(t, text, `"registers": 2,`)
	assert.Contains(t, text, `"word_order": "swapped",`)
	assert.Contains(t, text, `"meta": {"notes": "calibrated", "rack": 2},`)
	assert.Contains(t, text, `"meta": {},`)
	assert.Equal(t, 4, strings.Count(text, `"device": `))
	assert.True(t, strings.HasSuffix(text, "    },\n]\n"))

	assert.Less(t, strings.Index(text, `"TEMP"`), strings.Index(text, `"HUM"`))
}

func TestRenderCHeader(t *testing.T) {
	t.Parallel()

	data, err := emit.RenderCHeader(sampleSpec(t), "MAPPING_H")
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "#ifndef MAPPING_H\n#define MAPPING_H\n")
	assert.Contains(t, text, "#define MODBUS_MAP_ENTRY_COUNT 4u")
	assert.Contains(t, text, "/* DEV1.TEMP: INT16 HR R [degC] */")
	assert.Contains(t, text, "/* DEV1.HUM: UINT16 HR RW Relative * / humidity */")
	assert.Contains(t, text, "static const modbus_reg_t DEV1_TEMP = { 100u, 1u, MODBUS_FUNC_HR, 0u, 0u, 0u, 0.1f, 0.0f };")
	assert.Contains(t, text, "static const modbus_reg_t DEV1_HUM = { 101u, 1u, MODBUS_FUNC_HR, 1u, 0u, 0u, 1.0f, 0.0f };")
	assert.Contains(t, text, "static const modbus_reg_t DEV2_FLOW_200 = { 200u, 2u, MODBUS_FUNC_IR, 0u, 0u, 0u, 1.0f, 0.0f };")
	assert.Contains(t, text, "static const modbus_reg_t DEV2_FLOW_204 = { 204u, 2u, MODBUS_FUNC_HR, 0u, 1u, 1u, 1.0f, -2.5f };")
	assert.Contains(t, text, "typedef struct {\n    int16_t dev1_temp;\n    uint16_t dev1_hum;\n    float dev2_flow_200;\n    float dev2_flow_204;\n} modbus_map_t;")
	assert.True(t, strings.HasSuffix(text, "#endif /* MAPPING_H */\n"))
}

func TestIdentifiers_Collisions(t *testing.T) {
	t.Parallel()

	spec := &domain.MapSpec{Entries: []domain.MapEntry{
		entry(t, map[string]any{"device": "dev-1", "name": "p", "address": 1, "dtype": "INT16"}),
		entry(t, map[string]any{"device": "DEV_1", "name": "P", "address": 1, "dtype": "INT16"}),
	}}

	_, err := emit.Identifiers(spec)
	require.ErrorIs(t, err, emit.ErrDuplicateSymbol)

	var derr *emit.DuplicateSymbolError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "DEV_1_P_1", derr.Symbol)
	assert.Equal(t, 1, derr.First)
	assert.Equal(t, 2, derr.Second)

	_, err = emit.RenderCHeader(spec, "X_H")
	require.ErrorIs(t, err, emit.ErrDuplicateSymbol)
}

func TestIdentifiers_HeaderMacros(t *testing.T) {
	t.Parallel()

	tests := []struct {
		device, name string
		guard        string
		symbol       string
	}{
		{"mapping", "h", emit.CHeaderFile, "MAPPING_H"},
		{"MODBUS", "MAP_ENTRY_COUNT", emit.CHeaderFile, "MODBUS_MAP_ENTRY_COUNT"},
		{"modbus", "func_hr", emit.CHeaderFile, "MODBUS_FUNC_HR"},
		{"uint16", "max", emit.CHeaderFile, "UINT16_MAX"},
		{"plant", "h", "plant.h", "PLANT_H"},
	}

	for _, tt := range tests {
		spec := &domain.MapSpec{Entries: []domain.MapEntry{
			entry(t, map[string]any{"device": "DEV1", "name": "TEMP", "address": 1, "dtype": "INT16"}),
			entry(t, map[string]any{"device": tt.device, "name": tt.name, "address": 2, "dtype": "INT16"}),
		}}

		err := emit.EmitCHeader(spec, filepath.Join(t.TempDir(), tt.guard))
		require.ErrorIs(t, err, emit.ErrDuplicateSymbol, tt.symbol)

		var derr *emit.DuplicateSymbolError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, tt.symbol, derr.Symbol)
		assert.Equal(t, 2, derr.First)
		assert.Zero(t, derr.Second)
	}

	_, err := emit.Identifiers(&domain.MapSpec{Entries: []domain.MapEntry{
		entry(t, map[string]any{"device": "plant", "name": "h", "address": 1, "dtype": "INT16"}),
	}})
	require.NoError(t, err)
}

func TestRender_Deterministic(t *testing.T) {
	t.Parallel()

	spec := sampleSpec(t)

	for range 3 {
		a, err := emit.RenderPython(spec)
		require.NoError(t, err)
		b, err := emit.RenderPython(sampleSpec(t))
		require.NoError(t, err)
		assert.Equal(t, a, b)

		c, err := emit.RenderCHeader(spec, "G")
		require.NoError(t, err)
		d, err := emit.RenderCHeader(sampleSpec(t), "G")
		require.NoError(t, err)
		assert.Equal(t, c, d)
	}
}

func TestEmitAll(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "build")

	paths, err := emit.EmitAll(sampleSpec(t), dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, emit.PythonFile),
		filepath.Join(dir, emit.CHeaderFile),
		filepath.Join(dir, emit.DefsFile),
	}, paths)

	header, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(header), "#ifndef MAPPING_H")
}

func TestEmitAll_NothingWrittenOnRenderFailure(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "build")
	spec := &domain.MapSpec{Entries: []domain.MapEntry{
		entry(t, map[string]any{"device": "D", "name": "N", "address": 1, "dtype": "INT16"}),
		entry(t, map[string]any{"device": "D", "name": "N", "address": 1, "dtype": "UINT16"}),
	}}

	_, err := emit.EmitAll(spec, dir)
	require.ErrorIs(t, err, emit.ErrDuplicateSymbol)

	_, err = os.Stat(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEmitCHeader_GuardFromFilename(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plant-map.h")
	require.NoError(t, emit.EmitCHeader(sampleSpec(t), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#ifndef PLANT_MAP_H")
}

func TestEmit_UnwritableDestination(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "defs.txt")

	err := emit.EmitDefs(sampleSpec(t), path)
	require.ErrorIs(t, err, domain.ErrFileAccess)
}

func TestRenderCHeader_EmptySpec(t *testing.T) {
	t.Parallel()

	data, err := emit.RenderCHeader(&domain.MapSpec{}, "EMPTY_H")
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "#define MODBUS_MAP_ENTRY_COUNT 0u")
	assert.Contains(t, text, "typedef struct {\n    uint8_t reserved;\n} modbus_map_t;")
}
