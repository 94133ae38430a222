package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/emit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `device,name,address,dtype,scale,offset,unit
DEV1,TEMP,100,INT16,0.1,0,degC
DEV1,HUM,101,UINT16,1,0,%
DEV2,FLOW,200,FLOAT32,1,0,m3/h
DEV2,FLOW,204,FLOAT32R,1,0,m3/h
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	ctx := context.WithValue(t.Context(), loggerKey{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var out bytes.Buffer
	c := cmd()
	c.Writer = &out
	c.ErrWriter = io.Discard

	err := c.Run(ctx, append([]string{"modbus_map_maker"}, args...))
	return out.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "plant.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestValidate(t *testing.T) {
	t.Parallel()

	out, err := run(t, "validate", writeCSV(t, sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, "OK: mapping is valid (4 entries).\n", out)
}

func TestValidate_SchemaError(t *testing.T) {
	t.Parallel()

	_, err := run(t, "validate", writeCSV(t, "device,name\nDEV1,TEMP\n"))
	require.ErrorIs(t, err, domain.ErrSchema)
	assert.Equal(t, exitCodeInputErr, exitCode(err))
}

func TestValidate_MissingArgument(t *testing.T) {
	t.Parallel()

	_, err := run(t, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing PATH argument")
	assert.Equal(t, exitCodeInternalErr, exitCode(err))
}

func TestToJSONThenEmitCode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	specPath := filepath.Join(dir, "spec.json")

	out, err := run(t, "to-json", "--out", specPath, writeCSV(t, sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+specPath+"\n", out)
	assert.FileExists(t, specPath)

	codeDir := filepath.Join(dir, "code")

	_, err = run(t, "emit-code", "--out-dir", codeDir, specPath)
	require.NoError(t, err)

	for _, name := range []string{emit.PythonFile, emit.CHeaderFile, emit.DefsFile} {
		assert.FileExists(t, filepath.Join(codeDir, name))
	}
}

func TestEmitCode_Only(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	specPath := filepath.Join(dir, "spec.yaml")

	_, err := run(t, "to-yaml", "--out", specPath, writeCSV(t, sampleCSV))
	require.NoError(t, err)

	codeDir := filepath.Join(dir, "code")

	out, err := run(t, "emit-code", "--out-dir", codeDir, "--only", "defs", specPath)
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+filepath.Join(codeDir, emit.DefsFile)+"\n", out)

	assert.FileExists(t, filepath.Join(codeDir, emit.DefsFile))
	assert.NoFileExists(t, filepath.Join(codeDir, emit.PythonFile))

	_, err = run(t, "emit-code", "--out-dir", codeDir, "--only", "rust", specPath)
	require.Error(t, err)
}

func TestConvert(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "spec.json")
	yamlPath := filepath.Join(dir, "spec.yml")
	backPath := filepath.Join(dir, "back.json")

	_, err := run(t, "to-json", "--out", jsonPath, writeCSV(t, sampleCSV))
	require.NoError(t, err)

	_, err = run(t, "convert", jsonPath, yamlPath)
	require.NoError(t, err)
	_, err = run(t, "convert", yamlPath, backPath)
	require.NoError(t, err)

	original, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	back, err := os.ReadFile(backPath)
	require.NoError(t, err)
	assert.Equal(t, string(original), string(back))
}

func TestToYAML(t *testing.T) {
	t.Parallel()

	specPath := filepath.Join(t.TempDir(), "spec.yaml")

	_, err := run(t, "to-yaml", "-o", specPath, writeCSV(t, sampleCSV))
	require.NoError(t, err)

	data, err := os.ReadFile(specPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "device: DEV1")
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "build")

	out, err := run(t, "generate", "--out-dir", dir, writeCSV(t, sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, "All outputs generated in "+dir+"\n", out)

	for _, name := range []string{"mapping.json", "mapping.yaml", emit.PythonFile, emit.CHeaderFile, emit.DefsFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestGenerate_InvalidWritesNothing(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "build")

	_, err := run(t, "generate", "--out-dir", dir, writeCSV(t, "device,name,address,dtype,scale,offset\nDEV1,TEMP,100,INT99,1,0\n"))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, exitCodeInputErr, exitCode(err))
	assert.NoDirExists(t, dir)
}

func TestReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := run(t, "report", "--out-dir", dir, writeCSV(t, sampleCSV))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "DEV1.pdf"))
	assert.FileExists(t, filepath.Join(dir, "DEV2.pdf"))
}

func TestReport_DistinctFilesForSimilarDevices(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csv := "device,name,address,dtype,scale,offset\nA/B,TEMP,1,INT16,1,0\nA_B,TEMP,2,INT16,1,0\n"

	_, err := run(t, "report", "--out-dir", dir, writeCSV(t, csv))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.FileExists(t, filepath.Join(dir, "A_B.pdf"))
}

func TestTemplates(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "templates")

	out, err := run(t, "templates", "--template-dir", root, "list")
	require.NoError(t, err)
	assert.Equal(t, "No templates stored in "+root+"\n", out)

	_, err = run(t, "templates", "--template-dir", root, "find", "missing")
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exitCodeOK, exitCode(nil))
	assert.Equal(t, exitCodeInternalErr, exitCode(errors.New("boom")))
	assert.Equal(t, exitCodeInputErr, exitCode(&emit.DuplicateSymbolError{Symbol: "DEV_A"}))
}
