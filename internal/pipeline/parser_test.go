package pipeline_test

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, filename string) *domain.ConversionResult {
	t.Helper()

	log := slog.New(slog.DiscardHandler)

	files := make(chan string, 1)
	files <- filename

	results := make(chan *domain.ConversionResult, 1)

	parser := pipeline.NewParser(log, 1, files, results)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- parser.Run(ctx)
	}()

	var result *domain.ConversionResult

	select {
	case result = <-results:
		require.NotNil(t, result)
	case err := <-errChan:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(waitTimeout):
		t.Fatal("timeout: conversion result was not sent to channel")
	}

	cancel()

	select {
	case err := <-errChan:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitTimeout):
		t.Fatal("timeout: error was not sent to channel")
	}

	return result
}

func TestParser_Run_HappyPath(t *testing.T) {
	t.Parallel()

	filename := writeFile(t, t.TempDir(), "plant.csv", sampleCSV)

	result := parseOne(t, filename)

	require.NoError(t, result.Error)
	assert.Equal(t, filename, result.Filename)
	require.NotNil(t, result.Spec)
	require.Len(t, result.Spec.Entries, 4)
	assert.Equal(t, 4, result.EntriesCount())

	first := result.Spec.Entries[0]
	assert.Equal(t, "DEV1", first.Device)
	assert.Equal(t, "TEMP", first.Name)
	assert.Equal(t, 100, first.Address)
	assert.InDelta(t, 0.1, first.Scale, 1e-9)

	assert.Equal(t, domain.WordOrderSwapped, result.Spec.Entries[3].WordOrder)
}

func TestParser_Run_InvalidData(t *testing.T) {
	t.Parallel()

	filename := writeFile(t, t.TempDir(), "plant.csv", "device,name,address,dtype,scale,offset\nDEV1,TEMP,100,INT64,1,0\n")

	result := parseOne(t, filename)

	require.ErrorIs(t, result.Error, domain.ErrValidation)
	assert.Nil(t, result.Spec)
	assert.Zero(t, result.EntriesCount())
}

func TestParser_Run_MissingColumns(t *testing.T) {
	t.Parallel()

	filename := writeFile(t, t.TempDir(), "plant.tsv", "device\tname\nDEV1\tTEMP\n")

	result := parseOne(t, filename)

	require.ErrorIs(t, result.Error, domain.ErrSchema)
}

func TestParser_Run_FileGone(t *testing.T) {
	t.Parallel()

	result := parseOne(t, filepath.Join(t.TempDir(), "gone.csv"))

	require.ErrorIs(t, result.Error, domain.ErrFileAccess)
}

func TestParser_Run_HeaderOnly(t *testing.T) {
	t.Parallel()

	filename := writeFile(t, t.TempDir(), "empty.csv", "device,name,address,dtype,scale,offset\n")

	result := parseOne(t, filename)

	require.NoError(t, result.Error)
	require.NotNil(t, result.Spec)
	assert.Empty(t, result.Spec.Entries)
}

func TestParser_Run_ChannelCloses(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)

	files := make(chan string)
	results := make(chan *domain.ConversionResult, 1)

	parser := pipeline.NewParser(log, 1, files, results)

	errChan := make(chan error, 1)
	go func() {
		errChan <- parser.Run(t.Context())
	}()

	close(files)

	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("timeout: error was not sent to channel")
	}

	_, ok := <-results
	assert.False(t, ok)
}

func TestParser_Run_Workers(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	const count = 6

	files := make(chan string, count)
	want := make([]string, 0, count)
	for i := range count {
		filename := writeFile(t, dir, fmt.Sprintf("plant_%d.csv", i), sampleCSV)
		files <- filename
		want = append(want, filename)
	}
	close(files)

	results := make(chan *domain.ConversionResult, count)

	require.NoError(t, pipeline.NewParser(log, 3, files, results).Run(t.Context()))

	got := make([]string, 0, count)
	for result := range results {
		require.NoError(t, result.Error)
		assert.Equal(t, 4, result.EntriesCount())
		got = append(got, result.Filename)
	}

	assert.ElementsMatch(t, want, got)
}
