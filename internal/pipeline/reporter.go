package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/emit"
	"github.com/kurochkinivan/modbus_map_maker/internal/infrastructure/outfile"
	"github.com/kurochkinivan/modbus_map_maker/internal/infrastructure/report_generator"
	"github.com/kurochkinivan/modbus_map_maker/internal/specfile"
)

const (
	JSONFile = "mapping.json"
	YAMLFile = "mapping.yaml"
)

// Reporter builds the output directory of every converted file: the
// serialized spec, the emitted artifacts and one PDF per device. PDFs are
// skipped when the report generator is nil.
type Reporter struct {
	log             *slog.Logger
	buildDir        string
	reports         <-chan *domain.ConversionResult
	reportGenerator ReportGenerator
}

func NewReporter(
	log *slog.Logger,
	buildDir string,
	reports <-chan *domain.ConversionResult,
	reportGenerator ReportGenerator,
) *Reporter {
	return &Reporter{
		log:             log,
		buildDir:        buildDir,
		reports:         reports,
		reportGenerator: reportGenerator,
	}
}

func (r *Reporter) Run(ctx context.Context) error {
	for {
		select {
		case result, ok := <-r.reports:
			if !ok {
				return nil
			}

			if result.Error != nil || result.Spec == nil {
				continue
			}

			log := r.log.With(
				slog.String("filename", result.Filename),
				slog.Int("entries_count", result.EntriesCount()),
			)

			log.InfoContext(ctx, "building outputs")

			dir, err := r.build(result)
			if err != nil {
				log.ErrorContext(ctx, "failed to build outputs", slog.String("err", err.Error()))
				continue
			}

			log.InfoContext(ctx, "outputs built", slog.String("dir", dir))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// OutputDir is where the outputs of the mapping file at filename go.
func OutputDir(buildDir, filename string) string {
	base := filepath.Base(filename)
	return filepath.Join(buildDir, strings.TrimSuffix(base, filepath.Ext(base)))
}

func (r *Reporter) build(result *domain.ConversionResult) (string, error) {
	spec := result.Spec
	dir := OutputDir(r.buildDir, result.Filename)

	if err := WriteOutputs(spec, dir); err != nil {
		return "", err
	}

	if r.reportGenerator == nil {
		return dir, nil
	}

	source := filepath.Base(result.Filename)
	for _, group := range spec.ByDevice() {
		path := filepath.Join(dir, report_generator.FileName(group.Device))

		if err := r.reportGenerator.GenerateReport(path, group.Device, source, group.Entries); err != nil {
			return "", fmt.Errorf("device %s: %w", group.Device, err)
		}
	}

	return dir, nil
}

// WriteOutputs writes the JSON and YAML specs and the emitted artifacts into
// dir. Everything is rendered before dir is created, so symbol collisions
// leave no trace, and the five files are replaced together.
func WriteOutputs(spec *domain.MapSpec, dir string) error {
	jsonData, err := specfile.MarshalJSON(spec)
	if err != nil {
		return err
	}

	yamlData, err := specfile.MarshalYAML(spec)
	if err != nil {
		return err
	}

	artifacts, err := emit.Artifacts(spec, dir)
	if err != nil {
		return err
	}

	if err := outfile.MkdirAll(dir); err != nil {
		return err
	}

	files := append([]outfile.File{
		{Path: filepath.Join(dir, JSONFile), Data: jsonData},
		{Path: filepath.Join(dir, YAMLFile), Data: yamlData},
	}, artifacts...)

	return outfile.WriteAll(files...)
}
