package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kurochkinivan/modbus_map_maker/internal/app"
	"github.com/kurochkinivan/modbus_map_maker/internal/config"
	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/emit"
	"github.com/kurochkinivan/modbus_map_maker/internal/infrastructure/outfile"
	"github.com/kurochkinivan/modbus_map_maker/internal/infrastructure/report_generator"
	"github.com/kurochkinivan/modbus_map_maker/internal/mapping"
	"github.com/kurochkinivan/modbus_map_maker/internal/pipeline"
	"github.com/kurochkinivan/modbus_map_maker/internal/specfile"
	"github.com/kurochkinivan/modbus_map_maker/internal/templatestore"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func cmd() *cli.Command {
	return &cli.Command{
		Name:    "modbus_map_maker",
		Usage:   "From CSV/Excel register maps to JSON/YAML specs and generated code",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				logLevel.Set(slog.LevelDebug)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			validateCommand(),
			convertCommand("to-json", "Convert a CSV/Excel mapping to a JSON spec", "mapping.json", specfile.WriteJSON),
			convertCommand("to-yaml", "Convert a CSV/Excel mapping to a YAML spec", "mapping.yaml", specfile.WriteYAML),
			convertSpecCommand(),
			emitCodeCommand(),
			generateCommand(),
			reportCommand(),
			templatesCommand(),
			watchCommand(),
		},
	}
}

func outDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "out-dir",
		Aliases: []string{"o"},
		Usage:   "Write outputs into `DIR`",
		Value:   "build",
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a CSV/Excel mapping file",
		ArgsUsage: "PATH",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := arg(cmd, 0, "PATH")
			if err != nil {
				return err
			}

			spec, err := mapping.LoadMapping(path)
			if err != nil {
				return err
			}

			printf(cmd, "OK: mapping is valid (%d entries).\n", len(spec.Entries))
			return nil
		},
	}
}

func convertCommand(name, usage, defaultOut string, write func(*domain.MapSpec, string) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the spec to `FILE`",
				Value:   defaultOut,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := arg(cmd, 0, "PATH")
			if err != nil {
				return err
			}

			spec, err := mapping.LoadMapping(path)
			if err != nil {
				return err
			}

			out := cmd.String("out")
			if err := write(spec, out); err != nil {
				return err
			}

			printf(cmd, "Wrote %s\n", out)
			return nil
		},
	}
}

// emitters are the artifacts emit-code --only can select.
var emitters = map[string]struct {
	file string
	emit func(*domain.MapSpec, string) error
}{
	"python": {emit.PythonFile, emit.EmitPython},
	"header": {emit.CHeaderFile, emit.EmitCHeader},
	"defs":   {emit.DefsFile, emit.EmitDefs},
}

func emitCodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "emit-code",
		Usage:     "Emit code from a JSON/YAML spec",
		ArgsUsage: "SPEC",
		Flags: []cli.Flag{
			outDirFlag(),
			&cli.StringFlag{
				Name:  "only",
				Usage: "Emit a single artifact: `python`, header or defs",
				Validator: func(only string) error {
					if _, ok := emitters[only]; !ok {
						return fmt.Errorf("unknown artifact %q, expected python, header or defs", only)
					}
					return nil
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := arg(cmd, 0, "SPEC")
			if err != nil {
				return err
			}

			spec, err := specfile.Load(path)
			if err != nil {
				return err
			}

			dir := cmd.String("out-dir")

			if only := cmd.String("only"); only != "" {
				e := emitters[only]
				out := filepath.Join(dir, e.file)

				if err := outfile.MkdirAll(dir); err != nil {
					return err
				}
				if err := e.emit(spec, out); err != nil {
					return err
				}

				printf(cmd, "Wrote %s\n", out)
				return nil
			}

			if _, err := emit.EmitAll(spec, dir); err != nil {
				return err
			}

			printf(cmd, "Code emitted into %s\n", dir)
			return nil
		},
	}
}

func convertSpecCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a spec between JSON and YAML, picking the format from the extensions",
		ArgsUsage: "SPEC OUT",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := arg(cmd, 0, "SPEC")
			if err != nil {
				return err
			}
			out, err := arg(cmd, 1, "OUT")
			if err != nil {
				return err
			}

			spec, err := specfile.Load(path)
			if err != nil {
				return err
			}

			if err := specfile.Write(spec, out); err != nil {
				return err
			}

			printf(cmd, "Wrote %s\n", out)
			return nil
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Convert a CSV/Excel mapping into every output (JSON/YAML spec and code)",
		ArgsUsage: "PATH",
		Flags:     []cli.Flag{outDirFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := arg(cmd, 0, "PATH")
			if err != nil {
				return err
			}

			spec, err := mapping.LoadMapping(path)
			if err != nil {
				return err
			}

			dir := cmd.String("out-dir")
			if err := pipeline.WriteOutputs(spec, dir); err != nil {
				return err
			}

			printf(cmd, "All outputs generated in %s\n", dir)
			return nil
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Render one PDF register report per device",
		ArgsUsage: "PATH",
		Flags:     []cli.Flag{outDirFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log, err := logger(ctx)
			if err != nil {
				return err
			}

			path, err := arg(cmd, 0, "PATH")
			if err != nil {
				return err
			}

			spec, err := loadAny(path)
			if err != nil {
				return err
			}

			dir := cmd.String("out-dir")
			if err := outfile.MkdirAll(dir); err != nil {
				return err
			}

			generator := report_generator.New()
			source := filepath.Base(path)

			for _, group := range spec.ByDevice() {
				out := filepath.Join(dir, report_generator.FileName(group.Device))

				log.DebugContext(ctx, "rendering report",
					slog.String("device", group.Device),
					slog.Int("entries_count", len(group.Entries)),
				)

				if err := generator.GenerateReport(out, group.Device, source, group.Entries); err != nil {
					return fmt.Errorf("failed to render report for %s: %w", group.Device, err)
				}

				printf(cmd, "Wrote %s\n", out)
			}

			return nil
		},
	}
}

func templatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "Manage reusable Excel mapping templates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "template-dir",
				Usage:   "Keep templates in `DIR`",
				Sources: cli.EnvVars(templatestore.EnvTemplateDir),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "store",
				Usage:     "Copy a workbook into the template store",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Store the template under `NAME` instead of the file name",
					},
				},
				Action: withStore(func(ctx context.Context, cmd *cli.Command, store *templatestore.Store) error {
					path, err := arg(cmd, 0, "PATH")
					if err != nil {
						return err
					}

					tmpl, err := store.Store(ctx, path, cmd.String("name"))
					if err != nil {
						return err
					}

					printf(cmd, "Stored template %s at %s\n", tmpl.Slug, tmpl.Path)
					return nil
				}),
			},
			{
				Name:  "list",
				Usage: "List stored templates",
				Action: withStore(func(ctx context.Context, cmd *cli.Command, store *templatestore.Store) error {
					templates, err := store.List(ctx)
					if err != nil {
						return err
					}

					if len(templates) == 0 {
						printf(cmd, "No templates stored in %s\n", store.Root())
						return nil
					}

					for _, tmpl := range templates {
						printf(cmd, "%s\t%s\t%s\n", tmpl.Slug, tmpl.DisplayName, tmpl.Path)
					}
					return nil
				}),
			},
			{
				Name:      "find",
				Usage:     "Print the path of a stored template",
				ArgsUsage: "NAME",
				Action: withStore(func(ctx context.Context, cmd *cli.Command, store *templatestore.Store) error {
					slug, err := arg(cmd, 0, "NAME")
					if err != nil {
						return err
					}

					tmpl, err := store.Find(ctx, slug)
					if err != nil {
						return err
					}

					printf(cmd, "%s\n", tmpl.Path)
					return nil
				}),
			},
			{
				Name:      "clone",
				Usage:     "Copy a stored template to a file or directory",
				ArgsUsage: "NAME DEST",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace an existing destination file",
					},
				},
				Action: withStore(func(ctx context.Context, cmd *cli.Command, store *templatestore.Store) error {
					slug, err := arg(cmd, 0, "NAME")
					if err != nil {
						return err
					}
					dest, err := arg(cmd, 1, "DEST")
					if err != nil {
						return err
					}

					target, err := store.Clone(ctx, slug, dest, cmd.Bool("overwrite"))
					if err != nil {
						return err
					}

					printf(cmd, "Cloned %s to %s\n", slug, target)
					return nil
				}),
			},
			{
				Name:      "remove",
				Usage:     "Delete a stored template",
				ArgsUsage: "NAME",
				Action: withStore(func(ctx context.Context, cmd *cli.Command, store *templatestore.Store) error {
					slug, err := arg(cmd, 0, "NAME")
					if err != nil {
						return err
					}

					if err := store.Remove(ctx, slug); err != nil {
						return err
					}

					printf(cmd, "Removed %s\n", slug)
					return nil
				}),
			},
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Convert mapping files dropped into a directory and serve their registers",
		Flags: watchFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log, err := logger(ctx)
			if err != nil {
				return err
			}

			cfg := config.Load(cmd)

			return app.New(log, cfg).Run(ctx)
		},
	}
}

func withStore(fn func(ctx context.Context, cmd *cli.Command, store *templatestore.Store) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) (err error) {
		root := cmd.String("template-dir")
		if root == "" {
			if root, err = templatestore.DefaultRoot(); err != nil {
				return err
			}
		}

		store, err := templatestore.Open(ctx, root)
		if err != nil {
			return fmt.Errorf("failed to open template store: %w", err)
		}
		defer func() { err = errors.Join(err, store.Close()) }()

		return fn(ctx, cmd, store)
	}
}

// loadAny reads a serialized spec by extension and anything else as a
// tabular mapping.
func loadAny(path string) (*domain.MapSpec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return specfile.Load(path)
	default:
		return mapping.LoadMapping(path)
	}
}

func arg(cmd *cli.Command, i int, name string) (string, error) {
	if cmd.NArg() <= i {
		return "", fmt.Errorf("missing %s argument, usage: %s %s", name, cmd.FullName(), cmd.ArgsUsage)
	}
	return cmd.Args().Get(i), nil
}

func printf(cmd *cli.Command, format string, args ...any) {
	fmt.Fprintf(cmd.Root().Writer, format, args...)
}
