package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kurochkinivan/modbus_map_maker/internal/config"
	"github.com/urfave/cli/v3"
)

// watchFlags configure the watch service. Every flag can also come from the
// YAML file given with --config.
func watchFlags() []cli.Flag {
	var configFile string

	flags := []cli.Flag{
		config.FileFlag(&configFile),
		&cli.StringFlag{
			Name:      "watch-dir",
			Aliases:   []string{"w"},
			Usage:     "Set directory to watch for mapping files",
			Value:     "input",
			Sources:   config.FromFile("app.watch_dir", &configFile),
			Validator: validateDirectory,
		},
		&cli.StringFlag{
			Name:    "build-dir",
			Aliases: []string{"b"},
			Usage:   "Set directory to write converted outputs to",
			Value:   "build",
			Sources: config.FromFile("app.build_dir", &configFile),
		},
		&cli.DurationFlag{
			Name:    "scan-interval",
			Aliases: []string{"s"},
			Value:   3 * time.Second,
			Usage:   "Set directory scan interval",
			Sources: config.FromFile("app.scan_interval", &configFile),
		},
		&cli.IntFlag{
			Name:    "parser-workers",
			Usage:   "Set how many mapping files are loaded concurrently",
			Value:   2,
			Sources: config.FromFile("app.parser_workers", &configFile),
		},
		&cli.BoolFlag{
			Name:    "reports",
			Usage:   "Render a PDF register report per device",
			Value:   true,
			Sources: config.FromFile("app.reports", &configFile),
		},
		&cli.StringFlag{
			Name:    "http-host",
			Usage:   "Set HTTP server host",
			Value:   "localhost",
			Sources: config.FromFile("http.host", &configFile),
		},
		&cli.StringFlag{
			Name:    "http-port",
			Usage:   "Set HTTP server port",
			Value:   "8080",
			Sources: config.FromFile("http.port", &configFile),
		},
		&cli.DurationFlag{
			Name:    "http-idle-timeout",
			Usage:   "Set HTTP server idle timeout",
			Value:   1 * time.Minute,
			Sources: config.FromFile("http.idle_timeout", &configFile),
		},
		&cli.DurationFlag{
			Name:    "http-read-timeout",
			Usage:   "Set HTTP server read timeout",
			Value:   15 * time.Second,
			Sources: config.FromFile("http.read_timeout", &configFile),
		},
		&cli.DurationFlag{
			Name:    "http-write-timeout",
			Usage:   "Set HTTP server write timeout",
			Value:   15 * time.Second,
			Sources: config.FromFile("http.write_timeout", &configFile),
		},
	}

	return append(flags, config.PostgreSQLFlags(&configFile)...)
}

func validateDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%q does not exist", dir)
		}
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}

	return nil
}
