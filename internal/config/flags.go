package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

// FileFlag is --config. Its value feeds every FromFile source sharing
// configFile.
func FileFlag(configFile *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Validator:   validateFile,
		Usage:       "Load configuration from YAML `FILE`",
		Destination: configFile,
	}
}

func validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%q does not exist", path)
		}
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%q is a directory, not a file", path)
	}

	if ext := filepath.Ext(info.Name()); ext != ".yml" && ext != ".yaml" {
		return fmt.Errorf("invalid extension %q, expected .yml or .yaml", ext)
	}

	return nil
}

// FromFile reads key from the YAML file whose path ends up in configFile.
func FromFile(key string, configFile *string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(yaml.YAML(key, altsrc.NewStringPtrSourcer(configFile)))
}

// PostgreSQLFlags are the pg-* flags read by LoadPostgreSQL. Values missing
// on the command line are looked up under postgresql.* in configFile.
func PostgreSQLFlags(configFile *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "pg-host",
			Usage:   "Set PostgreSQL host",
			Value:   "localhost",
			Sources: FromFile("postgresql.host", configFile),
		},
		&cli.StringFlag{
			Name:    "pg-port",
			Usage:   "Set PostgreSQL port",
			Value:   "5432",
			Sources: FromFile("postgresql.port", configFile),
		},
		&cli.StringFlag{
			Name:     "pg-username",
			Usage:    "Set PostgreSQL username",
			Sources:  FromFile("postgresql.username", configFile),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "pg-password",
			Usage:    "Set PostgreSQL password",
			Sources:  FromFile("postgresql.password", configFile),
			Required: true,
		},
		&cli.StringFlag{
			Name:    "pg-dbname",
			Usage:   "Set PostgreSQL database name",
			Value:   "modbus_map_maker",
			Sources: FromFile("postgresql.dbname", configFile),
		},
		&cli.StringFlag{
			Name:    "pg-sslmode",
			Usage:   "Set PostgreSQL sslmode",
			Value:   "disable",
			Sources: FromFile("postgresql.sslmode", configFile),
		},
		&cli.IntFlag{
			Name:    "pg-max-conns",
			Usage:   "Set PostgreSQL pool size, 0 keeps the driver default",
			Sources: FromFile("postgresql.max_conns", configFile),
		},
		&cli.IntFlag{
			Name:    "pg-connect-retries",
			Usage:   "Set how many times to retry the first PostgreSQL connection",
			Value:   5,
			Sources: FromFile("postgresql.connect_retries", configFile),
		},
	}
}
