package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"time"

	"github.com/urfave/cli/v3"
)

var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Config holds the settings of the watch service.
type Config struct {
	App
	PostgreSQL
	HTTP
}

type App struct {
	WatchDirectory string
	BuildDirectory string
	ScanInterval   time.Duration
	// ParserWorkers is how many mapping files are loaded concurrently.
	ParserWorkers int
	// Reports toggles the per-device PDF reports in the build directory.
	Reports bool
}

type PostgreSQL struct {
	Host           string
	Port           string
	Username       string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int32
	ConnectRetries int
}

// DSN is shared by the service pool and the migrator.
func (c PostgreSQL) DSN() string {
	return (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     c.DBName,
		RawQuery: url.Values{"sslmode": {c.sslMode()}}.Encode(),
	}).String()
}

func (c PostgreSQL) sslMode() string {
	if c.SSLMode == "" {
		return "disable"
	}
	return c.SSLMode
}

type HTTP struct {
	Host         string
	Port         string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c HTTP) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func Load(cmd *cli.Command) *Config {
	return &Config{
		App: App{
			WatchDirectory: cmd.String("watch-dir"),
			BuildDirectory: cmd.String("build-dir"),
			ScanInterval:   cmd.Duration("scan-interval"),
			ParserWorkers:  cmd.Int("parser-workers"),
			Reports:        cmd.Bool("reports"),
		},
		PostgreSQL: LoadPostgreSQL(cmd),
		HTTP: HTTP{
			Host:         cmd.String("http-host"),
			Port:         cmd.String("http-port"),
			IdleTimeout:  cmd.Duration("http-idle-timeout"),
			ReadTimeout:  cmd.Duration("http-read-timeout"),
			WriteTimeout: cmd.Duration("http-write-timeout"),
		},
	}
}

// LoadPostgreSQL reads the pg-* flags.
func LoadPostgreSQL(cmd *cli.Command) PostgreSQL {
	return PostgreSQL{
		Host:           cmd.String("pg-host"),
		Port:           cmd.String("pg-port"),
		Username:       cmd.String("pg-username"),
		Password:       cmd.String("pg-password"),
		DBName:         cmd.String("pg-dbname"),
		SSLMode:        cmd.String("pg-sslmode"),
		MaxConns:       int32(cmd.Int("pg-max-conns")),
		ConnectRetries: cmd.Int("pg-connect-retries"),
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.ScanInterval <= 0 {
		errs = append(errs, fmt.Errorf("scan interval must be positive, got %s", c.ScanInterval))
	}
	if c.ParserWorkers < 1 {
		errs = append(errs, fmt.Errorf("parser workers must be at least 1, got %d", c.ParserWorkers))
	}
	if c.BuildDirectory == "" {
		errs = append(errs, errors.New("build directory is required"))
	}

	errs = append(errs, c.PostgreSQL.Validate())

	return errors.Join(errs...)
}

func (c PostgreSQL) Validate() error {
	var errs []error

	if c.Username == "" {
		errs = append(errs, errors.New("postgresql username is required"))
	}
	if c.DBName == "" {
		errs = append(errs, errors.New("postgresql database name is required"))
	}
	if !slices.Contains(sslModes, c.sslMode()) {
		errs = append(errs, fmt.Errorf("unknown postgresql sslmode %q", c.SSLMode))
	}
	if c.MaxConns < 0 {
		errs = append(errs, fmt.Errorf("postgresql max conns must not be negative, got %d", c.MaxConns))
	}
	if c.ConnectRetries < 0 {
		errs = append(errs, fmt.Errorf("postgresql connect retries must not be negative, got %d", c.ConnectRetries))
	}

	return errors.Join(errs...)
}
