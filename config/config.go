// Package config loads the server's settings from defaults, an optional JSON file and flags.
package config

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type Config struct {
	Addr string `json:"addr"`

	// Directory is the root of /files/. Empty disables file routes.
	Directory string `json:"directory"`

	LogLevel slog.Level `json:"log_level"`

	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`

	MaxConnections uint `json:"max_connections"`
}

func Default() Config {
	return Config{
		Addr:     "127.0.0.1:4221",
		LogLevel: slog.LevelInfo,
	}
}

// Duration reads "1.5s" style strings from JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := jsoniter.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "duration must be a string")
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "parsing duration %q", s)
	}

	*d = Duration(v)
	return nil
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Decode overlays the JSON object read from r on c.
func (c *Config) Decode(r io.Reader) error {
	if err := json.NewDecoder(r).Decode(c); err != nil {
		return errors.Wrap(err, "decoding config")
	}
	return nil
}

// Load builds a config from args, e.g. os.Args[1:].
// Flags override the file given by --config, which overrides the defaults.
func Load(name string, args []string, output io.Writer) (Config, error) {
	c := Default()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	path := fs.String("config", "", "path to a JSON config file")
	fs.StringVar(&c.Addr, "addr", c.Addr, "address to listen on")
	fs.StringVar(&c.Directory, "directory", c.Directory, "directory served under /files/")
	fs.TextVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.DurationVar((*time.Duration)(&c.ReadTimeout), "read-timeout", time.Duration(c.ReadTimeout), "deadline for reading a request, 0 for none")
	fs.DurationVar((*time.Duration)(&c.WriteTimeout), "write-timeout", time.Duration(c.WriteTimeout), "deadline for writing a response, 0 for none")
	fs.UintVar(&c.MaxConnections, "max-connections", c.MaxConnections, "connections served at once, 0 for no limit")

	if err := fs.Parse(args); err != nil {
		return Config{}, errors.Wrap(err, "parsing flags")
	}

	if *path != "" {
		fromFile := Default()
		if err := fromFile.decodeFile(*path); err != nil {
			return Config{}, err
		}

		// Re-apply the flags that were given explicitly.
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "config" {
				return
			}
			fromFile.set(f.Name, c)
		})
		c = fromFile
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c *Config) decodeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening config file")
	}
	defer f.Close()

	return c.Decode(f)
}

func (c *Config) set(flagName string, from Config) {
	switch flagName {
	case "addr":
		c.Addr = from.Addr
	case "directory":
		c.Directory = from.Directory
	case "log-level":
		c.LogLevel = from.LogLevel
	case "read-timeout":
		c.ReadTimeout = from.ReadTimeout
	case "write-timeout":
		c.WriteTimeout = from.WriteTimeout
	case "max-connections":
		c.MaxConnections = from.MaxConnections
	}
}

var (
	ErrNoAddr          = errors.New("listen address is required")
	ErrNegativeTimeout = errors.New("timeout must not be negative")
	ErrNotADirectory   = errors.New("not a directory")
)

func (c Config) Validate() error {
	if c.Addr == "" {
		return ErrNoAddr
	}

	if c.ReadTimeout < 0 {
		return errors.Wrap(ErrNegativeTimeout, "read timeout")
	}
	if c.WriteTimeout < 0 {
		return errors.Wrap(ErrNegativeTimeout, "write timeout")
	}

	return nil
}

// CheckDirectory reports whether dir can be served under /files/.
// Load does not call it: a missing directory only makes file routes answer 404.
func CheckDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrap(err, "checking directory")
	}
	if !info.IsDir() {
		return errors.Wrapf(ErrNotADirectory, "%q", dir)
	}
	return nil
}
