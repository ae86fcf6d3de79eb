package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/dmdmdm-nz/ifwatchd/pkg/version"
)

// Duration is a time.Duration written as "2s" in the config file.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(b []byte) error {
	var s string
	if err := yaml.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Config holds the application configuration from CLI flags and the
// optional config file.
type Config struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	LogLevel string `yaml:"logLevel"`

	// QueueLimit bounds each event subscriber's backlog; 0 is unbounded.
	QueueLimit int `yaml:"queueLimit"`

	// RestartDelay and MaxRestarts govern watcher restarts after a socket
	// or protocol error. MaxRestarts 0 restarts forever.
	RestartDelay Duration `yaml:"restartDelay"`
	MaxRestarts  int      `yaml:"maxRestarts"`

	// SysfsPath is where the operstate probe finds class/net.
	SysfsPath string `yaml:"sysfsPath"`

	ConfigPath string `yaml:"-"`
}

var DefaultConfig = Config{
	Port:         60106,
	Host:         "127.0.0.1",
	LogLevel:     "info",
	QueueLimit:   1024,
	RestartDelay: Duration(time.Second),
	MaxRestarts:  0,
	SysfsPath:    "/sys",
}

func (c *Config) UnmarshalYAML(b []byte) error {
	// Needed to break recursive calls into UnmarshalYAML
	type config Config

	def := config(DefaultConfig)

	if err := yaml.Unmarshal(b, &def); err != nil {
		return err
	}

	*c = Config(def)

	return nil
}

// ReadConfig loads a YAML config file over the defaults.
func ReadConfig(path string) (Config, error) {
	r, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	conf := DefaultConfig
	if err := yaml.Unmarshal(r, &conf); err != nil {
		return Config{}, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return conf, nil
}

// Parse reads args into a Config. Values come from DefaultConfig, then the
// file named by -config, then any flag given explicitly.
func Parse(fs *flag.FlagSet, args []string) (cfg *Config, showVersion bool, err error) {
	flags := DefaultConfig

	fs.IntVar(&flags.Port, "port", flags.Port, "Port to listen on")
	fs.StringVar(&flags.Host, "host", flags.Host, "Host to bind to")
	fs.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level (trace, debug, info, warn, error)")
	fs.IntVar(&flags.QueueLimit, "queue-limit", flags.QueueLimit, "Events buffered per subscriber before the oldest is dropped (0 = unbounded)")
	fs.DurationVar((*time.Duration)(&flags.RestartDelay), "restart-delay", time.Duration(flags.RestartDelay), "Delay before restarting the link watcher")
	fs.IntVar(&flags.MaxRestarts, "max-restarts", flags.MaxRestarts, "Watcher restarts before giving up (0 = unlimited)")
	fs.StringVar(&flags.SysfsPath, "sysfs", flags.SysfsPath, "sysfs mount point used by the operstate probe")
	fs.StringVar(&flags.ConfigPath, "config", "", "Path to a YAML config file")
	fs.BoolVar(&showVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	if flags.ConfigPath == "" {
		return &flags, showVersion, nil
	}

	conf, err := ReadConfig(flags.ConfigPath)
	if err != nil {
		return nil, showVersion, err
	}
	conf.ConfigPath = flags.ConfigPath

	// Flags given on the command line beat the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			conf.Port = flags.Port
		case "host":
			conf.Host = flags.Host
		case "log-level":
			conf.LogLevel = flags.LogLevel
		case "queue-limit":
			conf.QueueLimit = flags.QueueLimit
		case "restart-delay":
			conf.RestartDelay = flags.RestartDelay
		case "max-restarts":
			conf.MaxRestarts = flags.MaxRestarts
		case "sysfs":
			conf.SysfsPath = flags.SysfsPath
		}
	})
	return &conf, showVersion, nil
}

// ParseFlags parses command line arguments and returns a Config
func ParseFlags() *Config {
	cfg, showVersion, err := Parse(flag.CommandLine, os.Args[1:])
	if showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

// String returns a string representation of the Config
func (c *Config) String() string {
	return fmt.Sprintf("Host: %s, Port: %d, LogLevel: %s, QueueLimit: %d, RestartDelay: %s, MaxRestarts: %d, Sysfs: %s",
		c.Host, c.Port, c.LogLevel, c.QueueLimit, time.Duration(c.RestartDelay), c.MaxRestarts, c.SysfsPath)
}
