// Package config resolves command line flags, environment and an optional
// config file into the settings of one run.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/spf13/viper"

	"zvtdump/internal/extractor"
	"zvtdump/internal/tshark"
)

// Capture backends selectable with --reader.
const (
	ReaderTshark  = "tshark"
	ReaderPcapgo  = "pcapgo"
	ReaderLibpcap = "libpcap"
)

// EnvPrefix prefixes every environment override, e.g. ZVTDUMP_OUTPUT_DIR.
const EnvPrefix = "ZVTDUMP"

// Config is the resolved configuration of one run.
type Config struct {
	Input                string `mapstructure:"input"`
	OutputDir            string `mapstructure:"output_dir"`
	Reader               string `mapstructure:"reader"`
	TsharkPath           string `mapstructure:"tshark-path"`
	ContinueOnWriteError bool   `mapstructure:"continue-on-write-error"`
	SkipEmptyPayload     bool   `mapstructure:"skip-empty-payload"`
	Verbose              bool   `mapstructure:"verbose"`
	ConfigPath           string `mapstructure:"-"` // not from config file
}

// options mirrors the command line. Only flags that were given override the
// lower layers, so none of them carry a go-flags default.
type options struct {
	Input                string `short:"i" long:"input" required:"yes" value-name:"CAPTURE_FILE" description:"capture file to read"`
	OutputDir            string `short:"o" long:"output_dir" value-name:"DIR" description:"directory for dumped files (default: zvt_packets)"`
	Reader               string `long:"reader" choice:"tshark" choice:"pcapgo" choice:"libpcap" description:"capture backend (default: tshark)"`
	TsharkPath           string `long:"tshark-path" value-name:"PATH" description:"tshark executable (default: tshark)"`
	ContinueOnWriteError bool   `long:"continue-on-write-error" description:"log blobs that cannot be written and keep going"`
	SkipEmptyPayload     bool   `long:"skip-empty-payload" description:"do not write zero byte blobs"`
	Verbose              bool   `short:"v" long:"verbose" description:"log every written blob"`
	ConfigPath           string `short:"c" long:"config" value-name:"FILE" description:"optional YAML config file"`
}

// IsHelp reports whether err is the help request returned by Load.
func IsHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}

// Load parses args (without the program name) and layers defaults, the
// config file, ZVTDUMP_* environment variables and the flags, in that order.
func Load(args []string) (Config, error) {
	var cfg Config
	var opts options

	parser := flags.NewParser(&opts, flags.HelpFlag)
	parser.Name = "zvtdump"
	parser.ShortDescription = "Extract ZVT packages from the given file."

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return cfg, err
	}
	if len(rest) > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("input", "")
	v.SetDefault("output_dir", extractor.DefaultOutputDir)
	v.SetDefault("reader", ReaderTshark)
	v.SetDefault("tshark-path", tshark.DefaultBinary)
	v.SetDefault("continue-on-write-error", false)
	v.SetDefault("skip-empty-payload", false)
	v.SetDefault("verbose", false)

	if opts.ConfigPath != "" {
		v.SetConfigFile(opts.ConfigPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", opts.ConfigPath, err)
		}
	}

	v.Set("input", opts.Input)
	if opts.OutputDir != "" {
		v.Set("output_dir", opts.OutputDir)
	}
	if opts.Reader != "" {
		v.Set("reader", opts.Reader)
	}
	if opts.TsharkPath != "" {
		v.Set("tshark-path", opts.TsharkPath)
	}
	if opts.ContinueOnWriteError {
		v.Set("continue-on-write-error", true)
	}
	if opts.SkipEmptyPayload {
		v.Set("skip-empty-payload", true)
	}
	if opts.Verbose {
		v.Set("verbose", true)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	switch cfg.Reader {
	case ReaderTshark, ReaderPcapgo, ReaderLibpcap:
	default:
		return cfg, fmt.Errorf("invalid reader: %q", cfg.Reader)
	}
	if cfg.OutputDir == "" {
		return cfg, errors.New("output_dir must not be empty")
	}
	return cfg, nil
}

// ExtractorConfig translates the run settings into extractor policies.
func (c Config) ExtractorConfig() extractor.Config {
	ec := extractor.Config{OutputDir: c.OutputDir}
	if c.ContinueOnWriteError {
		ec.OnWriteError = extractor.ContinueOnWriteError
	}
	if c.SkipEmptyPayload {
		ec.OnEmpty = extractor.SkipEmptyPayload
	}
	return ec
}
