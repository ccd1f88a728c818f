// Package config holds the configuration of the prover node. Values are
// taken from the defaults, then from ALBATROSS_ZKP_* environment variables
// and finally from command line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/committee"
	"github.com/vocdoni/albatross-zkp/log"
)

// EnvPrefix is the prefix of the environment variables read by LoadEnv.
const EnvPrefix = "ALBATROSS_ZKP_"

// Config is the prover node configuration.
type Config struct {
	// DataDir is the directory of the node database.
	DataDir string
	// Validators is the committee capacity the keys are generated for.
	Validators int
	// Bootstrap generates the keys when they are not found in the database.
	Bootstrap bool
	// KeysTimeout bounds key loading, and bootstrapping when enabled.
	KeysTimeout time.Duration
	// ArtifactsURL is the base URL the key artifacts are published under.
	// Provers fetch the artifacts missing from their cache from it, and
	// zkp-setup records it next to the keys it generates.
	ArtifactsURL string

	APIHost string
	APIPort int

	// MaxAttempts is the number of attempts of a proof that fails for lack
	// of backend resources, and RetryInterval the wait before the first
	// retry.
	MaxAttempts   uint64
	RetryInterval time.Duration
	// BlockInterval is the block time of the local chain.
	BlockInterval time.Duration

	LogLevel  string
	LogOutput string
}

// Default returns the default configuration.
func Default() *Config {
	dataDir := filepath.Join(os.TempDir(), "albatross-zkp")
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dataDir = filepath.Join(home, ".albatross-zkp")
	}
	return &Config{
		DataDir:       dataDir,
		Validators:    circuits.DefaultValidators,
		KeysTimeout:   2 * time.Hour,
		APIHost:       "0.0.0.0",
		APIPort:       9090,
		MaxAttempts:   3,
		RetryInterval: 2 * time.Second,
		BlockInterval: time.Minute,
		LogLevel:      log.LogLevelInfo,
		LogOutput:     "stdout",
	}
}

// LoadEnv overrides the configuration with the environment variables set.
func (c *Config) LoadEnv() error {
	var err error
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	parse := func(name string, set func(string) error) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && err == nil {
			if perr := set(v); perr != nil {
				err = fmt.Errorf("%s%s: %w", EnvPrefix, name, perr)
			}
		}
	}
	duration := func(dst *time.Duration) func(string) error {
		return func(v string) (err error) {
			*dst, err = time.ParseDuration(v)
			return err
		}
	}
	str("DATADIR", &c.DataDir)
	str("ARTIFACTS_URL", &c.ArtifactsURL)
	str("API_HOST", &c.APIHost)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_OUTPUT", &c.LogOutput)
	parse("VALIDATORS", func(v string) (err error) {
		c.Validators, err = strconv.Atoi(v)
		return err
	})
	parse("API_PORT", func(v string) (err error) {
		c.APIPort, err = strconv.Atoi(v)
		return err
	})
	parse("MAX_ATTEMPTS", func(v string) (err error) {
		c.MaxAttempts, err = strconv.ParseUint(v, 10, 64)
		return err
	})
	parse("BOOTSTRAP", func(v string) (err error) {
		c.Bootstrap, err = strconv.ParseBool(v)
		return err
	})
	parse("RETRY_INTERVAL", duration(&c.RetryInterval))
	parse("BLOCK_INTERVAL", duration(&c.BlockInterval))
	parse("KEYS_TIMEOUT", duration(&c.KeysTimeout))
	return err
}

// BindFlags registers the configuration flags in fs, with the current
// values as defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVarP(&c.DataDir, "datadir", "d", c.DataDir, "data directory")
	fs.IntVar(&c.Validators, "validators", c.Validators, "committee capacity, a power of two")
	fs.BoolVar(&c.Bootstrap, "bootstrap", c.Bootstrap, "generate the keys if they are not found")
	fs.DurationVar(&c.KeysTimeout, "keysTimeout", c.KeysTimeout, "timeout to load or generate the keys")
	fs.StringVar(&c.ArtifactsURL, "artifactsURL", c.ArtifactsURL, "base URL of the published key artifacts")
	fs.StringVar(&c.APIHost, "apiHost", c.APIHost, "API listen host")
	fs.IntVarP(&c.APIPort, "apiPort", "p", c.APIPort, "API listen port")
	fs.Uint64Var(&c.MaxAttempts, "maxAttempts", c.MaxAttempts, "attempts of a proof that fails for lack of resources")
	fs.DurationVar(&c.RetryInterval, "retryInterval", c.RetryInterval, "wait before retrying a proof")
	fs.DurationVar(&c.BlockInterval, "blockInterval", c.BlockInterval, "block time of the local chain")
	fs.StringVarP(&c.LogLevel, "logLevel", "l", c.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&c.LogOutput, "logOutput", c.LogOutput, "log output (stdout, stderr or a file path)")
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("empty data directory")
	}
	if !committee.IsPowerOfTwo(c.Validators) {
		return fmt.Errorf("validators must be a power of two, got %d", c.Validators)
	}
	if c.ArtifactsURL != "" {
		u, err := url.Parse(c.ArtifactsURL)
		if err != nil {
			return fmt.Errorf("invalid artifacts url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid artifacts url scheme %q", u.Scheme)
		}
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		return fmt.Errorf("invalid API port %d", c.APIPort)
	}
	if c.MaxAttempts == 0 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	switch c.LogLevel {
	case log.LogLevelDebug, log.LogLevelInfo, log.LogLevelWarn, log.LogLevelError:
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// DatabaseDir returns the directory of the node database.
func (c *Config) DatabaseDir() string {
	return filepath.Join(c.DataDir, "db")
}
