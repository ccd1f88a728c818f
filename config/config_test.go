package config

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	flag "github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	c := qt.New(t)
	c.Assert(Default().Validate(), qt.IsNil)
}

func TestLoadEnv(t *testing.T) {
	c := qt.New(t)
	t.Setenv(EnvPrefix+"DATADIR", "/tmp/zkp")
	t.Setenv(EnvPrefix+"VALIDATORS", "8")
	t.Setenv(EnvPrefix+"API_PORT", "8080")
	t.Setenv(EnvPrefix+"MAX_ATTEMPTS", "5")
	t.Setenv(EnvPrefix+"RETRY_INTERVAL", "150ms")
	t.Setenv(EnvPrefix+"BOOTSTRAP", "true")
	t.Setenv(EnvPrefix+"LOG_LEVEL", "debug")
	t.Setenv(EnvPrefix+"ARTIFACTS_URL", "https://keys.example.org/artifacts")

	conf := Default()
	c.Assert(conf.LoadEnv(), qt.IsNil)
	c.Assert(conf.DataDir, qt.Equals, "/tmp/zkp")
	c.Assert(conf.DatabaseDir(), qt.Equals, "/tmp/zkp/db")
	c.Assert(conf.Validators, qt.Equals, 8)
	c.Assert(conf.APIPort, qt.Equals, 8080)
	c.Assert(conf.MaxAttempts, qt.Equals, uint64(5))
	c.Assert(conf.RetryInterval, qt.Equals, 150*time.Millisecond)
	c.Assert(conf.Bootstrap, qt.IsTrue)
	c.Assert(conf.LogLevel, qt.Equals, "debug")
	c.Assert(conf.ArtifactsURL, qt.Equals, "https://keys.example.org/artifacts")
	c.Assert(conf.Validate(), qt.IsNil)

	t.Setenv(EnvPrefix+"VALIDATORS", "eight")
	c.Assert(Default().LoadEnv(), qt.ErrorMatches, ".*VALIDATORS.*")
}

func TestFlagsOverrideEnv(t *testing.T) {
	c := qt.New(t)
	t.Setenv(EnvPrefix+"VALIDATORS", "8")
	conf := Default()
	c.Assert(conf.LoadEnv(), qt.IsNil)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	conf.BindFlags(fs)
	c.Assert(fs.Parse([]string{"--apiPort", "7000"}), qt.IsNil)
	c.Assert(conf.Validators, qt.Equals, 8)
	c.Assert(conf.APIPort, qt.Equals, 7000)

	c.Assert(fs.Parse([]string{"--validators", "6"}), qt.IsNil)
	c.Assert(conf.Validate(), qt.ErrorMatches, "validators must be a power of two.*")
}

func TestValidate(t *testing.T) {
	c := qt.New(t)
	for _, mod := range []func(*Config){
		func(conf *Config) { conf.DataDir = "" },
		func(conf *Config) { conf.APIPort = 70000 },
		func(conf *Config) { conf.MaxAttempts = 0 },
		func(conf *Config) { conf.LogLevel = "loud" },
		func(conf *Config) { conf.ArtifactsURL = "ftp://keys.example.org" },
		func(conf *Config) { conf.ArtifactsURL = "http://[::1" },
	} {
		conf := Default()
		mod(conf)
		c.Assert(conf.Validate(), qt.IsNotNil)
	}
}
