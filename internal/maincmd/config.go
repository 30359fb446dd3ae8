package maincmd

import (
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config holds the ambient, environment- and project-file-driven settings
// that apply across every subcommand, as opposed to the per-invocation
// flags parsed onto Cmd itself.
type Config struct {
	// MaxStack bounds the number of stack slots a single function
	// prototype may reserve; compilation fails rather than silently
	// producing a program the intended runtime could not run.
	MaxStack int `yaml:"max_stack" env:"SAFFRON_MAX_STACK"`

	// Concurrency bounds how many files loadConfig's callers compile in
	// parallel; 0 means "let errgroup pick", handled by the caller.
	Concurrency int `yaml:"concurrency" env:"SAFFRON_CONCURRENCY"`
}

// defaultConfig holds the built-in values, applied before saffron.yaml and
// SAFFRON_* environment variables are layered on top. Neither yaml.Unmarshal
// nor env.Parse touch a field whose source is absent, so seeding the
// defaults here (rather than via an env "envDefault" tag) is what lets a
// saffron.yaml value survive when the matching environment variable is
// unset.
var defaultConfig = Config{
	MaxStack:    250,
	Concurrency: 0,
}

// projectConfigFile is the optional per-project defaults file, read from
// the current working directory if present. Environment variables always
// take precedence over it, since they are the more specific override.
const projectConfigFile = "saffron.yaml"

// loadConfig builds the effective Config: defaults, overridden by
// saffron.yaml if present in the working directory, overridden in turn by
// SAFFRON_* environment variables.
func loadConfig() (Config, error) {
	cfg := defaultConfig

	if b, err := os.ReadFile(projectConfigFile); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
