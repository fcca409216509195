package lambert

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ConfigEnv is the environment variable holding the directory of conf.toml.
const ConfigEnv = "LAMBERT_CONFIG"

// Config is the solver selection and its options, as read from the `[lambert]` section of a TOML file:
//
//	[lambert]
//	algorithm = "izzo"        # or "universal"
//	direction = "prograde"    # or "retrograde"
//	tolerance = 1e-8
//	max_iterations = 35
type Config struct {
	Algorithm string
	Options   Options
}

// Solver returns the configured solver.
func (c Config) Solver() (Solver, error) {
	return SolverFromString(c.Algorithm)
}

// LoadConfig reads confPath/conf.toml. If confPath is empty, the directory is read from the LAMBERT_CONFIG
// environment variable, and the defaults are returned if that is empty too.
func LoadConfig(confPath string) (Config, error) {
	if confPath == "" {
		confPath = os.Getenv(ConfigEnv)
	}
	v := viper.New()
	if confPath != "" {
		v.SetConfigName("conf")
		v.SetConfigType("toml")
		v.AddConfigPath(confPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%s/conf.toml: %w", confPath, err)
		}
	}
	return ConfigFromViper(v)
}

// ConfigFromViper reads the `[lambert]` section of an already loaded configuration.
func ConfigFromViper(v *viper.Viper) (c Config, err error) {
	v.SetDefault("lambert.algorithm", "izzo")
	v.SetDefault("lambert.direction", Prograde.String())
	v.SetDefault("lambert.tolerance", DefaultTolerance)
	v.SetDefault("lambert.max_iterations", DefaultMaxIterations)

	c.Algorithm = v.GetString("lambert.algorithm")
	if _, err = SolverFromString(c.Algorithm); err != nil {
		return
	}
	if c.Options.Direction, err = DirectionFromString(v.GetString("lambert.direction")); err != nil {
		return
	}
	maxIter := v.GetInt("lambert.max_iterations")
	if maxIter <= 0 {
		err = invalidInputf("max_iterations must be positive, got %d", maxIter)
		return
	}
	c.Options.MaxIterations = uint(maxIter)
	c.Options.Tolerance = v.GetFloat64("lambert.tolerance")
	if !(c.Options.Tolerance > 0) {
		err = invalidInputf("tolerance must be positive, got %g", c.Options.Tolerance)
		return
	}
	c.Options, err = c.Options.validate()
	return
}
