package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays values from the environment onto cfg. Variables that are
// not set leave the corresponding field untouched, so defaults and the JSON
// layer survive.
func parseEnv(cfg *Config) {
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
}
