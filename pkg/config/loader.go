package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Load fills cfg from the process environment using `env` struct tags.
// A .env file in the working directory is applied first when present,
// so local development does not need exported variables. Variables
// already set in the environment win over the file.
func Load(cfg any) error {
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	return nil
}
