package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Load populates cfg from the process environment using `env` struct tags.
//
// Any dotenv files passed in are read first. Variables already present in
// the environment win over values from the files, and files that do not exist
// are skipped so the same binary runs unchanged in containers.
//
//	type Config struct {
//	    Port      int    `env:"HTTP_PORT" envDefault:"8080"`
//	    JWTSecret string `env:"JWT_SECRET,required"`
//	}
//
//	err := config.Load(&cfg, ".env")
func Load(cfg any, dotenvFiles ...string) error {
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load dotenv %s: %w", file, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
