package config

import (
	"fmt"
	"github.com/spf13/viper"
)

// DBConfig points at the sqlite file holding postings, resumes and matches.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

func (config DBConfig) validate() error {
	if config.Path == "" {
		return fmt.Errorf("missing variable: db path")
	}
	return nil
}

func (config DBConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("db.path", "HARVESTER_DB_PATH")
}
