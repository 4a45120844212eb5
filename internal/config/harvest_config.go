package config

import (
	"fmt"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type driverKind string

const (
	DriverHTTP    driverKind = "http"
	DriverBrowser driverKind = "browser"
)

type HarvestConfig struct {
	BaseURL                 string        `mapstructure:"base_url"`
	LoginURL                string        `mapstructure:"login_url"`
	BoardURL                string        `mapstructure:"board_url"`
	Username                string        `mapstructure:"username"`
	Password                string        `mapstructure:"password"`
	Driver                  driverKind    `mapstructure:"driver"`
	MaxPages                int           `mapstructure:"max_pages"`
	MaxRequestsPerSecond    float32       `mapstructure:"max_requests_per_second"`
	RequestTimeout          time.Duration `mapstructure:"request_timeout"`
	MinRequestDelay         time.Duration `mapstructure:"min_request_delay"`
	MaxRequestDelay         time.Duration `mapstructure:"max_request_delay"`
	ScoreThreshold          float64       `mapstructure:"score_threshold"`
	PostingExpirationInDays int           `mapstructure:"posting_expiration_days"`
	Schedule                string        `mapstructure:"schedule"`
	CleanupSchedule         string        `mapstructure:"cleanup_schedule"`
	MetricsAddress          string        `mapstructure:"metrics_address"`
}

func (config HarvestConfig) validate() error {

	var missingFields []string

	if config.BaseURL == "" {
		missingFields = append(missingFields, "base_url")
	}

	if config.BoardURL == "" {
		missingFields = append(missingFields, "board_url")
	}

	if config.Username == "" {
		missingFields = append(missingFields, "username")
	}

	if config.Password == "" {
		missingFields = append(missingFields, "password")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
	}

	if config.Driver != "" && config.Driver != DriverHTTP && config.Driver != DriverBrowser {
		return fmt.Errorf("unknown driver: %s", config.Driver)
	}

	if config.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative")
	}

	if config.ScoreThreshold < 0 || config.ScoreThreshold > 100 {
		return fmt.Errorf("score_threshold must be within [0, 100]")
	}

	return nil
}

func (config HarvestConfig) bindEnvironmentVariables() error {
	var errs []error

	bindings := map[string]string{
		"harvest.base_url":  "PORTAL_BASE_URL",
		"harvest.login_url": "PORTAL_LOGIN_URL",
		"harvest.board_url": "PORTAL_BOARD_URL",
		"harvest.username":  "PORTAL_USERNAME",
		"harvest.password":  "PORTAL_PASSWORD",
		"harvest.schedule":  "HARVEST_SCHEDULE",
		"harvest.max_pages": "HARVEST_MAX_PAGES",
	}

	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
