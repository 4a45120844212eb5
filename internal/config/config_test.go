package config

import (
	"github.com/stretchr/testify/assert"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func Test_Config_EnvironmentOverrideWorksCorrect(t *testing.T) {
	override := HarvestConfig{
		BaseURL:  "https://override.example.com",
		LoginURL: "https://override.example.com/signin",
		BoardURL: "https://override.example.com/job_board-0.html",
		Username: "overrideUser",
		Password: "overridePass",
		Schedule: "15 */2 * * *",
		MaxPages: 7,
	}
	os.Setenv("MODE", "test")

	os.Setenv("PORTAL_BASE_URL", override.BaseURL)
	os.Setenv("PORTAL_LOGIN_URL", override.LoginURL)
	os.Setenv("PORTAL_BOARD_URL", override.BoardURL)
	os.Setenv("PORTAL_USERNAME", override.Username)
	os.Setenv("PORTAL_PASSWORD", override.Password)
	os.Setenv("HARVEST_SCHEDULE", override.Schedule)
	os.Setenv("HARVEST_MAX_PAGES", strconv.Itoa(override.MaxPages))

	cfg := Get()

	assert.Equal(t, override.BaseURL, cfg.Harvest.BaseURL)
	assert.Equal(t, override.LoginURL, cfg.Harvest.LoginURL)
	assert.Equal(t, override.BoardURL, cfg.Harvest.BoardURL)
	assert.Equal(t, override.Username, cfg.Harvest.Username)
	assert.Equal(t, override.Password, cfg.Harvest.Password)
	assert.Equal(t, override.Schedule, cfg.Harvest.Schedule)
	assert.Equal(t, override.MaxPages, cfg.Harvest.MaxPages)
}

func Test_Config_ValidationRejectsBadValues(t *testing.T) {
	cfg := HarvestConfig{
		BaseURL:  "https://portal.example.com",
		BoardURL: "https://portal.example.com/job_board-0.html",
		Username: "user",
		Password: "pass",
	}
	assert.NoError(t, cfg.validate())

	cfg.Driver = "carrier-pigeon"
	assert.Error(t, cfg.validate())

	cfg.Driver = DriverBrowser
	cfg.ScoreThreshold = 120
	assert.Error(t, cfg.validate())

	cfg.ScoreThreshold = 40
	cfg.Username = ""
	assert.Error(t, cfg.validate())
}

func Test_Config_MetricsAddressDefaultsWhenUnset(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	content := `logger:
  log_level: INFO
  output_file: ./logs/errors.log
db:
  path: ./harvester.db
harvest:
  base_url: https://portal.example.com
  board_url: https://portal.example.com/job_board-0.html
  username: user
  password: pass
`
	assert.NoError(t, os.WriteFile(file, []byte(content), 0644))

	cfg, err := loadConfig(file)
	assert.NoError(t, err)
	assert.Equal(t, ":9091", cfg.Harvest.MetricsAddress)
}

func Test_Config_DefaultFileLoads(t *testing.T) {
	os.Unsetenv("PORTAL_BASE_URL")
	os.Unsetenv("HARVEST_MAX_PAGES")

	cfg, err := loadConfig("../../configs/config.yaml")
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Harvest.MinRequestDelay)
	assert.NotEmpty(t, cfg.DB.Path)
	assert.NotEmpty(t, cfg.Logger.OutputFile)
}
