package system

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/keyring"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage/postgres"
	"github.com/julianstephens/tally/internal/utils"
)

type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show the effective configuration."`
	Set      ConfigSetCmd      `cmd:"" help:"Change a stored setting."`
	SetDSN   ConfigSetDSNCmd   `cmd:"" name:"set-dsn" help:"Store a PostgreSQL connection string in the OS keyring."`
	GetDSN   ConfigGetDSNCmd   `cmd:"" name:"get-dsn" help:"Show the stored connection string with the password masked."`
	ClearDSN ConfigClearDSNCmd `cmd:"" name:"clear-dsn" help:"Remove the stored connection string."`
	Keyring  KeyringStatusCmd  `cmd:"" help:"Check that the OS keyring is usable."`
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	view := struct {
		Database string            `yaml:"database"`
		Debug    bool              `yaml:"debug,omitempty"`
		Settings map[string]string `yaml:"settings"`
	}{
		Database: maskPassword(ctx.Store.GetConfigPath()),
		Debug:    ctx.Config.Debug,
		Settings: models.SettingsToMap(settings),
	}
	data, err := yaml.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	ctx.Printf("%s", data)
	return nil
}

// ConfigSetCmd writes a setting to the database. Values from the config file
// or environment still take precedence when reading.
type ConfigSetCmd struct {
	Key   string `arg:"" enum:"timezone,auto_backup,week_start" help:"Setting to change (timezone, auto_backup, week_start)."`
	Value string `arg:"" help:"New value."`
}

func (c *ConfigSetCmd) Run(ctx *cli.Context) error {
	stored, err := ctx.Store.GetSettings(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	value := strings.TrimSpace(c.Value)

	switch c.Key {
	case constants.SettingTimezone:
		if !utils.ValidateTimezone(value) {
			return errors.Invalid("unknown timezone %q", value)
		}
	case constants.SettingAutoBackup:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Invalid("auto_backup must be true or false")
		}
		value = strconv.FormatBool(b)
	case constants.SettingWeekStart:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 7 {
			return errors.Invalid("week_start must be an ISO weekday between 1 (Monday) and 7 (Sunday)")
		}
	}

	values := models.SettingsToMap(stored)
	values[c.Key] = value
	updated, err := models.MapToSettings(values)
	if err != nil {
		return errors.Invalid("%v", err)
	}
	if err := ctx.Store.SaveSettings(ctx.Ctx(), updated); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Printf("✓ %s = %s\n", c.Key, value)
	return nil
}

type ConfigSetDSNCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in the keyring."`
}

func (c *ConfigSetDSNCmd) Run(ctx *cli.Context) error {
	if !postgres.IsConnString(c.ConnectionString) {
		return errors.Invalid("connection string must be a valid PostgreSQL connection string")
	}
	if _, err := postgres.ValidateConnString(c.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		ctx.Println(cli.WarnStyle.Render("⚠ Connection string contains embedded credentials."))
		ctx.Println("  It will be stored as-is in the OS keyring. Use .pgpass or PGPASSWORD to keep the password separate.")
	}
	if err := keyring.SetConnectionString(c.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}
	ctx.Println("✓ Connection string stored in OS keyring")
	return nil
}

type ConfigGetDSNCmd struct{}

func (c *ConfigGetDSNCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no connection string in keyring, use 'tally config set-dsn' to store one")
		}
		return fmt.Errorf("failed to read keyring: %w", err)
	}
	ctx.Println(maskPassword(connStr))
	return nil
}

type ConfigClearDSNCmd struct{}

func (c *ConfigClearDSNCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no connection string in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}
	ctx.Println("✓ Connection string deleted from OS keyring")
	return nil
}

type KeyringStatusCmd struct{}

func (c *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	ctx.Println("✓ OS keyring is available")
	if _, err := keyring.GetConnectionString(); err == nil {
		ctx.Println("✓ Connection string is stored in keyring")
	} else if errors.Is(err, keyring.ErrNotFound) {
		ctx.Println("ℹ No connection string stored in keyring")
	}
	return nil
}

// maskPassword hides the password of a URL or key=value connection string.
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		idx := strings.Index(connStr, "://")
		rest := connStr[idx+3:]
		if at := strings.LastIndex(rest, "@"); at != -1 {
			userInfo := rest[:at]
			if colon := strings.Index(userInfo, ":"); colon != -1 {
				return connStr[:idx+3] + userInfo[:colon] + ":****" + rest[at:]
			}
		}
		return connStr
	}
	if !strings.Contains(connStr, "password=") {
		return connStr
	}
	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
