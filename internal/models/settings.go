package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/tally/internal/constants"
)

// Settings represents application-wide settings stored alongside the data
type Settings struct {
	Timezone   string `json:"timezone"`    // IANA timezone name (e.g. "America/New_York", or "Local" for system timezone)
	AutoBackup bool   `json:"auto_backup"` // whether to back up before structural edits and imports
	WeekStart  int    `json:"week_start"`  // ISO weekday the log view starts on
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingAutoBackup:
			settings.AutoBackup = value == "true"
		case constants.SettingWeekStart:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing week_start: %w", err)
			}
			settings.WeekStart = n
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:   settings.Timezone,
		constants.SettingAutoBackup: strconv.FormatBool(settings.AutoBackup),
		constants.SettingWeekStart:  strconv.Itoa(settings.WeekStart),
	}
}

// DefaultSettings returns the settings a fresh store is initialized with.
func DefaultSettings() Settings {
	return Settings{
		Timezone:   constants.DefaultTimezone,
		AutoBackup: constants.DefaultAutoBackup,
		WeekStart:  constants.DefaultWeekStart,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.WeekStart < 1 || settings.WeekStart > 7 {
		settings.WeekStart = constants.DefaultWeekStart
	}
}
