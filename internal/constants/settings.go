package constants

const (
	// General Settings
	SettingTimezone   = "timezone"
	SettingAutoBackup = "auto_backup"
	SettingWeekStart  = "week_start"

	// Default Settings Values
	DefaultTimezone   = "Local" // Use system local timezone by default
	DefaultAutoBackup = true
	DefaultWeekStart  = 1 // ISO Monday
)
