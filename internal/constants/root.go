package constants

const (
	AppName            = "tally"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/tally"
	DefaultDBPath      = "~/.config/tally/tally.db"
	DefaultConfigFile  = "~/.config/tally/config.yaml"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "tally-"
	BackupFileSuffix = ".db"

	// CarryForwardLookbackDays bounds the backward scan for a missed periodic occurrence.
	CarryForwardLookbackDays = 60

	// MaxStreakLookbackDays bounds streak walks when an item has no usable creation date.
	MaxStreakLookbackDays = 3650

	// ExportVersion is the current import/export document version.
	ExportVersion = 2

	// Environment overrides
	EnvDatabase = "TALLY_DB"
	EnvTimezone = "TALLY_TIMEZONE"
	EnvDebug    = "TALLY_DEBUG"
)
