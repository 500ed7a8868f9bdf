package constants

import "time"

const (
	AppName            = "microhabit"
	DefaultKeyringUser = "store-connection"
	DefaultConfigDir   = "~/.config/microhabit"
	Version            = "v0.3.0"

	// DateFormat is the date-key layout used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the reminder time-of-day layout (HH:MM)
	TimeFormat = "15:04"

	// DisplayTimestampFormat is used for the human readable timestamp on thoughts and reminders
	DisplayTimestampFormat = "Jan 2, 2006 3:04 PM"

	// Store keys
	KeyHabits        = "habits"
	KeyCompletions   = "completions"
	KeyThoughts      = "thoughts"
	KeyReminders     = "reminders"
	KeyLastResetDate = "lastResetDate"

	// StoreNamespace prefixes every key written to a backend
	StoreNamespace = "microhabit/"

	// Domain limits
	StreakMaxDays      = 365
	ThoughtDisplayMax  = 10
	CalendarLookback   = 27
	CalendarDays       = 35
	UpdateMaxAttempts  = 5
	UpdateRetryBackoff = 20 * time.Millisecond

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "microhabit-"
	BackupFileSuffix = ".json"

	// Notify constants
	NotifierLockfileName   = "microhabit-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.microhabit"

	// Notification copy
	NewDayTitle    = "Time to build habits!"
	NewDayMessage  = "Check off your habits for today."
	ReminderTitle  = "Reminder"
	DefaultBackend = "bolt"
)

// DefaultHabits is the habit list used when nothing has been stored yet.
var DefaultHabits = []string{"Floss", "Exercise", "Meditate", "Read", "Drink Water"}
