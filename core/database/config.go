package database

// Config holds configuration for the database connection.
type Config struct {
	// Driver is the database driver (sqlite, mysql).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Path is the SQLite database file. Empty means discovery in the usual stash locations.
	Path string `mapstructure:"path" default:""`
	// Host is the database host (mysql).
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port (mysql).
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user (mysql).
	User string `mapstructure:"user" default:"root"`
	// Password is the database password (mysql).
	Password string `mapstructure:"password" default:""`
	// Name is the database name (mysql).
	Name string `mapstructure:"name" default:"stash"`
	// TimeoutSeconds bounds connection setup and the initial ping.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// BusyTimeoutMS is how long SQLite waits on a locked database before failing.
	BusyTimeoutMS int `mapstructure:"busy_timeout_ms" default:"5000"`
	// CacheSizeKB is the SQLite page cache size in KiB.
	CacheSizeKB int `mapstructure:"cache_size_kb" default:"2000"`
	// WAL enables write-ahead logging so readers are not blocked by the writer.
	WAL bool `mapstructure:"wal" default:"true"`
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)
