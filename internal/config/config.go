// Package config holds runtime settings. Values come from flags, BLOCKPAD_*
// environment variables and an optional JSON file, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendMongo    = "mongo"
)

type Config struct {
	DataDir        string        `name:"data-dir" env:"BLOCKPAD_DATA_DIR" default:"~/.local/share/blockpad" help:"Directory for the local database and logs."`
	Backend        string        `name:"backend" env:"BLOCKPAD_BACKEND" default:"sqlite" enum:"sqlite,postgres,mysql,mongo" help:"Persistence backend."`
	DSN            string        `name:"dsn" env:"BLOCKPAD_DSN" help:"Connection string. For sqlite, an optional database file path."`
	MongoDatabase  string        `name:"mongo-database" env:"BLOCKPAD_MONGO_DATABASE" default:"blockpad" help:"MongoDB database name."`
	LogLevel       string        `name:"log-level" env:"BLOCKPAD_LOG_LEVEL" default:"info" help:"trace, debug, info, warn or error."`
	LogFile        string        `name:"log-file" env:"BLOCKPAD_LOG_FILE" help:"Also write JSON logs to this file."`
	SyncSchedule   string        `name:"sync-schedule" env:"BLOCKPAD_SYNC_SCHEDULE" default:"@every 30s" help:"Cron spec for retrying unsaved blocks. Empty disables it."`
	WatchExternal  bool          `name:"watch-external" env:"BLOCKPAD_WATCH_EXTERNAL" help:"Reload the open page when the sqlite file changes on disk."`
	PersistTimeout time.Duration `name:"persist-timeout" env:"BLOCKPAD_PERSIST_TIMEOUT" default:"10s" help:"Timeout for a single backend write."`
}

// Default returns the values kong would fill in with no flags or env set.
func Default() Config {
	return Config{
		DataDir:        "~/.local/share/blockpad",
		Backend:        BackendSQLite,
		MongoDatabase:  "blockpad",
		LogLevel:       "info",
		SyncSchedule:   "@every 30s",
		PersistTimeout: 10 * time.Second,
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.Backend, validation.Required,
			validation.In(BackendSQLite, BackendPostgres, BackendMySQL, BackendMongo)),
		validation.Field(&c.DSN, validation.When(c.Backend != BackendSQLite,
			validation.Required.Error("is required for the "+c.Backend+" backend"))),
		validation.Field(&c.PersistTimeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

// ResolvedDataDir expands a leading ~ to the home directory.
func (c Config) ResolvedDataDir() string {
	dir := c.DataDir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// SQLitePath is the database file used by the sqlite backend.
func (c Config) SQLitePath() string {
	if c.Backend == BackendSQLite && c.DSN != "" {
		return c.DSN
	}
	return filepath.Join(c.ResolvedDataDir(), "blockpad.db")
}
