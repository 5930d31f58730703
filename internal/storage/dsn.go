package storage

import (
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// driverDSN maps a dialect to its database/sql driver name and fills in the
// connection options the adapter relies on.
func driverDSN(dialect Dialect, dsn string) (string, string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", "", fmt.Errorf("empty dsn for %s", dialect)
	}
	switch dialect {
	case DialectSQLite:
		return "sqlite", sqliteDSN(dsn), nil
	case DialectPostgres:
		return "postgres", dsn, nil
	case DialectMySQL:
		return "mysql", mysqlDSN(dsn), nil
	default:
		return "", "", fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// sqliteDSN opens the file in WAL mode with a busy timeout.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_journal_mode=WAL&_busy_timeout=5000"
}

// mysqlDSN makes sure DATETIME columns scan into time.Time and text is utf8mb4.
// Format: user:password@tcp(host:port)/dbname?parseTime=true
func mysqlDSN(dsn string) string {
	for _, opt := range []string{"parseTime=true", "charset=utf8mb4"} {
		key := opt[:strings.IndexByte(opt, '=')+1]
		if strings.Contains(dsn, key) {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + opt
		} else {
			dsn += "?" + opt
		}
	}
	return dsn
}
