package db

import (
	"fmt"
	"strings"
	"time"

	"expense_tracker/internal/config"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite" // registers the pure Go "sqlite" database/sql driver
)

// Open connects to the configured database and tunes the connection pool
func Open(driver, dsn string) (*gorm.DB, error) {
	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if driver == config.DriverSQLite {
		// sqlite allows one writer; a single connection also keeps in-memory databases alive
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	logrus.WithFields(logrus.Fields{"driver": driver}).Info("Database connected")
	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	case config.DriverMySQL:
		return mysql.Open(dsn), nil
	case config.DriverSQLite:
		return sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: SQLiteDSN(dsn)}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// SQLiteDSN adds the connection parameters the schema relies on when the
// caller left them out: text timestamps that sqlite's date functions can
// read, and enforced foreign keys.
func SQLiteDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "_time_format=") {
		params = append(params, "_time_format=sqlite")
	}
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// MonthExpr returns the dialect's expression formatting a date column as YYYY-MM
func MonthExpr(db *gorm.DB, column string) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "to_char(" + column + ", 'YYYY-MM')"
	case "mysql":
		return "DATE_FORMAT(" + column + ", '%Y-%m')"
	default:
		return "strftime('%Y-%m', " + column + ")"
	}
}
