package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/Craig-Turley/listsync/internal/oops"
	"github.com/Craig-Turley/listsync/pkg/utils"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSqlite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DB is a *sql.DB that knows which placeholder style its driver wants.
type DB struct {
	*sql.DB
	Driver string
}

// Wrap is used by tests to put a sqlmock connection behind the repos.
func Wrap(conn *sql.DB, driver string) *DB {
	return &DB{DB: conn, Driver: driver}
}

func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSqlite:
		return NewSqliteDb(dsn)
	case DriverPostgres:
		conn, err := sql.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, oops.New(err, "failed to open postgres")
		}
		return Wrap(conn, DriverPostgres), nil
	}

	return nil, utils.NewError(utils.ERROR_UNSUPPORTED_DB, driver)
}

// sqliteDSN appends the connection pragmas. The driver applies them to every
// connection it opens, so foreign keys hold on reconnects too.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

func NewSqliteDb(path string) (*DB, error) {
	conn, err := sql.Open(DriverSqlite, sqliteDSN(path))
	if err != nil {
		return nil, oops.New(err, "failed to open sqlite db at %s", path)
	}

	// one writer keeps sqlite from returning SQLITE_BUSY under load
	conn.SetMaxOpenConns(1)

	return Wrap(conn, DriverSqlite), nil
}

// Rebind rewrites ? placeholders to $1..$n for postgres.
func (d *DB) Rebind(query string) string {
	if d.Driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS mail_chimp_lists (
		id            BIGINT PRIMARY KEY,
		mail_chimp_id TEXT,
		name          TEXT NOT NULL DEFAULT '',
		attributes    TEXT NOT NULL DEFAULT '{}',
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mail_chimp_list_members (
		id            BIGINT PRIMARY KEY,
		list_id       BIGINT NOT NULL REFERENCES mail_chimp_lists (id),
		email_address TEXT NOT NULL,
		first_name    TEXT,
		last_name     TEXT,
		address       TEXT,
		phone_number  TEXT,
		status        TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS mail_chimp_list_members_list_id ON mail_chimp_list_members (list_id)`,
}

// Migrate creates the tables when they do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return oops.New(err, "failed to migrate")
		}
	}
	return nil
}
