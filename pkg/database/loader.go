package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialectes SQL supportés.
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// Open DSN mariadb://, mysql://, postgres:// ou sqlite:// → *sql.DB + dialecte.
// Un DSN natif MySQL (user:pwd@tcp(host)/db) passe tel quel.
func Open(dsn string) (*sql.DB, string, string, error) {
	dialect, driverDSN, err := toDriverDSN(dsn)
	if err != nil {
		return nil, "", "", err
	}
	db, err := sql.Open(dialect, driverDSN)
	if err != nil {
		return nil, "", "", err
	}
	if dialect == DialectSQLite {
		// une seule connexion : ":memory:" serait sinon une base différente par connexion
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, dialect, driverDSN, nil
}

func toDriverDSN(dsn string) (string, string, error) {
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("dsn vide")
	case strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://"):
		out, err := toMySQLDSN(dsn)
		return DialectMySQL, out, err
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("dsn sqlite sans chemin")
		}
		return DialectSQLite, path + sqliteOptions(path), nil
	}
	return DialectMySQL, dsn, nil
}

func sqliteOptions(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if path == ":memory:" {
		return sep + "_foreign_keys=on"
	}
	return sep + "_foreign_keys=on&_journal_mode=WAL"
}

func toMySQLDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	user := ""
	pass := ""
	if u.User != nil {
		user = u.User.Username()
		pw, _ := u.User.Password()
		pass = pw
	}
	host := u.Host
	db := strings.TrimPrefix(u.Path, "/")
	if user == "" || host == "" || db == "" {
		return "", fmt.Errorf("dsn incomplet (user/host/db)")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
		user, pass, host, db), nil
}

// rebind remplace les "?" par $1..$n pour Postgres.
func rebind(dialect, q string) string {
	if dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
