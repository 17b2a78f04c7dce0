package itests

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"DevHabit/internal/db"

	"github.com/jackc/pgx/v5"
)

const testDBName = "devhabit_test"

// DeriveTestDSN points baseDSN at the throwaway test database and returns an
// admin DSN on the "postgres" database for creating and dropping it.
func DeriveTestDSN(baseDSN string) (testDSN, adminDSN string, err error) {
	u, e := url.Parse(baseDSN)
	if e != nil {
		return "", "", fmt.Errorf("parse DSN: %w", e)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", "", errors.New("only URL DSN supported: postgres://...")
	}
	if host := u.Hostname(); host != "localhost" && host != "127.0.0.1" {
		return "", "", fmt.Errorf("refuse non-local host for tests: %s", host)
	}

	u.Path = "/" + testDBName
	testDSN = u.String()
	u.Path = "/postgres"
	adminDSN = u.String()
	return testDSN, adminDSN, nil
}

func adminExec(adminDSN string, timeout time.Duration, fn func(ctx context.Context, conn *pgx.Conn) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, adminDSN)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	return fn(ctx, conn)
}

func CreateTestDatabase(adminDSN string) error {
	return adminExec(adminDSN, 10*time.Second, func(ctx context.Context, conn *pgx.Conn) error {
		var exists bool
		if err := conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname=$1)`, testDBName,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}
		_, err := conn.Exec(ctx, `CREATE DATABASE `+pgx.Identifier{testDBName}.Sanitize())
		return err
	})
}

func DropTestDatabase(adminDSN string) error {
	return adminExec(adminDSN, 15*time.Second, func(ctx context.Context, conn *pgx.Conn) error {
		_, _ = conn.Exec(ctx, `
			SELECT pg_terminate_backend(pid)
			FROM pg_stat_activity
			WHERE datname = $1 AND pid <> pg_backend_pid()
		`, testDBName)
		_, err := conn.Exec(ctx, `DROP DATABASE IF EXISTS `+pgx.Identifier{testDBName}.Sanitize())
		return err
	})
}

// SetupTestDB creates the test database, migrates it and hands its DSN to
// initFunc. The returned teardown drops the database.
func SetupTestDB(baseDSN string, initFunc func(string) error) (teardown func() error, err error) {
	testDSN, adminDSN, err := DeriveTestDSN(baseDSN)
	if err != nil {
		return nil, err
	}
	if os.Getenv("APP_ENV") == "production" {
		return nil, errors.New("APP_ENV=production, aborting tests")
	}

	if err := CreateTestDatabase(adminDSN); err != nil {
		return nil, fmt.Errorf("create DB %q: %w (dsn %s)", testDBName, err, redactDSN(baseDSN))
	}
	log.Printf("test DB %q created", testDBName)

	if err := db.MigrateUp(testDSN); err != nil {
		_ = DropTestDatabase(adminDSN)
		return nil, err
	}
	if initFunc != nil {
		if err := initFunc(testDSN); err != nil {
			_ = DropTestDatabase(adminDSN)
			return nil, fmt.Errorf("init postgres: %w (dsn %s)", err, redactDSN(baseDSN))
		}
	}
	return func() error { return DropTestDatabase(adminDSN) }, nil
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	username := u.User.Username()
	if username == "" {
		return dsn
	}
	u.User = url.UserPassword(username, "******")
	return strings.TrimSpace(u.String())
}
