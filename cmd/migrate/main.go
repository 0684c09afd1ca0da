package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/wellbot/wellbot-api/internal/auth"
	"github.com/wellbot/wellbot-api/internal/config"
	"github.com/wellbot/wellbot-api/internal/database"
	appmigrations "github.com/wellbot/wellbot-api/migrations"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	dsn, err := cfg.MySQLDSN()
	if err != nil {
		log.Fatalf("database config: %v", err)
	}
	// golang-migrate's mysql driver needs multi-statement files.
	dsn += "&multiStatements=true"

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(ctx, database.PoolConfig{DSN: dsn, MaxOpenConns: 2}, logger)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	args := os.Args[1:]
	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "up":
		m := newMigrator(db)
		defer func() { _, _ = m.Close() }()
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migrate up: %v", err)
		}
		fmt.Println("migrations complete")
	case "force":
		// /bin/migrate force <version>
		if len(args) < 2 {
			log.Fatal("usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("invalid version: %v", err)
		}
		m := newMigrator(db)
		defer func() { _, _ = m.Close() }()
		if err := m.Force(version); err != nil {
			log.Fatalf("force version: %v", err)
		}
		fmt.Printf("forced version to %d\n", version)
	case "clinic-account":
		if len(args) < 5 {
			log.Fatal("usage: migrate clinic-account <clinicId> <clinicName> <username> <password>")
		}
		clinicID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || clinicID <= 0 {
			log.Fatalf("invalid clinic id %q", args[1])
		}
		id, err := createClinicAccount(ctx, db, clinicID, args[2], args[3], args[4])
		if err != nil {
			log.Fatalf("create clinic account: %v", err)
		}
		fmt.Printf("clinic account %d created for clinic %d\n", id, clinicID)
	default:
		log.Fatalf("unknown command %q (want up, force or clinic-account)", cmd)
	}
}

func newMigrator(db *sql.DB) *migrate.Migrate {
	dbDriver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		log.Fatalf("db driver: %v", err)
	}

	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		log.Fatalf("source driver: %v", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "mysql", dbDriver)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	return m
}

func createClinicAccount(ctx context.Context, db *sql.DB, clinicID int64, clinicName, username, password string) (int64, error) {
	clinicName = strings.TrimSpace(clinicName)
	username = strings.TrimSpace(username)
	if clinicName == "" || username == "" || password == "" {
		return 0, errors.New("clinic name, username and password are required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO clinic_accounts (clinic_id, clinic_name, username, password_hash, is_active) VALUES (?, ?, ?, ?, TRUE)`,
		clinicID, clinicName, username, hash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
