package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"

	"antiromantic-be/internal/config"
	"antiromantic-be/internal/db"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
}

func main() {
	mode := flag.String("mode", "up", "migration mode: up, down, steps or version")
	steps := flag.Int("n", 1, "number of steps for -mode steps (negative rolls back)")
	flag.Parse()

	cfg := config.LoadConfig()

	conn, err := db.NewDatabase(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	m, err := newMigrator(conn, cfg.MigrationsDir)
	if err != nil {
		log.Fatal(err)
	}

	if err := apply(m, *mode, *steps); err != nil {
		log.Fatal(err)
	}
}

func newMigrator(conn *sql.DB, dir string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}

func apply(m migrator, mode string, steps int) error {
	var err error

	switch mode {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if steps == 0 {
			return errors.New("steps must not be zero")
		}
		err = m.Steps(steps)
	case "version":
		v, dirty, vErr := m.Version()
		if errors.Is(vErr, migrate.ErrNilVersion) {
			log.Println("no migrations applied")
			return nil
		}
		if vErr != nil {
			return fmt.Errorf("could not read version: %w", vErr)
		}
		log.Printf("version %d (dirty: %t)", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown mode: %s (use up, down, steps or version)", mode)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("no change")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", mode, err)
	}

	log.Printf("migration %s applied", mode)
	return nil
}
