package attempts

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore keeps records in PostgreSQL so horizontally scaled instances
// share one view of every address.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and applies the embedded migrations.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("attempts: postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "salonpress_attempts_migrations"})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(key string) (Record, bool, error) {
	var rec Record
	err := s.db.QueryRow(`SELECT count, last_attempt FROM login_attempts WHERE address = $1`, key).
		Scan(&rec.Count, &rec.LastAttempt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *PostgresStore) Set(key string, rec Record) error {
	_, err := s.db.Exec(`INSERT INTO login_attempts (address, count, last_attempt) VALUES ($1, $2, $3)
ON CONFLICT (address) DO UPDATE SET count = EXCLUDED.count, last_attempt = EXCLUDED.last_attempt`,
		key, rec.Count, rec.LastAttempt)
	return err
}

func (s *PostgresStore) Hit(key string, now, cutoff time.Time, limit int) (Record, error) {
	var rec Record
	err := s.db.QueryRow(`INSERT INTO login_attempts (address, count, last_attempt) VALUES ($1, 1, $2)
ON CONFLICT (address) DO UPDATE SET
    count = CASE WHEN login_attempts.last_attempt <= $3 THEN 1 ELSE login_attempts.count + 1 END,
    last_attempt = CASE WHEN login_attempts.last_attempt <= $3 OR login_attempts.count < $4
        THEN EXCLUDED.last_attempt ELSE login_attempts.last_attempt END
RETURNING count, last_attempt`,
		key, now, cutoff, limit).Scan(&rec.Count, &rec.LastAttempt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PostgresStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM login_attempts WHERE address = $1`, key)
	return err
}

func (s *PostgresStore) Sweep(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM login_attempts WHERE last_attempt < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
