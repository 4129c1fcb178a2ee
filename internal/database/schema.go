package database

import "fmt"

// Migrate crea las tablas si no existen. El esquema es idempotente
// para poder ejecutarse en cada arranque.
func Migrate(db *DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id            BIGSERIAL PRIMARY KEY,
			first_name    TEXT NOT NULL,
			last_name     TEXT NOT NULL,
			email         TEXT NOT NULL,
			cpf           TEXT NOT NULL UNIQUE,
			date_of_birth DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS addresses (
			id            BIGSERIAL PRIMARY KEY,
			customer_id   BIGINT NOT NULL UNIQUE REFERENCES customers(id) ON DELETE CASCADE,
			street        TEXT NOT NULL,
			number        INTEGER NOT NULL,
			zip_code      TEXT NOT NULL,
			complement    TEXT,
			neighbourhood TEXT NOT NULL,
			city          TEXT NOT NULL,
			uf            TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecWithTimeout(stmt); err != nil {
			return fmt.Errorf("error running schema migration: %w", err)
		}
	}

	return nil
}
