package repository

import (
	"github.com/jmoiron/sqlx"
)

// Schema is intentionally portable between postgres and sqlite: TEXT uuid
// columns, NUMERIC money columns, TIMESTAMP dates. Monetary values are
// stored rounded to the cent; full precision lives only inside the engine.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		cpf TEXT NOT NULL,
		whatsapp BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id),
		principal NUMERIC NOT NULL,
		interest_rate_percent NUMERIC NOT NULL,
		installment_count INTEGER NOT NULL,
		start_date TIMESTAMP NOT NULL,
		late_fee_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		late_fee_percent NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id),
		sequence_number INTEGER NOT NULL,
		due_date TIMESTAMP NOT NULL,
		payment_date TIMESTAMP,
		status TEXT NOT NULL,
		days_late INTEGER NOT NULL DEFAULT 0,
		interest_amount NUMERIC NOT NULL,
		amount_due NUMERIC NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (loan_id, sequence_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_installments_loan ON installments(loan_id)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_client ON loans(client_id)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
