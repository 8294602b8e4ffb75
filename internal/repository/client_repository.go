package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/loantrack/loantrack/internal/domain"
)

type clientRepository struct {
	db *sqlx.DB
}

func NewClientRepository(db *sqlx.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	query := r.db.Rebind(`
		INSERT INTO clients (id, name, phone, cpf, whatsapp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	now := time.Now()
	client.CreatedAt = now
	client.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.Name,
		client.Phone,
		client.CPF,
		client.WhatsApp,
		client.CreatedAt,
		client.UpdatedAt,
	)
	return err
}

func (r *clientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := r.db.Rebind(`
		SELECT id, name, phone, cpf, whatsapp, created_at, updated_at
		FROM clients
		WHERE id = ?
	`)

	var client domain.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context) ([]*domain.Client, error) {
	query := `
		SELECT id, name, phone, cpf, whatsapp, created_at, updated_at
		FROM clients
		ORDER BY name
	`

	var clients []*domain.Client
	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepository) SearchByName(ctx context.Context, query string) ([]*domain.Client, error) {
	stmt := r.db.Rebind(`
		SELECT id, name, phone, cpf, whatsapp, created_at, updated_at
		FROM clients
		WHERE LOWER(name) LIKE ?
		ORDER BY name
	`)

	var clients []*domain.Client
	pattern := "%" + strings.ToLower(query) + "%"
	if err := r.db.SelectContext(ctx, &clients, stmt, pattern); err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	query := r.db.Rebind(`
		UPDATE clients
		SET name = ?, phone = ?, cpf = ?, whatsapp = ?, updated_at = ?
		WHERE id = ?
	`)

	_, err := r.db.ExecContext(ctx, query,
		client.Name,
		client.Phone,
		client.CPF,
		client.WhatsApp,
		time.Now(),
		client.ID,
	)
	return err
}

func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.db.Rebind(`DELETE FROM clients WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
