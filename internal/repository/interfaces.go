package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/loantrack/loantrack/internal/domain"
)

// LoanRepository defines the interface for loan and installment data operations
type LoanRepository interface {
	// Create persists a loan together with its generated schedule
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan and its installments
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// List retrieves all loans with their installments
	List(ctx context.Context) ([]*domain.Loan, error)

	// ListByClient retrieves all loans of one client
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Loan, error)

	// ReplaceSchedule swaps the loan terms and installment set atomically
	ReplaceSchedule(ctx context.Context, loan *domain.Loan) error

	// UpdateInstallment persists one installment's payment and derived fields
	UpdateInstallment(ctx context.Context, installment *domain.Installment) error

	// CountByClient reports how many loans reference a client
	CountByClient(ctx context.Context, clientID uuid.UUID) (int, error)
}

// ClientRepository defines the interface for client data operations
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	SearchByName(ctx context.Context, query string) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
}
