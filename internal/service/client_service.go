package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/loantrack/loantrack/internal/domain"
	customError "github.com/loantrack/loantrack/pkg/errors"
)

// Client management. Thin by design: the only business rule is that a
// client with registered loans cannot be deleted.

func (s *PortfolioService) CreateClient(ctx context.Context, request *domain.CreateClientRequest) (*domain.Client, error) {
	client := &domain.Client{
		ID:       uuid.New(),
		Name:     request.Name,
		Phone:    request.Phone,
		CPF:      request.CPF,
		WhatsApp: request.WhatsApp,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return client, nil
}

func (s *PortfolioService) GetClient(ctx context.Context, clientID uuid.UUID) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapClientNotFound(clientID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return client, nil
}

// ListClients returns every client, or only those whose name matches the
// query when one is given.
func (s *PortfolioService) ListClients(ctx context.Context, query string) ([]*domain.Client, error) {
	var (
		clients []*domain.Client
		err     error
	)
	if query == "" {
		clients, err = s.clientRepo.List(ctx)
	} else {
		clients, err = s.clientRepo.SearchByName(ctx, query)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return clients, nil
}

func (s *PortfolioService) UpdateClient(ctx context.Context, clientID uuid.UUID, request *domain.UpdateClientRequest) (*domain.Client, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	client.Name = request.Name
	client.Phone = request.Phone
	client.CPF = request.CPF
	client.WhatsApp = request.WhatsApp

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return client, nil
}

// ListClientLoans returns the client's loans with freshly recomputed
// installments, the same shape ListLoans serves for the whole portfolio.
func (s *PortfolioService) ListClientLoans(ctx context.Context, clientID uuid.UUID) ([]*domain.LoanResponse, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	responses := make([]*domain.LoanResponse, 0, len(loans))
	for _, loan := range loans {
		s.refreshDerived(loan)
		responses = append(responses, s.buildResponse(loan))
	}
	return responses, nil
}

func (s *PortfolioService) DeleteClient(ctx context.Context, clientID uuid.UUID) error {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return err
	}

	count, err := s.loanRepo.CountByClient(ctx, clientID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if count > 0 {
		return customError.WrapClientHasLoans(clientID.String())
	}

	if err := s.clientRepo.Delete(ctx, clientID); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}
