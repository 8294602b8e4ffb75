package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/loantrack/loantrack/internal/config"
	"github.com/loantrack/loantrack/internal/domain"
	"github.com/loantrack/loantrack/internal/engine"
	"github.com/loantrack/loantrack/internal/repository"
	customError "github.com/loantrack/loantrack/pkg/errors"
	"github.com/loantrack/loantrack/pkg/utils"
)

const summaryCacheKey = "portfolio:summary"

// PortfolioService wires the amortization engine to persistence, the
// summary cache and the clock. Mutations on one loan must be serialized by
// the caller; the engine itself holds no locks.
type PortfolioService struct {
	loanRepo   repository.LoanRepository
	clientRepo repository.ClientRepository
	redis      *redis.Client
	config     *config.Config
	clock      domain.Clock
}

func NewPortfolioService(
	loanRepo repository.LoanRepository,
	clientRepo repository.ClientRepository,
	redisClient *redis.Client,
	cfg *config.Config,
	clock domain.Clock,
) *PortfolioService {
	return &PortfolioService{
		loanRepo:   loanRepo,
		clientRepo: clientRepo,
		redis:      redisClient,
		config:     cfg,
		clock:      clock,
	}
}

// CreateLoan validates the terms, generates the full installment schedule
// and persists both in one transaction.
func (s *PortfolioService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	clientID, err := uuid.Parse(request.ClientID)
	if err != nil {
		return nil, customError.WrapValidation("client_id", "must be a valid uuid")
	}

	if _, err := s.clientRepo.GetByID(ctx, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapClientNotFound(request.ClientID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	loan := &domain.Loan{
		ID:                  uuid.New(),
		ClientID:            clientID,
		Principal:           request.Principal,
		InterestRatePercent: request.InterestRatePercent,
		InstallmentCount:    request.InstallmentCount,
		StartDate:           utils.TruncateToDay(request.StartDate),
		LateFeeEnabled:      request.LateFeeEnabled,
		LateFeePercent:      request.LateFeePercent,
	}

	installments, err := engine.GenerateSchedule(loan.ID, loan.Terms(), s.clock.Today())
	if err != nil {
		return nil, err
	}
	loan.Installments = installments

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateSummary(ctx)
	return loan, nil
}

// GetLoan loads a loan and refreshes every derived installment field as of
// today. The stored status is only a display cache; the engine's answer is
// the one returned.
func (s *PortfolioService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.LoanResponse, error) {
	loan, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	s.refreshDerived(loan)
	return s.buildResponse(loan), nil
}

// ListLoans returns every loan with freshly recomputed installments and
// per-loan aggregates.
func (s *PortfolioService) ListLoans(ctx context.Context) ([]*domain.LoanResponse, error) {
	loans, err := s.loanRepo.List(ctx)
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

// RegenerateSchedule replaces a loan's terms and installment set. It is
// only available while no payment has been recorded; afterwards the terms
// are frozen and the call fails without touching anything.
func (s *PortfolioService) RegenerateSchedule(ctx context.Context, loanID uuid.UUID, request *domain.RegenerateScheduleRequest) (*domain.Loan, error) {
	loan, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.HasRecordedPayment() {
		return nil, customError.WrapScheduleLocked(loanID.String())
	}

	loan.Principal = request.Principal
	loan.InterestRatePercent = request.InterestRatePercent
	loan.InstallmentCount = request.InstallmentCount
	loan.StartDate = utils.TruncateToDay(request.StartDate)
	loan.LateFeeEnabled = request.LateFeeEnabled
	loan.LateFeePercent = request.LateFeePercent

	installments, err := engine.GenerateSchedule(loan.ID, loan.Terms(), s.clock.Today())
	if err != nil {
		return nil, err
	}
	loan.Installments = installments

	if err := s.loanRepo.ReplaceSchedule(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateSummary(ctx)
	return loan, nil
}

// RecordPayment sets the payment date on one installment and recomputes
// that installment only. Re-recording overwrites the previous date, which
// is how corrections are made. A rejected call changes nothing.
func (s *PortfolioService) RecordPayment(ctx context.Context, loanID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Installment, error) {
	today := s.clock.Today()
	paymentDate := utils.TruncateToDay(request.PaymentDate)
	if paymentDate.After(today) {
		return nil, customError.WrapFuturePaymentDate(paymentDate.Format("2006-01-02"))
	}

	loan, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	var target *domain.Installment
	for _, inst := range loan.Installments {
		if inst.SequenceNumber == request.SequenceNumber {
			target = inst
			break
		}
	}
	if target == nil {
		return nil, customError.WrapUnknownInstallment(loanID.String(), request.SequenceNumber)
	}

	updated := *target
	updated.PaymentDate = &paymentDate
	updated = engine.Recompute(updated, loan.Terms(), today)

	if err := s.loanRepo.UpdateInstallment(ctx, &updated); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateSummary(ctx)
	return &updated, nil
}

// Summary aggregates the whole portfolio. The unwindowed summary is served
// from redis when possible; windowed queries are always computed fresh.
func (s *PortfolioService) Summary(ctx context.Context, window engine.MonthWindow) (*domain.PortfolioSummary, error) {
	if window.IsZero() {
		if cached := s.cachedSummary(ctx); cached != nil {
			return cached, nil
		}
	}

	loans, err := s.loanRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	for _, loan := range loans {
		s.refreshDerived(loan)
	}

	summary := engine.Summarize(loans, window, s.clock.Today())
	if window.IsZero() {
		s.storeSummary(ctx, summary)
	}
	return summary, nil
}

// Simulate runs the cost table for a principal and rate without touching
// storage.
func (s *PortfolioService) Simulate(request *domain.SimulationRequest) ([]*domain.SimulationRow, error) {
	return engine.Simulate(request.Principal, request.InterestRatePercent, request.MaxInstallments)
}

// BusinessDefaults exposes the configured default rates new-loan forms are
// prefilled with.
func (s *PortfolioService) BusinessDefaults() *domain.BusinessDefaults {
	defaults := &domain.BusinessDefaults{
		InterestRatePercent: decimal.NewFromInt(15),
		LateFeePercent:      decimal.NewFromInt(5),
	}
	if s.config != nil {
		defaults.InterestRatePercent = s.config.DefaultInterestRatePercent()
		defaults.LateFeePercent = s.config.DefaultLateFeePercent()
	}
	return defaults
}

// RefreshOverdue recomputes and persists the derived fields of every
// unpaid installment, then rewarms the summary cache. Run nightly by the
// scheduler so persisted rows track the calendar; reads never depend on it
// because derived fields are recomputed on the way out anyway.
func (s *PortfolioService) RefreshOverdue(ctx context.Context) (int, error) {
	loans, err := s.loanRepo.List(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	overdue := 0
	for _, loan := range loans {
		terms := loan.Terms()
		for _, inst := range loan.Installments {
			if inst.Paid() {
				continue
			}
			updated := engine.Recompute(*inst, terms, s.clock.Today())
			if updated.Status == domain.StatusOverdue {
				overdue++
			}
			if updated.Status == inst.Status && updated.DaysLate == inst.DaysLate {
				continue
			}
			if err := s.loanRepo.UpdateInstallment(ctx, &updated); err != nil {
				return overdue, customError.WrapDatabaseError(err)
			}
		}
	}

	s.invalidateSummary(ctx)
	if _, err := s.Summary(ctx, engine.MonthWindow{}); err != nil {
		return overdue, err
	}
	return overdue, nil
}

func (s *PortfolioService) loadLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

// refreshDerived recomputes all derived installment fields as of today,
// in memory only.
func (s *PortfolioService) refreshDerived(loan *domain.Loan) {
	terms := loan.Terms()
	today := s.clock.Today()
	for i, inst := range loan.Installments {
		updated := engine.Recompute(*inst, terms, today)
		loan.Installments[i] = &updated
	}
}

func (s *PortfolioService) buildResponse(loan *domain.Loan) *domain.LoanResponse {
	return &domain.LoanResponse{
		Loan:           loan,
		Status:         engine.LoanStatus(loan.Installments, s.clock.Today()),
		PaidCount:      engine.PaidCount(loan.Installments),
		TotalPaid:      utils.RoundCurrency(engine.TotalPaid(loan.Installments)),
		TotalRemaining: utils.RoundCurrency(engine.TotalRemaining(loan.Installments)),
		Profit:         utils.RoundCurrency(engine.Profit(loan.Terms(), loan.Installments)),
		Next:           engine.NextInstallment(loan.Installments),
	}
}

// Summary cache helpers. Cache trouble is logged and ignored: redis being
// down must never break a read.

func (s *PortfolioService) cachedSummary(ctx context.Context) *domain.PortfolioSummary {
	if s.redis == nil {
		return nil
	}

	payload, err := s.redis.Get(ctx, summaryCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("summary cache read failed: %v", err)
		}
		return nil
	}

	var summary domain.PortfolioSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		log.Printf("summary cache decode failed: %v", err)
		return nil
	}
	return &summary
}

func (s *PortfolioService) storeSummary(ctx context.Context, summary *domain.PortfolioSummary) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		log.Printf("summary cache encode failed: %v", err)
		return
	}

	ttl := 10 * time.Minute
	if s.config != nil && s.config.Redis.SummaryTTL > 0 {
		ttl = s.config.Redis.SummaryTTL
	}
	if err := s.redis.Set(ctx, summaryCacheKey, payload, ttl).Err(); err != nil {
		log.Printf("summary cache write failed: %v", err)
	}
}

func (s *PortfolioService) invalidateSummary(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, summaryCacheKey).Err(); err != nil {
		log.Printf("summary cache invalidation failed: %v", err)
	}
}
