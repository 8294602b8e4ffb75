package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan-level rollup statuses, derived from the installment set
const (
	LoanStatusUpcoming = "A Vencer"
	LoanStatusOverdue  = "Atrasado"
	LoanStatusFinished = "Finalizado"
)

// LoanTerms are the inputs the amortization engine works from. They are
// frozen as soon as any installment of the loan has a recorded payment.
type LoanTerms struct {
	Principal           decimal.Decimal
	InterestRatePercent decimal.Decimal
	InstallmentCount    int
	StartDate           time.Time
	LateFeeEnabled      bool
	LateFeePercent      decimal.Decimal
}

// Loan represents a loan entity
type Loan struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	ClientID            uuid.UUID       `json:"client_id" db:"client_id"`
	Principal           decimal.Decimal `json:"principal" db:"principal"`
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent" db:"interest_rate_percent"`
	InstallmentCount    int             `json:"installment_count" db:"installment_count"`
	StartDate           time.Time       `json:"start_date" db:"start_date"`
	LateFeeEnabled      bool            `json:"late_fee_enabled" db:"late_fee_enabled"`
	LateFeePercent      decimal.Decimal `json:"late_fee_percent" db:"late_fee_percent"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`

	Installments []*Installment `json:"installments,omitempty" db:"-"`
}

// Terms extracts the engine-facing view of the loan.
func (l *Loan) Terms() LoanTerms {
	return LoanTerms{
		Principal:           l.Principal,
		InterestRatePercent: l.InterestRatePercent,
		InstallmentCount:    l.InstallmentCount,
		StartDate:           l.StartDate,
		LateFeeEnabled:      l.LateFeeEnabled,
		LateFeePercent:      l.LateFeePercent,
	}
}

// HasRecordedPayment reports whether any installment carries a payment,
// which locks the loan terms and its schedule.
func (l *Loan) HasRecordedPayment() bool {
	for _, inst := range l.Installments {
		if inst.PaymentDate != nil {
			return true
		}
	}
	return false
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	ClientID            string          `json:"client_id" validate:"required,uuid4"`
	Principal           decimal.Decimal `json:"principal" validate:"decimal_gt=0"`
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent" validate:"decimal_gte=0"`
	InstallmentCount    int             `json:"installment_count" validate:"required,gte=1"`
	StartDate           time.Time       `json:"start_date" validate:"required"`
	LateFeeEnabled      bool            `json:"late_fee_enabled"`
	LateFeePercent      decimal.Decimal `json:"late_fee_percent"`
}

// RegenerateScheduleRequest carries replacement terms for a loan whose
// schedule has no recorded payments yet.
type RegenerateScheduleRequest struct {
	Principal           decimal.Decimal `json:"principal" validate:"decimal_gt=0"`
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent" validate:"decimal_gte=0"`
	InstallmentCount    int             `json:"installment_count" validate:"required,gte=1"`
	StartDate           time.Time       `json:"start_date" validate:"required"`
	LateFeeEnabled      bool            `json:"late_fee_enabled"`
	LateFeePercent      decimal.Decimal `json:"late_fee_percent"`
}

type RecordPaymentRequest struct {
	SequenceNumber int       `json:"sequence_number" validate:"required,gte=1"`
	PaymentDate    time.Time `json:"payment_date" validate:"required"`
}

type LoanResponse struct {
	Loan           *Loan           `json:"loan"`
	Status         string          `json:"status"`
	PaidCount      int             `json:"paid_count"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
	Profit         decimal.Decimal `json:"profit"`
	Next           *Installment    `json:"next_installment,omitempty"`
}

type PortfolioSummary struct {
	LoanCount       int             `json:"loan_count"`
	TotalLent       decimal.Decimal `json:"total_lent"`
	TotalReceived   decimal.Decimal `json:"total_received"`
	TotalReceivable decimal.Decimal `json:"total_receivable"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// BusinessDefaults are the configured rates new-loan forms start from.
type BusinessDefaults struct {
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent"`
	LateFeePercent      decimal.Decimal `json:"late_fee_percent"`
}

type SimulationRequest struct {
	Principal           decimal.Decimal `json:"principal" validate:"decimal_gt=0"`
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent" validate:"decimal_gte=0"`
	MaxInstallments     int             `json:"max_installments" validate:"required,gte=1"`
}

// SimulationRow is one line of the simulator output: what the loan would
// cost if split into InstallmentCount installments.
type SimulationRow struct {
	InstallmentCount  int             `json:"installment_count"`
	MonthlyInterest   decimal.Decimal `json:"monthly_interest"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	TotalRepaid       decimal.Decimal `json:"total_repaid"`
}
