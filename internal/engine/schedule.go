package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loantrack/loantrack/internal/domain"
	customError "github.com/loantrack/loantrack/pkg/errors"
	"github.com/loantrack/loantrack/pkg/utils"
)

// Installments fall due every 30 days after disbursement. Fixed-width
// periods, not calendar months: no end-of-month clamping, ever.
const PeriodDays = 30

// ValidateTerms checks the loan terms the same way for generation,
// regeneration and simulation.
func ValidateTerms(terms domain.LoanTerms) error {
	if !terms.Principal.IsPositive() {
		return customError.WrapValidation("principal", "must be greater than zero")
	}
	if terms.InterestRatePercent.IsNegative() {
		return customError.WrapValidation("interest_rate_percent", "must not be negative")
	}
	if terms.InstallmentCount < 1 {
		return customError.WrapValidation("installment_count", "must be at least 1")
	}
	if terms.StartDate.IsZero() {
		return customError.WrapValidation("start_date", "is required")
	}
	if terms.LateFeeEnabled && terms.LateFeePercent.IsNegative() {
		return customError.WrapValidation("late_fee_percent", "must not be negative when late fee is enabled")
	}
	return nil
}

// GenerateSchedule turns loan terms into the full ordered installment
// sequence. Installment i falls due StartDate + 30*i days; each entry is
// passed through Recompute with referenceDate and no payment to populate
// the derived fields. The generator persists nothing.
func GenerateSchedule(loanID uuid.UUID, terms domain.LoanTerms, referenceDate time.Time) ([]*domain.Installment, error) {
	if err := ValidateTerms(terms); err != nil {
		return nil, err
	}

	installments := make([]*domain.Installment, 0, terms.InstallmentCount)
	for i := 1; i <= terms.InstallmentCount; i++ {
		inst := domain.Installment{
			ID:             uuid.New(),
			LoanID:         loanID,
			SequenceNumber: i,
			DueDate:        utils.AddDays(terms.StartDate, PeriodDays*i),
		}
		inst = Recompute(inst, terms, referenceDate)
		installments = append(installments, &inst)
	}

	return installments, nil
}

// Simulate answers "what would each installment cost if I split this loan
// n ways" for n = 1..maxInstallments. Interest is the same flat monthly
// amount whatever the split, so longer terms repay more in total.
func Simulate(principal, ratePercent decimal.Decimal, maxInstallments int) ([]*domain.SimulationRow, error) {
	if !principal.IsPositive() {
		return nil, customError.WrapValidation("principal", "must be greater than zero")
	}
	if ratePercent.IsNegative() {
		return nil, customError.WrapValidation("interest_rate_percent", "must not be negative")
	}
	if maxInstallments < 1 {
		return nil, customError.WrapValidation("max_installments", "must be at least 1")
	}

	interest := principal.Mul(ratePercent).Div(hundred)

	rows := make([]*domain.SimulationRow, 0, maxInstallments)
	for n := 1; n <= maxInstallments; n++ {
		count := decimal.NewFromInt(int64(n))
		amount := principal.Div(count).Add(interest)
		rows = append(rows, &domain.SimulationRow{
			InstallmentCount:  n,
			MonthlyInterest:   utils.RoundCurrency(interest),
			InstallmentAmount: utils.RoundCurrency(amount),
			TotalRepaid:       utils.RoundCurrency(amount.Mul(count)),
		})
	}

	return rows, nil
}
