// Package engine implements the amortization and installment-status core:
// schedule generation, per-installment status recomputation and the
// aggregation folds the portfolio views are built on. Every function here
// is pure; "today" always arrives as an explicit reference date.
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loantrack/loantrack/internal/domain"
	"github.com/loantrack/loantrack/pkg/utils"
)

var (
	hundred    = decimal.NewFromInt(100)
	periodDays = decimal.NewFromInt(30)
)

// Classify derives the installment status from its due date, optional
// payment date and the reference date. Exactly one of the five statuses
// applies for any input; all comparisons are at day granularity.
func Classify(dueDate time.Time, paymentDate *time.Time, referenceDate time.Time) string {
	due := utils.TruncateToDay(dueDate)
	ref := utils.TruncateToDay(referenceDate)

	if paymentDate == nil {
		if due.Before(ref) {
			return domain.StatusOverdue
		}
		return domain.StatusUpcoming
	}

	paid := utils.TruncateToDay(*paymentDate)
	switch {
	case paid.Before(due):
		return domain.StatusPaidEarly
	case paid.Equal(due):
		return domain.StatusPaidOnTime
	default:
		return domain.StatusPaidLate
	}
}

// DaysLate counts whole days past the due date. For paid installments the
// count stops at the payment date; for unpaid ones it runs to the
// reference date. Never negative.
func DaysLate(dueDate time.Time, paymentDate *time.Time, referenceDate time.Time) int {
	until := referenceDate
	if paymentDate != nil {
		until = *paymentDate
	}
	if d := utils.DaysBetween(dueDate, until); d > 0 {
		return d
	}
	return 0
}

// BaseInterest is the flat interest charged on every installment:
// principal x rate%, on the original principal regardless of how much has
// been amortized. Simple interest is the business rule, not an
// approximation of declining balance.
func BaseInterest(terms domain.LoanTerms) decimal.Decimal {
	return terms.Principal.Mul(terms.InterestRatePercent).Div(hundred)
}

// PrincipalShare is the principal portion of each installment.
func PrincipalShare(terms domain.LoanTerms) decimal.Decimal {
	return terms.Principal.Div(decimal.NewFromInt(int64(terms.InstallmentCount)))
}

// InterestAmount returns the installment interest for the given lateness:
// the flat base plus, when the loan carries a late fee and the installment
// is late, a surcharge accruing linearly per day, normalized to the 30-day
// installment period.
func InterestAmount(terms domain.LoanTerms, daysLate int) decimal.Decimal {
	base := BaseInterest(terms)
	if !terms.LateFeeEnabled || daysLate <= 0 {
		return base
	}
	surcharge := base.
		Mul(terms.LateFeePercent).Div(hundred).
		Div(periodDays).
		Mul(decimal.NewFromInt(int64(daysLate)))
	return base.Add(surcharge)
}

// Recompute re-derives every derived field of an installment from its due
// date, payment date and the loan terms, as of referenceDate. It returns
// an updated copy and never mutates its argument, so a failed operation
// upstream leaves the stored installment untouched.
func Recompute(inst domain.Installment, terms domain.LoanTerms, referenceDate time.Time) domain.Installment {
	out := inst
	out.DaysLate = DaysLate(inst.DueDate, inst.PaymentDate, referenceDate)
	out.Status = Classify(inst.DueDate, inst.PaymentDate, referenceDate)
	out.InterestAmount = InterestAmount(terms, out.DaysLate)
	out.AmountDue = PrincipalShare(terms).Add(out.InterestAmount)
	return out
}
