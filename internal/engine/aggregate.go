package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loantrack/loantrack/internal/domain"
	"github.com/loantrack/loantrack/pkg/utils"
)

// MonthWindow optionally restricts aggregation to installments whose due
// date falls in one calendar month mirroring the month filter of the
// portfolio views. The zero value means "no restriction".
type MonthWindow struct {
	Year  int
	Month time.Month
}

func (w MonthWindow) IsZero() bool {
	return w.Year == 0
}

func (w MonthWindow) contains(t time.Time) bool {
	return w.IsZero() || utils.SameMonth(t, w.Year, w.Month)
}

// TotalPaid sums amount due over installments with a recorded payment.
func TotalPaid(installments []*domain.Installment) decimal.Decimal {
	return foldAmounts(installments, MonthWindow{}, true)
}

// TotalRemaining sums amount due over installments still unpaid.
func TotalRemaining(installments []*domain.Installment) decimal.Decimal {
	return foldAmounts(installments, MonthWindow{}, false)
}

// TotalPaidIn and TotalRemainingIn are the month-windowed variants.

func TotalPaidIn(installments []*domain.Installment, window MonthWindow) decimal.Decimal {
	return foldAmounts(installments, window, true)
}

func TotalRemainingIn(installments []*domain.Installment, window MonthWindow) decimal.Decimal {
	return foldAmounts(installments, window, false)
}

func foldAmounts(installments []*domain.Installment, window MonthWindow, paid bool) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		if inst.Paid() != paid || !window.contains(inst.DueDate) {
			continue
		}
		total = total.Add(inst.AmountDue)
	}
	return total
}

// Profit is what the loan has earned so far: everything received minus the
// principal that went out the door. Negative until the principal is
// recovered.
func Profit(terms domain.LoanTerms, installments []*domain.Installment) decimal.Decimal {
	return TotalPaid(installments).Sub(terms.Principal)
}

// NextInstallment returns the unpaid installment with the earliest due
// date, or nil when the loan is fully paid.
func NextInstallment(installments []*domain.Installment) *domain.Installment {
	var next *domain.Installment
	for _, inst := range installments {
		if inst.Paid() {
			continue
		}
		if next == nil || inst.DueDate.Before(next.DueDate) {
			next = inst
		}
	}
	return next
}

// PaidCount returns how many installments carry a payment.
func PaidCount(installments []*domain.Installment) int {
	n := 0
	for _, inst := range installments {
		if inst.Paid() {
			n++
		}
	}
	return n
}

// LoanStatus rolls the installment set up into a single loan status:
// finished when everything is paid, overdue when the next open installment
// is already past due, upcoming otherwise.
func LoanStatus(installments []*domain.Installment, referenceDate time.Time) string {
	next := NextInstallment(installments)
	if next == nil {
		return domain.LoanStatusFinished
	}
	if utils.TruncateToDay(next.DueDate).Before(utils.TruncateToDay(referenceDate)) {
		return domain.LoanStatusOverdue
	}
	return domain.LoanStatusUpcoming
}

// Summarize folds a set of loans into portfolio totals, optionally
// restricted to a month window. Totals are computed from scratch on every
// call; nothing here can go stale.
func Summarize(loans []*domain.Loan, window MonthWindow, referenceDate time.Time) *domain.PortfolioSummary {
	summary := &domain.PortfolioSummary{
		LoanCount:       len(loans),
		TotalLent:       decimal.Zero,
		TotalReceived:   decimal.Zero,
		TotalReceivable: decimal.Zero,
		TotalProfit:     decimal.Zero,
		GeneratedAt:     referenceDate,
	}

	for _, loan := range loans {
		summary.TotalLent = summary.TotalLent.Add(loan.Principal)
		summary.TotalReceived = summary.TotalReceived.Add(TotalPaidIn(loan.Installments, window))
		summary.TotalReceivable = summary.TotalReceivable.Add(TotalRemainingIn(loan.Installments, window))
		summary.TotalProfit = summary.TotalProfit.Add(Profit(loan.Terms(), loan.Installments))
	}

	summary.TotalLent = utils.RoundCurrency(summary.TotalLent)
	summary.TotalReceived = utils.RoundCurrency(summary.TotalReceived)
	summary.TotalReceivable = utils.RoundCurrency(summary.TotalReceivable)
	summary.TotalProfit = utils.RoundCurrency(summary.TotalProfit)
	return summary
}
