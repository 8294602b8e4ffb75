package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment statuses. The names match what lenders using the tracker
// already know from their spreadsheets, so they are kept in Portuguese.
const (
	StatusUpcoming   = "A Vencer"      // unpaid, due date not reached
	StatusOverdue    = "Atrasado"      // unpaid, past due date
	StatusPaidEarly  = "Pg Antecipado" // paid before due date
	StatusPaidOnTime = "Pg Vencimento" // paid exactly on due date
	StatusPaidLate   = "Pg Atrasado"   // paid after due date
)

// Installment is one scheduled repayment of a loan. Status, DaysLate,
// InterestAmount and AmountDue are derived from the due date, payment date
// and loan terms; the persisted copies are a display cache only and the
// engine recomputes them on every read.
type Installment struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	LoanID         uuid.UUID       `json:"loan_id" db:"loan_id"`
	SequenceNumber int             `json:"sequence_number" db:"sequence_number"`
	DueDate        time.Time       `json:"due_date" db:"due_date"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty" db:"payment_date"`
	Status         string          `json:"status" db:"status"`
	DaysLate       int             `json:"days_late" db:"days_late"`
	InterestAmount decimal.Decimal `json:"interest_amount" db:"interest_amount"`
	AmountDue      decimal.Decimal `json:"amount_due" db:"amount_due"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Paid reports whether a payment has been recorded against the installment.
func (i *Installment) Paid() bool {
	return i.PaymentDate != nil
}
