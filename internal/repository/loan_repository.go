package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/loantrack/loantrack/internal/domain"
	"github.com/loantrack/loantrack/pkg/utils"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const insertInstallment = `
	INSERT INTO installments (id, loan_id, sequence_number, due_date, payment_date, status, days_late, interest_amount, amount_due, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := r.db.Rebind(`
		INSERT INTO loans (id, client_id, principal, interest_rate_percent, installment_count, start_date, late_fee_enabled, late_fee_percent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	now := time.Now()
	loan.CreatedAt = now
	loan.UpdatedAt = now

	_, err = tx.ExecContext(ctx, query,
		loan.ID,
		loan.ClientID,
		utils.RoundCurrency(loan.Principal),
		loan.InterestRatePercent,
		loan.InstallmentCount,
		loan.StartDate,
		loan.LateFeeEnabled,
		loan.LateFeePercent,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertInstallments(ctx, tx, r.db.Rebind(insertInstallment), loan.Installments, now); err != nil {
		return err
	}

	return tx.Commit()
}

func insertInstallments(ctx context.Context, tx *sqlx.Tx, query string, installments []*domain.Installment, now time.Time) error {
	for _, inst := range installments {
		inst.CreatedAt = now
		_, err := tx.ExecContext(ctx, query,
			inst.ID,
			inst.LoanID,
			inst.SequenceNumber,
			inst.DueDate,
			inst.PaymentDate,
			inst.Status,
			inst.DaysLate,
			utils.RoundCurrency(inst.InterestAmount),
			utils.RoundCurrency(inst.AmountDue),
			inst.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := r.db.Rebind(`
		SELECT id, client_id, principal, interest_rate_percent, installment_count, start_date, late_fee_enabled, late_fee_percent, created_at, updated_at
		FROM loans
		WHERE id = ?
	`)

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}

	installments, err := r.installmentsByLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	loan.Installments = installments

	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context) ([]*domain.Loan, error) {
	return r.list(ctx, `
		SELECT id, client_id, principal, interest_rate_percent, installment_count, start_date, late_fee_enabled, late_fee_percent, created_at, updated_at
		FROM loans
		ORDER BY start_date, created_at
	`)
}

func (r *loanRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Loan, error) {
	return r.list(ctx, `
		SELECT id, client_id, principal, interest_rate_percent, installment_count, start_date, late_fee_enabled, late_fee_percent, created_at, updated_at
		FROM loans
		WHERE client_id = ?
		ORDER BY start_date, created_at
	`, clientID)
}

func (r *loanRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	for _, loan := range loans {
		installments, err := r.installmentsByLoan(ctx, loan.ID)
		if err != nil {
			return nil, err
		}
		loan.Installments = installments
	}

	return loans, nil
}

func (r *loanRepository) installmentsByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	query := r.db.Rebind(`
		SELECT id, loan_id, sequence_number, due_date, payment_date, status, days_late, interest_amount, amount_due, created_at
		FROM installments
		WHERE loan_id = ?
		ORDER BY sequence_number
	`)

	var installments []*domain.Installment
	if err := r.db.SelectContext(ctx, &installments, query, loanID); err != nil {
		return nil, err
	}

	return installments, nil
}

// ReplaceSchedule rewrites the loan terms and its whole installment set in
// one transaction. The service layer guarantees no payment has been
// recorded before calling this.
func (r *loanRepository) ReplaceSchedule(ctx context.Context, loan *domain.Loan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	loan.UpdatedAt = now

	update := r.db.Rebind(`
		UPDATE loans
		SET principal = ?, interest_rate_percent = ?, installment_count = ?, start_date = ?, late_fee_enabled = ?, late_fee_percent = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err = tx.ExecContext(ctx, update,
		utils.RoundCurrency(loan.Principal),
		loan.InterestRatePercent,
		loan.InstallmentCount,
		loan.StartDate,
		loan.LateFeeEnabled,
		loan.LateFeePercent,
		loan.UpdatedAt,
		loan.ID,
	)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM installments WHERE loan_id = ?`), loan.ID); err != nil {
		return err
	}

	if err := insertInstallments(ctx, tx, r.db.Rebind(insertInstallment), loan.Installments, now); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *loanRepository) UpdateInstallment(ctx context.Context, installment *domain.Installment) error {
	query := r.db.Rebind(`
		UPDATE installments
		SET payment_date = ?, status = ?, days_late = ?, interest_amount = ?, amount_due = ?
		WHERE loan_id = ? AND sequence_number = ?
	`)

	_, err := r.db.ExecContext(ctx, query,
		installment.PaymentDate,
		installment.Status,
		installment.DaysLate,
		utils.RoundCurrency(installment.InterestAmount),
		utils.RoundCurrency(installment.AmountDue),
		installment.LoanID,
		installment.SequenceNumber,
	)
	return err
}

func (r *loanRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM loans WHERE client_id = ?`)

	var count int
	if err := r.db.GetContext(ctx, &count, query, clientID); err != nil {
		return 0, err
	}
	return count, nil
}
