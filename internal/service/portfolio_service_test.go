package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/loantrack/loantrack/internal/domain"
	"github.com/loantrack/loantrack/internal/engine"
	customError "github.com/loantrack/loantrack/pkg/errors"
	"github.com/loantrack/loantrack/tests/mocks"
)

func fixedDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(loanRepo *mocks.MockLoanRepository, clientRepo *mocks.MockClientRepository, today time.Time) *PortfolioService {
	return NewPortfolioService(loanRepo, clientRepo, nil, nil, domain.FixedClock{Date: today})
}

func fixtureLoan(today time.Time) *domain.Loan {
	loan := &domain.Loan{
		ID:                  uuid.New(),
		ClientID:            uuid.New(),
		Principal:           decimal.NewFromInt(5000),
		InterestRatePercent: decimal.NewFromInt(15),
		InstallmentCount:    6,
		StartDate:           fixedDate(2024, time.January, 15),
		LateFeeEnabled:      true,
		LateFeePercent:      decimal.NewFromInt(5),
	}
	installments, err := engine.GenerateSchedule(loan.ID, loan.Terms(), today)
	if err != nil {
		panic(err)
	}
	loan.Installments = installments
	return loan
}

func TestCreateLoan_Success(t *testing.T) {
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	today := fixedDate(2024, time.January, 15)
	svc := newTestService(mockLoanRepo, mockClientRepo, today)

	clientID := uuid.New()
	mockClientRepo.On("GetByID", mock.Anything, clientID).Return(&domain.Client{ID: clientID}, nil)
	mockLoanRepo.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
		return len(loan.Installments) == 6 && loan.ClientID == clientID
	})).Return(nil)

	loan, err := svc.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		ClientID:            clientID.String(),
		Principal:           decimal.NewFromInt(5000),
		InterestRatePercent: decimal.NewFromInt(15),
		InstallmentCount:    6,
		StartDate:           fixedDate(2024, time.January, 15),
		LateFeeEnabled:      true,
		LateFeePercent:      decimal.NewFromInt(5),
	})

	require.NoError(t, err)
	require.Len(t, loan.Installments, 6)
	assert.Equal(t, fixedDate(2024, time.February, 14), loan.Installments[0].DueDate)
	assert.Equal(t, domain.StatusUpcoming, loan.Installments[0].Status)
	assert.True(t, loan.Installments[0].InterestAmount.Equal(decimal.NewFromInt(750)))

	mockLoanRepo.AssertExpectations(t)
	mockClientRepo.AssertExpectations(t)
}

func TestCreateLoan_ClientNotFound(t *testing.T) {
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, fixedDate(2024, time.January, 15))

	clientID := uuid.New()
	mockClientRepo.On("GetByID", mock.Anything, clientID).Return(nil, sql.ErrNoRows)

	loan, err := svc.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		ClientID:            clientID.String(),
		Principal:           decimal.NewFromInt(5000),
		InterestRatePercent: decimal.NewFromInt(15),
		InstallmentCount:    6,
		StartDate:           fixedDate(2024, time.January, 15),
	})

	assert.Nil(t, loan)
	assert.ErrorIs(t, err, customError.ErrClientNotFound)
	mockLoanRepo.AssertNotCalled(t, "Create")
}

func TestCreateLoan_InvalidTerms(t *testing.T) {
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, fixedDate(2024, time.January, 15))

	clientID := uuid.New()
	mockClientRepo.On("GetByID", mock.Anything, clientID).Return(&domain.Client{ID: clientID}, nil)

	loan, err := svc.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		ClientID:         clientID.String(),
		Principal:        decimal.Zero,
		InstallmentCount: 6,
		StartDate:        fixedDate(2024, time.January, 15),
	})

	assert.Nil(t, loan)
	assert.ErrorIs(t, err, customError.ErrValidation)
	mockLoanRepo.AssertNotCalled(t, "Create")
}

func TestRecordPayment(t *testing.T) {
	today := fixedDate(2024, time.March, 1)

	tests := []struct {
		name        string
		sequence    int
		paymentDate time.Time
		validate    func(*testing.T, *domain.Installment, error)
	}{
		{
			name:        "payment on due date",
			sequence:    1, // due 2024-02-14
			paymentDate: fixedDate(2024, time.February, 14),
			validate: func(t *testing.T, inst *domain.Installment, err error) {
				require.NoError(t, err)
				assert.Equal(t, domain.StatusPaidOnTime, inst.Status)
				assert.Equal(t, 0, inst.DaysLate)
				assert.True(t, inst.InterestAmount.Equal(decimal.NewFromInt(750)))
			},
		},
		{
			name:        "payment two days late carries surcharge",
			sequence:    1,
			paymentDate: fixedDate(2024, time.February, 16),
			validate: func(t *testing.T, inst *domain.Installment, err error) {
				require.NoError(t, err)
				assert.Equal(t, domain.StatusPaidLate, inst.Status)
				assert.Equal(t, 2, inst.DaysLate)
				assert.True(t, inst.InterestAmount.Equal(decimal.RequireFromString("752.5")))
			},
		},
		{
			name:        "early payment",
			sequence:    2, // due 2024-03-15
			paymentDate: fixedDate(2024, time.February, 28),
			validate: func(t *testing.T, inst *domain.Installment, err error) {
				require.NoError(t, err)
				assert.Equal(t, domain.StatusPaidEarly, inst.Status)
				assert.Equal(t, 0, inst.DaysLate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLoanRepo := &mocks.MockLoanRepository{}
			mockClientRepo := &mocks.MockClientRepository{}
			svc := newTestService(mockLoanRepo, mockClientRepo, today)

			loan := fixtureLoan(today)
			mockLoanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
			mockLoanRepo.On("UpdateInstallment", mock.Anything, mock.MatchedBy(func(inst *domain.Installment) bool {
				return inst.SequenceNumber == tt.sequence && inst.PaymentDate != nil
			})).Return(nil)

			inst, err := svc.RecordPayment(context.Background(), loan.ID, &domain.RecordPaymentRequest{
				SequenceNumber: tt.sequence,
				PaymentDate:    tt.paymentDate,
			})

			tt.validate(t, inst, err)
			mockLoanRepo.AssertExpectations(t)
		})
	}
}

func TestRecordPayment_FutureDateRejected(t *testing.T) {
	today := fixedDate(2024, time.March, 1)
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, today)

	inst, err := svc.RecordPayment(context.Background(), uuid.New(), &domain.RecordPaymentRequest{
		SequenceNumber: 1,
		PaymentDate:    fixedDate(2024, time.March, 2),
	})

	assert.Nil(t, inst)
	assert.ErrorIs(t, err, customError.ErrInvalidPaymentDate)

	// Rejected before anything was read or written.
	mockLoanRepo.AssertNotCalled(t, "GetByID")
	mockLoanRepo.AssertNotCalled(t, "UpdateInstallment")
}

func TestRecordPayment_UnknownSequence(t *testing.T) {
	today := fixedDate(2024, time.March, 1)
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, today)

	loan := fixtureLoan(today)
	mockLoanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

	inst, err := svc.RecordPayment(context.Background(), loan.ID, &domain.RecordPaymentRequest{
		SequenceNumber: 7,
		PaymentDate:    fixedDate(2024, time.February, 14),
	})

	assert.Nil(t, inst)
	assert.ErrorIs(t, err, customError.ErrInstallmentMissing)
	mockLoanRepo.AssertNotCalled(t, "UpdateInstallment")
}

func TestRecordPayment_Idempotent(t *testing.T) {
	today := fixedDate(2024, time.March, 1)
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, today)

	loan := fixtureLoan(today)
	mockLoanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
	mockLoanRepo.On("UpdateInstallment", mock.Anything, mock.Anything).Return(nil)

	request := &domain.RecordPaymentRequest{
		SequenceNumber: 1,
		PaymentDate:    fixedDate(2024, time.February, 16),
	}

	first, err := svc.RecordPayment(context.Background(), loan.ID, request)
	require.NoError(t, err)
	second, err := svc.RecordPayment(context.Background(), loan.ID, request)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.DaysLate, second.DaysLate)
	assert.True(t, first.InterestAmount.Equal(second.InterestAmount))
	assert.True(t, first.AmountDue.Equal(second.AmountDue))
	assert.True(t, first.PaymentDate.Equal(*second.PaymentDate))
}

func TestRecordPayment_CorrectionOverwrites(t *testing.T) {
	today := fixedDate(2024, time.March, 1)
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, today)

	loan := fixtureLoan(today)
	// Installment #1 already paid two days late.
	paid := fixedDate(2024, time.February, 16)
	loan.Installments[0].PaymentDate = &paid

	mockLoanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
	mockLoanRepo.On("UpdateInstallment", mock.Anything, mock.Anything).Return(nil)

	// Correction: it was actually paid on the due date.
	inst, err := svc.RecordPayment(context.Background(), loan.ID, &domain.RecordPaymentRequest{
		SequenceNumber: 1,
		PaymentDate:    fixedDate(2024, time.February, 14),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaidOnTime, inst.Status)
	assert.Equal(t, 0, inst.DaysLate)
	assert.True(t, inst.InterestAmount.Equal(decimal.NewFromInt(750)))
}

func TestRegenerateSchedule_Success(t *testing.T) {
	today := fixedDate(2024, time.January, 20)
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, today)

	loan := fixtureLoan(today)
	mockLoanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
	mockLoanRepo.On("ReplaceSchedule", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return len(l.Installments) == 12
	})).Return(nil)

	updated, err := svc.RegenerateSchedule(context.Background(), loan.ID, &domain.RegenerateScheduleRequest{
		Principal:           decimal.NewFromInt(6000),
		InterestRatePercent: decimal.NewFromInt(10),
		InstallmentCount:    12,
		StartDate:           fixedDate(2024, time.February, 1),
	})

	require.NoError(t, err)
	require.Len(t, updated.Installments, 12)
	assert.Equal(t, fixedDate(2024, time.March, 2), updated.Installments[0].DueDate)
	mockLoanRepo.AssertExpectations(t)
}

func TestRegenerateSchedule_LockedAfterPayment(t *testing.T) {
	today := fixedDate(2024, time.March, 1)
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, today)

	loan := fixtureLoan(today)
	paid := fixedDate(2024, time.February, 14)
	loan.Installments[0].PaymentDate = &paid

	mockLoanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

	updated, err := svc.RegenerateSchedule(context.Background(), loan.ID, &domain.RegenerateScheduleRequest{
		Principal:           decimal.NewFromInt(6000),
		InterestRatePercent: decimal.NewFromInt(10),
		InstallmentCount:    12,
		StartDate:           fixedDate(2024, time.February, 1),
	})

	assert.Nil(t, updated)
	assert.ErrorIs(t, err, customError.ErrScheduleLocked)
	mockLoanRepo.AssertNotCalled(t, "ReplaceSchedule")
}

func TestGetLoan_RefreshesDerivedFields(t *testing.T) {
	// Loan generated in January, read in May: early installments must come
	// back overdue even though the stored rows still say upcoming.
	created := fixedDate(2024, time.January, 15)
	readAt := fixedDate(2024, time.May, 1)

	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, readAt)

	loan := fixtureLoan(created)
	mockLoanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

	response, err := svc.GetLoan(context.Background(), loan.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.LoanStatusOverdue, response.Status)
	assert.Equal(t, domain.StatusOverdue, response.Loan.Installments[0].Status)
	assert.Equal(t, 77, response.Loan.Installments[0].DaysLate)
	assert.Equal(t, 0, response.PaidCount)
	require.NotNil(t, response.Next)
	assert.Equal(t, 1, response.Next.SequenceNumber)
	assert.True(t, response.TotalPaid.IsZero())
}

func TestGetLoan_NotFound(t *testing.T) {
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, fixedDate(2024, time.March, 1))

	id := uuid.New()
	mockLoanRepo.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	response, err := svc.GetLoan(context.Background(), id)
	assert.Nil(t, response)
	assert.ErrorIs(t, err, customError.ErrLoanNotFound)
}

func TestSummary(t *testing.T) {
	today := fixedDate(2024, time.August, 1)
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, today)

	loan := fixtureLoan(fixedDate(2024, time.January, 15))
	for _, inst := range loan.Installments {
		payDate := inst.DueDate
		inst.PaymentDate = &payDate
	}
	mockLoanRepo.On("List", mock.Anything).Return([]*domain.Loan{loan}, nil)

	summary, err := svc.Summary(context.Background(), engine.MonthWindow{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.LoanCount)
	assert.True(t, summary.TotalLent.Equal(decimal.NewFromInt(5000)))
	assert.True(t, summary.TotalReceived.Equal(decimal.NewFromInt(9500)))
	assert.True(t, summary.TotalReceivable.IsZero())
	assert.True(t, summary.TotalProfit.Equal(decimal.NewFromInt(4500)))
}

func TestSummary_DatabaseError(t *testing.T) {
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, fixedDate(2024, time.August, 1))

	mockLoanRepo.On("List", mock.Anything).Return(nil, errors.New("connection refused"))

	summary, err := svc.Summary(context.Background(), engine.MonthWindow{})
	assert.Nil(t, summary)

	var bizErr *customError.BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, customError.ErrCodeDatabaseError, bizErr.Code)
}

func TestRefreshOverdue(t *testing.T) {
	// Two of the six installments are past due as of the refresh date.
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, fixedDate(2024, time.April, 1))

	loan := fixtureLoan(fixedDate(2024, time.January, 15))
	mockLoanRepo.On("List", mock.Anything).Return([]*domain.Loan{loan}, nil)
	mockLoanRepo.On("UpdateInstallment", mock.Anything, mock.MatchedBy(func(inst *domain.Installment) bool {
		return inst.Status == domain.StatusOverdue
	})).Return(nil)

	overdue, err := svc.RefreshOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, overdue)
}

func TestListClientLoans(t *testing.T) {
	today := fixedDate(2024, time.May, 1)
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, today)

	loan := fixtureLoan(fixedDate(2024, time.January, 15))
	mockClientRepo.On("GetByID", mock.Anything, loan.ClientID).Return(&domain.Client{ID: loan.ClientID}, nil)
	mockLoanRepo.On("ListByClient", mock.Anything, loan.ClientID).Return([]*domain.Loan{loan}, nil)

	responses, err := svc.ListClientLoans(context.Background(), loan.ClientID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, domain.LoanStatusOverdue, responses[0].Status)

	unknown := uuid.New()
	mockClientRepo.On("GetByID", mock.Anything, unknown).Return(nil, sql.ErrNoRows)
	responses, err = svc.ListClientLoans(context.Background(), unknown)
	assert.Nil(t, responses)
	assert.ErrorIs(t, err, customError.ErrClientNotFound)
}

func TestListClients_Search(t *testing.T) {
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockClientRepo := &mocks.MockClientRepository{}
	svc := newTestService(mockLoanRepo, mockClientRepo, fixedDate(2024, time.March, 1))

	all := []*domain.Client{{Name: "Ana"}, {Name: "Bruno"}}
	mockClientRepo.On("List", mock.Anything).Return(all, nil)
	mockClientRepo.On("SearchByName", mock.Anything, "ana").Return(all[:1], nil)

	clients, err := svc.ListClients(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, clients, 2)

	clients, err = svc.ListClients(context.Background(), "ana")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Ana", clients[0].Name)
}

func TestDeleteClient(t *testing.T) {
	clientID := uuid.New()

	t.Run("rejected while loans exist", func(t *testing.T) {
		mockLoanRepo := &mocks.MockLoanRepository{}
		mockClientRepo := &mocks.MockClientRepository{}
		svc := newTestService(mockLoanRepo, mockClientRepo, fixedDate(2024, time.March, 1))

		mockClientRepo.On("GetByID", mock.Anything, clientID).Return(&domain.Client{ID: clientID}, nil)
		mockLoanRepo.On("CountByClient", mock.Anything, clientID).Return(2, nil)

		err := svc.DeleteClient(context.Background(), clientID)
		assert.ErrorIs(t, err, customError.ErrClientHasLoans)
		mockClientRepo.AssertNotCalled(t, "Delete")
	})

	t.Run("allowed when no loans remain", func(t *testing.T) {
		mockLoanRepo := &mocks.MockLoanRepository{}
		mockClientRepo := &mocks.MockClientRepository{}
		svc := newTestService(mockLoanRepo, mockClientRepo, fixedDate(2024, time.March, 1))

		mockClientRepo.On("GetByID", mock.Anything, clientID).Return(&domain.Client{ID: clientID}, nil)
		mockLoanRepo.On("CountByClient", mock.Anything, clientID).Return(0, nil)
		mockClientRepo.On("Delete", mock.Anything, clientID).Return(nil)

		err := svc.DeleteClient(context.Background(), clientID)
		assert.NoError(t, err)
		mockClientRepo.AssertExpectations(t)
	})
}
