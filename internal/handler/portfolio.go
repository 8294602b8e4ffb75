package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/loantrack/loantrack/internal/domain"
	"github.com/loantrack/loantrack/internal/engine"
	"github.com/loantrack/loantrack/internal/service"
	customError "github.com/loantrack/loantrack/pkg/errors"
	"github.com/loantrack/loantrack/pkg/response"
)

type PortfolioHandler struct {
	service   *service.PortfolioService
	validator *validator.Validate
}

func NewPortfolioHandler(svc *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		service:   svc,
		validator: newValidator(),
	}
}

func (h *PortfolioHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid loan request", err)
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, loan)
}

func (h *PortfolioHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, loan)
}

func (h *PortfolioHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, loans)
}

func (h *PortfolioHandler) RegenerateSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	var request domain.RegenerateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid schedule request", err)
		return
	}

	loan, err := h.service.RegenerateSchedule(r.Context(), loanID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, loan)
}

func (h *PortfolioHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	var request domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid payment request", err)
		return
	}

	installment, err := h.service.RecordPayment(r.Context(), loanID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, installment)
}

// Summary aggregates the portfolio, optionally restricted to one calendar
// month via ?year=2024&month=3.
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	window, err := monthWindowFromQuery(r)
	if err != nil {
		response.BadRequest(w, "invalid month window", err)
		return
	}

	summary, err := h.service.Summary(r.Context(), window)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, summary)
}

func (h *PortfolioHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var request domain.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid simulation request", err)
		return
	}

	rows, err := h.service.Simulate(&request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, rows)
}

// Settings returns the configured business defaults.
func (h *PortfolioHandler) Settings(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.BusinessDefaults())
}

func monthWindowFromQuery(r *http.Request) (engine.MonthWindow, error) {
	yearParam := r.URL.Query().Get("year")
	monthParam := r.URL.Query().Get("month")
	if yearParam == "" && monthParam == "" {
		return engine.MonthWindow{}, nil
	}
	if yearParam == "" || monthParam == "" {
		return engine.MonthWindow{}, errors.New("year and month must be provided together")
	}

	year, err := strconv.Atoi(yearParam)
	if err != nil || year < 1 {
		return engine.MonthWindow{}, errors.New("year must be a positive integer")
	}
	month, err := strconv.Atoi(monthParam)
	if err != nil || month < 1 || month > 12 {
		return engine.MonthWindow{}, errors.New("month must be between 1 and 12")
	}

	return engine.MonthWindow{Year: year, Month: time.Month(month)}, nil
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(w, "invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// writeBusinessError maps the error taxonomy to HTTP statuses.
func writeBusinessError(w http.ResponseWriter, err error) {
	var bizErr *customError.BusinessError
	if !errors.As(err, &bizErr) {
		response.InternalServerError(w, "unexpected error", err)
		return
	}

	status := http.StatusInternalServerError
	switch bizErr.Code {
	case customError.ErrCodeValidation, customError.ErrCodeInvalidPaymentDate:
		status = http.StatusBadRequest
	case customError.ErrCodeLoanNotFound, customError.ErrCodeClientNotFound:
		status = http.StatusNotFound
	case customError.ErrCodeScheduleLocked, customError.ErrCodeClientHasLoans:
		status = http.StatusConflict
	}

	response.ErrorWithCode(w, status, bizErr.Code, bizErr.Message, bizErr.Err)
}
