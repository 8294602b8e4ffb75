package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/loantrack/loantrack/internal/domain"
	"github.com/loantrack/loantrack/internal/service"
	"github.com/loantrack/loantrack/pkg/response"
)

type ClientHandler struct {
	service   *service.PortfolioService
	validator *validator.Validate
}

func NewClientHandler(svc *service.PortfolioService) *ClientHandler {
	return &ClientHandler{
		service:   svc,
		validator: newValidator(),
	}
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid client request", err)
		return
	}

	client, err := h.service.CreateClient(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, client)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(w, r, "clientId")
	if !ok {
		return
	}

	client, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, client)
}

// List returns all clients, filtered by name when ?q= is present.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, clients)
}

func (h *ClientHandler) Loans(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(w, r, "clientId")
	if !ok {
		return
	}

	loans, err := h.service.ListClientLoans(r.Context(), clientID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, loans)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(w, r, "clientId")
	if !ok {
		return
	}

	var request domain.UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid client request", err)
		return
	}

	client, err := h.service.UpdateClient(r.Context(), clientID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, client)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(w, r, "clientId")
	if !ok {
		return
	}

	if err := h.service.DeleteClient(r.Context(), clientID); err != nil {
		writeBusinessError(w, err)
		return
	}

	response.NoContent(w)
}
