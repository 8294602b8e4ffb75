package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a borrower registered in the portfolio.
type Client struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	CPF       string    `json:"cpf" db:"cpf"`
	WhatsApp  bool      `json:"whatsapp" db:"whatsapp"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CreateClientRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Phone    string `json:"phone" validate:"required"`
	CPF      string `json:"cpf" validate:"required"`
	WhatsApp bool   `json:"whatsapp"`
}

type UpdateClientRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Phone    string `json:"phone" validate:"required"`
	CPF      string `json:"cpf" validate:"required"`
	WhatsApp bool   `json:"whatsapp"`
}
