package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"microbank/internal/auth"
	"microbank/internal/domain"
	"microbank/internal/logging"
)

type customerService interface {
	Register(ctx context.Context, name, email, password string) (*domain.Customer, *domain.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetAll(ctx context.Context) ([]domain.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type customerReader interface {
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
}

type CustomerHandler struct {
	customers customerService
	reader    customerReader
	jwtSecret string
	jwtExpiry time.Duration
}

func NewCustomerHandler(customers customerService, reader customerReader, jwtSecret string, jwtExpiry time.Duration) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		reader:    reader,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

type customerDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCustomerDTO(c *domain.Customer) customerDTO {
	return customerDTO{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		errs = append(errs, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	} else if len(r.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	return errs
}

type registerResponse struct {
	Token    string      `json:"token"`
	Customer customerDTO `json:"customer"`
	Account  accountDTO  `json:"account"`
}

func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	customer, account, err := h.customers.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		log.Warn("registration failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	token, err := auth.GenerateToken(customer.ID, customer.Email, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		log.Error("failed to issue token", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusCreated, registerResponse{
		Token:    token,
		Customer: toCustomerDTO(customer),
		Account:  toAccountDTO(account),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type loginResponse struct {
	Token    string      `json:"token"`
	Customer customerDTO `json:"customer"`
}

func (h *CustomerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	customer, err := h.reader.GetByEmail(r.Context(), req.Email)
	if err != nil {
		// Same error for unknown email and bad password.
		if errors.Is(err, domain.ErrNotFound) {
			RespondAppError(w, ErrInvalidCredentials, nil)
			return
		}
		RespondDomainError(w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)); err != nil {
		RespondAppError(w, ErrInvalidCredentials, nil)
		return
	}

	token, err := auth.GenerateToken(customer.ID, customer.Email, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{
		Token:    token,
		Customer: toCustomerDTO(customer),
	})
}

func (h *CustomerHandler) Me(w http.ResponseWriter, r *http.Request) {
	customerID, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	customer, err := h.customers.GetByID(r.Context(), customerID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get customer", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCustomerDTO(customer))
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.GetAll(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list customers", "error", err)
		RespondDomainError(w, err)
		return
	}

	if len(customers) == 0 {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	dtos := make([]customerDTO, len(customers))
	for i := range customers {
		dtos[i] = toCustomerDTO(&customers[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	customerID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.customers.Delete(r.Context(), customerID); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete customer", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{
		"message": "Customer and associated accounts deleted successfully",
	})
}
