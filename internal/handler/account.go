package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"microbank/internal/auth"
	"microbank/internal/domain"
	"microbank/internal/logging"
)

type accountService interface {
	CreateAccount(ctx context.Context, customerID uuid.UUID, accountType domain.AccountType) (*domain.Account, error)
	GetCustomerAccounts(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error)
	GetAccountForCustomer(ctx context.Context, accountID, customerID uuid.UUID) (*domain.Account, error)
	DeleteAccount(ctx context.Context, customerID, accountID uuid.UUID) error
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountDTO struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customerId"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   string          `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:            a.ID,
		CustomerID:    a.CustomerID,
		AccountNumber: a.AccountNumber,
		AccountType:   string(a.AccountType),
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
	}
}

type createAccountRequest struct {
	CustomerID  string `json:"customerId"`
	AccountType string `json:"accountType"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.CustomerID == "" {
		errs = append(errs, FieldError{Field: "customerId", Message: "required"})
	} else if _, err := uuid.Parse(r.CustomerID); err != nil {
		errs = append(errs, FieldError{Field: "customerId", Message: "must be a valid id"})
	}
	if r.AccountType != "" && !domain.AccountType(r.AccountType).IsValid() {
		errs = append(errs, FieldError{Field: "accountType", Message: "must be savings or current"})
	}
	return errs
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCustomerID, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	customerID := uuid.MustParse(req.CustomerID)
	if customerID != authCustomerID {
		RespondAppError(w, ErrForbidden, nil)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), customerID, domain.AccountType(req.AccountType))
	if err != nil {
		logging.FromContext(r.Context()).Warn("failed to create account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	customerID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accounts, err := h.accounts.GetCustomerAccounts(r.Context(), customerID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"accounts": dtos})
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	accountID, err := uuid.Parse(r.PathValue("accountId"))
	if err != nil {
		RespondAppError(w, ErrAccountNotFound, nil)
		return
	}

	account, err := h.accounts.GetAccountForCustomer(r.Context(), accountID, customerID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("account lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	customerID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accountID, err := uuid.Parse(r.PathValue("accountId"))
	if err != nil {
		RespondAppError(w, ErrAccountNotFound, nil)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), customerID, accountID); err != nil {
		logging.FromContext(r.Context()).Warn("failed to delete account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{
		"message": "Account deleted successfully",
	})
}
