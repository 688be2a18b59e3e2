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
	"microbank/internal/service/transfer"
)

type transferService interface {
	CreateTransfer(ctx context.Context, req transfer.Request) (*transfer.Result, error)
	ListForAccount(ctx context.Context, accountNumber string, customerID uuid.UUID) ([]domain.Transaction, error)
}

type TransactionHandler struct {
	transfers transferService
}

func NewTransactionHandler(transfers transferService) *TransactionHandler {
	return &TransactionHandler{transfers: transfers}
}

type transactionDTO struct {
	ID            uuid.UUID       `json:"id"`
	TransferID    uuid.UUID       `json:"transferId"`
	FromAccount   string          `json:"fromAccount"`
	ToAccount     string          `json:"toAccount"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		TransferID:  t.TransferID,
		FromAccount: t.FromAccount,
		ToAccount:   t.ToAccount,
		Amount:      t.Amount,
		Type:        string(t.EntryType),
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
	}
}

type createTransferRequest struct {
	FromAccount string          `json:"fromAccount"`
	ToAccount   string          `json:"toAccount"`
	Amount      decimal.Decimal `json:"amount"`
}

func (r createTransferRequest) Validate() []FieldError {
	var errs []FieldError
	if r.FromAccount == "" {
		errs = append(errs, FieldError{Field: "fromAccount", Message: "required"})
	}
	if r.ToAccount == "" {
		errs = append(errs, FieldError{Field: "toAccount", Message: "required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type createTransferResponse struct {
	DebitTransaction  transactionDTO `json:"debitTransaction"`
	CreditTransaction transactionDTO `json:"creditTransaction"`
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if _, ok := auth.CustomerIDFromContext(r.Context()); !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.transfers.CreateTransfer(r.Context(), transfer.Request{
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		Amount:      req.Amount,
	})
	if err != nil {
		log.Warn("transfer failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, createTransferResponse{
		DebitTransaction:  toTransactionDTO(res.Debit),
		CreditTransaction: toTransactionDTO(res.Credit),
	})
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	customerID, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	accountNumber := r.PathValue("accountNumber")
	if accountNumber == "" {
		RespondAppError(w, ErrAccountNotFound, nil)
		return
	}

	transactions, err := h.transfers.ListForAccount(r.Context(), accountNumber, customerID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(transactions))
	for i := range transactions {
		dtos[i] = toTransactionDTO(&transactions[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
