package handler

import (
	"net/http"

	"github.com/google/uuid"

	"microbank/internal/auth"
)

// ownerFromPath resolves the {customerId} path segment and rejects the
// request when it does not match the authenticated customer.
func ownerFromPath(r *http.Request) (uuid.UUID, *AppError) {
	authCustomerID, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}

	customerID, err := uuid.Parse(r.PathValue("customerId"))
	if err != nil {
		return uuid.Nil, ErrCustomerNotFound
	}

	if customerID != authCustomerID {
		return uuid.Nil, ErrForbidden
	}

	return customerID, nil
}
