package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"microbank/internal/domain"
)

type stubCustomerReader struct {
	customer *domain.Customer
	err      error
}

func (s *stubCustomerReader) GetByEmail(_ context.Context, _ string) (*domain.Customer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.customer, nil
}

func customerWithPassword(t *testing.T, password string) *domain.Customer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.Customer{
		ID:           uuid.New(),
		Name:         "Alice",
		Email:        "alice@test.com",
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
}

func doLogin(t *testing.T, reader *stubCustomerReader, body string) *httptest.ResponseRecorder {
	t.Helper()

	h := NewCustomerHandler(nil, reader, "test-secret", time.Hour)
	req := httptest.NewRequest(http.MethodPost, "/api/customers/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	reader := &stubCustomerReader{customer: customerWithPassword(t, "s3cretpass")}

	rec := doLogin(t, reader, `{"email":"alice@test.com","password":"s3cretpass"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["token"])

	// password hash must never leak into the response
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestLogin_WrongPassword(t *testing.T) {
	reader := &stubCustomerReader{customer: customerWithPassword(t, "s3cretpass")}

	rec := doLogin(t, reader, `{"email":"alice@test.com","password":"wrong"}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
	assert.NotContains(t, rec.Body.String(), "token")
}

func TestLogin_UnknownEmail(t *testing.T) {
	reader := &stubCustomerReader{err: domain.ErrNotFound}

	rec := doLogin(t, reader, `{"email":"nobody@test.com","password":"whatever"}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Same error body as a wrong password so callers cannot probe for
	// registered emails.
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
}

func TestLogin_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing email", body: `{"password":"s3cretpass"}`},
		{name: "missing password", body: `{"email":"alice@test.com"}`},
		{name: "malformed json", body: `not json`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doLogin(t, &stubCustomerReader{}, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       registerRequest
		wantField string
	}{
		{
			name: "valid",
			req:  registerRequest{Name: "Alice", Email: "alice@test.com", Password: "s3cretpass"},
		},
		{
			name:      "missing name",
			req:       registerRequest{Email: "alice@test.com", Password: "s3cretpass"},
			wantField: "name",
		},
		{
			name:      "invalid email",
			req:       registerRequest{Name: "Alice", Email: "not-an-email", Password: "s3cretpass"},
			wantField: "email",
		},
		{
			name:      "short password",
			req:       registerRequest{Name: "Alice", Email: "alice@test.com", Password: "short"},
			wantField: "password",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fields := tc.req.Validate()
			if tc.wantField == "" {
				assert.Empty(t, fields)
				return
			}
			require.Len(t, fields, 1)
			assert.Equal(t, tc.wantField, fields[0].Field)
		})
	}
}
