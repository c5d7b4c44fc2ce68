package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
)

func TestValidateHandleRequest(t *testing.T) {
	t.Run("accepts approve and reject", func(t *testing.T) {
		assert.NoError(t, ValidateHandleRequest(request.HandleRequest{Action: "approve"}))
		assert.NoError(t, ValidateHandleRequest(request.HandleRequest{Action: "reject", Note: "documents missing"}))
	})

	t.Run("requires an action", func(t *testing.T) {
		err := ValidateHandleRequest(request.HandleRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "action is required", verr.FieldErrors()["action"])
	})

	t.Run("rejects unknown actions", func(t *testing.T) {
		err := ValidateHandleRequest(request.HandleRequest{Action: "maybe"})

		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "action must be one of: approve, reject", verr.Fields["action"])
	})

	t.Run("limits the note length", func(t *testing.T) {
		note := make([]byte, 501)
		for i := range note {
			note[i] = 'x'
		}
		err := ValidateHandleRequest(request.HandleRequest{Action: "reject", Note: string(note)})

		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "note")
	})
}

func TestValidateDepositRequest(t *testing.T) {
	t.Run("accepts a positive amount and known method", func(t *testing.T) {
		err := ValidateDepositRequest(request.DepositRequest{
			Amount: decimal.RequireFromString("250.50"),
			Method: "bankTransfer",
		})
		assert.NoError(t, err)
	})

	t.Run("reports every failing field", func(t *testing.T) {
		err := ValidateDepositRequest(request.DepositRequest{
			Amount: decimal.RequireFromString("-5"),
			Method: "cash",
		})

		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields, 2)
		assert.Equal(t, "amount must be a positive amount", verr.Fields["amount"])
		assert.Equal(t, "amount: amount must be a positive amount; method: method must be one of: instaPay, VodafoneCash, bankTransfer", err.Error())
	})

	t.Run("zero amount is rejected", func(t *testing.T) {
		err := ValidateDepositRequest(request.DepositRequest{Method: "instaPay"})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("550e8400-e29b-41d4-a716-446655440000"))
	assert.ErrorIs(t, ValidateUUID("not-a-uuid"), apperrors.ErrInvalidUUID)
	assert.ErrorIs(t, ValidateUUID(""), apperrors.ErrInvalidUUID)
}
