// Package handlers exposes the ledger engine's operations over a thin JSON
// API for UI-facing callers.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/Facundo-Gordillo/MYFINANCES/internal/errors"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/middleware"
)

// requestUser resolves the authenticated user id from the Gin context as a
// ledger.UserFunc, so engine components constructed per request see the
// caller's identity.
func requestUser(c *gin.Context) (ledger.UserFunc, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return nil, apperrors.ErrAuthRequired
	}
	return ledger.StaticUser(userID), nil
}

// parseAmount parses a decimal amount string from a request payload.
func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid decimal amount: "+raw)
	}
	return d, nil
}

// abort records err on the context for the error middleware and stops the
// handler chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindError wraps a Gin binding failure into an invalid-input AppError.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}
