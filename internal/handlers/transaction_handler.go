package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/models"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	store docstore.Store
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(store docstore.Store) *TransactionHandler {
	return &TransactionHandler{store: store}
}

// RecordTransactionRequest is the payload for recording a transaction.
// RequestID lets a client retry a submit without double-recording it; one is
// generated when omitted.
type RecordTransactionRequest struct {
	AccountID  string `json:"account_id" binding:"required"`
	CategoryID string `json:"category_id"`
	Amount     string `json:"amount" binding:"required,positive_decimal"`
	Kind       string `json:"kind" binding:"required,transaction_kind"`
	RequestID  string `json:"request_id"`
}

// Record appends a transaction and adjusts the account balance.
func (h *TransactionHandler) Record(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}

	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, bindError(err))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		abort(c, err)
		return
	}

	engine := ledger.NewBalanceEngine(h.store, users)
	err = engine.Record(c.Request.Context(), ledger.RecordInput{
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Amount:     amount,
		Kind:       models.TransactionKind(req.Kind),
		RequestID:  req.RequestID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

// List returns the caller's transactions newest first, enriched with
// category colors and account names.
func (h *TransactionHandler) List(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}
	userID, _ := users()

	err = ledger.WithStore(c.Request.Context(), h.store, userID, func(s *ledger.Store) error {
		c.JSON(http.StatusOK, gin.H{"transactions": s.EnrichedTransactions()})
		return nil
	})
	if err != nil {
		abort(c, err)
	}
}
