package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
)

// SummaryHandler serves per-category spending breakdowns.
type SummaryHandler struct {
	store docstore.Store
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(store docstore.Store) *SummaryHandler {
	return &SummaryHandler{store: store}
}

// Get returns the per-category aggregation of the caller's transactions. The
// optional "account" query parameter narrows the projection to one account;
// it defaults to all accounts.
func (h *SummaryHandler) Get(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}
	userID, _ := users()

	filter := c.DefaultQuery("account", ledger.AllAccounts)

	err = ledger.WithStore(c.Request.Context(), h.store, userID, func(s *ledger.Store) error {
		buckets := ledger.Project(s.Transactions(), s.Categories(), filter)
		c.JSON(http.StatusOK, gin.H{"summary": buckets})
		return nil
	})
	if err != nil {
		abort(c, err)
	}
}
