package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	store docstore.Store
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(store docstore.Store) *AccountHandler {
	return &AccountHandler{store: store}
}

// CreateAccountRequest is the payload for creating an account.
type CreateAccountRequest struct {
	Name           string `json:"name" binding:"required"`
	InitialBalance string `json:"initial_balance"`
}

// UpdateAccountRequest is the payload for renaming an account.
type UpdateAccountRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create creates a new account.
func (h *AccountHandler) Create(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, bindError(err))
		return
	}
	if req.InitialBalance == "" {
		req.InitialBalance = "0"
	}
	initial, err := parseAmount(req.InitialBalance)
	if err != nil {
		abort(c, err)
		return
	}

	catalog := ledger.NewCatalog(h.store, users)
	id, err := catalog.CreateAccount(c.Request.Context(), req.Name, initial)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// List returns the caller's accounts.
func (h *AccountHandler) List(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}
	userID, _ := users()

	err = ledger.WithStore(c.Request.Context(), h.store, userID, func(s *ledger.Store) error {
		c.JSON(http.StatusOK, gin.H{"accounts": s.Accounts()})
		return nil
	})
	if err != nil {
		abort(c, err)
	}
}

// Update renames an account.
func (h *AccountHandler) Update(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, bindError(err))
		return
	}

	catalog := ledger.NewCatalog(h.store, users)
	if err := catalog.RenameAccount(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Delete removes an account.
func (h *AccountHandler) Delete(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}

	catalog := ledger.NewCatalog(h.store, users)
	if err := catalog.DeleteAccount(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Reconcile recomputes an account's balance from its transaction history.
func (h *AccountHandler) Reconcile(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}

	engine := ledger.NewBalanceEngine(h.store, users)
	balance, err := engine.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance.String()})
}
