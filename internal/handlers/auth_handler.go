package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/identity"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	provider *identity.Local
	issuer   *identity.TokenIssuer
	gate     *ledger.SessionGate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(provider *identity.Local, issuer *identity.TokenIssuer, gate *ledger.SessionGate) *AuthHandler {
	return &AuthHandler{provider: provider, issuer: issuer, gate: gate}
}

// RegisterRequest is the payload for creating a user.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, bindError(err))
		return
	}

	userID, err := h.provider.Register(req.Email, req.Password)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": userID})
}

// Login verifies credentials, makes the user the active session, and returns
// an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, bindError(err))
		return
	}

	userID, err := h.provider.SignIn(req.Email, req.Password)
	if err != nil {
		abort(c, err)
		return
	}

	token, err := h.issuer.Issue(userID)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "token": token})
}

// Logout clears the active session.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.gate.SignOut()
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}
