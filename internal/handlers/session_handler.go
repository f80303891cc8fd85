package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
)

// SessionHandler reports the lifecycle coordinator's view of the active
// session and its ledger store.
type SessionHandler struct {
	coordinator *ledger.Coordinator
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(coordinator *ledger.Coordinator) *SessionHandler {
	return &SessionHandler{coordinator: coordinator}
}

// Get returns the current lifecycle state and, when a store is open, the
// active user and the sync health of its collection mirrors.
func (h *SessionHandler) Get(c *gin.Context) {
	response := gin.H{"state": h.coordinator.State()}

	if store, ok := h.coordinator.Store(); ok {
		response["user_id"] = store.UserID()
		if err := store.Err(); err != nil {
			response["sync_error"] = err.Error()
		}
	}
	if err := h.coordinator.Err(); err != nil {
		response["error"] = err.Error()
	}

	c.JSON(http.StatusOK, response)
}
