package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	store docstore.Store
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(store docstore.Store) *CategoryHandler {
	return &CategoryHandler{store: store}
}

// CreateCategoryRequest is the payload for creating a category.
type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color" binding:"omitempty,hex_color"`
}

// UpdateCategoryRequest is the payload for updating a category.
type UpdateCategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color" binding:"omitempty,hex_color"`
}

// Create creates a new category.
func (h *CategoryHandler) Create(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, bindError(err))
		return
	}

	catalog := ledger.NewCatalog(h.store, users)
	id, err := catalog.CreateCategory(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// List returns the caller's categories.
func (h *CategoryHandler) List(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}
	userID, _ := users()

	err = ledger.WithStore(c.Request.Context(), h.store, userID, func(s *ledger.Store) error {
		c.JSON(http.StatusOK, gin.H{"categories": s.Categories()})
		return nil
	})
	if err != nil {
		abort(c, err)
	}
}

// Update changes a category's name and color.
func (h *CategoryHandler) Update(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, bindError(err))
		return
	}

	catalog := ledger.NewCatalog(h.store, users)
	if err := catalog.UpdateCategory(c.Request.Context(), c.Param("id"), req.Name, req.Color); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Delete removes a category. Existing transactions keep their reference and
// fall back to the uncategorized bucket.
func (h *CategoryHandler) Delete(c *gin.Context) {
	users, err := requestUser(c)
	if err != nil {
		abort(c, err)
		return
	}

	catalog := ledger.NewCatalog(h.store, users)
	if err := catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
