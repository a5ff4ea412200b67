package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-bot/internal/repository"
	"github.com/ignatzorin/marketplace-bot/internal/service"
)

// ListingHandler отдаёт объявления в ops панель (только чтение:
// управление сделками идёт через мессенджер).
type ListingHandler struct {
	lifecycle *service.LifecycleService
	repo      *repository.ListingRepository
}

// NewListingHandler создаёт новый хэндлер объявлений.
func NewListingHandler(lifecycle *service.LifecycleService, repo *repository.ListingRepository) *ListingHandler {
	return &ListingHandler{
		lifecycle: lifecycle,
		repo:      repo,
	}
}

// ListListings обрабатывает GET /api/listings?limit=&offset=.
func (h *ListingHandler) ListListings(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	listings, err := h.repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetListing обрабатывает GET /api/listings/:id.
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "невалидный id объявления"})
		return
	}

	listing, err := h.lifecycle.GetListing(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, listing)
}
