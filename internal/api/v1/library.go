package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/library"
	"github.com/gin-gonic/gin"
)

// LibraryQueries is the read side the library endpoints serve from.
type LibraryQueries interface {
	ListByUser(ctx context.Context, userID string) ([]library.Projection, error)
}

type LibraryHandler struct {
	service *library.Service
	queries LibraryQueries
}

func NewLibraryHandler(service *library.Service, queries LibraryQueries) *LibraryHandler {
	return &LibraryHandler{service: service, queries: queries}
}

// Register mounts the library routes on the router group.
func (h *LibraryHandler) Register(r *gin.RouterGroup) {
	r.POST("/library/purchases", h.purchase)
	r.GET("/library", h.list)
	r.PUT("/library/:game_id/playtime", h.increasePlaytime)
	r.DELETE("/library/:game_id", h.remove)
}

type entryResponse struct {
	EntryID         string    `json:"entry_id"`
	UserID          string    `json:"user_id"`
	GameID          string    `json:"game_id"`
	GameName        string    `json:"game_name"`
	PricePaid       string    `json:"price_paid"`
	PaymentID       string    `json:"payment_id"`
	PlaytimeMinutes int       `json:"playtime_minutes"`
	IsActive        bool      `json:"is_active"`
	PurchasedAt     time.Time `json:"purchased_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func entryResponseFrom(res *library.Result) entryResponse {
	return entryResponse{
		EntryID:         res.EntryID,
		UserID:          res.UserID,
		GameID:          res.GameID,
		GameName:        res.GameName,
		PricePaid:       res.PricePaid,
		PaymentID:       res.PaymentID,
		PlaytimeMinutes: res.PlaytimeMinutes,
		IsActive:        res.IsActive,
		PurchasedAt:     res.PurchasedAt,
		UpdatedAt:       res.UpdatedAt,
	}
}

func (h *LibraryHandler) purchase(c *gin.Context) {
	var body struct {
		GameID        string `json:"game_id"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeInvalidJSON(c, err)
		return
	}

	res, err := h.service.PurchaseGame(c.Request.Context(), library.PurchaseGameCommand{
		UserID:        c.GetHeader(headerUserID),
		GameID:        body.GameID,
		PaymentMethod: body.PaymentMethod,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entryResponseFrom(res))
}

func (h *LibraryHandler) increasePlaytime(c *gin.Context) {
	var body struct {
		Minutes int `json:"minutes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeInvalidJSON(c, err)
		return
	}

	res, err := h.service.IncreasePlaytime(c.Request.Context(), library.IncreasePlaytimeCommand{
		UserID:  c.GetHeader(headerUserID),
		GameID:  c.Param("game_id"),
		Minutes: body.Minutes,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryResponseFrom(res))
}

func (h *LibraryHandler) remove(c *gin.Context) {
	res, err := h.service.RemoveFromLibrary(c.Request.Context(), library.RemoveFromLibraryCommand{
		UserID: c.GetHeader(headerUserID),
		GameID: c.Param("game_id"),
		Reason: c.Query("reason"),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryResponseFrom(res))
}

func (h *LibraryHandler) list(c *gin.Context) {
	entries, err := h.queries.ListByUser(c.Request.Context(), c.GetHeader(headerUserID))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for i := range entries {
		p := &entries[i]
		out = append(out, entryResponse{
			EntryID:         p.EntryID,
			UserID:          p.UserID,
			GameID:          p.GameID,
			GameName:        p.GameName,
			PricePaid:       p.PricePaid.String(),
			PaymentID:       p.PaymentID,
			PlaytimeMinutes: p.PlaytimeMinutes,
			IsActive:        p.IsActive,
			PurchasedAt:     p.PurchasedAt,
			UpdatedAt:       p.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out, "count": len(out)})
}
