// Package v1 exposes the command and query surface over HTTP. Handlers
// stay thin: bind the body, map to a command, run it, translate the result
// or error. All domain rules live in the aggregates.
package v1

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/game"
	"github.com/arcadia-lab/project-arcadia/internal/readmodel"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// headerUserID carries the acting user's identity. Authentication itself
// happens upstream at the gateway.
const headerUserID = "X-User-ID"

// GameQueries is the read side the game endpoints serve from.
type GameQueries interface {
	Get(ctx context.Context, id string) (*game.Projection, error)
	List(ctx context.Context, filter readmodel.GameFilter) ([]game.Projection, error)
}

type GameHandler struct {
	service *game.Service
	queries GameQueries
}

func NewGameHandler(service *game.Service, queries GameQueries) *GameHandler {
	return &GameHandler{service: service, queries: queries}
}

// Register mounts the game routes on the router group.
func (h *GameHandler) Register(r *gin.RouterGroup) {
	r.POST("/games", h.create)
	r.GET("/games", h.list)
	r.GET("/games/:id", h.get)
	r.PUT("/games/:id/price", h.changePrice)
	r.PUT("/games/:id/status", h.changeStatus)
	r.PUT("/games/:id/rating", h.rate)
	r.PUT("/games/:id/details", h.changeDetails)
	r.POST("/games/:id/activate", h.activate)
	r.POST("/games/:id/deactivate", h.deactivate)
}

type detailsBody struct {
	Description  string   `json:"description"`
	Website      string   `json:"website"`
	Genres       []string `json:"genres"`
	Platforms    []string `json:"platforms"`
	Mode         string   `json:"mode"`
	Distribution string   `json:"distribution"`
}

func (b detailsBody) toInput() game.DetailsInput {
	return game.DetailsInput{
		Description:  b.Description,
		Website:      b.Website,
		Genres:       b.Genres,
		Platforms:    b.Platforms,
		Mode:         b.Mode,
		Distribution: b.Distribution,
	}
}

type createGameBody struct {
	Name                    string          `json:"name"`
	Price                   decimal.Decimal `json:"price"`
	AgeRating               string          `json:"age_rating"`
	Details                 detailsBody     `json:"details"`
	DiskSizeGB              float64         `json:"disk_size_gb"`
	MinimumRequirements     string          `json:"minimum_requirements"`
	RecommendedRequirements string          `json:"recommended_requirements"`
	Developer               string          `json:"developer"`
	Publisher               string          `json:"publisher"`
}

type gameResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	AgeRating    string    `json:"age_rating"`
	Status       string    `json:"status,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	Description  string    `json:"description,omitempty"`
	Website      string    `json:"website,omitempty"`
	Genres       []string  `json:"genres,omitempty"`
	Platforms    []string  `json:"platforms,omitempty"`
	Mode         string    `json:"mode,omitempty"`
	Distribution string    `json:"distribution,omitempty"`
	DiskSizeGB   float64   `json:"disk_size_gb,omitempty"`
	IsActive     bool      `json:"is_active"`
	Version      uint64    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func gameResponseFrom(res *game.Result) gameResponse {
	return gameResponse{
		ID:           res.ID,
		Name:         res.Name,
		Price:        res.Price,
		AgeRating:    res.AgeRating,
		Status:       res.Status,
		Rating:       res.Rating,
		Description:  res.Description,
		Website:      res.Website,
		Genres:       res.Genres,
		Platforms:    res.Platforms,
		Mode:         res.Mode,
		Distribution: res.Distribution,
		DiskSizeGB:   res.DiskSizeGB,
		IsActive:     res.IsActive,
		Version:      res.Version,
		CreatedAt:    res.CreatedAt,
		UpdatedAt:    res.UpdatedAt,
	}
}

func (h *GameHandler) create(c *gin.Context) {
	var body createGameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeInvalidJSON(c, err)
		return
	}

	res, err := h.service.CreateGame(c.Request.Context(), game.CreateGameCommand{
		Input: game.CreateGameInput{
			Name:                    body.Name,
			Price:                   body.Price,
			AgeRating:               body.AgeRating,
			Details:                 body.Details.toInput(),
			DiskSizeGB:              body.DiskSizeGB,
			MinimumRequirements:     body.MinimumRequirements,
			RecommendedRequirements: body.RecommendedRequirements,
			Developer:               body.Developer,
			Publisher:               body.Publisher,
		},
		ActingUserID: c.GetHeader(headerUserID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gameResponseFrom(res))
}

func (h *GameHandler) changePrice(c *gin.Context) {
	var body struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeInvalidJSON(c, err)
		return
	}

	res, err := h.service.ChangePrice(c.Request.Context(), game.ChangePriceCommand{
		GameID:       c.Param("id"),
		Price:        body.Price,
		ActingUserID: c.GetHeader(headerUserID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameResponseFrom(res))
}

func (h *GameHandler) changeStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeInvalidJSON(c, err)
		return
	}

	res, err := h.service.ChangeStatus(c.Request.Context(), game.ChangeStatusCommand{
		GameID:       c.Param("id"),
		Status:       body.Status,
		ActingUserID: c.GetHeader(headerUserID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameResponseFrom(res))
}

func (h *GameHandler) rate(c *gin.Context) {
	var body struct {
		Rating float64 `json:"rating"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeInvalidJSON(c, err)
		return
	}

	res, err := h.service.RateGame(c.Request.Context(), game.RateGameCommand{
		GameID:       c.Param("id"),
		Rating:       body.Rating,
		ActingUserID: c.GetHeader(headerUserID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameResponseFrom(res))
}

func (h *GameHandler) changeDetails(c *gin.Context) {
	var body detailsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeInvalidJSON(c, err)
		return
	}

	res, err := h.service.ChangeDetails(c.Request.Context(), game.ChangeDetailsCommand{
		GameID:       c.Param("id"),
		Details:      body.toInput(),
		ActingUserID: c.GetHeader(headerUserID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameResponseFrom(res))
}

func (h *GameHandler) activate(c *gin.Context) {
	res, err := h.service.ActivateGame(c.Request.Context(), game.ActivateGameCommand{
		GameID:       c.Param("id"),
		ActingUserID: c.GetHeader(headerUserID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameResponseFrom(res))
}

func (h *GameHandler) deactivate(c *gin.Context) {
	res, err := h.service.DeactivateGame(c.Request.Context(), game.DeactivateGameCommand{
		GameID:       c.Param("id"),
		ActingUserID: c.GetHeader(headerUserID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameResponseFrom(res))
}

func (h *GameHandler) get(c *gin.Context) {
	p, err := h.queries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameProjectionResponse(p))
}

func (h *GameHandler) list(c *gin.Context) {
	filter := readmodel.GameFilter{
		Name:   c.Query("name"),
		Status: c.Query("status"),
		SortBy: c.Query("sort_by"),
	}
	filter.IncludeHidden = c.Query("include_hidden") == "true"
	if v := c.Query("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := c.Query("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	games, err := h.queries.List(c.Request.Context(), filter)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	out := make([]gameResponse, 0, len(games))
	for i := range games {
		out = append(out, gameProjectionResponse(&games[i]))
	}
	c.JSON(http.StatusOK, gin.H{"games": out, "count": len(out)})
}

func gameProjectionResponse(p *game.Projection) gameResponse {
	return gameResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price.String(),
		AgeRating:    p.AgeRating,
		Status:       p.Status,
		Rating:       p.Rating,
		Description:  p.Description,
		Website:      p.Website,
		Genres:       p.Genres,
		Platforms:    p.Platforms,
		Mode:         p.Mode,
		Distribution: p.Distribution,
		DiskSizeGB:   p.DiskSizeGB,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
