package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/amankumarsingh77/go-webtoon-crawler/db/models"
	"github.com/amankumarsingh77/go-webtoon-crawler/db/repository"
	"github.com/gin-gonic/gin"
)

type WebtoonStore interface {
	GetWebtoonByTitle(ctx context.Context, title, platform string) (*models.Webtoon, error)
	SearchWebtoons(ctx context.Context, query string) ([]models.Webtoon, error)
	ListWebtoons(ctx context.Context, day string) ([]models.Webtoon, error)
}

type Handler struct {
	store WebtoonStore
}

func NewHandler(store WebtoonStore) *Handler {
	return &Handler{store: store}
}

// Register mounts the webtoon routes. /webtoons/search must be registered before /webtoons/:title.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/webtoons", h.ListWebtoons)
	r.GET("/webtoons/search", h.SearchWebtoons)
	r.GET("/webtoons/:title", h.GetWebtoonByTitle)
}

// ListWebtoons handles GET /webtoons?day=월
func (h *Handler) ListWebtoons(c *gin.Context) {
	webtoons, err := h.store.ListWebtoons(c, c.Query("day"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, webtoons)
}

func (h *Handler) SearchWebtoons(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	webtoons, err := h.store.SearchWebtoons(c, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, webtoons)
}

// GetWebtoonByTitle handles GET /webtoons/:title?platform=naver
func (h *Handler) GetWebtoonByTitle(c *gin.Context) {
	title := c.Param("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	webtoon, err := h.store.GetWebtoonByTitle(c, title, c.Query("platform"))
	if errors.Is(err, repository.ErrWebtoonNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, webtoon)
}
