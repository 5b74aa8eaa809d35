package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/writing-practice-api/internal/service"
)

// IdeaHandler serves the idea catalog.  Write routes are mounted behind
// RequireRole(ADMIN).
type IdeaHandler struct {
	Ideas *service.IdeaService
}

func NewIdeaHandler(ideas *service.IdeaService) *IdeaHandler {
	return &IdeaHandler{Ideas: ideas}
}

type ideaReq struct {
	Title   string `json:"title" validate:"required,min=2"`
	Content string `json:"content" validate:"required,min=2"`
}

func (r *ideaReq) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
}

// Create: POST /api/ideas
func (h *IdeaHandler) Create(c echo.Context) error {
	var req ideaReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	idea, err := h.Ideas.Create(ctx, service.IdeaInput{Title: req.Title, Content: req.Content})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, idea)
}

// Update: PUT /api/ideas/:id
func (h *IdeaHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req ideaReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	idea, err := h.Ideas.Update(ctx, id, service.IdeaInput{Title: req.Title, Content: req.Content})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, idea)
}

// Delete: DELETE /api/ideas/:id.  409 while texts still reference the idea.
func (h *IdeaHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Ideas.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "idea deleted"})
}

// Get: GET /api/ideas/:id
func (h *IdeaHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	idea, err := h.Ideas.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, idea)
}

// List: GET /api/ideas?page&limit&search
func (h *IdeaHandler) List(c echo.Context) error {
	q, err := bindIdeaList(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.Ideas.List(ctx, service.IdeaListParams{Page: q.Page, Limit: q.Limit, Search: q.Search})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Random: GET /api/ideas/random
func (h *IdeaHandler) Random(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	idea, err := h.Ideas.Random(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, idea)
}
