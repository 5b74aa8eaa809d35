package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/writing-practice-api/internal/middleware"
	"github.com/iliyamo/writing-practice-api/internal/service"
)

// TextHandler serves the caller's own texts.  The owner is always the
// authenticated user; a userId in the body is ignored.
type TextHandler struct {
	Texts *service.TextService
}

func NewTextHandler(texts *service.TextService) *TextHandler {
	return &TextHandler{Texts: texts}
}

type textReq struct {
	IdeaID  int64  `json:"ideaId" validate:"required,gt=0"`
	Content string `json:"content" validate:"required,min=10"`
	Time    int64  `json:"time" validate:"required,gt=0,max=4294967295"`
}

func (r textReq) input() service.TextInput {
	return service.TextInput{IdeaID: uint64(r.IdeaID), Content: r.Content, Time: uint32(r.Time)}
}

func callerID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.New("no identity on an authenticated route")
	}
	return id, nil
}

// Create: POST /api/texts
func (h *TextHandler) Create(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	var req textReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Texts.Create(ctx, uid, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

// Get: GET /api/texts/:id.  403 when the text belongs to someone else.
func (h *TextHandler) Get(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Texts.Get(ctx, id, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// List: GET /api/texts?page&limit&ideaId&startDate&endDate
func (h *TextHandler) List(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	q, err := bindTextList(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.Texts.List(ctx, uid, service.TextListParams{
		Page:   q.Page,
		Limit:  q.Limit,
		IdeaID: q.IdeaID,
		From:   q.From,
		To:     q.To,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Update: PUT /api/texts/:id, a full replace of content, time and idea.
func (h *TextHandler) Update(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req textReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Texts.Update(ctx, id, uid, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// Delete: DELETE /api/texts/:id
func (h *TextHandler) Delete(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Texts.Delete(ctx, id, uid); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "text deleted"})
}
