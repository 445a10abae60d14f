package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/middleware"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

// POST /session
type SessionHandler struct {
	uc *usecase.SessionUsecase
}

// DI
func NewSessionHandler(uc *usecase.SessionUsecase) *SessionHandler {
	return &SessionHandler{uc: uc}
}

func (h *SessionHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/session", h.start)
}

func (h *SessionHandler) start(c echo.Context) error {
	tok, err := h.uc.Start(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, tok)
}

// SessionJWTが積んだIDからセッションを取る
func currentSession(c echo.Context, sessions *usecase.SessionUsecase) (*usecase.Session, error) {
	sid, ok := c.Get(middleware.CtxSessionIDKey).(string)
	if !ok || sid == "" {
		return nil, usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return sessions.Lookup(c.Request().Context(), sid)
}
