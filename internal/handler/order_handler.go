package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

// /orders のHTTP
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// 注文IDを知っている人だけが見られる（決済後の確認ページ）
func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/orders/:id", h.get)
}

func (h *OrderHandler) get(c echo.Context) error {
	o, err := h.uc.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}
