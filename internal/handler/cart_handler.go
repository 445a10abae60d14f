package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/middleware"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

// /cartのHTTP
type CartHandler struct {
	sessions *usecase.SessionUsecase
	catalog  usecase.VariantResolver
}

// DI
func NewCartHandler(sessions *usecase.SessionUsecase, catalog usecase.VariantResolver) *CartHandler {
	return &CartHandler{sessions: sessions, catalog: catalog}
}

type AddCartRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// /cart 以下を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	g := e.Group("/cart")
	g.Use(middleware.SessionJWT(jwtSecret))

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addItem)
	g.PATCH("/items/:variantId", h.patchItem)
	g.DELETE("/items/:variantId", h.deleteItem)
	g.POST("/open", h.open)
	g.POST("/close", h.close)
	g.POST("/toggle", h.toggle)
}

func (h *CartHandler) getCart(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.Cart.Cart())
}

func (h *CartHandler) addItem(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.VariantID = strings.TrimSpace(req.VariantID)
	if req.ProductID == "" || req.VariantID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id or variant_id"})
	}

	// Storeは解決できない追加を黙って無視するので、HTTPでは先に404を返す
	if _, _, ok := h.catalog.ResolveVariant(req.ProductID, req.VariantID); !ok {
		return writeError(c, usecase.ErrVariantNotFound)
	}

	cart := s.Cart.AddItem(c.Request().Context(), req.ProductID, req.VariantID, req.Quantity)
	return c.JSON(http.StatusOK, cart)
}

// 数量変更（0以下は削除）
func (h *CartHandler) patchItem(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	cart := s.Cart.UpdateQuantity(c.Request().Context(), c.Param("variantId"), req.Quantity)
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.Cart.RemoveItem(c.Request().Context(), c.Param("variantId")))
}

func (h *CartHandler) open(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.Cart.OpenCart(c.Request().Context()))
}

func (h *CartHandler) close(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.Cart.CloseCart(c.Request().Context()))
}

func (h *CartHandler) toggle(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.Cart.ToggleCart(c.Request().Context()))
}

// カートだけを空にする（ドラフトは残る）
func (h *CartHandler) clear(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.Cart.ClearCart(c.Request().Context()))
}
