package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/payfast"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/middleware"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

// /checkoutのHTTP
type CheckoutHandler struct {
	sessions *usecase.SessionUsecase
}

// DI
func NewCheckoutHandler(sessions *usecase.SessionUsecase) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions}
}

type SelectShippingQuoteRequest struct {
	// 空で選択解除
	Service string `json:"service"`
}

type ShippingQuotesResponse struct {
	Quotes []model.ShippingQuote `json:"quotes"`
}

// /checkout 以下を登録
func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	g := e.Group("/checkout")
	g.Use(middleware.SessionJWT(jwtSecret))

	g.GET("", h.state)
	g.PATCH("/draft", h.patchDraft)
	g.DELETE("/draft", h.clearDraft)
	g.POST("/proceed", h.proceed)
	g.POST("/back", h.back)
	g.DELETE("/error", h.dismissError)
	g.GET("/shipping-quotes", h.shippingQuotes)
	g.PUT("/shipping-quote", h.selectShippingQuote)
	g.POST("/validate-cart", h.validateCart)
	g.POST("/prepare", h.prepare)
	g.POST("/submit", h.submit)
}

func (h *CheckoutHandler) state(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.Checkout.State())
}

func (h *CheckoutHandler) patchDraft(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}

	var req usecase.PatchDraftInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	s.Checkout.PatchDraft(c.Request().Context(), req)
	return c.JSON(http.StatusOK, s.Checkout.State())
}

func (h *CheckoutHandler) clearDraft(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	s.Checkout.ClearDraft(c.Request().Context())
	return c.JSON(http.StatusOK, s.Checkout.State())
}

func (h *CheckoutHandler) proceed(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.Checkout.ProceedToCheckout(); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.Checkout.State())
}

func (h *CheckoutHandler) back(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	s.Checkout.BackToCart()
	return c.JSON(http.StatusOK, s.Checkout.State())
}

func (h *CheckoutHandler) dismissError(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	s.Checkout.DismissError()
	return c.NoContent(http.StatusNoContent)
}

func (h *CheckoutHandler) shippingQuotes(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	quotes, err := s.Checkout.LoadShippingQuotes(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ShippingQuotesResponse{Quotes: quotes})
}

func (h *CheckoutHandler) selectShippingQuote(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}

	var req SelectShippingQuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	service := strings.TrimSpace(req.Service)
	if service == "" {
		s.Checkout.SelectShippingQuote(nil)
		return c.JSON(http.StatusOK, s.Checkout.State())
	}
	if _, ok := s.Checkout.SelectShippingService(service); !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown shipping service"})
	}
	return c.JSON(http.StatusOK, s.Checkout.State())
}

func (h *CheckoutHandler) validateCart(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	res, err := s.Checkout.ValidateCart(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// カート検証と見積もりをまとめて
func (h *CheckoutHandler) prepare(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	st, err := s.Checkout.Prepare(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// 成功時はPayFastへの自動送信フォーム（JSONを求められたらリダイレクト情報）
func (h *CheckoutHandler) submit(c echo.Context) error {
	s, err := currentSession(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}

	var form bytes.Buffer
	redirect, err := s.Checkout.Submit(c.Request().Context(), payfast.NewFormGateway(&form))
	if err != nil {
		return writeError(c, err)
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusOK, redirect)
	}
	return c.HTMLBlob(http.StatusOK, form.Bytes())
}
