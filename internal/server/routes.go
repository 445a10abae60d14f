package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/handler"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/metrics"
)

// Handlers はルート登録に使うハンドラ一式
type Handlers struct {
	Session  *handler.SessionHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Order    *handler.OrderHandler
	Design   *handler.DesignHandler
}

type healthResponse struct {
	Status string `json:"status"`
}

func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	h.Session.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Order.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, jwtSecret)
	h.Checkout.RegisterRoutes(e, jwtSecret)
	h.Design.RegisterRoutes(e, jwtSecret)
}
