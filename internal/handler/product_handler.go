package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

// /products, /collections の公開API
type ProductHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewProductHandler(uc *usecase.CatalogUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開カタログのルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:slug", h.detail)
	e.GET("/collections", h.collections)
	e.GET("/collections/:slug", h.collection)
}

type ProductListResponse struct {
	Items []model.Product `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type CollectionListResponse struct {
	Items []model.Collection `json:"items"`
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	// limit（default 20）
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	var minPrice *int64
	if v := c.QueryParam("min_price"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid min_price"})
		}
		minPrice = &x
	}

	var maxPrice *int64
	if v := c.QueryParam("max_price"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid max_price"})
		}
		maxPrice = &x
	}

	items, err := h.uc.ListProducts(c.Request().Context(), repo.ProductListQuery{
		Page:       page,
		Limit:      limit,
		Q:          c.QueryParam("q"),
		Collection: c.QueryParam("collection"),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Sort:       c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, ProductListResponse{Items: items, Page: page, Limit: limit})
}

func (h *ProductHandler) detail(c echo.Context) error {
	p, err := h.uc.Product(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) collections(c echo.Context) error {
	return c.JSON(http.StatusOK, CollectionListResponse{Items: h.uc.Collections()})
}

func (h *ProductHandler) collection(c echo.Context) error {
	col, err := h.uc.Collection(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}
