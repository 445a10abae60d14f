package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/handler"
	infrarepo "github.com/nickchild-info/conbrako-laser-sub000/internal/infra/repository"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/server"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

const testSecret = "handler_test_secret"

// =====================
// Mocks（衝突回避の命名）
// =====================

type HProductRepoMock struct{ mock.Mock }

func (m *HProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *HProductRepoMock) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

type HCollectionRepoMock struct{ mock.Mock }

func (m *HCollectionRepoMock) List(ctx context.Context) ([]model.Collection, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Collection)
	return items, args.Error(1)
}

func (m *HCollectionRepoMock) FindBySlug(ctx context.Context, slug string) (model.Collection, error) {
	args := m.Called(ctx, slug)
	c, _ := args.Get(0).(model.Collection)
	return c, args.Error(1)
}

type HOrderRepoMock struct{ mock.Mock }

func (m *HOrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *HOrderRepoMock) CreatePayfastCheckout(ctx context.Context, req model.CheckoutRequest, key string) (model.PaymentRedirect, error) {
	args := m.Called(ctx, req, key)
	r, _ := args.Get(0).(model.PaymentRedirect)
	return r, args.Error(1)
}

type HCartRepoMock struct{ mock.Mock }

func (m *HCartRepoMock) Validate(ctx context.Context, items []model.CartSnapshotItem) (model.CartValidation, error) {
	args := m.Called(ctx, items)
	v, _ := args.Get(0).(model.CartValidation)
	return v, args.Error(1)
}

type HShippingRepoMock struct{ mock.Mock }

func (m *HShippingRepoMock) Quotes(ctx context.Context, items []model.CartSnapshotItem, address model.Address) ([]model.ShippingQuote, error) {
	args := m.Called(ctx, items, address)
	qs, _ := args.Get(0).([]model.ShippingQuote)
	return qs, args.Error(1)
}

type HDesignRepoMock struct{ mock.Mock }

func (m *HDesignRepoMock) Upload(ctx context.Context, filename string, file io.Reader) (model.DesignUpload, error) {
	args := m.Called(ctx, filename, file)
	u, _ := args.Get(0).(model.DesignUpload)
	return u, args.Error(1)
}

func (m *HDesignRepoMock) ValidateDXF(ctx context.Context, filename string, file io.Reader) (model.DXFValidation, error) {
	args := m.Called(ctx, filename, file)
	v, _ := args.Get(0).(model.DXFValidation)
	return v, args.Error(1)
}

// =====================
// app
// =====================

type testApp struct {
	e        *echo.Echo
	products *HProductRepoMock
	orders   *HOrderRepoMock
	carts    *HCartRepoMock
	shipping *HShippingRepoMock
	designs  *HDesignRepoMock
}

func firePit() model.Product {
	return model.Product{
		ID:       "1",
		Slug:     "fire-pit",
		Name:     "Fire pit",
		IsActive: true,
		Variants: []model.Variant{
			{ID: "v1", ProductID: "1", Name: "600mm", Price: 1299, Stock: 10, IsActive: true},
		},
	}
}

func shippingAddress() model.Address {
	return model.Address{Line1: "12 Forge Street", City: "Germiston", Province: "Gauteng", PostalCode: "1422"}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log, _ := logtest.NewNullLogger()

	a := &testApp{
		products: new(HProductRepoMock),
		orders:   new(HOrderRepoMock),
		carts:    new(HCartRepoMock),
		shipping: new(HShippingRepoMock),
		designs:  new(HDesignRepoMock),
	}
	collections := new(HCollectionRepoMock)

	a.products.On("ListPublic", mock.Anything, repo.ProductListQuery{Page: 1, Limit: 100}).Return([]model.Product{firePit()}, nil)
	collections.On("List", mock.Anything).Return([]model.Collection{{ID: "c1", Slug: "outdoor", Name: "Outdoor"}}, nil)

	catalog := usecase.NewCatalogUsecase(a.products, collections, log)
	require.NoError(t, catalog.Load(context.Background()))

	states := infrarepo.NewStateMemoryRepository()
	sessions := usecase.NewSessionUsecase(usecase.SessionDeps{
		Catalog:     catalog,
		CartStates:  states,
		DraftStates: states,
		Orders:      a.orders,
		Carts:       a.carts,
		Shipping:    a.shipping,
		JWTSecret:   testSecret,
		TTL:         time.Hour,
		Log:         log,
	})

	a.e = server.New(server.Handlers{
		Session:  handler.NewSessionHandler(sessions),
		Product:  handler.NewProductHandler(catalog),
		Cart:     handler.NewCartHandler(sessions, catalog),
		Checkout: handler.NewCheckoutHandler(sessions),
		Order:    handler.NewOrderHandler(usecase.NewOrderUsecase(a.orders)),
		Design:   handler.NewDesignHandler(usecase.NewDesignUsecase(a.designs, log)),
	}, testSecret, log)
	return a
}

func (a *testApp) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// 新しいセッションのトークン
func (a *testApp) session(t *testing.T) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/session", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var tok usecase.SessionToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
