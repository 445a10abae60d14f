package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
)

// =====================
// Mocks（衝突回避の命名）
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

type CollectionRepoMock struct{ mock.Mock }

func (m *CollectionRepoMock) List(ctx context.Context) ([]model.Collection, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Collection)
	return items, args.Error(1)
}

func (m *CollectionRepoMock) FindBySlug(ctx context.Context, slug string) (model.Collection, error) {
	args := m.Called(ctx, slug)
	c, _ := args.Get(0).(model.Collection)
	return c, args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) CreatePayfastCheckout(ctx context.Context, req model.CheckoutRequest, idempotencyKey string) (model.PaymentRedirect, error) {
	args := m.Called(ctx, req, idempotencyKey)
	r, _ := args.Get(0).(model.PaymentRedirect)
	return r, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) Validate(ctx context.Context, items []model.CartSnapshotItem) (model.CartValidation, error) {
	args := m.Called(ctx, items)
	v, _ := args.Get(0).(model.CartValidation)
	return v, args.Error(1)
}

type ShippingRepoMock struct{ mock.Mock }

func (m *ShippingRepoMock) Quotes(ctx context.Context, items []model.CartSnapshotItem, address model.Address) ([]model.ShippingQuote, error) {
	args := m.Called(ctx, items, address)
	qs, _ := args.Get(0).([]model.ShippingQuote)
	return qs, args.Error(1)
}

type DesignRepoMock struct{ mock.Mock }

func (m *DesignRepoMock) Upload(ctx context.Context, filename string, file io.Reader) (model.DesignUpload, error) {
	args := m.Called(ctx, filename, file)
	u, _ := args.Get(0).(model.DesignUpload)
	return u, args.Error(1)
}

func (m *DesignRepoMock) ValidateDXF(ctx context.Context, filename string, file io.Reader) (model.DXFValidation, error) {
	args := m.Called(ctx, filename, file)
	v, _ := args.Get(0).(model.DXFValidation)
	return v, args.Error(1)
}

type StateRepoMock struct{ mock.Mock }

func (m *StateRepoMock) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *StateRepoMock) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *StateRepoMock) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) Submit(ctx context.Context, redirect model.PaymentRedirect) error {
	args := m.Called(ctx, redirect)
	return args.Error(0)
}

// =====================
// fixtures
// =====================

// 固定カタログ（公開/非公開の判定込み）
type staticCatalog map[string]model.Product

func (c staticCatalog) ResolveVariant(productID string, variantID string) (model.Product, model.Variant, bool) {
	p, ok := c[productID]
	if !ok || !p.IsActive {
		return model.Product{}, model.Variant{}, false
	}
	v, ok := p.FindVariant(variantID)
	if !ok || !v.IsActive {
		return model.Product{}, model.Variant{}, false
	}
	return p, v, true
}

// 読み込み完了を切り替えられるカタログ
type gatedCatalog struct {
	staticCatalog
	loaded atomic.Bool
}

func (c *gatedCatalog) Loaded() bool { return c.loaded.Load() }

// 最初のn回のGetだけ失敗するストア
type flakyStates struct {
	repo.StateRepository
	failGets atomic.Int32
}

func newFlakyStates(inner repo.StateRepository, n int32) *flakyStates {
	f := &flakyStates{StateRepository: inner}
	f.failGets.Store(n)
	return f
}

func (f *flakyStates) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGets.Add(-1) >= 0 {
		return nil, errors.New("redis: i/o timeout")
	}
	return f.StateRepository.Get(ctx, key)
}

func firePit() model.Product {
	return model.Product{
		ID:       "1",
		Slug:     "fire-pit",
		Name:     "Fire pit",
		IsActive: true,
		Variants: []model.Variant{
			{ID: "v1", ProductID: "1", Name: "600mm", SKU: "FP-600", Price: 1299, Stock: 10, IsActive: true},
			{ID: "v2", ProductID: "1", Name: "900mm", SKU: "FP-900", Price: 2500, Stock: 3, IsActive: true},
			{ID: "v3", ProductID: "1", Name: "1200mm", SKU: "FP-1200", Price: 4000, IsActive: false},
		},
	}
}

func braaiGrid() model.Product {
	return model.Product{
		ID:       "2",
		Slug:     "braai-grid",
		Name:     "Braai grid",
		IsActive: true,
		Variants: []model.Variant{
			{ID: "g1", ProductID: "2", Name: "Standard", Price: 450, Stock: 50, IsActive: true},
		},
	}
}

func retiredSign() model.Product {
	return model.Product{
		ID:       "3",
		Slug:     "retired-sign",
		Name:     "Retired sign",
		IsActive: false,
		Variants: []model.Variant{
			{ID: "s1", ProductID: "3", Price: 900, IsActive: true},
		},
	}
}

func testCatalog() staticCatalog {
	return staticCatalog{"1": firePit(), "2": braaiGrid(), "3": retiredSign()}
}

func validAddress() model.Address {
	return model.Address{
		Line1:      "12 Forge Street",
		Suburb:     "Wadeville",
		City:       "Germiston",
		Province:   "Gauteng",
		PostalCode: "1422",
		Country:    "ZA",
	}
}

func nullLogger() (logrus.FieldLogger, *logtest.Hook) {
	l, hook := logtest.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return l, hook
}

func warnings(hook *logtest.Hook) []string {
	out := []string{}
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e.Message)
		}
	}
	return out
}
