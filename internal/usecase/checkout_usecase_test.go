package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
	infrarepo "github.com/nickchild-info/conbrako-laser-sub000/internal/infra/repository"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/validator"
)

const testDraftKey = "test/draft"

type checkoutFixture struct {
	cart     *usecase.CartStore
	uc       *usecase.CheckoutUsecase
	orders   *OrderRepoMock
	carts    *CartRepoMock
	shipping *ShippingRepoMock
	gw       *GatewayMock
	states   *infrarepo.StateMemoryRepository
}

func newCheckout(t *testing.T) checkoutFixture {
	t.Helper()
	log, _ := nullLogger()
	states := infrarepo.NewStateMemoryRepository()

	f := checkoutFixture{
		orders:   new(OrderRepoMock),
		carts:    new(CartRepoMock),
		shipping: new(ShippingRepoMock),
		gw:       new(GatewayMock),
		states:   states,
	}
	f.cart = usecase.NewCartStore(testCatalog(), states, testCartKey, log)
	f.uc = usecase.NewCheckoutUsecase(f.cart, f.orders, f.carts, f.shipping, states, testDraftKey, log)
	return f
}

func fillDraft(ctx context.Context, uc *usecase.CheckoutUsecase) {
	uc.SetEmail(ctx, "buyer@example.co.za")
	uc.SetFirstName(ctx, "Thandi")
	uc.SetAddress(ctx, validAddress())
}

func testRedirect() model.PaymentRedirect {
	return model.PaymentRedirect{
		OrderID:    "ord_1",
		PayfastURL: "https://sandbox.payfast.co.za/eng/process",
		FormFields: []model.FormField{{Name: "merchant_id", Value: "10000100"}},
		Total:      2598,
	}
}

// =====================
// step / navigation
// =====================

func TestCheckout_ProceedRequiresItems(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)

	assert.ErrorIs(t, f.uc.ProceedToCheckout(), usecase.ErrCartEmpty)
	assert.Equal(t, usecase.StepCart, f.uc.Step())

	f.cart.AddItem(ctx, "1", "v1", 1)
	require.NoError(t, f.uc.ProceedToCheckout())
	assert.Equal(t, usecase.StepCheckout, f.uc.Step())

	f.uc.BackToCart()
	assert.Equal(t, usecase.StepCart, f.uc.Step())
}

// =====================
// readiness gate
// =====================

func TestCheckout_ReadinessGate(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)

	f.uc.SetEmail(ctx, "buyer@example.co.za")
	assert.False(t, f.uc.Ready())

	f.uc.SetFirstName(ctx, "Thandi")
	assert.False(t, f.uc.Ready())

	f.uc.SetAddress(ctx, validAddress())
	assert.True(t, f.uc.Ready())

	f.uc.SetSameAsDelivery(ctx, false)
	assert.False(t, f.uc.Ready())
	unmet := f.uc.Unmet()
	require.Len(t, unmet, 1)
	assert.Equal(t, validator.FieldBillingAddress, unmet[0].Field)

	f.uc.SetBillingAddress(ctx, validAddress())
	assert.True(t, f.uc.Ready())
}

// =====================
// draft persistence
// =====================

func TestCheckout_DraftPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)

	email := "  buyer@example.co.za "
	same := false
	billing := validAddress()
	billing.City = "Boksburg"
	f.uc.PatchDraft(ctx, usecase.PatchDraftInput{Email: &email, SameAsDelivery: &same, BillingAddress: &billing})
	f.uc.SelectShippingQuote(&model.ShippingQuote{Service: "economy", Cost: 9900})

	log, _ := nullLogger()
	other := usecase.NewCheckoutUsecase(f.cart, f.orders, f.carts, f.shipping, f.states, testDraftKey, log)
	d := other.LoadDraft(ctx)

	assert.Equal(t, "buyer@example.co.za", d.Email)
	assert.False(t, d.SameAsDelivery)
	assert.Equal(t, "Boksburg", d.BillingAddress.City)
	// 見積もりは保存しない
	assert.Nil(t, d.SelectedShippingQuote)
}

func TestCheckout_PatchDraftLeavesOtherFields(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	fillDraft(ctx, f.uc)

	phone := "0821234567"
	d := f.uc.PatchDraft(ctx, usecase.PatchDraftInput{Phone: &phone})

	assert.Equal(t, "Thandi", d.FirstName)
	assert.Equal(t, "0821234567", d.Phone)
	assert.True(t, d.SameAsDelivery)
}

func TestCheckout_LoadDraftCorruptIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	require.NoError(t, f.states.Set(ctx, testDraftKey, []byte(`{"email":5,"sameAsDelivery":"yes"}`)))

	log, hook := nullLogger()
	uc := usecase.NewCheckoutUsecase(f.cart, f.orders, f.carts, f.shipping, f.states, testDraftKey, log)
	d := uc.LoadDraft(ctx)

	assert.Equal(t, model.NewCheckoutDraft(), d)
	_, err := f.states.Get(ctx, testDraftKey)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.Contains(t, warnings(hook), "corrupt checkout draft discarded")
}

func TestCheckout_LoadDraftMissingKeepsDefaults(t *testing.T) {
	f := newCheckout(t)
	d := f.uc.LoadDraft(context.Background())
	assert.Equal(t, model.NewCheckoutDraft(), d)
	assert.True(t, d.SameAsDelivery)
}

func TestCheckout_DraftReadErrorDoesNotOverwriteStoredDraft(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	fillDraft(ctx, f.uc)

	log, _ := nullLogger()
	flaky := newFlakyStates(f.states, 2)
	uc := usecase.NewCheckoutUsecase(f.cart, f.orders, f.carts, f.shipping, flaky, testDraftKey, log)

	d := uc.LoadDraft(ctx)
	assert.Empty(t, d.FirstName)

	uc.SetPhone(ctx, "0821234567")
	stored := usecase.NewCheckoutUsecase(f.cart, f.orders, f.carts, f.shipping, f.states, testDraftKey, log).LoadDraft(ctx)
	assert.Equal(t, "Thandi", stored.FirstName)
	assert.Empty(t, stored.Phone)

	require.True(t, uc.EnsureDraftSynced(ctx))
	d = uc.Draft()
	assert.Equal(t, "Thandi", d.FirstName)
	assert.Equal(t, "0821234567", d.Phone)

	stored = usecase.NewCheckoutUsecase(f.cart, f.orders, f.carts, f.shipping, f.states, testDraftKey, log).LoadDraft(ctx)
	assert.Equal(t, "Thandi", stored.FirstName)
	assert.Equal(t, "0821234567", stored.Phone)
}

func TestCheckout_ClearDraftKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 1)
	fillDraft(ctx, f.uc)

	f.uc.ClearDraft(ctx)

	assert.Equal(t, model.NewCheckoutDraft(), f.uc.Draft())
	assert.Len(t, f.cart.Cart().Items, 1)
	_, err := f.states.Get(ctx, testDraftKey)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

// =====================
// shipping / validation
// =====================

func TestCheckout_LoadShippingQuotesNeedsAddress(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 1)

	_, err := f.uc.LoadShippingQuotes(ctx)

	fe, ok := usecase.AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, validator.FieldDeliveryAddress, fe.Fields[0].Field)
	f.shipping.AssertNotCalled(t, "Quotes", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_LoadShippingQuotesEmptyCart(t *testing.T) {
	f := newCheckout(t)
	_, err := f.uc.LoadShippingQuotes(context.Background())
	assert.ErrorIs(t, err, usecase.ErrCartEmpty)
}

func TestCheckout_SelectedQuoteRefreshedOrDropped(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 1)
	f.uc.SetAddress(ctx, validAddress())

	items := []model.CartSnapshotItem{{ProductID: "1", VariantID: "v1", Quantity: 1}}
	f.shipping.On("Quotes", mock.Anything, items, validAddress()).Return([]model.ShippingQuote{
		{Service: "economy", Cost: 9900},
		{Service: "express", Cost: 19900},
	}, nil).Once()
	f.shipping.On("Quotes", mock.Anything, items, validAddress()).Return([]model.ShippingQuote{
		{Service: "economy", Cost: 10900},
	}, nil).Once()

	quotes, err := f.uc.LoadShippingQuotes(ctx)
	require.NoError(t, err)
	assert.Len(t, quotes, 2)

	_, ok := f.uc.SelectShippingService("courier")
	assert.False(t, ok)
	q, ok := f.uc.SelectShippingService("economy")
	require.True(t, ok)
	assert.Equal(t, int64(9900), q.Cost)

	_, err = f.uc.LoadShippingQuotes(ctx)
	require.NoError(t, err)
	require.NotNil(t, f.uc.State().SelectedQuote)
	assert.Equal(t, int64(10900), f.uc.State().SelectedQuote.Cost)

	f.uc.SelectShippingQuote(&model.ShippingQuote{Service: "express", Cost: 19900})
	f.shipping.On("Quotes", mock.Anything, items, validAddress()).Return([]model.ShippingQuote{
		{Service: "economy", Cost: 10900},
	}, nil).Once()
	_, err = f.uc.LoadShippingQuotes(ctx)
	require.NoError(t, err)
	assert.Nil(t, f.uc.State().SelectedQuote)
}

func TestCheckout_PrepareSkipsQuotesWithoutAddress(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 2)

	items := []model.CartSnapshotItem{{ProductID: "1", VariantID: "v1", Quantity: 2}}
	f.carts.On("Validate", mock.Anything, items).Return(model.CartValidation{Valid: true, Subtotal: 2598}, nil)

	st, err := f.uc.Prepare(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.CartValidation)
	assert.True(t, st.CartValidation.Valid)
	f.shipping.AssertNotCalled(t, "Quotes", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_PrepareLoadsBoth(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 1)
	f.uc.SetAddress(ctx, validAddress())

	items := []model.CartSnapshotItem{{ProductID: "1", VariantID: "v1", Quantity: 1}}
	f.carts.On("Validate", mock.Anything, items).Return(model.CartValidation{Valid: true}, nil)
	f.shipping.On("Quotes", mock.Anything, items, validAddress()).Return([]model.ShippingQuote{{Service: "economy", Cost: 9900}}, nil)

	st, err := f.uc.Prepare(ctx)
	require.NoError(t, err)
	assert.Len(t, st.ShippingQuotes, 1)
	assert.NotNil(t, st.CartValidation)
}

// =====================
// Submit
// =====================

func TestCheckout_SubmitGateFailureMakesNoCall(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 1)
	f.uc.SetEmail(ctx, "buyer@example.co.za")

	_, err := f.uc.Submit(ctx, f.gw)

	fe, ok := usecase.AsFieldError(err)
	require.True(t, ok)
	fields := []string{}
	for _, i := range fe.Fields {
		fields = append(fields, i.Field)
	}
	assert.ElementsMatch(t, []string{validator.FieldFirstName, validator.FieldDeliveryAddress}, fields)
	f.orders.AssertNotCalled(t, "CreatePayfastCheckout", mock.Anything, mock.Anything, mock.Anything)
	f.gw.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestCheckout_SubmitEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	fillDraft(ctx, f.uc)

	_, err := f.uc.Submit(ctx, f.gw)
	assert.ErrorIs(t, err, usecase.ErrCartEmpty)
	f.orders.AssertNotCalled(t, "CreatePayfastCheckout", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_SubmitSuccessClearsCartAndDraft(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 2)
	fillDraft(ctx, f.uc)
	f.uc.SelectShippingQuote(&model.ShippingQuote{Service: "economy", Cost: 9900})
	require.NoError(t, f.uc.ProceedToCheckout())

	want := model.CheckoutRequest{
		Items:             []model.CheckoutLineItem{{ProductID: "1", VariantID: "v1", Quantity: 2}},
		CustomerEmail:     "buyer@example.co.za",
		CustomerFirstName: "Thandi",
		ShippingAddress:   validAddress(),
		ShippingService:   "economy",
		ShippingCost:      9900,
	}
	f.orders.On("CreatePayfastCheckout", mock.Anything, want, mock.AnythingOfType("string")).Return(testRedirect(), nil)
	f.gw.On("Submit", mock.Anything, testRedirect()).Return(nil)

	got, err := f.uc.Submit(ctx, f.gw)
	require.NoError(t, err)
	assert.Equal(t, "ord_1", got.OrderID)

	assert.Empty(t, f.cart.Cart().Items)
	assert.Equal(t, model.NewCheckoutDraft(), f.uc.Draft())
	assert.Equal(t, usecase.StepCart, f.uc.Step())

	_, err = f.states.Get(ctx, testDraftKey)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.Empty(t, storedSnapshot(t, f.states).Items)
}

func TestCheckout_SubmitFailureKeepsCartAndDraft(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 1)
	fillDraft(ctx, f.uc)

	f.orders.On("CreatePayfastCheckout", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &apiclient.APIError{Status: http.StatusConflict, Message: "Insufficient stock for FP-600", Code: "insufficient_stock"})

	_, err := f.uc.Submit(ctx, f.gw)

	cf, ok := usecase.AsCheckoutFailure(err)
	require.True(t, ok)
	assert.Equal(t, usecase.FailureInventory, cf.Category)
	assert.Len(t, f.cart.Cart().Items, 1)
	assert.Equal(t, "Thandi", f.uc.Draft().FirstName)

	st := f.uc.State()
	require.NotNil(t, st.SubmissionError)
	assert.False(t, st.Submitting)

	f.uc.DismissError()
	assert.Nil(t, f.uc.State().SubmissionError)
	f.gw.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestCheckout_GatewayFailureIsClassified(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 1)
	fillDraft(ctx, f.uc)

	f.orders.On("CreatePayfastCheckout", mock.Anything, mock.Anything, mock.Anything).Return(testRedirect(), nil)
	f.gw.On("Submit", mock.Anything, testRedirect()).Return(errors.New("network write failed"))

	_, err := f.uc.Submit(ctx, f.gw)

	cf, ok := usecase.AsCheckoutFailure(err)
	require.True(t, ok)
	assert.Equal(t, usecase.FailureNetwork, cf.Category)
	assert.Len(t, f.cart.Cart().Items, 1)
}

func TestCheckout_IdempotencyKeyFollowsPayload(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 1)
	fillDraft(ctx, f.uc)

	keys := []string{}
	f.orders.On("CreatePayfastCheckout", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.String(2)) }).
		Return(nil, &apiclient.APIError{Status: http.StatusServiceUnavailable, Message: "Service Unavailable"})

	_, err := f.uc.Submit(ctx, f.gw)
	require.Error(t, err)
	_, err = f.uc.Submit(ctx, f.gw)
	require.Error(t, err)

	f.cart.UpdateQuantity(ctx, "v1", 3)
	_, err = f.uc.Submit(ctx, f.gw)
	require.Error(t, err)

	require.Len(t, keys, 3)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])
	assert.NotEqual(t, keys[1], keys[2])
}

func TestCheckout_SubmitRejectsConcurrentSubmit(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	f.cart.AddItem(ctx, "1", "v1", 1)
	fillDraft(ctx, f.uc)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.orders.On("CreatePayfastCheckout", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(testRedirect(), nil)
	f.gw.On("Submit", mock.Anything, testRedirect()).Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.uc.Submit(ctx, f.gw)
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not start")
	}
	assert.True(t, f.uc.State().Submitting)

	_, err := f.uc.Submit(ctx, f.gw)
	assert.ErrorIs(t, err, usecase.ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-done)
	f.orders.AssertNumberOfCalls(t, "CreatePayfastCheckout", 1)
}

// =====================
// BuildCheckoutRequest
// =====================

func TestBuildCheckoutRequest_BillingOnlyWhenDifferent(t *testing.T) {
	p := firePit()
	cart := model.Cart{Items: []model.CartItem{
		{ProductID: "1", VariantID: "v2", Quantity: 1, Product: p, Variant: p.Variants[1]},
	}}

	d := model.NewCheckoutDraft()
	d.Email = " buyer@example.co.za "
	d.FirstName = "Thandi"
	d.Address = validAddress()
	d.BillingAddress = model.Address{Line1: "ignored"}

	req := usecase.BuildCheckoutRequest(cart, d)
	assert.Nil(t, req.BillingAddress)
	assert.Equal(t, "buyer@example.co.za", req.CustomerEmail)
	assert.Empty(t, req.ShippingService)
	assert.Equal(t, int64(0), req.ShippingCost)

	d.SameAsDelivery = false
	d.BillingAddress = validAddress()
	req = usecase.BuildCheckoutRequest(cart, d)
	require.NotNil(t, req.BillingAddress)
	assert.Equal(t, validAddress(), *req.BillingAddress)
}

// =====================
// ClassifyCheckoutError
// =====================

func TestClassifyCheckoutError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want usecase.FailureCategory
	}{
		{"code insufficient stock", &apiclient.APIError{Status: 409, Code: "insufficient_stock", Message: "Conflict"}, usecase.FailureInventory},
		{"code out of stock", &apiclient.APIError{Status: 400, Code: "out_of_stock", Message: "Bad Request"}, usecase.FailureInventory},
		{"code network", &apiclient.APIError{Status: 502, Code: "network_error", Message: "Bad Gateway"}, usecase.FailureNetwork},
		{"no response", &apiclient.APIError{Status: 0, Message: "network error: unable to reach the server"}, usecase.FailureNetwork},
		{"canceled", &apiclient.APIError{Status: 0, Message: "request canceled", Err: context.Canceled}, usecase.FailureUnknown},
		{"message inventory", &apiclient.APIError{Status: 422, Message: "Inventory reservation failed"}, usecase.FailureInventory},
		{"message stock", errors.New("not enough stock for FP-900"), usecase.FailureInventory},
		{"message network", errors.New("Network is unreachable"), usecase.FailureNetwork},
		{"other", &apiclient.APIError{Status: 500, Message: "Internal Server Error"}, usecase.FailureUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cf := usecase.ClassifyCheckoutError(tc.err)
			assert.Equal(t, tc.want, cf.Category)
			assert.NotEmpty(t, cf.Message)
			assert.ErrorIs(t, cf, tc.err)
		})
	}
}

func TestClassifyCheckoutError_UnknownKeepsServerMessage(t *testing.T) {
	cf := usecase.ClassifyCheckoutError(&apiclient.APIError{Status: 422, Message: "Postal code not serviced"})
	assert.Equal(t, usecase.FailureUnknown, cf.Category)
	assert.Equal(t, "Postal code not serviced", cf.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, cf.HTTPStatus())
}

func TestClassifyCheckoutError_AlreadyClassified(t *testing.T) {
	in := &usecase.CheckoutFailure{Category: usecase.FailureNetwork, Message: "x"}
	assert.Same(t, in, usecase.ClassifyCheckoutError(in))
}
