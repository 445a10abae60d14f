package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/metrics"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/validator"
)

// 保存キー（セッションごとに前置きが付く）
const DraftStorageKey = "storefront.checkout-draft"

type CheckoutStep string

const (
	StepCart     CheckoutStep = "cart"
	StepCheckout CheckoutStep = "checkout"
)

// サーバーが返す構造化エラーコード
const (
	CodeNetworkError      = "network_error"
	CodeInsufficientStock = "insufficient_stock"
	CodeOutOfStock        = "out_of_stock"
)

const (
	msgNetworkFailure   = "We couldn't reach the payment service. Check your connection and try again."
	msgInventoryFailure = "Some items in your cart are no longer available in the requested quantity. Please review your cart."
	msgCanceled         = "Checkout was cancelled before it completed."
)

// PaymentGateway は決済ゲートウェイへの引き渡し先（フォーム自動送信など）。
type PaymentGateway interface {
	Submit(ctx context.Context, redirect model.PaymentRedirect) error
}

// Flusher は遅延書き込みを持つストア
type Flusher interface {
	Flush(ctx context.Context) error
}

// PatchDraftInput は部分更新。nilは変更しない。
type PatchDraftInput struct {
	Email          *string        `json:"email"`
	FirstName      *string        `json:"firstName"`
	LastName       *string        `json:"lastName"`
	Phone          *string        `json:"phone"`
	Address        *model.Address `json:"address"`
	BillingAddress *model.Address `json:"billingAddress"`
	SameAsDelivery *bool          `json:"sameAsDelivery"`
}

// 画面向けの状態
type CheckoutState struct {
	Step            CheckoutStep           `json:"step"`
	Draft           model.CheckoutDraft    `json:"draft"`
	SelectedQuote   *model.ShippingQuote   `json:"selected_shipping_quote,omitempty"`
	ShippingQuotes  []model.ShippingQuote  `json:"shipping_quotes"`
	CartValidation  *model.CartValidation  `json:"cart_validation,omitempty"`
	Ready           bool                   `json:"ready"`
	Unmet           []validator.FieldIssue `json:"unmet"`
	Submitting      bool                   `json:"submitting"`
	SubmissionError *CheckoutFailure       `json:"submission_error,omitempty"`
}

type CheckoutUsecase struct {
	cart     *CartStore
	orders   repo.OrderRepository
	carts    repo.CartRepository
	shipping repo.ShippingRepository
	states   repo.StateRepository
	key      string
	log      logrus.FieldLogger

	mu          sync.Mutex
	step        CheckoutStep
	draft       model.CheckoutDraft
	quotes      []model.ShippingQuote
	validation  *model.CartValidation
	submitting  bool
	lastFailure *CheckoutFailure

	// 同じ内容の再送は同じキー
	idemKey         string
	idemFingerprint string

	// 保存済みドラフトを読めていない間の編集（読めたら保存値の上に再適用する）
	draftUnsynced bool
	pendingEdits  []func(d *model.CheckoutDraft)
}

// DI
func NewCheckoutUsecase(
	cart *CartStore,
	orders repo.OrderRepository,
	carts repo.CartRepository,
	shipping repo.ShippingRepository,
	states repo.StateRepository,
	key string,
	log logrus.FieldLogger,
) *CheckoutUsecase {
	if key == "" {
		key = DraftStorageKey
	}
	return &CheckoutUsecase{
		cart:     cart,
		orders:   orders,
		carts:    carts,
		shipping: shipping,
		states:   states,
		key:      key,
		log:      log.WithField("component", "checkout"),
		step:     StepCart,
		draft:    model.NewCheckoutDraft(),
		quotes:   []model.ShippingQuote{},
	}
}

// State は現在の状態とゲートの結果
func (u *CheckoutUsecase) State() CheckoutState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stateLocked()
}

func (u *CheckoutUsecase) stateLocked() CheckoutState {
	issues := validator.CheckoutIssues(u.draft)
	quotes := make([]model.ShippingQuote, len(u.quotes))
	copy(quotes, u.quotes)

	st := CheckoutState{
		Step:            u.step,
		Draft:           u.draft,
		SelectedQuote:   u.draft.SelectedShippingQuote,
		ShippingQuotes:  quotes,
		CartValidation:  u.validation,
		Ready:           len(issues) == 0,
		Unmet:           issues,
		Submitting:      u.submitting,
		SubmissionError: u.lastFailure,
	}
	st.Draft.SelectedShippingQuote = nil
	return st
}

// 確定ゲート
func (u *CheckoutUsecase) Ready() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return validator.IsCheckoutReady(u.draft)
}

// 満たしていない条件
func (u *CheckoutUsecase) Unmet() []validator.FieldIssue {
	u.mu.Lock()
	defer u.mu.Unlock()
	return validator.CheckoutIssues(u.draft)
}

func (u *CheckoutUsecase) Step() CheckoutStep {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.step
}

// カートに1件以上あるときだけ進める
func (u *CheckoutUsecase) ProceedToCheckout() error {
	if len(u.cart.Cart().Items) == 0 {
		return ErrCartEmpty
	}
	u.mu.Lock()
	u.step = StepCheckout
	u.mu.Unlock()
	return nil
}

// 常に戻れる。送信エラーも消す。
func (u *CheckoutUsecase) BackToCart() {
	u.mu.Lock()
	u.step = StepCart
	u.lastFailure = nil
	u.mu.Unlock()
}

// 送信エラーを閉じる
func (u *CheckoutUsecase) DismissError() {
	u.mu.Lock()
	u.lastFailure = nil
	u.mu.Unlock()
}

func (u *CheckoutUsecase) Draft() model.CheckoutDraft {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.draft
}

func (u *CheckoutUsecase) SetEmail(ctx context.Context, email string) {
	u.updateDraft(ctx, func(d *model.CheckoutDraft) { d.Email = email })
}

func (u *CheckoutUsecase) SetFirstName(ctx context.Context, name string) {
	u.updateDraft(ctx, func(d *model.CheckoutDraft) { d.FirstName = name })
}

func (u *CheckoutUsecase) SetLastName(ctx context.Context, name string) {
	u.updateDraft(ctx, func(d *model.CheckoutDraft) { d.LastName = name })
}

func (u *CheckoutUsecase) SetPhone(ctx context.Context, phone string) {
	u.updateDraft(ctx, func(d *model.CheckoutDraft) { d.Phone = phone })
}

func (u *CheckoutUsecase) SetAddress(ctx context.Context, a model.Address) {
	u.updateDraft(ctx, func(d *model.CheckoutDraft) { d.Address = a })
}

func (u *CheckoutUsecase) SetBillingAddress(ctx context.Context, a model.Address) {
	u.updateDraft(ctx, func(d *model.CheckoutDraft) { d.BillingAddress = a })
}

func (u *CheckoutUsecase) SetSameAsDelivery(ctx context.Context, same bool) {
	u.updateDraft(ctx, func(d *model.CheckoutDraft) { d.SameAsDelivery = same })
}

// 見積もりの選択（nilで解除）。保存はされない。
func (u *CheckoutUsecase) SelectShippingQuote(q *model.ShippingQuote) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if q == nil {
		u.draft.SelectedShippingQuote = nil
		return
	}
	sel := *q
	u.draft.SelectedShippingQuote = &sel
}

// SelectShippingService は取得済みの見積もりからサービス名で選ぶ。
func (u *CheckoutUsecase) SelectShippingService(service string) (model.ShippingQuote, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, q := range u.quotes {
		if q.Service == service {
			sel := q
			u.draft.SelectedShippingQuote = &sel
			return q, true
		}
	}
	return model.ShippingQuote{}, false
}

// PatchDraft は指定された項目だけを更新する。
func (u *CheckoutUsecase) PatchDraft(ctx context.Context, in PatchDraftInput) model.CheckoutDraft {
	return u.updateDraft(ctx, func(d *model.CheckoutDraft) {
		if in.Email != nil {
			d.Email = strings.TrimSpace(*in.Email)
		}
		if in.FirstName != nil {
			d.FirstName = *in.FirstName
		}
		if in.LastName != nil {
			d.LastName = *in.LastName
		}
		if in.Phone != nil {
			d.Phone = *in.Phone
		}
		if in.Address != nil {
			d.Address = *in.Address
		}
		if in.BillingAddress != nil {
			d.BillingAddress = *in.BillingAddress
		}
		if in.SameAsDelivery != nil {
			d.SameAsDelivery = *in.SameAsDelivery
		}
	})
}

func (u *CheckoutUsecase) updateDraft(ctx context.Context, fn func(d *model.CheckoutDraft)) model.CheckoutDraft {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.draftUnsynced {
		u.loadDraftLocked(ctx)
	}
	fn(&u.draft)
	if u.draftUnsynced {
		u.pendingEdits = append(u.pendingEdits, fn)
		u.log.Warn("checkout draft not loaded yet; change kept in memory")
		return u.draft
	}
	u.persistDraftLocked(ctx)
	return u.draft
}

// 保存失敗はログだけ
func (u *CheckoutUsecase) persistDraftLocked(ctx context.Context) {
	b, err := json.Marshal(u.draft)
	if err != nil {
		u.log.WithError(err).Error("checkout draft encode failed")
		return
	}
	if err := u.states.Set(ctx, u.key, b); err != nil {
		u.log.WithError(err).Warn("checkout draft save failed")
	}
}

// LoadDraft は保存済みのドラフトを読む。壊れていれば捨てて新規にする。
// ストレージ障害で読めなければ保存値に触れず、次の編集で読み直す。
func (u *CheckoutUsecase) LoadDraft(ctx context.Context) model.CheckoutDraft {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.loadDraftLocked(ctx)
	return u.draft
}

// EnsureDraftSynced はまだ読めていなければ読み直す
func (u *CheckoutUsecase) EnsureDraftSynced(ctx context.Context) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.draftUnsynced {
		u.loadDraftLocked(ctx)
	}
	return !u.draftUnsynced
}

func (u *CheckoutUsecase) loadDraftLocked(ctx context.Context) {
	d, ok := u.readDraftLocked(ctx)
	if !ok {
		u.draftUnsynced = true
		return
	}

	edits := u.pendingEdits
	u.pendingEdits = nil
	u.draftUnsynced = false
	if d.SelectedShippingQuote == nil {
		d.SelectedShippingQuote = u.draft.SelectedShippingQuote
	}
	for _, fn := range edits {
		fn(&d)
	}
	u.draft = d
	if len(edits) > 0 {
		u.persistDraftLocked(ctx)
	}
}

// 読めたら(draft, true)。未保存なら今のドラフト、壊れていれば新規。ストレージ障害は false。
func (u *CheckoutUsecase) readDraftLocked(ctx context.Context) (model.CheckoutDraft, bool) {
	raw, err := u.states.Get(ctx, u.key)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotFound):
		return u.draft, true
	case errors.Is(err, repo.ErrCorruptState):
		u.discardDraftLocked(ctx, err)
		return u.draft, true
	default:
		u.log.WithError(err).Warn("checkout draft unavailable")
		return u.draft, false
	}

	if err := validator.ValidateCheckoutDraft(raw); err != nil {
		u.discardDraftLocked(ctx, err)
		return u.draft, true
	}

	d := model.NewCheckoutDraft()
	if err := json.Unmarshal(raw, &d); err != nil {
		u.discardDraftLocked(ctx, err)
		return u.draft, true
	}
	return d, true
}

func (u *CheckoutUsecase) discardDraftLocked(ctx context.Context, cause error) {
	u.log.WithError(cause).Warn("corrupt checkout draft discarded")
	u.draft = model.NewCheckoutDraft()
	if err := u.states.Delete(ctx, u.key); err != nil && !errors.Is(err, repo.ErrNotFound) {
		u.log.WithError(err).Warn("failed to delete corrupt checkout draft")
	}
}

// ClearDraft はドラフトだけを消す（カートはそのまま）。
func (u *CheckoutUsecase) ClearDraft(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.clearDraftLocked(ctx)
}

func (u *CheckoutUsecase) clearDraftLocked(ctx context.Context) {
	u.draft = model.NewCheckoutDraft()
	u.draftUnsynced = false
	u.pendingEdits = nil
	u.quotes = []model.ShippingQuote{}
	u.validation = nil
	if err := u.states.Delete(ctx, u.key); err != nil && !errors.Is(err, repo.ErrNotFound) {
		u.log.WithError(err).Warn("checkout draft delete failed")
	}
}

// Flush は遅延中のドラフト書き込みを今すぐ行う。
func (u *CheckoutUsecase) Flush(ctx context.Context) error {
	if f, ok := u.states.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

// LoadShippingQuotes は配送先と現在のカートで見積もりを取得する。
// 選択中の見積もりが一覧から消えたら選択を外す。
func (u *CheckoutUsecase) LoadShippingQuotes(ctx context.Context) ([]model.ShippingQuote, error) {
	items := u.cart.Cart().Snapshot().Items
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	u.mu.Lock()
	address := u.draft.Address
	u.mu.Unlock()

	if !validator.IsAddressValid(address) {
		return nil, &FieldError{Fields: []validator.FieldIssue{{
			Field:   validator.FieldDeliveryAddress,
			Message: "delivery address is incomplete",
		}}}
	}

	quotes, err := u.shipping.Quotes(ctx, items, address)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.quotes = quotes
	if sel := u.draft.SelectedShippingQuote; sel != nil {
		still := false
		for _, q := range quotes {
			if q.Service == sel.Service {
				fresh := q
				u.draft.SelectedShippingQuote = &fresh
				still = true
				break
			}
		}
		if !still {
			u.draft.SelectedShippingQuote = nil
		}
	}
	out := make([]model.ShippingQuote, len(quotes))
	copy(out, quotes)
	return out, nil
}

// ValidateCart はサーバー側で在庫と価格を確認する。
func (u *CheckoutUsecase) ValidateCart(ctx context.Context) (model.CartValidation, error) {
	items := u.cart.Cart().Snapshot().Items
	if len(items) == 0 {
		return model.CartValidation{}, ErrCartEmpty
	}

	res, err := u.carts.Validate(ctx, items)
	if err != nil {
		return model.CartValidation{}, err
	}

	u.mu.Lock()
	u.validation = &res
	u.mu.Unlock()
	return res, nil
}

// Prepare はカート検証と配送見積もりを並行で行う。
// 配送先が未入力なら見積もりは取らない。
func (u *CheckoutUsecase) Prepare(ctx context.Context) (CheckoutState, error) {
	u.mu.Lock()
	withQuotes := validator.IsAddressValid(u.draft.Address)
	u.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := u.ValidateCart(gctx)
		return err
	})
	if withQuotes {
		g.Go(func() error {
			_, err := u.LoadShippingQuotes(gctx)
			return err
		})
	}
	err := g.Wait()
	return u.State(), err
}

// Submit はゲートを確認して注文を作り、決済ゲートウェイへ渡す。
// 成功したらカートとドラフトを両方消す。
func (u *CheckoutUsecase) Submit(ctx context.Context, gw PaymentGateway) (model.PaymentRedirect, error) {
	cart := u.cart.Cart()

	u.mu.Lock()
	if u.submitting {
		u.mu.Unlock()
		return model.PaymentRedirect{}, ErrSubmitInProgress
	}
	if issues := validator.CheckoutIssues(u.draft); len(issues) > 0 {
		u.mu.Unlock()
		metrics.RecordCheckoutSubmission("incomplete")
		return model.PaymentRedirect{}, &FieldError{Fields: issues}
	}
	if len(cart.Items) == 0 {
		u.mu.Unlock()
		return model.PaymentRedirect{}, ErrCartEmpty
	}

	req := BuildCheckoutRequest(cart, u.draft)
	key := u.idempotencyKeyLocked(req)
	u.submitting = true
	u.lastFailure = nil
	u.mu.Unlock()

	redirect, err := u.orders.CreatePayfastCheckout(ctx, req, key)
	if err == nil {
		err = gw.Submit(ctx, redirect)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.submitting = false

	if err != nil {
		failure := ClassifyCheckoutError(err)
		u.lastFailure = failure
		metrics.RecordCheckoutSubmission(string(failure.Category))
		u.log.WithError(err).WithField("category", failure.Category).Warn("checkout submission failed")
		return model.PaymentRedirect{}, failure
	}

	// 成功: 両方消す
	u.cart.ClearCart(ctx)
	u.clearDraftLocked(ctx)
	u.step = StepCart
	u.idemKey = ""
	u.idemFingerprint = ""
	metrics.RecordCheckoutSubmission("success")
	u.log.WithField("order_id", redirect.OrderID).Info("checkout submitted")
	return redirect, nil
}

// 内容が変わらない限り同じキーを使う
func (u *CheckoutUsecase) idempotencyKeyLocked(req model.CheckoutRequest) string {
	b, _ := json.Marshal(req)
	sum := sha256.Sum256(b)
	fp := hex.EncodeToString(sum[:])
	if u.idemKey == "" || u.idemFingerprint != fp {
		u.idemKey = uuid.NewString()
		u.idemFingerprint = fp
	}
	return u.idemKey
}

// BuildCheckoutRequest はカートとドラフトから注文ペイロードを作る。
func BuildCheckoutRequest(cart model.Cart, d model.CheckoutDraft) model.CheckoutRequest {
	items := make([]model.CheckoutLineItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, model.CheckoutLineItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}

	req := model.CheckoutRequest{
		Items:             items,
		CustomerEmail:     strings.TrimSpace(d.Email),
		CustomerFirstName: strings.TrimSpace(d.FirstName),
		CustomerLastName:  strings.TrimSpace(d.LastName),
		CustomerPhone:     strings.TrimSpace(d.Phone),
		ShippingAddress:   d.Address,
	}
	if !d.SameAsDelivery {
		billing := d.BillingAddress
		req.BillingAddress = &billing
	}
	if q := d.SelectedShippingQuote; q != nil {
		req.ShippingService = q.Service
		req.ShippingCost = q.Cost
	}
	return req
}

// ClassifyCheckoutError は送信エラーを画面向けに分類する。
// 構造化コードとstatus 0を先に見て、無ければ文言で判定する。
func ClassifyCheckoutError(err error) *CheckoutFailure {
	if cf, ok := AsCheckoutFailure(err); ok {
		return cf
	}

	message := err.Error()
	if ae, ok := apiclient.AsAPIError(err); ok {
		message = ae.Message
		switch ae.Code {
		case CodeNetworkError:
			return &CheckoutFailure{Category: FailureNetwork, Message: msgNetworkFailure, Err: err}
		case CodeInsufficientStock, CodeOutOfStock:
			return &CheckoutFailure{Category: FailureInventory, Message: msgInventoryFailure, Err: err}
		}
		if ae.Canceled() {
			return &CheckoutFailure{Category: FailureUnknown, Message: msgCanceled, Err: err}
		}
		if ae.Status == 0 {
			return &CheckoutFailure{Category: FailureNetwork, Message: msgNetworkFailure, Err: err}
		}
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "network"):
		return &CheckoutFailure{Category: FailureNetwork, Message: msgNetworkFailure, Err: err}
	case strings.Contains(lower, "inventory"), strings.Contains(lower, "stock"):
		return &CheckoutFailure{Category: FailureInventory, Message: msgInventoryFailure, Err: err}
	default:
		return &CheckoutFailure{Category: FailureUnknown, Message: message, Err: err}
	}
}
