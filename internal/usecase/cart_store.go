package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/metrics"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/validator"
)

// 保存キー（セッションごとに前置きが付く）
const CartStorageKey = "storefront.cart"

// CartStore はカートの唯一の書き手。
// 操作は呼ばれた順に1つずつ適用され、LoadCart以外は毎回スナップショットを保存する。
// 保存値をまだ読めていない間（ストレージ障害、カタログ未読み込み）は保存せず、
// 操作を溜めておいて読めた時点で保存値の上に再適用する。
type CartStore struct {
	mu      sync.Mutex
	state   model.Cart
	catalog VariantResolver
	states  repo.StateRepository
	key     string
	log     logrus.FieldLogger

	unsynced bool
	pending  []CartAction
}

// CatalogReadiness は読み込み済みかを返せるカタログ
type CatalogReadiness interface {
	Loaded() bool
}

func catalogReady(c VariantResolver) bool {
	r, ok := c.(CatalogReadiness)
	return !ok || r.Loaded()
}

// DI
func NewCartStore(catalog VariantResolver, states repo.StateRepository, key string, log logrus.FieldLogger) *CartStore {
	if key == "" {
		key = CartStorageKey
	}
	return &CartStore{
		state:   model.EmptyCart(),
		catalog: catalog,
		states:  states,
		key:     key,
		log:     log.WithField("component", "cart_store"),
	}
}

// 現在のカート（コピー）
func (s *CartStore) Cart() model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCart(s.state)
}

// Dispatch は操作を適用して保存する。
func (s *CartStore) Dispatch(ctx context.Context, action CartAction) model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unsynced {
		s.rehydrateLocked(ctx)
	}

	s.state = ReduceCart(s.state, action)
	metrics.RecordCartMutation(action.Name())

	_, isLoad := action.(LoadCartAction)
	switch {
	case s.unsynced:
		s.pending = append(s.pending, action)
		s.log.WithField("action", action.Name()).Warn("cart snapshot not loaded yet; change kept in memory")
	case !isLoad:
		s.persist(ctx)
	}
	return cloneCart(s.state)
}

// AddItem はカタログで解決できたときだけ追加する（できなければ何もしない）。
func (s *CartStore) AddItem(ctx context.Context, productID string, variantID string, quantity int64) model.Cart {
	p, v, ok := s.catalog.ResolveVariant(productID, variantID)
	if !ok {
		s.log.WithFields(logrus.Fields{"product_id": productID, "variant_id": variantID}).Debug("add item ignored: unresolved variant")
		return s.Cart()
	}
	return s.Dispatch(ctx, AddItemAction{Product: p, Variant: v, Quantity: quantity})
}

func (s *CartStore) RemoveItem(ctx context.Context, variantID string) model.Cart {
	return s.Dispatch(ctx, RemoveItemAction{VariantID: variantID})
}

func (s *CartStore) UpdateQuantity(ctx context.Context, variantID string, quantity int64) model.Cart {
	return s.Dispatch(ctx, UpdateQuantityAction{VariantID: variantID, Quantity: quantity})
}

func (s *CartStore) OpenCart(ctx context.Context) model.Cart {
	return s.Dispatch(ctx, OpenCartAction{})
}

func (s *CartStore) CloseCart(ctx context.Context) model.Cart {
	return s.Dispatch(ctx, CloseCartAction{})
}

func (s *CartStore) ToggleCart(ctx context.Context) model.Cart {
	return s.Dispatch(ctx, ToggleCartAction{})
}

func (s *CartStore) ClearCart(ctx context.Context) model.Cart {
	return s.Dispatch(ctx, ClearCartAction{})
}

func (s *CartStore) LoadCart(ctx context.Context, cart model.Cart) model.Cart {
	return s.Dispatch(ctx, LoadCartAction{Cart: cart})
}

// Rehydrate は保存済みスナップショットを読み、カタログで引き直して初期状態にする。
// 壊れた保存値は削除して空のカートで始める。
// 読めなかったとき（ストレージ障害、カタログ未読み込み）は保存値に触れず、次の操作で読み直す。
func (s *CartStore) Rehydrate(ctx context.Context) model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rehydrateLocked(ctx)
	return cloneCart(s.state)
}

// Synced は保存値を読み込めているか
func (s *CartStore) Synced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.unsynced
}

// EnsureSynced はまだ読めていなければ読み直す
func (s *CartStore) EnsureSynced(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsynced {
		s.rehydrateLocked(ctx)
	}
	return !s.unsynced
}

func (s *CartStore) rehydrateLocked(ctx context.Context) {
	snap, ok := s.readSnapshotLocked(ctx)
	if !ok {
		s.unsynced = true
		return
	}
	if len(snap.Items) > 0 && !catalogReady(s.catalog) {
		// 空のカタログで引くと全部消えてしまう
		s.log.Warn("catalog not loaded; cart rehydration deferred")
		s.unsynced = true
		return
	}

	cart := RehydrateCart(snap, s.catalog)
	if dropped := len(snap.Items) - len(cart.Items); dropped > 0 {
		s.log.WithField("dropped", dropped).Debug("cart rehydrated with unresolved entries removed")
	}
	s.state = ReduceCart(s.state, LoadCartAction{Cart: cart})
	metrics.RecordCartMutation(LoadCartAction{}.Name())

	replay := s.pending
	s.pending = nil
	s.unsynced = false
	for _, a := range replay {
		s.state = ReduceCart(s.state, a)
	}
	if len(replay) > 0 {
		s.log.WithField("replayed", len(replay)).Info("deferred cart changes applied")
		s.persist(ctx)
	}
}

// 読めたら(snapshot, true)。未保存・壊れた保存値は空で true。ストレージ障害は false。
func (s *CartStore) readSnapshotLocked(ctx context.Context) (model.CartSnapshot, bool) {
	empty := model.CartSnapshot{}

	raw, err := s.states.Get(ctx, s.key)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotFound):
		return empty, true
	case errors.Is(err, repo.ErrCorruptState):
		s.discard(ctx, err)
		return empty, true
	default:
		// 読めないだけ。保存値は残す
		s.log.WithError(err).Warn("cart snapshot unavailable")
		return empty, false
	}

	if err := validator.ValidateCartSnapshot(raw); err != nil {
		s.discard(ctx, err)
		return empty, true
	}

	var snap model.CartSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.discard(ctx, err)
		return empty, true
	}
	return snap, true
}

func (s *CartStore) discard(ctx context.Context, cause error) {
	s.log.WithError(cause).Warn("corrupt cart snapshot discarded")
	if err := s.states.Delete(ctx, s.key); err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.log.WithError(err).Warn("failed to delete corrupt cart snapshot")
	}
}

// 保存失敗はログだけ（操作自体は成功）
func (s *CartStore) persist(ctx context.Context) {
	b, err := json.Marshal(s.state.Snapshot())
	if err != nil {
		s.log.WithError(err).Error("cart snapshot encode failed")
		return
	}
	if err := s.states.Set(ctx, s.key, b); err != nil {
		s.log.WithError(err).Warn("cart snapshot save failed")
	}
}

func cloneCart(c model.Cart) model.Cart {
	c.Items = copyItems(c.Items)
	return c
}
