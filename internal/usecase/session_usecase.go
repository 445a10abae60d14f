package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
)

// Session は1人分のカートとチェックアウト
type Session struct {
	ID       string
	Cart     *CartStore
	Checkout *CheckoutUsecase
}

// セッショントークン
type SessionToken struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// SessionDeps はセッション生成に必要な部品
type SessionDeps struct {
	Catalog     VariantResolver
	CartStates  repo.StateRepository
	DraftStates repo.StateRepository
	Orders      repo.OrderRepository
	Carts       repo.CartRepository
	Shipping    repo.ShippingRepository
	JWTSecret   string
	TTL         time.Duration
	// メモリに置くセッション数の上限（0で既定値）
	MaxSessions int
	Log         logrus.FieldLogger
}

const defaultMaxSessions = 10000

// SessionUsecase はセッションIDごとのカート/チェックアウトを持つ。
// 初回アクセスで保存値から復元する。古いものはメモリから追い出す（保存値は残る）。
type SessionUsecase struct {
	deps SessionDeps
	log  logrus.FieldLogger
	now  func() time.Time

	// lru.Cacheは自前でロックする
	sessions *lru.Cache[string, *Session]
}

func NewSessionUsecase(deps SessionDeps) *SessionUsecase {
	size := deps.MaxSessions
	if size <= 0 {
		size = defaultMaxSessions
	}
	log := deps.Log.WithField("component", "session")

	cache, err := lru.NewWithEvict[string, *Session](size, func(id string, _ *Session) {
		log.WithField("session_id", id).Debug("session evicted")
	})
	if err != nil {
		// sizeは正なので起きない
		panic(err)
	}

	return &SessionUsecase{
		deps:     deps,
		log:      log,
		now:      time.Now,
		sessions: cache,
	}
}

// SessionKey はセッションごとの保存キー
func SessionKey(sessionID string, key string) string {
	return "session/" + sessionID + "/" + key
}

// Start は新しいセッションを作ってトークンを返す。
func (u *SessionUsecase) Start(ctx context.Context) (SessionToken, error) {
	id := uuid.NewString()
	now := u.now()
	exp := now.Add(u.deps.TTL)

	claims := jwt.MapClaims{
		"sub": id,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(u.deps.JWTSecret))
	if err != nil {
		return SessionToken{}, err
	}

	u.Get(ctx, id)
	return SessionToken{
		SessionID: id,
		Token:     signed,
		ExpiresIn: int(u.deps.TTL.Seconds()),
	}, nil
}

// Get はセッションを返す（無ければ作って復元する）。
// 復元のI/Oはロックの外で、リクエストのキャンセルから切り離して行う。
func (u *SessionUsecase) Get(ctx context.Context, sessionID string) *Session {
	ctx = context.WithoutCancel(ctx)

	if s, ok := u.sessions.Get(sessionID); ok {
		u.resync(ctx, s)
		return s
	}

	s := u.build(ctx, sessionID)

	// 同時に作られた場合は先に入った方を使う
	if prev, found, _ := u.sessions.PeekOrAdd(sessionID, s); found {
		u.resync(ctx, prev)
		return prev
	}
	return s
}

func (u *SessionUsecase) build(ctx context.Context, sessionID string) *Session {
	log := u.log.WithField("session_id", sessionID)
	cart := NewCartStore(u.deps.Catalog, u.deps.CartStates, SessionKey(sessionID, CartStorageKey), log)
	checkout := NewCheckoutUsecase(
		cart,
		u.deps.Orders,
		u.deps.Carts,
		u.deps.Shipping,
		u.deps.DraftStates,
		SessionKey(sessionID, DraftStorageKey),
		log,
	)

	cart.Rehydrate(ctx)
	checkout.LoadDraft(ctx)
	return &Session{ID: sessionID, Cart: cart, Checkout: checkout}
}

// 前回読めなかった保存値（ストレージ障害、カタログ未読み込み）を読み直す
func (u *SessionUsecase) resync(ctx context.Context, s *Session) {
	s.Cart.EnsureSynced(ctx)
	s.Checkout.EnsureDraftSynced(ctx)
}

// Lookup はIDを検証してセッションを返す
func (u *SessionUsecase) Lookup(ctx context.Context, sessionID string) (*Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.Get(ctx, sessionID), nil
}

// Forget はメモリ上のセッションを捨てる（保存値は残る）。
func (u *SessionUsecase) Forget(ctx context.Context, sessionID string) error {
	s, ok := u.sessions.Peek(sessionID)
	u.sessions.Remove(sessionID)

	if !ok {
		return nil
	}
	return s.Checkout.Flush(ctx)
}

// 保持しているセッション数
func (u *SessionUsecase) Count() int {
	return u.sessions.Len()
}
