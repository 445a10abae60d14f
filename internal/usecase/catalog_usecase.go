package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
)

// 一括取得の上限（APIの最大limit）
const catalogPageLimit = 100

// これを超えるページ数は異常とみなす
const catalogMaxPages = 50

var ErrCatalogTooLarge = errors.New("catalog has too many pages")

// CatalogUsecase はリモートのカタログを読み込み、メモリ上で引けるようにする。
type CatalogUsecase struct {
	products    repo.ProductRepository
	collections repo.CollectionRepository
	log         logrus.FieldLogger

	mu             sync.RWMutex
	productsByID   map[string]model.Product
	productOrder   []string
	collectionList []model.Collection
	loaded         bool
}

// DI
func NewCatalogUsecase(products repo.ProductRepository, collections repo.CollectionRepository, log logrus.FieldLogger) *CatalogUsecase {
	return &CatalogUsecase{
		products:     products,
		collections:  collections,
		log:          log.WithField("component", "catalog"),
		productsByID: map[string]model.Product{},
	}
}

// Load は商品とコレクションを並行で取得して差し替える。
// どちらかが失敗したら前回の内容を残す。
func (u *CatalogUsecase) Load(ctx context.Context) error {
	var (
		products    []model.Product
		collections []model.Collection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := u.loadAllProducts(gctx)
		products = all
		return err
	})
	g.Go(func() error {
		cs, err := u.collections.List(gctx)
		collections = cs
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	byID := make(map[string]model.Product, len(products))
	order := make([]string, 0, len(products))
	for _, p := range products {
		if _, dup := byID[p.ID]; !dup {
			order = append(order, p.ID)
		}
		byID[p.ID] = p
	}

	u.mu.Lock()
	u.productsByID = byID
	u.productOrder = order
	u.collectionList = collections
	u.loaded = true
	u.mu.Unlock()

	u.log.WithFields(logrus.Fields{"products": len(order), "collections": len(collections)}).Info("catalog loaded")
	return nil
}

// ScheduleRefresh はcron式（例 "@every 5m"）でLoadを繰り返す。
// 返すstopで止める（実行中のLoadの終了を待つ）。
func (u *CatalogUsecase) ScheduleRefresh(ctx context.Context, spec string) (func(), error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		if err := u.Load(ctx); err != nil {
			u.log.WithError(err).Warn("catalog refresh failed")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}

// ページが埋まらなくなるまで読む
func (u *CatalogUsecase) loadAllProducts(ctx context.Context) ([]model.Product, error) {
	all := []model.Product{}
	prevFirst := ""
	for page := 1; page <= catalogMaxPages; page++ {
		ps, err := u.products.ListPublic(ctx, repo.ProductListQuery{Page: page, Limit: catalogPageLimit})
		if err != nil {
			return nil, err
		}
		// pageを無視するバックエンドは同じページを返し続ける
		if page > 1 && len(ps) > 0 && ps[0].ID == prevFirst {
			u.log.WithField("page", page).Warn("product pages repeat; stopping pagination")
			return all, nil
		}
		all = append(all, ps...)
		if len(ps) < catalogPageLimit {
			return all, nil
		}
		prevFirst = ps[0].ID
	}
	return nil, fmt.Errorf("%w: more than %d", ErrCatalogTooLarge, catalogMaxPages)
}

// Loaded は一度でも読み込みに成功したか
func (u *CatalogUsecase) Loaded() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.loaded
}

// ResolveVariant は公開中の商品/バリエーションだけを返す。
func (u *CatalogUsecase) ResolveVariant(productID string, variantID string) (model.Product, model.Variant, bool) {
	u.mu.RLock()
	p, ok := u.productsByID[productID]
	u.mu.RUnlock()
	if !ok || !p.IsActive {
		return model.Product{}, model.Variant{}, false
	}
	v, ok := p.FindVariant(variantID)
	if !ok || !v.IsActive {
		return model.Product{}, model.Variant{}, false
	}
	return p, v, true
}

// 読み込み済みの商品（取得順）
func (u *CatalogUsecase) Products() []model.Product {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]model.Product, 0, len(u.productOrder))
	for _, id := range u.productOrder {
		out = append(out, u.productsByID[id])
	}
	return out
}

func (u *CatalogUsecase) Collections() []model.Collection {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]model.Collection, len(u.collectionList))
	copy(out, u.collectionList)
	return out
}

// 一覧（検索条件はそのままAPIへ）
func (u *CatalogUsecase) ListProducts(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	if q.Page < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if q.Limit < 0 || q.Limit > catalogPageLimit {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(q.Q) > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid q")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid price range")
	}
	return u.products.ListPublic(ctx, q)
}

// slugで1件（非公開は404扱い）
func (u *CatalogUsecase) Product(ctx context.Context, slug string) (model.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid slug")
	}
	p, err := u.products.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, err
	}
	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

func (u *CatalogUsecase) Collection(ctx context.Context, slug string) (model.Collection, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Collection{}, NewHTTPError(http.StatusBadRequest, "invalid slug")
	}
	c, err := u.collections.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Collection{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Collection{}, err
	}
	return c, nil
}
