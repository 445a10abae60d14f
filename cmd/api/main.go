package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/config"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/handler"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
	infraRepo "github.com/nickchild-info/conbrako-laser-sub000/internal/infra/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/logger"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/server"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Options{Service: "storefront-api", Env: cfg.GoEnv, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//ローカル状態のストア
	stores, err := infraRepo.OpenStateStores(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("state storage")
	}

	//Repository（リモートAPI実装）生成
	client := apiclient.NewFromConfig(cfg, log)
	productRepo := infraRepo.NewProductAPIRepository(client)
	collectionRepo := infraRepo.NewCollectionAPIRepository(client)
	orderRepo := infraRepo.NewOrderAPIRepository(client)
	cartRepo := infraRepo.NewCartAPIRepository(client)
	shippingRepo := infraRepo.NewShippingAPIRepository(client)
	designRepo := infraRepo.NewDesignAPIRepository(client)

	//Usecase生成
	catalogUC := usecase.NewCatalogUsecase(productRepo, collectionRepo, log)
	if err := catalogUC.Load(ctx); err != nil {
		// カタログが無くても起動はする（カートは復元時に空になる）
		log.WithError(err).Warn("initial catalog load failed")
	}
	if cfg.CatalogRefresh != "" {
		stopRefresh, err := catalogUC.ScheduleRefresh(ctx, cfg.CatalogRefresh)
		if err != nil {
			log.WithError(err).Fatal("CATALOG_REFRESH")
		}
		defer stopRefresh()
	}

	sessionUC := usecase.NewSessionUsecase(usecase.SessionDeps{
		Catalog:     catalogUC,
		CartStates:  stores.Cart,
		DraftStates: stores.Draft,
		Orders:      orderRepo,
		Carts:       cartRepo,
		Shipping:    shippingRepo,
		JWTSecret:   cfg.JWTSecret,
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.SessionCache,
		Log:         log,
	})
	orderUC := usecase.NewOrderUsecase(orderRepo)
	designUC := usecase.NewDesignUsecase(designRepo, log)

	//Handler生成
	h := server.Handlers{
		Session:  handler.NewSessionHandler(sessionUC),
		Product:  handler.NewProductHandler(catalogUC),
		Cart:     handler.NewCartHandler(sessionUC, catalogUC),
		Checkout: handler.NewCheckoutHandler(sessionUC),
		Order:    handler.NewOrderHandler(orderUC),
		Design:   handler.NewDesignHandler(designUC),
	}

	e := server.New(h, cfg.JWTSecret, log)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	log.WithField("addr", addr).Info("listening")

	if err := server.Start(ctx, e, addr); err != nil {
		log.WithError(err).Error("server stopped")
	}

	//遅延中のドラフトを書き出してから終わる
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stores.Close(closeCtx); err != nil {
		log.WithError(err).Warn("state storage close")
	}
}
