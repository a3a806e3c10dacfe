// @title       Konki Burger storefront API
// @version     1.0
// @description Menu, cart, checkout and customer accounts.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/MikeMC777/konki-burger/docs"
	"github.com/MikeMC777/konki-burger/internal/cart"
	"github.com/MikeMC777/konki-burger/internal/config"
	"github.com/MikeMC777/konki-burger/internal/database"
	"github.com/MikeMC777/konki-burger/internal/httpx"
	"github.com/MikeMC777/konki-burger/internal/mail"
	"github.com/MikeMC777/konki-burger/internal/notify"
	"github.com/MikeMC777/konki-burger/internal/order"
	"github.com/MikeMC777/konki-burger/internal/product"
	"github.com/MikeMC777/konki-burger/internal/session"
	"github.com/MikeMC777/konki-burger/internal/user"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal(err)
	}

	rdb, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Printf("[redis] %v; running without cache", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}
	relay, listener := notify.Setup(ctx, rdb, "storefront")
	defer listener.Close()

	if err := database.Seed(ctx, db, relay); err != nil {
		log.Printf("[seed] continuing without the opening menu: %v", err)
	}

	var products product.Repository = product.NewPGRepo(db)
	if rdb != nil {
		products = product.NewCachedRepo(products, rdb)
	}
	store := cart.NewPGStore(db)
	registry := cart.NewRegistry(store, products, relay)
	defer registry.Close()

	sf := &storefront{
		products:   products,
		categories: product.NewPGCategoryRepo(db),
		shopper: &shopper{
			sessions: session.NewStore(cfg.SessionSecret),
			registry: registry,
			catalog:  products,
		},
		merger:   cart.NewMerger(store, registry, relay),
		users:    user.NewService(user.NewPGRepo(db), relay, cfg.PrimaryAdminEmail),
		orders:   order.NewService(order.NewPGRepo(db), relay, mail.FromConfig(cfg.Mail)),
		listener: listener,
	}

	r := httpx.New()
	routes(r, sf)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName(docs.StorefrontInstance)))

	srv := &http.Server{Addr: cfg.StorefrontAddr, Handler: r}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Printf("storefront shutdown: %v", err)
		}
	}()

	log.Printf("storefront-service listening on %s", cfg.StorefrontAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
