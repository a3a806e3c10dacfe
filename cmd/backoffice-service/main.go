// @title       Konki Burger back office API
// @version     1.0
// @description Order triage, catalog and user management.
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
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/MikeMC777/konki-burger/docs"
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
	relay, listener := notify.Setup(ctx, rdb, "backoffice")
	defer listener.Close()

	conn, err := grpc.NewClient(cfg.UserSvcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	var products product.Repository = product.NewPGRepo(db)
	if rdb != nil {
		products = product.NewCachedRepo(products, rdb)
	}
	users := user.NewService(user.NewPGRepo(db), relay, cfg.PrimaryAdminEmail)

	bo := &backoffice{
		sessions: session.NewStore(cfg.SessionSecret),
		admins:   fallbackChecker{remote: user.NewDirectoryClient(conn), local: users},
		users:    users,
		orders:   order.NewService(order.NewPGRepo(db), relay, mail.FromConfig(cfg.Mail)),
		products: products,
		relay:    relay,
		listener: listener,
	}

	r := httpx.New()
	routes(r, bo)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName(docs.BackofficeInstance)))

	srv := &http.Server{Addr: cfg.BackofficeAddr, Handler: r}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Printf("backoffice shutdown: %v", err)
		}
	}()

	log.Printf("backoffice-service listening on %s", cfg.BackofficeAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
