package main

import (
	"context"
	"log"
	"net"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/MikeMC777/konki-burger/internal/config"
	"github.com/MikeMC777/konki-burger/internal/database"
	"github.com/MikeMC777/konki-burger/internal/notify"
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

	rdb, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Printf("[redis] %v; relay stays in-process", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}
	relay, listener := notify.Setup(ctx, rdb, "user-service")
	defer listener.Close()

	svc := user.NewService(user.NewPGRepo(db), relay, cfg.PrimaryAdminEmail)

	lis, err := net.Listen("tcp", cfg.UserSvcAddr)
	if err != nil {
		log.Fatal(err)
	}
	srv := grpc.NewServer()
	user.RegisterDirectoryServer(srv, user.NewDirectory(svc))
	reflection.Register(srv)

	go func() {
		<-ctx.Done()
		log.Printf("user-service shutting down")
		srv.GracefulStop()
	}()

	log.Printf("user-service listening on %s", cfg.UserSvcAddr)
	if err := srv.Serve(lis); err != nil {
		log.Fatal(err)
	}
}
