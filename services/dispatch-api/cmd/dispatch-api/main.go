package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abnp-academy/campaign-dispatch/internal/dispatch"
	"github.com/abnp-academy/campaign-dispatch/internal/mailer"
	"github.com/abnp-academy/campaign-dispatch/internal/recipient"
	"github.com/abnp-academy/campaign-dispatch/internal/store"
	"github.com/abnp-academy/campaign-dispatch/pkg/config"
	"github.com/abnp-academy/campaign-dispatch/pkg/db"
	"github.com/abnp-academy/campaign-dispatch/pkg/logx"
	"github.com/abnp-academy/campaign-dispatch/pkg/rmq"
	"github.com/abnp-academy/campaign-dispatch/services/dispatch-api/server"
)

func main() {
	logx.Init()
	defer logx.Sync()

	config.MustLoadAPI()
	cfg := config.API

	sqlDB, err := db.Open(cfg.DBDSN)
	if err != nil {
		logx.L().Fatalw("db_open_error", "error", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logx.L().Warnw("db_close_error", "error", err)
		}
	}()

	st := store.New(sqlDB)

	pub, err := rmq.NewPublisher(cfg.RMQURL, cfg.Queue)
	if err != nil {
		logx.L().Fatalw("rmq_init_error", "error", err)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logx.L().Warnw("rmq_publisher_close_error", "error", err)
		}
	}()

	snd := mailer.NewClient(cfg.ResendAPIKey, cfg.MailFrom, cfg.ResendBaseURL, nil)
	engine := dispatch.New(st, recipient.New(st), snd, pub, dispatch.Config{
		BatchSize:  cfg.BatchSize,
		BatchDelay: cfg.BatchDelay,
	})

	h := server.NewHandlers(engine, snd)
	srv := server.NewHTTPServer(":"+cfg.Port, h)

	go func() {
		logx.L().Infow("api_listen_start", "addr", ":"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.L().Fatalw("http_server_error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logx.L().Infow("signal_received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logx.L().Errorw("server_shutdown_error", "error", err)
	} else {
		logx.L().Infow("server_shutdown_success")
	}
}
