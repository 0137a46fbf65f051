package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/addresses"
	"github.com/ariefcatur/go-shop-api/internal/auth"
	"github.com/ariefcatur/go-shop-api/internal/cart"
	"github.com/ariefcatur/go-shop-api/internal/catalog"
	"github.com/ariefcatur/go-shop-api/internal/config"
	"github.com/ariefcatur/go-shop-api/internal/httpx"
	kafkax "github.com/ariefcatur/go-shop-api/internal/kafka"
	"github.com/ariefcatur/go-shop-api/internal/logx"
	"github.com/ariefcatur/go-shop-api/internal/mail"
	"github.com/ariefcatur/go-shop-api/internal/orders"
	"github.com/ariefcatur/go-shop-api/internal/payments"
	"github.com/ariefcatur/go-shop-api/internal/postgres"
	"github.com/ariefcatur/go-shop-api/internal/redisx"
	"github.com/ariefcatur/go-shop-api/internal/reviews"
	"github.com/ariefcatur/go-shop-api/internal/uploads"
	"github.com/ariefcatur/go-shop-api/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logx.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := &redisx.Cache{R: rdb}

	// Kafka producer, one for every order topic
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger)
	prod.Start(ctx)

	store, err := uploads.NewStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		logger.Fatal("upload dir", zap.Error(err))
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	mailer := mail.NewSender(cfg.SMTP, logger.Named("mail"))
	userRepo := &users.Repo{DB: db}

	userSvc := &users.Service{
		Store:     userRepo,
		Mail:      mailer,
		Tokens:    tokens,
		PublicURL: cfg.PublicURL,
		Log:       logger.Named("users"),
	}
	orderSvc := &orders.Service{
		Store:       &orders.Repo{DB: db},
		Cache:       cache,
		Events:      prod,
		Log:         logger.Named("orders"),
		ServiceName: cfg.ServiceName,
	}
	paymentSvc := &payments.Service{
		Gateway: payments.NewMonCash(ctx, cfg.MonCash),
		Orders:  orderSvc,
		Log:     logger.Named("payments"),
	}

	router := httpx.NewRouter(logger, cfg.CORSOrigins)
	httpx.Mount(router, auth.Middleware(tokens, userRepo),
		&httpx.UsersHandler{Users: userSvc, Log: logger},
		&httpx.CatalogHandler{Catalog: &catalog.Service{Store: &catalog.Repo{DB: db}}, Log: logger},
		&httpx.AccountHandler{
			Addresses: &addresses.Service{Store: &addresses.Repo{DB: db}},
			Cart:      &cart.Service{Store: &cart.Repo{DB: db}},
			Log:       logger,
		},
		&httpx.ReviewsHandler{Reviews: &reviews.Service{Store: &reviews.Repo{DB: db}}, Log: logger},
		&httpx.OrdersHandler{Orders: orderSvc, Log: logger},
		&httpx.PaymentsHandler{Payments: paymentSvc, Log: logger},
		&httpx.UploadsHandler{Store: store, Log: logger},
	)

	// HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// graceful shutdown
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // flush pending events
	cancel()
	prod.WaitClosed()
}
