package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/staybook/payment-service/internal"
	"github.com/staybook/payment-service/internal/core/idgen"
	"github.com/staybook/payment-service/internal/gateway"
	appkafka "github.com/staybook/payment-service/internal/kafka"
	"github.com/staybook/payment-service/internal/lease"
	"github.com/staybook/payment-service/internal/outbox"
	outboxPostgres "github.com/staybook/payment-service/internal/outbox/postgres"
	"github.com/staybook/payment-service/internal/payment"
	paymentPostgres "github.com/staybook/payment-service/internal/payment/postgres"
	"github.com/staybook/payment-service/internal/refund"
	refundPostgres "github.com/staybook/payment-service/internal/refund/postgres"
	"github.com/staybook/payment-service/internal/transport/rest"
	"github.com/staybook/payment-service/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server together with the outbox dispatcher and the reservation event consumer`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Router     *chi.Mux
	Producer   appkafka.Producer
	Dispatcher *outbox.Dispatcher
	Consumer   *appkafka.Consumer
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	go deps.Dispatcher.Run(workerCtx)
	go deps.Consumer.Start(workerCtx)

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		shutdownWorkers(deps, stopWorkers)
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			shutdownWorkers(deps, stopWorkers)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func shutdownWorkers(deps *Dependencies, stopWorkers context.CancelFunc) {
	stopWorkers()
	if err := deps.Consumer.Close(); err != nil {
		deps.Logger.Error("consumer close error", "error", err)
	}
	if err := deps.Producer.Close(); err != nil {
		deps.Logger.Error("producer close error", "error", err)
	}
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	appLogger := logger.Default()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	idGen := idgen.NewSnowflake()
	publisher := outbox.NewPublisher(idGen, appLogger)
	txManager := internal.NewTxManager(gormDB)
	gatewayClient := gateway.NewHTTPClient(gateway.Config{
		BaseURL:   config.Gateway.BaseURL,
		SecretKey: config.Gateway.SecretKey,
		Timeout:   config.Gateway.Timeout,
	}, appLogger)

	paymentRepo := paymentPostgres.NewPaymentRepository(gormDB)
	refundRepo := refundPostgres.NewRefundRepository(gormDB)
	outboxRepo := outboxPostgres.NewOutboxRepository(gormDB)

	paymentService := payment.NewService(paymentRepo, gatewayClient, publisher, txManager, idGen, appLogger)
	refundService := refund.NewService(refundRepo, paymentRepo, gatewayClient, publisher, txManager, idGen, appLogger)

	producer := appkafka.NewProducer(config.Kafka.Brokers, appLogger)
	locker := lease.NewGormLocker(gormDB, appLogger)
	dispatcher := outbox.NewDispatcher(outboxRepo, producer, locker, outbox.DispatcherConfig{
		DispatchInterval: config.Outbox.DispatchInterval,
		RetryInterval:    config.Outbox.RetryInterval,
		BatchSize:        config.Outbox.BatchSize,
		MaxRetryCount:    config.Outbox.MaxRetryCount,
	}, appLogger)

	reservationConsumer := payment.NewConsumer(paymentService, appLogger)
	consumer := appkafka.NewConsumer(appkafka.ConsumerConfig{
		Brokers: config.Kafka.Brokers,
		Topic:   config.Kafka.ReservationConfirmedTopic,
		GroupID: config.Kafka.ConsumerGroupID,
	}, reservationConsumer.HandleReservationConfirmed, appLogger)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, payment.NewHandler(paymentService), refund.NewHandler(refundService), appLogger)

	return &Dependencies{
		Config:     config,
		DB:         db,
		Router:     router,
		Producer:   producer,
		Dispatcher: dispatcher,
		Consumer:   consumer,
		Logger:     appLogger,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
