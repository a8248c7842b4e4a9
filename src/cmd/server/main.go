package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/cache"
	"github.com/api-sage/savings-ledger/src/internal/adapter/events"
	"github.com/api-sage/savings-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/savings-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/savings-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/implementations"
	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/savings-ledger/src/internal/config"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
	"github.com/api-sage/savings-ledger/src/internal/usecase/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type store struct {
	uow          repo_interfaces.UnitOfWork
	accounts     repo_interfaces.AccountRepository
	transactions repo_interfaces.TransactionRepository
	statements   repo_interfaces.StatementRepository
	health       router.HealthCheck
	close        func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("set log level: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Error("server exited with error", err, nil)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("close store failed", err, nil)
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	publisher, err := newPublisher(cfg.Events, redisClient)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("close event publisher failed", err, nil)
		}
	}()

	opts := []services.Option{
		services.WithStoreTimeout(cfg.StoreTimeout),
		services.WithEventPublisher(publisher),
	}
	if redisClient != nil {
		opts = append(opts, services.WithAccountCache(cache.NewRedisAccountCache(redisClient, cfg.Redis.BalanceCacheTTL)))
	}

	ledgerService := services.NewLedgerService(st.uow, opts...)
	accountService := services.NewAccountService(st.uow, opts...)
	queryService := services.NewAccountQueryService(st.accounts, st.transactions, opts...)
	statementService := services.NewStatementService(st.accounts, st.transactions, st.statements, opts...)

	handler := router.New(
		middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey),
		st.health,
		controller.NewAccountController(accountService, queryService),
		controller.NewLedgerController(ledgerService),
		controller.NewTransferController(ledgerService, queryService),
		controller.NewStatementController(statementService),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server starting", logger.Fields{
			"addr":        cfg.HTTPAddr,
			"storeDriver": cfg.StoreDriver,
			"events":      cfg.Events.Driver,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("http server shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Info("using in-memory store", nil)
		mem := memory.NewStore()
		return store{
			uow:          mem,
			accounts:     mem.Accounts(),
			transactions: mem.Transactions(),
			statements:   mem.Statements(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := implementations.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return store{}, fmt.Errorf("open database: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := implementations.RunMigrations(migrateCtx, db, cfg.MigrationsDir); err != nil {
		_ = db.Close()
		return store{}, fmt.Errorf("run migrations: %w", err)
	}

	return store{
		uow:          implementations.NewUnitOfWork(db),
		accounts:     implementations.NewAccountRepository(db),
		transactions: implementations.NewTransactionRepository(db),
		statements:   implementations.NewStatementRepository(db),
		health:       func(ctx context.Context) error { return implementations.Ping(ctx, db) },
		close:        db.Close,
	}, nil
}

func newPublisher(cfg config.EventConfig, client *redis.Client) (domain.EventPublisher, error) {
	switch cfg.Driver {
	case config.EventsDriverRedis:
		if client == nil {
			return nil, errors.New("redis events driver needs REDIS_ADDR")
		}
		return events.NewRedisPublisher(client, cfg.RedisChannel), nil
	case config.EventsDriverKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return events.NoopPublisher{}, nil
	}
}
