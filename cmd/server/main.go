package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/complaint-tracker/internal/config"
	"github.com/iliyamo/complaint-tracker/internal/database"
	"github.com/iliyamo/complaint-tracker/internal/handler"
	"github.com/iliyamo/complaint-tracker/internal/logging"
	"github.com/iliyamo/complaint-tracker/internal/queue"
	"github.com/iliyamo/complaint-tracker/internal/repository"
	"github.com/iliyamo/complaint-tracker/internal/router"
	"github.com/iliyamo/complaint-tracker/internal/service"
	"github.com/iliyamo/complaint-tracker/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	users, complaints, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.RabbitURL, log)
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.EventLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("complaint consumer stopped", zap.Error(err))
			}
		}()
	}

	auth, err := service.NewAuthService(users, tokens, cfg.BcryptCost, log)
	if err != nil {
		return err
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable, auth endpoints are not rate limited")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	complaintSvc := service.NewComplaintService(complaints, users, events, log)
	e := router.New(router.Deps{
		Log:         log,
		Tokens:      tokens,
		Auth:        handler.NewAuthHandler(auth),
		Complaints:  handler.NewComplaintHandler(complaintSvc),
		Redis:       rdb,
		RateLimit:   cfg.RateLimit,
		CORSOrigins: cfg.CORSOrigins,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := complaintSvc.Drain(shutdownCtx); err != nil {
		log.Warn("complaint events still in flight at exit", zap.Error(err))
	}
	return nil
}

// openStore connects the backend chosen by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repository.UserStore, repository.ComplaintStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.DBMigrate {
			if err := database.Migrate(db, log); err != nil {
				_ = db.Close()
				return nil, nil, nil, err
			}
		}
		return repository.NewUserRepo(db), repository.NewComplaintRepo(db), func() { _ = db.Close() }, nil

	case config.DriverMongo:
		client, err := database.OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		mdb := client.Database(cfg.MongoDB)
		users, complaints := repository.NewMongoUserRepo(mdb), repository.NewMongoComplaintRepo(mdb)
		if err := users.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		if err := complaints.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		return users, complaints, closeFn, nil

	default:
		log.Warn("using in-memory store; data is lost on restart")
		users := repository.NewMemoryUserRepo()
		return users, repository.NewMemoryComplaintRepo(users), func() {}, nil
	}
}
