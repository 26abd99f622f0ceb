package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tutorlane/marketplace/internal/app"
	"github.com/tutorlane/marketplace/internal/config"
	"github.com/tutorlane/marketplace/internal/repository"
	"github.com/tutorlane/marketplace/internal/repository/base"
	"github.com/tutorlane/marketplace/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	txRunner := base.NewTxRunner(pool)
	requestRepo := repository.NewLessonRequestRepository(pool)
	quoteRepo := repository.NewQuoteRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	rateRepo := repository.NewRateRepository(pool)
	quoteLedger := repository.NewQuoteStatusLedger(pool)
	lessonLedger := repository.NewLessonStatusLedger(pool)

	quoteService := service.NewQuoteService(
		txRunner,
		requestRepo,
		quoteRepo,
		lessonRepo,
		userRepo,
		rateRepo,
		quoteLedger,
		lessonLedger,
		cfg.QuoteTeacherLimit,
		logger,
	)

	expirer := app.NewExpirer(quoteService, cfg.QuoteSweepInterval, logger)
	expirer.Start(ctx)

	logger.Info("Marketplace core started",
		zap.String("environment", cfg.Environment),
		zap.Int("quote_teacher_limit", cfg.QuoteTeacherLimit),
		zap.Duration("quote_sweep_interval", cfg.QuoteSweepInterval),
	)

	<-ctx.Done()

	expirer.Stop()
	logger.Info("Marketplace core stopped")
}
