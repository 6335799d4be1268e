package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/user/leadverify-service/internal/adapter/mock"
	"github.com/user/leadverify-service/internal/adapter/whatsapp"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/pkg/config"
	"github.com/user/leadverify-service/pkg/phone"
)

func newNormalizer(cfg *config.Config) phone.Normalizer {
	return phone.Normalizer{CountryCode: cfg.CountryCode, LocalArea: cfg.LocalArea}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("PostgreSQL connection pool established", "host", cfg.PostgresHost, "db", cfg.PostgresDB)
	return pool, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	slog.Info("Redis connection established", "addr", cfg.RedisAddr)
	return rdb, nil
}

// buildCheckerStack picks the platform adapters: the real browser-backed
// pair, or the mock pair for dry runs.
func buildCheckerStack(cfg *config.Config, useMock, interactiveLogin bool) (repository.SessionRepository, repository.CheckerRepository, string) {
	if useMock {
		return mock.NewSessionRepo(), mock.NewCheckerRepo(), "mock"
	}
	sessions := whatsapp.NewSessionRepo(cfg.ProfileDir, interactiveLogin, 0)
	checker := whatsapp.NewCheckerRepo(cfg.CheckTimeout, whatsapp.DefaultClassifier())
	return sessions, checker, "whatsapp"
}
