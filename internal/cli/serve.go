package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/leadverify-service/internal/adapter/jsonfile"
	redis_adapter "github.com/user/leadverify-service/internal/adapter/redis"
	"github.com/user/leadverify-service/internal/delivery/http/handler"
	"github.com/user/leadverify-service/internal/delivery/http/router"
	"github.com/user/leadverify-service/internal/ratelimit"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/internal/usecase"

	pg_adapter "github.com/user/leadverify-service/internal/adapter/postgres"
)

func newServeCmd() *cobra.Command {
	var (
		results string
		useMock bool
		withDB  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the verification API and queue worker",
		Long: `Run the HTTP API for submitting leads plus the background worker that
drains the Redis queue through the same rate-limited checker used by
batch runs. Requires Redis; PostgreSQL is optional and only backs the
stats endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			rdb, err := openRedis(ctx, cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			var leadRepo repository.LeadRepository
			if withDB {
				pool, err := openPostgres(ctx, cfg)
				if err != nil {
					return err
				}
				defer pool.Close()
				leadRepo = pg_adapter.NewLeadRepo(pool)
			}

			normalizer := newNormalizer(cfg)
			queueRepo := redis_adapter.NewQueueRepo(rdb)
			submittedRepo := redis_adapter.NewSubmittedRepo(rdb)
			checkpointRepo := redis_adapter.NewCheckpointRepo(rdb, "worker")
			resultRepo := jsonfile.NewResultRepo(results)
			limiter := ratelimit.New(cfg.MaxChecksPerHour, cfg.MinDelay, cfg.MaxDelay)

			sessions, checker, checkerName := buildCheckerStack(cfg, useMock, false)
			defer sessions.Close(context.Background())

			leadManager := usecase.NewLeadManager(normalizer, submittedRepo, queueRepo, resultRepo)
			verifier := usecase.NewVerifier(nil, queueRepo, sessions, checker, checkpointRepo, resultRepo, limiter, usecase.VerifierOptions{
				RetryLimit:  cfg.RetryLimit,
				Resume:      true,
				CheckerName: checkerName,
			})

			workerDone := make(chan error, 1)
			go func() {
				_, err := verifier.RunQueue(ctx)
				workerDone <- err
			}()

			apiHandler := handler.NewHandler(leadManager, leadRepo)
			server := &http.Server{
				Addr:         ":" + cfg.ServerPort,
				Handler:      router.New(apiHandler),
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			serverDone := make(chan error, 1)
			go func() {
				slog.Info("Starting server", "port", cfg.ServerPort)
				serverDone <- server.ListenAndServe()
			}()

			var workerErr error
			workerFinished := false
			select {
			case <-ctx.Done():
			case err := <-serverDone:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case workerErr = <-workerDone:
				workerFinished = true
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Warn("HTTP server shutdown failed", "error", err)
			}

			// The worker flushes its partial results on cancellation.
			if !workerFinished {
				workerErr = <-workerDone
			}
			if workerErr != nil && !errors.Is(workerErr, context.Canceled) {
				return workerErr
			}
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&results, "results", "verified_leads.json", "merged result file")
	cmd.Flags().BoolVar(&useMock, "mock", false, "simulate checks instead of opening a browser")
	cmd.Flags().BoolVar(&withDB, "with-db", false, "connect PostgreSQL for the stats endpoint")
	return cmd
}
