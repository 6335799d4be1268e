package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/user/leadverify-service/internal/adapter/jsonfile"
	"github.com/user/leadverify-service/internal/adapter/postgres"
	redis_adapter "github.com/user/leadverify-service/internal/adapter/redis"
	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/ratelimit"
	"github.com/user/leadverify-service/internal/usecase"
	"github.com/user/leadverify-service/pkg/config"
)

func newVerifyCmd() *cobra.Command {
	var (
		input        string
		results      string
		checkpoint   string
		fresh        bool
		forceRecheck bool
		useMock      bool
		login        bool
		lock         bool
		saveDB       bool
		follow       bool
		maxHour      int
		minDelay     time.Duration
		maxDelay     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a lead batch against WhatsApp",
		Long: `Verify a collected lead batch front to back. Progress is checkpointed
after every candidate, so a rerun with the same checkpoint resumes
instead of re-contacting numbers that already have a definitive answer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			if maxHour > 0 {
				cfg.MaxChecksPerHour = maxHour
			}
			if cmd.Flags().Changed("min-delay") {
				cfg.MinDelay = minDelay
			}
			if cmd.Flags().Changed("max-delay") {
				cfg.MaxDelay = maxDelay
			}

			normalizer := newNormalizer(cfg)
			source := jsonfile.NewCandidateSource(input, normalizer)
			checkpointRepo := jsonfile.NewCheckpointRepo(checkpoint)
			resultRepo := jsonfile.NewResultRepo(results)
			limiter := ratelimit.New(cfg.MaxChecksPerHour, cfg.MinDelay, cfg.MaxDelay)

			sessions, checker, checkerName := buildCheckerStack(cfg, useMock, login)
			defer sessions.Close(context.Background())

			var rdb *redis.Client
			if lock || follow {
				var err error
				rdb, err = openRedis(ctx, cfg)
				if err != nil {
					return err
				}
				defer rdb.Close()
			}

			if lock {
				runLock := redis_adapter.NewRunLock(rdb, cfg.ProfileDir)
				if err := runLock.Hold(ctx); err != nil {
					return err
				}
				defer runLock.Release(context.Background())
			}

			verifier := usecase.NewVerifier(source, nil, sessions, checker, checkpointRepo, resultRepo, limiter, usecase.VerifierOptions{
				RetryLimit:   cfg.RetryLimit,
				Resume:       !fresh,
				ForceRecheck: forceRecheck,
				CheckerName:  checkerName,
			})

			summary, err := verifier.RunBatch(ctx)
			if err != nil {
				return err
			}

			if saveDB {
				if err := persistRun(cfg, input, resultRepo, summary); err != nil {
					return err
				}
			}

			if !follow {
				return nil
			}

			// Batch done; keep the session warm and drain submissions
			// from the queue until interrupted.
			slog.Info("Batch complete, following the queue", "checkpoint", "worker")
			worker := usecase.NewVerifier(nil, redis_adapter.NewQueueRepo(rdb), sessions, checker,
				redis_adapter.NewCheckpointRepo(rdb, "worker"), resultRepo, limiter, usecase.VerifierOptions{
					RetryLimit:  cfg.RetryLimit,
					Resume:      true,
					CheckerName: checkerName,
				})
			if _, err := worker.RunQueue(ctx); err != nil {
				return err
			}
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&input, "input", "leads.json", "lead batch to verify")
	cmd.Flags().StringVar(&results, "results", "verified_leads.json", "merged result file")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "checkpoint.json", "checkpoint file")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "discard any existing checkpoint and start over")
	cmd.Flags().BoolVar(&forceRecheck, "force-recheck", false, "re-contact candidates that already have a definitive outcome")
	cmd.Flags().BoolVar(&useMock, "mock", false, "simulate checks instead of opening a browser")
	cmd.Flags().BoolVar(&login, "login", false, "open a visible browser and wait for a QR scan when no session exists")
	cmd.Flags().BoolVar(&lock, "lock", false, "guard the browser profile with a Redis run lock")
	cmd.Flags().BoolVar(&saveDB, "save-db", false, "upsert results into PostgreSQL after the run")
	cmd.Flags().BoolVar(&follow, "follow", false, "after the batch, keep draining the Redis queue")
	cmd.Flags().IntVar(&maxHour, "max-hour", 0, "override the hourly check budget")
	cmd.Flags().DurationVar(&minDelay, "min-delay", 0, "override the minimum pause between checks")
	cmd.Flags().DurationVar(&maxDelay, "max-delay", 0, "override the maximum pause between checks")
	return cmd
}

// persistRun copies the merged result set into the relational store and
// appends the audit row. Runs after the file flush, so a database outage
// costs the copy, never the results.
func persistRun(cfg *config.Config, inputFile string, resultRepo *jsonfile.ResultRepoImpl, summary *entity.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	leads, err := resultRepo.All(ctx)
	if err != nil {
		return err
	}

	leadRepo := postgres.NewLeadRepo(pool)
	inserted := 0
	for _, lead := range leads {
		wasInsert, err := leadRepo.Upsert(ctx, lead)
		if err != nil {
			return err
		}
		if wasInsert {
			inserted++
		}
	}
	slog.Info("Results copied to database", "total", len(leads), "inserted", inserted)

	runLog := postgres.NewRunLogRepo(pool)
	return runLog.Append(ctx, &entity.RunRecord{
		Kind:        "verification",
		File:        inputFile,
		Processed:   summary.Processed(),
		Inserted:    inserted,
		Errors:      summary.Error,
		DurationSec: summary.FinishedAt.Sub(summary.StartedAt).Seconds(),
		CreatedAt:   time.Now(),
	})
}
