package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/leadverify-service/internal/adapter/jsonfile"
	"github.com/user/leadverify-service/internal/adapter/postgres"
	"github.com/user/leadverify-service/internal/entity"
)

func newImportCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a verified result file into PostgreSQL",
		Long: `Copy a merged result file into the leads table. Existing rows are
updated in place, latest outcome wins, so re-importing is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			pool, err := openPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			resultRepo := jsonfile.NewResultRepo(input)
			leads, err := resultRepo.All(ctx)
			if err != nil {
				return err
			}

			leadRepo := postgres.NewLeadRepo(pool)
			started := time.Now()
			inserted, failed := 0, 0
			for _, lead := range leads {
				wasInsert, err := leadRepo.Upsert(ctx, lead)
				if err != nil {
					failed++
					slog.Error("Failed to upsert lead", "candidate", lead.ID, "error", err)
					continue
				}
				if wasInsert {
					inserted++
				}
			}
			slog.Info("Import finished",
				"file", input, "total", len(leads), "inserted", inserted, "updated", len(leads)-inserted-failed, "failed", failed)

			runLog := postgres.NewRunLogRepo(pool)
			return runLog.Append(ctx, &entity.RunRecord{
				Kind:        "import",
				File:        input,
				Processed:   len(leads),
				Inserted:    inserted,
				Errors:      failed,
				DurationSec: time.Since(started).Seconds(),
				CreatedAt:   time.Now(),
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "verified_leads.json", "result file to import")
	return cmd
}
