package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/leadverify-service/internal/adapter/directory"
	"github.com/user/leadverify-service/internal/adapter/jsonfile"
	"github.com/user/leadverify-service/internal/adapter/mock"
	"github.com/user/leadverify-service/internal/adapter/postgres"
	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/internal/usecase"
	"github.com/user/leadverify-service/pkg/config"
)

func newCollectCmd() *cobra.Command {
	var (
		output    string
		nicheName string
		useMock   bool
		saveDB    bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Scrape directory listings into a lead batch",
		Long: `Scrape the campaign's directory niches into a deduplicated lead batch.
The output file is the input for the verify command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			campaign, err := config.LoadCampaign(cfg.CampaignConfig)
			if err != nil {
				return err
			}

			niches := make([]*entity.Niche, 0, len(campaign.Niches))
			for _, n := range campaign.Niches {
				if nicheName != "" && n.Name != nicheName {
					continue
				}
				niches = append(niches, &entity.Niche{
					Name:      n.Name,
					Label:     n.Label,
					URL:       n.URL,
					Specialty: n.Specialty,
				})
			}
			if len(niches) == 0 {
				return fmt.Errorf("no niche named %q in campaign %s", nicheName, campaign.ID)
			}

			var scraper repository.CollectorRepository
			if useMock {
				scraper = mock.NewCollectorRepo(campaign.Scraper.MaxPerNiche, campaign.ID)
			} else {
				scraper = directory.NewScraperRepo(nil, campaign.Scraper, campaign.ID)
			}
			sink := jsonfile.NewLeadSink(output)

			collector := usecase.NewCollector(scraper, sink, newNormalizer(cfg), campaign.ID)
			summary, err := collector.Run(ctx, niches)
			if err != nil {
				return err
			}

			if saveDB {
				return logCollectRun(cfg, output, nicheName, summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "leads.json", "lead batch file to write")
	cmd.Flags().StringVar(&nicheName, "niche", "", "collect a single niche instead of the whole campaign")
	cmd.Flags().BoolVar(&useMock, "mock", false, "fabricate leads instead of scraping the directory")
	cmd.Flags().BoolVar(&saveDB, "save-db", false, "append the run to the PostgreSQL audit log")
	return cmd
}

func logCollectRun(cfg *config.Config, output, niche string, summary *usecase.CollectSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	runLog := postgres.NewRunLogRepo(pool)
	return runLog.Append(ctx, &entity.RunRecord{
		Kind:        "collection",
		Niche:       niche,
		File:        output,
		Processed:   summary.Scraped,
		Inserted:    summary.Kept,
		Errors:      summary.NoPhone,
		DurationSec: summary.FinishedAt.Sub(summary.StartedAt).Seconds(),
		CreatedAt:   time.Now(),
	})
}
