package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/leadverify-service/internal/adapter/postgres"
)

func newStatsCmd() *cobra.Command {
	var runs int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-niche verification totals and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			pool, err := openPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			leadRepo := postgres.NewLeadRepo(pool)
			stats, err := leadRepo.Stats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NICHE\tSOURCE\tTOTAL\tVALID\tINVALID\tUNVERIFIED\tWITH EMAIL")
			for _, s := range stats {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
					s.Niche, s.Source, s.Total, s.Valid, s.Invalid, s.Unverified, s.WithEmail)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if runs <= 0 {
				return nil
			}
			runLog := postgres.NewRunLogRepo(pool)
			records, err := runLog.Recent(ctx, runs)
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tKIND\tFILE\tPROCESSED\tINSERTED\tERRORS\tDURATION")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%.0fs\n",
					r.CreatedAt.Format(time.DateTime), r.Kind, r.File, r.Processed, r.Inserted, r.Errors, r.DurationSec)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&runs, "runs", 10, "number of recent runs to list (0 to hide)")
	return cmd
}
