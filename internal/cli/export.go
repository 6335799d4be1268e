package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/leadverify-service/internal/adapter/postgres"
	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/pkg/phone"
)

func newExportCmd() *cobra.Command {
	var (
		niche      string
		campaignID string
		validOnly  bool
		limit      uint64
		format     string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export leads from PostgreSQL for the CRM",
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
			leads, err := leadRepo.Export(ctx, repository.LeadFilter{
				Niche:      niche,
				CampaignID: campaignID,
				ValidOnly:  validOnly,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "csv":
				return writeCSV(out, leads)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(leads)
			default:
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&niche, "niche", "", "filter by niche")
	cmd.Flags().StringVar(&campaignID, "campaign", "", "filter by campaign id")
	cmd.Flags().BoolVar(&validOnly, "valid-only", false, "export only leads verified reachable")
	cmd.Flags().Uint64Var(&limit, "limit", 0, "cap the number of rows (0 = all)")
	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv, json)")
	cmd.Flags().StringVar(&output, "output", "", "write to a file instead of stdout")
	return cmd
}

func writeCSV(out io.Writer, leads []*entity.VerifiedLead) error {
	w := csv.NewWriter(out)
	header := []string{"phone", "status", "checked_at", "company", "contact_name", "role", "email", "website", "locality", "district", "niche", "campaign_id", "source", "extracted_at"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, lead := range leads {
		row := []string{
			phone.Display(lead.ID),
			string(lead.Status),
			lead.CheckedAt.Format(time.RFC3339),
			lead.Lead.Company,
			lead.Lead.ContactName,
			lead.Lead.Role,
			lead.Lead.Email,
			lead.Lead.Website,
			lead.Lead.Locality,
			lead.Lead.District,
			lead.Lead.Niche,
			lead.Lead.CampaignID,
			lead.Lead.Source,
			lead.Lead.ExtractedAt,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
