package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/user/leadverify-service/internal/entity"
)

// CollectorRepoImpl fabricates plausible leads so the full pipeline runs
// without touching the directory site. Half the phone numbers end in an
// even digit and verify as reachable under the mock checker.
type CollectorRepoImpl struct {
	perNiche   int
	campaignID string
}

// NewCollectorRepo creates the mock collector.
func NewCollectorRepo(perNiche int, campaignID string) *CollectorRepoImpl {
	if perNiche <= 0 {
		perNiche = 10
	}
	return &CollectorRepoImpl{perNiche: perNiche, campaignID: campaignID}
}

// Collect returns deterministic leads for the niche.
func (c *CollectorRepoImpl) Collect(ctx context.Context, niche *entity.Niche) ([]*entity.Lead, error) {
	leads := make([]*entity.Lead, 0, c.perNiche)
	for i := 0; i < c.perNiche; i++ {
		leads = append(leads, &entity.Lead{
			Company:     fmt.Sprintf("Consultorio %s %02d", niche.Label, i+1),
			ContactName: fmt.Sprintf("Dr. Demo %02d", i+1),
			Role:        niche.Specialty,
			Phone:       fmt.Sprintf("55 1234 %04d", i),
			Email:       fmt.Sprintf("contacto%02d@%s.example.mx", i+1, niche.Name),
			Locality:    "Ciudad de México",
			Niche:       niche.Name,
			CampaignID:  c.campaignID,
			Source:      "mock",
			ExtractedAt: time.Now().Format("2006-01-02"),
		})
	}
	return leads, nil
}
