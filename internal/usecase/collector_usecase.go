package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/pkg/phone"
)

// CollectSummary reports one collection run.
type CollectSummary struct {
	Niches     int
	Scraped    int
	Kept       int
	Duplicates int
	NoPhone    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Collector drives a lead-collection campaign across all niches and
// writes the deduplicated batch for verification.
type Collector interface {
	Run(ctx context.Context, niches []*entity.Niche) (*CollectSummary, error)
}

type collectorUseCase struct {
	scraper    repository.CollectorRepository
	sink       repository.LeadSink
	normalizer phone.Normalizer
	campaignID string
}

// NewCollector creates a new Collector use case.
func NewCollector(
	scraper repository.CollectorRepository,
	sink repository.LeadSink,
	normalizer phone.Normalizer,
	campaignID string,
) Collector {
	return &collectorUseCase{
		scraper:    scraper,
		sink:       sink,
		normalizer: normalizer,
		campaignID: campaignID,
	}
}

// Run scrapes every niche, deduplicates by normalized phone number and
// stores the surviving leads. When two leads share a number, the more
// complete record wins; leads without a usable number are kept so the
// operator can see what collection missed.
func (uc *collectorUseCase) Run(ctx context.Context, niches []*entity.Niche) (*CollectSummary, error) {
	summary := &CollectSummary{Niches: len(niches), StartedAt: time.Now()}
	defer func() { summary.FinishedAt = time.Now() }()

	byPhone := make(map[string]*entity.Lead)
	var order []string

	// Phoneless leads cannot key on a number, so they dedupe by company
	// name instead.
	byName := make(map[string]*entity.Lead)
	var nameOrder []string
	var anonymous []*entity.Lead

	for _, niche := range niches {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		leads, err := uc.scraper.Collect(ctx, niche)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			// One broken niche must not sink the campaign.
			slog.Error("Niche collection failed", "niche", niche.Name, "error", err)
			continue
		}
		summary.Scraped += len(leads)
		slog.Info("Niche collected", "niche", niche.Name, "leads", len(leads))

		for _, lead := range leads {
			id, err := uc.normalizer.Normalize(lead.Phone)
			if err != nil {
				summary.NoPhone++
				name := strings.ToLower(strings.TrimSpace(lead.Company))
				if name == "" {
					anonymous = append(anonymous, lead)
					continue
				}
				prior, seen := byName[name]
				if !seen {
					byName[name] = lead
					nameOrder = append(nameOrder, name)
					continue
				}
				summary.Duplicates++
				if lead.Completeness() > prior.Completeness() {
					byName[name] = lead
				}
				continue
			}

			prior, seen := byPhone[id]
			if !seen {
				byPhone[id] = lead
				order = append(order, id)
				continue
			}
			summary.Duplicates++
			if lead.Completeness() > prior.Completeness() {
				byPhone[id] = lead
			}
		}
	}

	kept := make([]*entity.Lead, 0, len(order)+len(nameOrder)+len(anonymous))
	for _, id := range order {
		kept = append(kept, byPhone[id])
	}
	for _, name := range nameOrder {
		kept = append(kept, byName[name])
	}
	kept = append(kept, anonymous...)
	summary.Kept = len(kept)

	if err := uc.sink.Store(ctx, uc.campaignID, kept); err != nil {
		return summary, err
	}

	slog.Info("Collection run finished",
		"niches", summary.Niches,
		"scraped", summary.Scraped,
		"kept", summary.Kept,
		"duplicates", summary.Duplicates,
		"no_phone", summary.NoPhone,
	)
	return summary, nil
}
