// Package directory scrapes business listings out of the public medical
// directory site with goquery. Selectors live in the campaign config
// because the site changes them more often than this code changes.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/pkg/config"
	"github.com/user/leadverify-service/pkg/metrics"
)

var phonePattern = regexp.MustCompile(`(?:\+?52\s?)?(?:\(?\d{2,3}\)?[\s.-]?)?\d{3,4}[\s.-]?\d{4}`)

// ScraperRepoImpl provides a concrete implementation for the
// CollectorRepository interface by walking a niche's listing pages and
// pulling contact data out of each result card.
type ScraperRepoImpl struct {
	client     *http.Client
	cfg        config.ScraperConfig
	campaignID string
	rng        *rand.Rand
}

// NewScraperRepo wires an HTTP client; a nil client gets a 20s timeout
// default.
func NewScraperRepo(client *http.Client, cfg config.ScraperConfig, campaignID string) *ScraperRepoImpl {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ScraperRepoImpl{
		client:     client,
		cfg:        cfg,
		campaignID: campaignID,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Collect walks the niche's listing pages until the page limit, the
// per-niche lead cap, or the last page, whichever comes first.
func (s *ScraperRepoImpl) Collect(ctx context.Context, niche *entity.Niche) ([]*entity.Lead, error) {
	leads := make([]*entity.Lead, 0, s.cfg.MaxPerNiche)
	pageURL := niche.URL

	for page := 1; page <= s.cfg.MaxPages && pageURL != ""; page++ {
		doc, err := s.fetchDocument(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("niche %s: %w", niche.Name, err)
			}
			// Later pages failing loses the tail, not the niche.
			slog.Warn("Listing page fetch failed, keeping collected leads",
				"niche", niche.Name, "page", page, "error", err)
			break
		}

		extracted := s.extractCards(ctx, doc, pageURL, niche)
		leads = append(leads, extracted...)
		slog.Info("Listing page scraped",
			"niche", niche.Name, "page", page, "leads", len(extracted))

		if len(leads) >= s.cfg.MaxPerNiche {
			leads = leads[:s.cfg.MaxPerNiche]
			break
		}

		pageURL = s.nextPageURL(doc, pageURL)
		if pageURL == "" {
			break
		}
		if err := s.courtesyPause(ctx); err != nil {
			return leads, err
		}
	}

	metrics.LeadsCollected.WithLabelValues(niche.Name).Add(float64(len(leads)))
	return leads, nil
}

func (s *ScraperRepoImpl) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept-Language", "es-MX,es;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// extractCards turns every result card on a listing page into a lead.
// Cards without any phone trigger one profile-page fetch before giving
// up on the number.
func (s *ScraperRepoImpl) extractCards(ctx context.Context, doc *goquery.Document, pageURL string, niche *entity.Niche) []*entity.Lead {
	sel := s.cfg.Selectors
	var leads []*entity.Lead

	doc.Find(sel.Card).Each(func(i int, card *goquery.Selection) {
		lead := &entity.Lead{
			Company:     cleanText(card.Find(sel.Name).First().Text()),
			Role:        niche.Specialty,
			Locality:    cleanText(card.Find(sel.Locality).First().Text()),
			District:    cleanText(card.Find(sel.Address).First().Text()),
			Niche:       niche.Name,
			CampaignID:  s.campaignID,
			Source:      "directory",
			ExtractedAt: time.Now().Format("2006-01-02"),
		}

		lead.Phone = s.phoneFromCard(card)
		if lead.Phone == "" {
			if href, ok := card.Find(sel.ProfileLink).First().Attr("href"); ok {
				lead.Phone, lead.Email = s.phoneFromProfile(ctx, resolveURL(pageURL, href))
				lead.Website = resolveURL(pageURL, href)
			}
		}

		if lead.Company == "" && lead.Phone == "" {
			return // decorative card, nothing usable
		}
		leads = append(leads, lead)
	})

	return leads
}

// phoneFromCard tries the phone selector first, tel: links second, and a
// regex over the card text last.
func (s *ScraperRepoImpl) phoneFromCard(card *goquery.Selection) string {
	if text := cleanText(card.Find(s.cfg.Selectors.Phone).First().Text()); text != "" {
		if match := phonePattern.FindString(text); match != "" {
			return match
		}
		return text
	}

	var tel string
	card.Find("a[href^='tel:']").EachWithBreak(func(i int, a *goquery.Selection) bool {
		if href, ok := a.Attr("href"); ok {
			tel = strings.TrimPrefix(href, "tel:")
			return false
		}
		return true
	})
	if tel != "" {
		return tel
	}

	return phonePattern.FindString(card.Text())
}

// phoneFromProfile fetches the profile page behind a card and scans it
// for a phone and email. Failures here cost one lead's number, never the
// run.
func (s *ScraperRepoImpl) phoneFromProfile(ctx context.Context, profileURL string) (phone, email string) {
	if profileURL == "" {
		return "", ""
	}
	if err := s.courtesyPause(ctx); err != nil {
		return "", ""
	}

	doc, err := s.fetchDocument(ctx, profileURL)
	if err != nil {
		slog.Debug("Profile page fetch failed", "url", profileURL, "error", err)
		return "", ""
	}

	if href, ok := doc.Find("a[href^='tel:']").First().Attr("href"); ok {
		phone = strings.TrimPrefix(href, "tel:")
	}
	if phone == "" {
		phone = phonePattern.FindString(doc.Find("body").Text())
	}
	if href, ok := doc.Find("a[href^='mailto:']").First().Attr("href"); ok {
		email = strings.TrimPrefix(href, "mailto:")
	}
	return phone, email
}

func (s *ScraperRepoImpl) nextPageURL(doc *goquery.Document, current string) string {
	href, ok := doc.Find(s.cfg.Selectors.NextPage).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	return resolveURL(current, href)
}

// courtesyPause sleeps a random interval between requests so the
// directory sees human-like pacing.
func (s *ScraperRepoImpl) courtesyPause(ctx context.Context) error {
	min, max := s.cfg.MinDelayMS, s.cfg.MaxDelayMS
	if max <= 0 {
		return ctx.Err()
	}
	d := time.Duration(min) * time.Millisecond
	if max > min {
		d += time.Duration(s.rng.Intn(max-min)) * time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
