package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCampaign(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCampaign(t *testing.T) {
	path := writeCampaign(t, `
id: cdmx-salud-2026
niches:
  - name: dentistas
    label: Dentistas
    url: https://directorio.example.mx/dentistas/cdmx
    specialty: Dentista
  - name: dermatologos
    label: Dermatologos
    url: https://directorio.example.mx/dermatologos/cdmx
    specialty: Dermatologo
scraper:
  maxPages: 3
  maxPerNiche: 25
  selectors:
    card: div.listing-card
    name: h3.business-name
    phone: span.phone
`)

	c, err := LoadCampaign(path)
	if err != nil {
		t.Fatalf("LoadCampaign() error = %v", err)
	}
	if c.ID != "cdmx-salud-2026" {
		t.Errorf("id = %q", c.ID)
	}
	if len(c.Niches) != 2 || c.Niches[1].Specialty != "Dermatologo" {
		t.Errorf("niches = %+v", c.Niches)
	}
	if c.Scraper.MaxPages != 3 || c.Scraper.MaxPerNiche != 25 {
		t.Errorf("explicit scraper values lost: %+v", c.Scraper)
	}

	// Unset fields fall back to defaults.
	if c.Scraper.MinDelayMS != 2000 || c.Scraper.MaxDelayMS != 4500 {
		t.Errorf("delay defaults = %d/%d", c.Scraper.MinDelayMS, c.Scraper.MaxDelayMS)
	}
	if c.Scraper.UserAgent == "" || c.Scraper.Selectors.NextPage == "" {
		t.Error("user agent / next-page defaults not applied")
	}
}

func TestLoadCampaignRejectsEmptyNiches(t *testing.T) {
	path := writeCampaign(t, "id: empty\nniches: []\n")
	if _, err := LoadCampaign(path); err == nil {
		t.Fatal("expected an error for a campaign without niches")
	}
}

func TestLoadCampaignMissingFile(t *testing.T) {
	if _, err := LoadCampaign(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
