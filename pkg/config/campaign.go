package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Campaign describes one lead-collection campaign: which directory
// niches to scrape and the CSS selectors of the directory site. Kept in
// YAML because selectors change when the site does.
type Campaign struct {
	ID      string        `yaml:"id"`
	Niches  []NicheConfig `yaml:"niches"`
	Scraper ScraperConfig `yaml:"scraper"`
}

// NicheConfig is one search niche with its listing URL.
type NicheConfig struct {
	Name      string `yaml:"name"`
	Label     string `yaml:"label"`
	URL       string `yaml:"url"`
	Specialty string `yaml:"specialty"`
}

// ScraperConfig holds the directory site's selectors and pacing.
type ScraperConfig struct {
	Selectors    SelectorConfig `yaml:"selectors"`
	MaxPages     int            `yaml:"maxPages"`
	MinDelayMS   int            `yaml:"minDelayMs"`
	MaxDelayMS   int            `yaml:"maxDelayMs"`
	UserAgent    string         `yaml:"userAgent"`
	MaxPerNiche  int            `yaml:"maxPerNiche"`
}

// SelectorConfig maps the pieces of a directory page to CSS selectors.
// Comma-separated alternatives are tried in order.
type SelectorConfig struct {
	Card        string `yaml:"card"`
	Name        string `yaml:"name"`
	ProfileLink string `yaml:"profileLink"`
	Phone       string `yaml:"phone"`
	Address     string `yaml:"address"`
	Office      string `yaml:"office"`
	Locality    string `yaml:"locality"`
	NextPage    string `yaml:"nextPage"`
}

// LoadCampaign reads and validates the campaign YAML.
func LoadCampaign(path string) (*Campaign, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign config %s: %w", path, err)
	}

	var c Campaign
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse campaign config %s: %w", path, err)
	}
	if len(c.Niches) == 0 {
		return nil, fmt.Errorf("campaign config %s defines no niches", path)
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Campaign) applyDefaults() {
	s := &c.Scraper
	if s.MaxPages == 0 {
		s.MaxPages = 10
	}
	if s.MaxPerNiche == 0 {
		s.MaxPerNiche = 50
	}
	if s.MinDelayMS == 0 {
		s.MinDelayMS = 2000
	}
	if s.MaxDelayMS == 0 {
		s.MaxDelayMS = 4500
	}
	if s.UserAgent == "" {
		s.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if s.Selectors.NextPage == "" {
		s.Selectors.NextPage = "a[rel='next'], a.next, li.next a"
	}
}
