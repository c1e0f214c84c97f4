// Package settings holds the user preferences the watcher and orchestrator
// read on every cycle, behind a single Store contract with one change
// notification.
package settings

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
)

// CheckTypes toggles each analysis category
type CheckTypes struct {
	Grammar  bool `yaml:"grammar" toml:"grammar" json:"grammar"`
	Spelling bool `yaml:"spelling" toml:"spelling" json:"spelling"`
	Style    bool `yaml:"style" toml:"style" json:"style"`
	Clarity  bool `yaml:"clarity" toml:"clarity" json:"clarity"`
}

// Settings are the user's preferences
type Settings struct {
	Enabled    bool       `yaml:"enabled" toml:"enabled" json:"enabled"`
	CheckTypes CheckTypes `yaml:"checkTypes" toml:"checkTypes" json:"checkTypes"`
	// DisabledSites holds hostnames or doublestar patterns such as "*.example.com"
	DisabledSites []string `yaml:"disabledSites" toml:"disabledSites" json:"disabledSites"`
	Language      string   `yaml:"language" toml:"language" json:"language"`
	APIKey        string   `yaml:"apiKey" toml:"apiKey" json:"-"`
}

// Default enables every check for English
func Default() Settings {
	return Settings{
		Enabled:    true,
		CheckTypes: CheckTypes{Grammar: true, Spelling: true, Style: true, Clarity: true},
		Language:   "en",
	}
}

// Checks returns the enabled checks in canonical order
func (s Settings) Checks() []string {
	enabled := map[issue.Check]bool{
		issue.CheckGrammar:  s.CheckTypes.Grammar,
		issue.CheckSpelling: s.CheckTypes.Spelling,
		issue.CheckStyle:    s.CheckTypes.Style,
		issue.CheckClarity:  s.CheckTypes.Clarity,
	}
	var out []string
	for _, c := range issue.AllChecks {
		if enabled[c] {
			out = append(out, string(c))
		}
	}
	return out
}

// Normalize canonicalises the language tag and site list
func (s Settings) Normalize() (Settings, error) {
	if s.Language == "" {
		s.Language = "en"
	}
	tag, err := language.Parse(s.Language)
	if err != nil {
		return s, fmt.Errorf("invalid language %q: %w", s.Language, err)
	}
	s.Language = tag.String()

	sites := make([]string, 0, len(s.DisabledSites))
	for _, site := range s.DisabledSites {
		site = strings.ToLower(strings.TrimSpace(site))
		if site == "" || slices.Contains(sites, site) {
			continue
		}
		if !doublestar.ValidatePattern(site) {
			return s, fmt.Errorf("invalid site pattern %q", site)
		}
		sites = append(sites, site)
	}
	s.DisabledSites = sites
	s.APIKey = strings.TrimSpace(s.APIKey)
	return s, nil
}

// SiteDisabled reports whether analysis is switched off for a page. site may
// be a bare host or a URL. Patterns match the host, and a bare host pattern
// also covers its subdomains.
func (s Settings) SiteDisabled(site string) bool {
	host := hostOf(site)
	if host == "" {
		return false
	}
	for _, pattern := range s.DisabledSites {
		if pattern == host || strings.HasSuffix(host, "."+pattern) {
			return true
		}
		if ok, err := doublestar.Match(pattern, host); err == nil && ok {
			return true
		}
	}
	return false
}

// Active reports whether analysis should run on a site
func (s Settings) Active(site string) bool {
	return s.Enabled && !s.SiteDisabled(site)
}

// ContextChanged reports whether a change affects provider output for the
// same text, so cached results must be dropped
func (s Settings) ContextChanged(prev Settings) bool {
	return s.APIKey != prev.APIKey || s.Language != prev.Language
}

// Equal compares every field
func (s Settings) Equal(o Settings) bool {
	return s.Enabled == o.Enabled &&
		s.CheckTypes == o.CheckTypes &&
		slices.Equal(s.DisabledSites, o.DisabledSites) &&
		s.Language == o.Language &&
		s.APIKey == o.APIKey
}

func hostOf(site string) string {
	site = strings.TrimSpace(strings.ToLower(site))
	if strings.Contains(site, "://") {
		if u, err := url.Parse(site); err == nil {
			return u.Hostname()
		}
		return ""
	}
	if i := strings.IndexAny(site, "/:"); i >= 0 {
		site = site[:i]
	}
	return site
}
