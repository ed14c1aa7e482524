// Package intake validates website URLs typed into the intake form.
package intake

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/sitepulse/models"
)

var reScheme = regexp.MustCompile(`(?i)^https?://`)

// Normalize turns user input into a URL with an http or https scheme.
//
// Input without a leading http:// or https:// gets https:// prepended once;
// already-prefixed input is returned as typed (after trimming). The result
// must parse and carry a host.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", models.NewScrapeError(models.ErrCodeEmptyInput, models.MsgEmptyInput, nil)
	}

	if !reScheme.MatchString(s) {
		s = "https://" + s
	}

	if err := Validate(s); err != nil {
		return "", err
	}
	return s, nil
}

// Validate reports whether s is an absolute http(s) URL with a host.
func Validate(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidURL, models.MsgInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return models.NewScrapeError(models.ErrCodeInvalidURL, models.MsgInvalidURL, nil)
	}
	if u.Hostname() == "" {
		return models.NewScrapeError(models.ErrCodeInvalidURL, models.MsgInvalidURL, nil)
	}
	return nil
}
