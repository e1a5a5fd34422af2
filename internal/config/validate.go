package config

import (
	"fmt"
	"strconv"
	"strings"

	"ieltsreader/internal/validation"
)

// Validate checks the loaded configuration and fills derived fields.
// Load calls it automatically.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Type) {
	case "sqlite", "sqlite3", "":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres", "postgresql", "mysql":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for %s", c.Database.Type)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	intervals, err := ParseIntervals(c.SRS.IntervalsRaw)
	if err != nil {
		return fmt.Errorf("srs.intervals: %w", err)
	}
	c.SRS.Intervals = intervals

	if c.Quiz.AutoAdvance < 0 {
		return fmt.Errorf("quiz.auto_advance must be >= 0 (got %s)", c.Quiz.AutoAdvance)
	}

	if c.AuthEnabled() && len(c.Auth.TokenSecret) < 32 {
		return fmt.Errorf("auth.token_secret must be at least 32 characters (got %d)", len(c.Auth.TokenSecret))
	}

	for name, addr := range map[string]string{"email.from_email": c.Email.FromEmail, "email.to_email": c.Email.ToEmail} {
		if addr == "" {
			continue
		}
		if err := validation.ValidateEmail(addr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.GenAI.RateLimit <= 0 {
		return fmt.Errorf("genai.rate_limit must be > 0 (got %d)", c.GenAI.RateLimit)
	}

	return nil
}

// ParseIntervals parses a comma-separated list of day counts ("0,1,3").
// The table must be non-empty, non-negative and non-decreasing.
func ParseIntervals(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("interval table is empty")
	}

	parts := strings.Split(raw, ",")
	intervals := make([]int, 0, len(parts))
	for i, p := range parts {
		days, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if days < 0 {
			return nil, fmt.Errorf("entry %d must be >= 0 (got %d)", i, days)
		}
		if i > 0 && days < intervals[i-1] {
			return nil, fmt.Errorf("entry %d (%d) is shorter than entry %d (%d)", i, days, i-1, intervals[i-1])
		}
		intervals = append(intervals, days)
	}
	return intervals, nil
}
