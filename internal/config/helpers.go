package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// Location returns the zone naive timestamps of the dataset are read in.
// Returns UTC if not configured or invalid.
func (c *DataConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := ParseTimezone(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Location returns the zone that defines the report day, falling back to fallback
func (c *ReportConfig) Location(fallback *time.Location) *time.Location {
	if c.Timezone == "" {
		return fallback
	}
	loc, err := ParseTimezone(c.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// CORSOriginList returns the configured CORS origins joined the way fiber expects
func (c *ServerConfig) CORSOriginList() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}

// ParseTimezone parses a timezone
// Supports formats:
//   - IANA timezone names: "Asia/Tokyo", "America/New_York", "UTC"
//   - Offset format: "+09:00", "-05:00", "+00:00"
func ParseTimezone(tz string) (*time.Location, error) {
	// Try parsing as IANA timezone name first
	loc, err := time.LoadLocation(tz)
	if err == nil {
		return loc, nil
	}

	// Try parsing as offset format (+09:00, -05:00, etc.)
	loc, offErr := parseOffsetTimezone(tz)
	if offErr == nil {
		return loc, nil
	}

	return nil, fmt.Errorf("unknown timezone %q", tz)
}

// parseOffsetTimezone parses timezone offset format like "+09:00", "-05:00"
func parseOffsetTimezone(offset string) (*time.Location, error) {
	matches := offsetPattern.FindStringSubmatch(offset)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid offset format: %s", offset)
	}

	sign := 1
	if matches[1] == "-" {
		sign = -1
	}

	hours, err := strconv.Atoi(matches[2])
	if err != nil || hours > 14 {
		return nil, fmt.Errorf("invalid hours: %s", matches[2])
	}

	minutes, err := strconv.Atoi(matches[3])
	if err != nil || minutes > 59 {
		return nil, fmt.Errorf("invalid minutes: %s", matches[3])
	}

	offsetSeconds := sign * (hours*3600 + minutes*60)
	return time.FixedZone(offset, offsetSeconds), nil
}
