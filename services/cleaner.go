package services

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"airbnb-bot/models"
	"airbnb-bot/utils"
)

var (
	// priceRegexp captures numeric price values
	priceRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)
	// rateTimesRegexp matches "$171 x 3 nights", where the first figure is already per night
	rateTimesRegexp = regexp.MustCompile(`([\d,]+(?:\.\d+)?)\s*[x×]\s*\d+\s*nights?`)
	// nightsRegexp captures "X nights" or "X night" patterns
	nightsRegexp = regexp.MustCompile(`(\d+)\s*nights?`)
	// ratingRegexp captures a numeric rating in the 0.0–5.0 range
	ratingRegexp = regexp.MustCompile(`\b([0-5](?:\.\d{1,2})?)\b`)
)

// Cleaner transforms RawListings into clean, validated Listings. It is the
// single normalisation step at the provider boundary.
type Cleaner struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger, now: time.Now}
}

// Clean processes raw listings and returns cleaned records. Listings without
// a URL or a positive price are dropped, as are repeated URLs.
func (c *Cleaner) Clean(raw []*models.RawListing) []*models.Listing {
	seen := make(map[string]struct{})
	result := make([]*models.Listing, 0, len(raw))

	for _, r := range raw {
		url := strings.TrimSpace(r.URL)
		if url == "" {
			c.logger.Warn("[cleaner] Dropping listing with empty URL: %s", r.Title)
			continue
		}

		if _, dup := seen[url]; dup {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}
		seen[url] = struct{}{}

		price := c.parsePrice(r.RawPrice)
		if price <= 0 {
			c.logger.Warn("[cleaner] Skipping %s: could not parse price from %q", url, r.RawPrice)
			continue
		}

		result = append(result, &models.Listing{
			ID:               ListingID(r.ID, url),
			Platform:         normalisePlatform(r.Platform),
			Title:            normaliseText(r.Title),
			URL:              url,
			Price:            price,
			Rating:           c.parseRating(r.RawRating),
			ReviewsCount:     nonNegativeInt(r.ReviewsCount),
			Bedrooms:         nonNegative(r.Bedrooms),
			Bathrooms:        nonNegative(r.Bathrooms),
			MaxGuests:        nonNegativeInt(r.MaxGuests),
			Amenities:        normaliseList(r.Amenities),
			Location:         normaliseText(r.Location),
			LocationScore:    nonNegative(r.LocationScore),
			CleanlinessScore: nonNegative(r.CleanlinessScore),
			ValueScore:       nonNegative(r.ValueScore),
			CreatedAt:        c.now(),
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// ListingID is the provider id when present, otherwise a digest of the
// URL. The URL alone is the structural key of a listing.
func ListingID(providerID, url string) string {
	if id := strings.TrimSpace(providerID); id != "" {
		return id
	}
	sum := sha256.Sum256([]byte(url))
	return "u" + hex.EncodeToString(sum[:])[:16]
}

// parsePrice extracts price and converts multi-night prices to per-night rate.
// Examples:
//
//	"$150 night" → 150
//	"$171 x 3 nights" → 171
//	"$450 for 3 nights" → 150 (450/3)
//	"$1,200 total" with "2 nights" → 600
func (c *Cleaner) parsePrice(raw string) float64 {
	raw = strings.ToLower(raw)

	if m := rateTimesRegexp.FindStringSubmatch(raw); len(m) >= 2 {
		rate, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err == nil {
			return rate
		}
	}

	// Remove commas and extract first numeric value
	cleaned := strings.ReplaceAll(raw, ",", "")
	loc := priceRegexp.FindStringIndex(cleaned)
	if loc == nil {
		return 0
	}

	totalPrice, err := strconv.ParseFloat(cleaned[loc[0]:loc[1]], 64)
	if err != nil {
		return 0
	}

	// The night count, if any, follows the amount.
	nightsMatch := nightsRegexp.FindStringSubmatch(cleaned[loc[1]:])
	if len(nightsMatch) >= 2 {
		nights, err := strconv.Atoi(nightsMatch[1])
		if err == nil && nights > 1 {
			perNightPrice := totalPrice / float64(nights)
			c.logger.Debug("[cleaner] Multi-night price detected: $%.2f for %d nights = $%.2f/night",
				totalPrice, nights, perNightPrice)
			return perNightPrice
		}
	}

	return totalPrice
}

// parseRating extracts a 0.0–5.0 numeric rating from a raw string.
func (c *Cleaner) parseRating(raw string) float64 {
	match := ratingRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0
	}
	val, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	if val < 0 || val > 5 {
		return 0
	}
	return val
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

func normaliseList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = normaliseText(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalisePlatform(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func nonNegativeInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
