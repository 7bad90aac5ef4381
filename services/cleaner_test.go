package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-bot/models"
	"airbnb-bot/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func TestCleanerParsePrice(t *testing.T) {
	c := NewCleaner(newTestLogger())

	tests := []struct {
		raw  string
		want float64
	}{
		{"$120 night", 120},
		{"$171 x 3 nights", 171},
		{"$1,050 x 2 nights", 1050},
		{"$450 for 3 nights", 150},
		{"$1,200 total, 2 nights", 600},
		{"", 0},
		{"free", 0},
		{"$1,200.50", 1200.50},
		{"USD 99", 99},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, c.parsePrice(tt.raw), 1e-9, "parsePrice(%q)", tt.raw)
	}
}

func TestCleanerParseRating(t *testing.T) {
	c := NewCleaner(newTestLogger())

	tests := []struct {
		raw  string
		want float64
	}{
		{"4.85", 4.85},
		{"5.0", 5.0},
		{"3.5 (120 reviews)", 3.5},
		{"", 0},
		{"New", 0},
		{"6.0", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.parseRating(tt.raw), "parseRating(%q)", tt.raw)
	}
}

func TestCleanerDropsEmptyURLAndUnpricedListings(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{
		{Title: "No URL", RawPrice: "$100", URL: "", Platform: "airbnb", ScrapedAt: time.Now()},
		{Title: "No price", RawPrice: "N/A", URL: "https://airbnb.com/rooms/2", Platform: "airbnb"},
		{Title: "Has URL", RawPrice: "$200", URL: "https://airbnb.com/rooms/1", Platform: "airbnb", ScrapedAt: time.Now()},
	}

	cleaned := c.Clean(raw)
	require.Len(t, cleaned, 1)
	assert.Equal(t, "Has URL", cleaned[0].Title)
}

func TestCleanerDeduplicatesURL(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{
		{Title: "A", RawPrice: "$10", URL: "https://airbnb.com/rooms/1", Platform: "airbnb"},
		{Title: "B", RawPrice: "$20", URL: "https://airbnb.com/rooms/1", Platform: "airbnb"},
	}

	cleaned := c.Clean(raw)
	require.Len(t, cleaned, 1)
	assert.Equal(t, "A", cleaned[0].Title)
}

func TestCleanerNormalisesFields(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{{
		ID:        "  ",
		Title:     "  Cosy   flat \n near  Louvre ",
		RawPrice:  "$171 x 3 nights",
		RawRating: "4.9",
		URL:       "https://www.airbnb.com/rooms/55",
		Platform:  " AirBnB ",
		Bedrooms:  -1,
		Amenities: []string{" Wifi ", "", "Kitchen"},
		Location:  "Paris  France",
	}}

	l := c.Clean(raw)[0]
	assert.Equal(t, "Cosy flat near Louvre", l.Title)
	assert.Equal(t, "airbnb", l.Platform)
	assert.Equal(t, 171.0, l.Price)
	assert.Equal(t, 4.9, l.Rating)
	assert.Zero(t, l.Bedrooms)
	assert.Equal(t, []string{"Wifi", "Kitchen"}, l.Amenities)
	assert.Equal(t, "Paris France", l.Location)
	assert.Equal(t, ListingID("", "https://www.airbnb.com/rooms/55"), l.ID)
}

func TestListingID(t *testing.T) {
	assert.Equal(t, "12345", ListingID("12345", "https://x"))

	a := ListingID("", "https://www.airbnb.com/rooms/1")
	b := ListingID("", "https://www.airbnb.com/rooms/1")
	c := ListingID("", "https://www.airbnb.com/rooms/2")
	assert.Equal(t, a, b, "derived ids are deterministic")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 17)
	assert.Equal(t, byte('u'), a[0])
}
