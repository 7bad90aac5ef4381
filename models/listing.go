package models

import "time"

// RawListing holds one search result as the provider returned it, before
// any cleaning. Numeric detail fields default to zero when the provider
// omits them.
type RawListing struct {
	ID           string
	Title        string
	RawPrice     string
	Location     string
	RawRating    string
	ReviewsCount int
	URL          string
	Bedrooms     float64
	Bathrooms    float64
	MaxGuests    int
	Amenities    []string
	Platform     string
	ScrapedAt    time.Time

	LocationScore    float64
	CleanlinessScore float64
	ValueScore       float64
}

// Listing is the cleaned, validated record shown to the user.
type Listing struct {
	ID           string   `json:"id"`
	Platform     string   `json:"platform"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Price        float64  `json:"price"`
	Rating       float64  `json:"rating"`
	ReviewsCount int      `json:"reviews_count"`
	Bedrooms     float64  `json:"bedrooms"`
	Bathrooms    float64  `json:"bathrooms"`
	MaxGuests    int      `json:"max_guests"`
	Amenities    []string `json:"amenities,omitempty"`
	Location     string   `json:"location"`

	LocationScore    float64 `json:"location_score"`
	CleanlinessScore float64 `json:"cleanliness_score"`
	ValueScore       float64 `json:"value_score"`

	CreatedAt time.Time `json:"created_at"`
}

// Features is the immutable numeric description of a listing that feeds
// the recommendation model.
type Features struct {
	Price            float64 `json:"price"`
	Bedrooms         float64 `json:"bedrooms"`
	Bathrooms        float64 `json:"bathrooms"`
	Rating           float64 `json:"rating"`
	LocationScore    float64 `json:"location_score"`
	CleanlinessScore float64 `json:"cleanliness_score"`
	ValueScore       float64 `json:"value_score"`
}

// FeatureNames lists the Vector order.
var FeatureNames = []string{
	"price", "bedrooms", "bathrooms", "rating",
	"location_score", "cleanliness_score", "value_score",
}

func (f Features) Vector() []float64 {
	return []float64{
		f.Price, f.Bedrooms, f.Bathrooms, f.Rating,
		f.LocationScore, f.CleanlinessScore, f.ValueScore,
	}
}

// ListingSnapshot is cached when a listing is rendered so that later
// feedback can be resolved without asking the provider again.
type ListingSnapshot struct {
	ListingID string    `json:"listing_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Features  Features  `json:"features"`
	ShownAt   time.Time `json:"shown_at"`
}

func (l *Listing) Features() Features {
	return Features{
		Price:            l.Price,
		Bedrooms:         l.Bedrooms,
		Bathrooms:        l.Bathrooms,
		Rating:           l.Rating,
		LocationScore:    l.LocationScore,
		CleanlinessScore: l.CleanlinessScore,
		ValueScore:       l.ValueScore,
	}
}

func (l *Listing) Snapshot(shownAt time.Time) ListingSnapshot {
	return ListingSnapshot{
		ListingID: l.ID,
		Title:     l.Title,
		URL:       l.URL,
		Features:  l.Features(),
		ShownAt:   shownAt,
	}
}
