package models

import "time"

// FeedbackRecord is one persisted like/dislike. Features are copied at
// write time so later listing changes never alter history.
type FeedbackRecord struct {
	ID        string
	UserID    string
	ListingID string
	Liked     bool
	CreatedAt time.Time
	Features  Features
}

// Preferences are the last-used search parameters of a user.
type Preferences struct {
	Location          string   `json:"location,omitempty"`
	Guests            int      `json:"guests,omitempty"`
	SelectedAmenities []string `json:"selected_amenities,omitempty"`
	PriceMin          int      `json:"price_min,omitempty"`
	PriceMax          int      `json:"price_max,omitempty"`
}

// Merge overwrites the fields that are set in other.
func (p *Preferences) Merge(other Preferences) {
	if other.Location != "" {
		p.Location = other.Location
	}
	if other.Guests != 0 {
		p.Guests = other.Guests
	}
	if other.SelectedAmenities != nil {
		p.SelectedAmenities = append([]string(nil), other.SelectedAmenities...)
	}
	if other.PriceMin != 0 || other.PriceMax != 0 {
		p.PriceMin = other.PriceMin
		p.PriceMax = other.PriceMax
	}
}

func (p Preferences) IsZero() bool {
	return p.Location == "" && p.Guests == 0 && len(p.SelectedAmenities) == 0 &&
		p.PriceMin == 0 && p.PriceMax == 0
}

// PreferencesFromCriteria captures what a finished search should remember.
func PreferencesFromCriteria(c SearchCriteria) Preferences {
	return Preferences{
		Location:          c.Location,
		Guests:            c.GuestCount,
		SelectedAmenities: c.Amenities.Strings(),
		PriceMin:          c.Price.Min,
		PriceMax:          c.Price.Max,
	}
}

// UserProfile is keyed by the chat platform's stable user id.
type UserProfile struct {
	StableID    string
	Preferences Preferences
	SearchCount int
	CreatedAt   time.Time
	LastActive  time.Time
}

// ProfileSummary holds the aggregates shown by the stats command.
type ProfileSummary struct {
	SearchCount int
	Total       int
	Liked       int
	Disliked    int

	// Price comparison is only meaningful when both groups are non-empty.
	HasPriceComparison bool
	AvgLikedPrice      float64
	AvgDislikedPrice   float64

	HasLikedStats     bool
	AvgLikedBedrooms  float64
	AvgLikedBathrooms float64
	AvgLikedRating    float64

	// LearningProgress saturates at 1 after ten feedback events.
	LearningProgress float64

	Preferences Preferences
}

func (s ProfileSummary) IsEmpty() bool {
	return s.Total == 0
}
