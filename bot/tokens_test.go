package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"airbnb-bot/models"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		data string
		want Token
	}{
		{"ignore", Token{Kind: TokenIgnore}},
		{"cal_2026-10-20", Token{Kind: TokenDate, Date: models.NewDate(2026, time.October, 20)}},
		{"cal_2026-02-30", Token{}},
		{"nav_2027_1", Token{Kind: TokenNavigate, Year: 2027, Month: time.January}},
		{"nav_2027_0", Token{}},
		{"nav_2027", Token{}},
		{"amenity_wifi_toggle", Token{Kind: TokenAmenityToggle, Amenity: models.AmenityWifi}},
		{"amenity_jacuzzi_toggle", Token{}},
		{"amenities_done", Token{Kind: TokenAmenitiesDone}},
		{"feedback_123_like", Token{Kind: TokenFeedback, ListingID: "123", Liked: true}},
		{"feedback_123_dislike", Token{Kind: TokenFeedback, ListingID: "123"}},
		{"feedback_a_b_like", Token{Kind: TokenFeedback, ListingID: "a_b", Liked: true}},
		{"feedback__like", Token{}},
		{"feedback_123_love", Token{}},
		{"dummy", Token{}},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseToken(tt.data))
		})
	}
}

func TestTokenStringParsesBack(t *testing.T) {
	for _, data := range []string{
		"ignore", "cal_2026-12-31", "nav_2026_12", "amenity_pets_toggle",
		"amenities_done", "feedback_u0a1b2c3d4e5f6a7b_dislike",
	} {
		if got := ParseToken(data).String(); got != data {
			t.Errorf("ParseToken(%q).String() = %q", data, got)
		}
	}
}
