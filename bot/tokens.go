package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"airbnb-bot/models"
)

// TokenKind classifies an inline button payload.
type TokenKind int

const (
	TokenUnknown TokenKind = iota
	TokenIgnore
	TokenDate
	TokenNavigate
	TokenAmenityToggle
	TokenAmenitiesDone
	TokenFeedback
)

const (
	tokenIgnore        = "ignore"
	tokenAmenitiesDone = "amenities_done"
	prefixDate         = "cal_"
	prefixNav          = "nav_"
	prefixAmenity      = "amenity_"
	suffixToggle       = "_toggle"
	prefixFeedback     = "feedback_"
)

// Token is a decoded callback payload. Only the fields relevant to Kind
// are set.
type Token struct {
	Kind      TokenKind
	Date      models.Date
	Year      int
	Month     time.Month
	Amenity   models.AmenityKey
	ListingID string
	Liked     bool
}

// ParseToken decodes callback data. Anything malformed yields TokenUnknown.
func ParseToken(data string) Token {
	switch {
	case data == tokenIgnore:
		return Token{Kind: TokenIgnore}

	case data == tokenAmenitiesDone:
		return Token{Kind: TokenAmenitiesDone}

	case strings.HasPrefix(data, prefixDate):
		d, err := models.ParseDate(strings.TrimPrefix(data, prefixDate))
		if err != nil {
			return Token{}
		}
		return Token{Kind: TokenDate, Date: d}

	case strings.HasPrefix(data, prefixNav):
		parts := strings.Split(strings.TrimPrefix(data, prefixNav), "_")
		if len(parts) != 2 {
			return Token{}
		}
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return Token{}
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil || month < 1 || month > 12 {
			return Token{}
		}
		return Token{Kind: TokenNavigate, Year: year, Month: time.Month(month)}

	case strings.HasPrefix(data, prefixAmenity) && strings.HasSuffix(data, suffixToggle):
		key := strings.TrimSuffix(strings.TrimPrefix(data, prefixAmenity), suffixToggle)
		if _, ok := models.AmenityLabel(models.AmenityKey(key)); !ok {
			return Token{}
		}
		return Token{Kind: TokenAmenityToggle, Amenity: models.AmenityKey(key)}

	case strings.HasPrefix(data, prefixFeedback):
		// Listing ids may contain underscores; the verdict is after the last one.
		rest := strings.TrimPrefix(data, prefixFeedback)
		i := strings.LastIndex(rest, "_")
		if i <= 0 {
			return Token{}
		}
		id, verdict := rest[:i], rest[i+1:]
		switch verdict {
		case "like":
			return Token{Kind: TokenFeedback, ListingID: id, Liked: true}
		case "dislike":
			return Token{Kind: TokenFeedback, ListingID: id, Liked: false}
		}
		return Token{}
	}
	return Token{}
}

// String encodes the token back to callback data.
func (t Token) String() string {
	switch t.Kind {
	case TokenIgnore:
		return tokenIgnore
	case TokenDate:
		return prefixDate + t.Date.String()
	case TokenNavigate:
		return fmt.Sprintf("%s%d_%d", prefixNav, t.Year, int(t.Month))
	case TokenAmenityToggle:
		return prefixAmenity + string(t.Amenity) + suffixToggle
	case TokenAmenitiesDone:
		return tokenAmenitiesDone
	case TokenFeedback:
		verdict := "dislike"
		if t.Liked {
			verdict = "like"
		}
		return prefixFeedback + t.ListingID + "_" + verdict
	}
	return tokenIgnore
}

func ignoreToken() string { return tokenIgnore }

func dateToken(d models.Date) string {
	return Token{Kind: TokenDate, Date: d}.String()
}

func navToken(year int, month time.Month) string {
	return Token{Kind: TokenNavigate, Year: year, Month: month}.String()
}

func amenityToken(key models.AmenityKey) string {
	return Token{Kind: TokenAmenityToggle, Amenity: key}.String()
}

func feedbackToken(listingID string, liked bool) string {
	return Token{Kind: TokenFeedback, ListingID: listingID, Liked: liked}.String()
}
