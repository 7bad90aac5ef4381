package bot

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"airbnb-bot/calendar"
	"airbnb-bot/models"
)

const amenitiesPerRow = 2

func calendarKeyboard(g calendar.Grid) Keyboard {
	rows := g.Rows()
	kb := make(Keyboard, 0, len(rows))
	for _, row := range rows {
		buttons := make([]Button, 0, len(row))
		for _, c := range row {
			buttons = append(buttons, Button{Label: c.Label, Token: cellToken(c)})
		}
		kb = append(kb, buttons)
	}
	return kb
}

func cellToken(c calendar.Cell) string {
	switch c.Action.Kind {
	case calendar.ActionSelect:
		return dateToken(c.Action.Date)
	case calendar.ActionNavigate:
		return navToken(c.Action.Year, c.Action.Month)
	}
	return ignoreToken()
}

func amenitiesKeyboard(selected models.AmenitySet) Keyboard {
	var kb Keyboard
	row := make([]Button, 0, amenitiesPerRow)
	for _, a := range models.Amenities {
		if len(row) == amenitiesPerRow {
			kb = append(kb, row)
			row = make([]Button, 0, amenitiesPerRow)
		}
		box := "☐"
		if selected.Has(a.Key) {
			box = "☑"
		}
		row = append(row, Button{Label: box + " " + a.Label, Token: amenityToken(a.Key)})
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return append(kb, []Button{{Label: "✅ Done", Token: tokenAmenitiesDone}})
}

func feedbackKeyboard(listingID string) Keyboard {
	return Keyboard{{
		{Label: "👍 Like", Token: feedbackToken(listingID, true)},
		{Label: "👎 Dislike", Token: feedbackToken(listingID, false)},
	}}
}

func ratedKeyboard(liked bool) Keyboard {
	return Keyboard{{{Label: "You rated " + thumb(liked), Token: ignoreToken()}}}
}

func thumb(liked bool) string {
	if liked {
		return "👍"
	}
	return "👎"
}

func money(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}

// renderListing formats one result. Absent optional fields are skipped.
func renderListing(l *models.Listing, score float64, scored bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s](%s)\n", escapeMarkdown(l.Title), l.URL)
	fmt.Fprintf(&b, "💰 %s per night\n", money(l.Price))
	if l.Rating > 0 {
		fmt.Fprintf(&b, "⭐ %.1f (%s)\n", l.Rating, english.Plural(l.ReviewsCount, "review", ""))
	}
	if l.Bedrooms > 0 {
		fmt.Fprintf(&b, "🛏 %s\n", quantity(l.Bedrooms, "bedroom"))
	}
	if l.Bathrooms > 0 {
		fmt.Fprintf(&b, "🚿 %s\n", quantity(l.Bathrooms, "bathroom"))
	}
	if l.MaxGuests > 0 {
		fmt.Fprintf(&b, "👥 Up to %s\n", english.Plural(l.MaxGuests, "guest", ""))
	}
	if len(l.Amenities) > 0 {
		shown := l.Amenities
		if len(shown) > 3 {
			shown = shown[:3]
		}
		fmt.Fprintf(&b, "✨ %s\n", escapeMarkdown(strings.Join(shown, ", ")))
	}
	if scored {
		fmt.Fprintf(&b, "🎯 %.0f%% match\n", score*100)
	}
	location := l.Location
	if location == "" {
		location = "Location not specified"
	}
	fmt.Fprintf(&b, "📍 %s", escapeMarkdown(location))
	return b.String()
}

func quantity(n float64, unit string) string {
	count := 2
	if n == 1 {
		count = 1
	}
	return humanize.Ftoa(n) + " " + english.PluralWord(count, unit, "")
}

func renderCriteria(c models.SearchCriteria) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📍 *Location:* %s\n", escapeMarkdown(c.Location))
	fmt.Fprintf(&b, "📅 *Dates:* %s to %s (%s)\n", c.CheckIn, c.CheckOut, english.Plural(c.Nights(), "night", ""))
	fmt.Fprintf(&b, "👥 *Guests:* %d\n", c.GuestCount)
	fmt.Fprintf(&b, "💰 *Price Range:* $%s-%s\n", humanize.Comma(int64(c.Price.Min)), humanize.Comma(int64(c.Price.Max)))
	if c.Amenities.Len() > 0 {
		fmt.Fprintf(&b, "✨ *Amenities:* %s\n", amenityLabels(c.Amenities.Strings()))
	}
	return b.String()
}

func amenityLabels(keys []string) string {
	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		if label, ok := models.AmenityLabel(models.AmenityKey(k)); ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, k)
		}
	}
	return strings.Join(labels, ", ")
}

func renderStats(s models.ProfileSummary) string {
	var b strings.Builder
	b.WriteString("📊 *Your Learning Profile*\n\n")
	b.WriteString("*Interaction Stats:*\n")
	fmt.Fprintf(&b, "🔍 Total searches: %d\n", s.SearchCount)
	fmt.Fprintf(&b, "👀 Listings rated: %d\n", s.Total)
	fmt.Fprintf(&b, "👍 Listings liked: %d\n", s.Liked)
	fmt.Fprintf(&b, "👎 Listings disliked: %d\n\n", s.Disliked)

	if s.IsEmpty() {
		b.WriteString("Not enough data yet. Rate a few listings with 👍 or 👎 after a /search and I'll start learning what you like.")
		return b.String()
	}

	if s.HasPriceComparison {
		pref := "higher"
		if s.AvgLikedPrice < s.AvgDislikedPrice {
			pref = "lower"
		}
		b.WriteString("*Price Insights:*\n")
		fmt.Fprintf(&b, "💰 You tend to prefer %s priced listings\n", pref)
		fmt.Fprintf(&b, "   Avg. liked price: %s\n", money(s.AvgLikedPrice))
		fmt.Fprintf(&b, "   Avg. disliked price: %s\n\n", money(s.AvgDislikedPrice))
	}

	if s.HasLikedStats {
		b.WriteString("*Space Preferences:*\n")
		fmt.Fprintf(&b, "🛏 Preferred bedrooms: %.1f\n", s.AvgLikedBedrooms)
		fmt.Fprintf(&b, "🚿 Preferred bathrooms: %.1f\n\n", s.AvgLikedBathrooms)
		b.WriteString("*Rating Preferences:*\n")
		fmt.Fprintf(&b, "⭐ Average rating of liked listings: %.1f\n\n", s.AvgLikedRating)
	}

	if p := s.Preferences; !p.IsZero() {
		b.WriteString("*Current Search Settings:*\n")
		if p.Location != "" {
			fmt.Fprintf(&b, "📍 Location: %s\n", escapeMarkdown(p.Location))
		}
		if p.Guests > 0 {
			fmt.Fprintf(&b, "👥 Guests: %d\n", p.Guests)
		}
		if len(p.SelectedAmenities) > 0 {
			fmt.Fprintf(&b, "✨ Preferred amenities: %s\n", amenityLabels(p.SelectedAmenities))
		}
		b.WriteString("\n")
	}

	b.WriteString("*Learning Progress:*\n")
	fmt.Fprintf(&b, "🎯 I'm currently at %.0f%% of understanding your preferences\n", s.LearningProgress*100)
	b.WriteString("(Based on the amount of feedback received)\n\n")
	b.WriteString("💡 *Tip:* The more feedback you provide on listings, the better I can tailor recommendations to your taste!")
	return b.String()
}

func renderPreferences(s models.ProfileSummary) string {
	return fmt.Sprintf(
		"📊 Your Statistics:\n\nTotal searches: %d\nListings rated: %d\nLiked: %d\nDisliked: %d",
		s.SearchCount, s.Total, s.Liked, s.Disliked,
	)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
