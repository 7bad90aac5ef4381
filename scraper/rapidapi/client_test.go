package rapidapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-bot/models"
	"airbnb-bot/scraper"
	"airbnb-bot/utils"
)

const sampleResponse = `{
  "error": false,
  "results": [
    {
      "id": "12345",
      "name": "Sunny loft",
      "city": "Paris",
      "country": "France",
      "rating": 4.87,
      "reviewsCount": 120,
      "bedrooms": 2,
      "bathrooms": 1,
      "persons": 4,
      "previewAmenities": ["Wifi", "Kitchen"],
      "price": {"rate": 171, "priceItems": [{"title": "$171 x 3 nights", "amount": 513}]}
    },
    {
      "id": 678,
      "name": "Tiny room",
      "price": {"rate": 55},
      "previewAmenities": [{"name": "Heating"}]
    },
    {
      "id": null,
      "name": "Mystery",
      "price": {}
    }
  ]
}`

func TestSearchBuildsRequestAndMapsResults(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "secret", utils.NewNopLogger())
	q := scraper.Query{
		Location: "Paris",
		CheckIn:  models.NewDate(2026, 11, 1),
		CheckOut: models.NewDate(2026, 11, 4),
		Guests:   2,
		PriceMin: 100,
		PriceMax: 300,
	}
	listings, err := c.Search(context.Background(), q)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/search-location", got.URL.Path)
	assert.Equal(t, "secret", got.Header.Get("X-RapidAPI-Key"))
	assert.Equal(t, DefaultHost, got.Header.Get("X-RapidAPI-Host"))
	v := got.URL.Query()
	assert.Equal(t, "Paris", v.Get("location"))
	assert.Equal(t, "2026-11-01", v.Get("checkin"))
	assert.Equal(t, "2026-11-04", v.Get("checkout"))
	assert.Equal(t, "2", v.Get("adults"))
	assert.Equal(t, "0", v.Get("children"))
	assert.Equal(t, "USD", v.Get("currency"))
	assert.Equal(t, "100", v.Get("priceMin"))
	assert.Equal(t, "300", v.Get("priceMax"))

	require.Len(t, listings, 3)

	first := listings[0]
	assert.Equal(t, "12345", first.ID)
	assert.Equal(t, "Sunny loft", first.Title)
	assert.Equal(t, "$171 x 3 nights", first.RawPrice)
	assert.Equal(t, "Paris France", first.Location)
	assert.Equal(t, "4.87", first.RawRating)
	assert.Equal(t, "https://www.airbnb.com/rooms/12345", first.URL)
	assert.Equal(t, 4, first.MaxGuests, "persons is the fallback for maxGuests")
	assert.Equal(t, []string{"Wifi", "Kitchen"}, first.Amenities)

	second := listings[1]
	assert.Equal(t, "678", second.ID)
	assert.Equal(t, "$55", second.RawPrice)
	assert.Equal(t, "Paris", second.Location, "query location fills an empty city")
	assert.Equal(t, []string{"Heating"}, second.Amenities)

	third := listings[2]
	assert.Empty(t, third.ID)
	assert.Empty(t, third.URL)
	assert.Empty(t, third.RawPrice)
}

func TestSearchOmitsZeroPriceBounds(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "k", utils.NewNopLogger())
	listings, err := c.Search(context.Background(), scraper.Query{Location: "Rome", Guests: 1, PriceMax: 200})
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.NotContains(t, rawQuery, "priceMin")
	assert.Contains(t, rawQuery, "priceMax=200")
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, "upstream down"},
		{"bad json", http.StatusOK, "{not json"},
		{"api error", http.StatusOK, `{"error": true, "message": "quota exceeded"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "", "k", utils.NewNopLogger())
			_, err := c.Search(context.Background(), scraper.Query{Location: "Paris"})
			assert.Error(t, err)
		})
	}
}
