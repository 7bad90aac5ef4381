// Package rapidapi queries the airbnb13 search endpoint on RapidAPI.
package rapidapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"airbnb-bot/models"
	"airbnb-bot/scraper"
	"airbnb-bot/utils"
)

const (
	DefaultBaseURL = "https://airbnb13.p.rapidapi.com"
	DefaultHost    = "airbnb13.p.rapidapi.com"
	platform       = "airbnb"
	roomURLPrefix  = "https://www.airbnb.com/rooms/"
)

// Client is a scraper.Provider backed by the RapidAPI search endpoint.
type Client struct {
	baseURL string
	host    string
	apiKey  string
	http    *http.Client
	logger  *utils.Logger
	now     func() time.Time
}

func New(baseURL, host, apiKey string, logger *utils.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    host,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
		now:     time.Now,
	}
}

func (c *Client) Name() string { return "rapidapi" }

type searchParams struct {
	Location string `url:"location"`
	CheckIn  string `url:"checkin"`
	CheckOut string `url:"checkout"`
	Adults   int    `url:"adults"`
	Children int    `url:"children"`
	Infants  int    `url:"infants"`
	Pets     int    `url:"pets"`
	Page     int    `url:"page"`
	Currency string `url:"currency"`
	PriceMin int    `url:"priceMin,omitempty"`
	PriceMax int    `url:"priceMax,omitempty"`
}

type searchResponse struct {
	Error   bool     `json:"error"`
	Message string   `json:"message"`
	Results []result `json:"results"`
}

type result struct {
	ID               flexString  `json:"id"`
	Name             string      `json:"name"`
	City             string      `json:"city"`
	Country          string      `json:"country"`
	Rating           float64     `json:"rating"`
	ReviewsCount     int         `json:"reviewsCount"`
	Bedrooms         float64     `json:"bedrooms"`
	Bathrooms        float64     `json:"bathrooms"`
	MaxGuests        int         `json:"maxGuests"`
	Persons          int         `json:"persons"`
	PreviewAmenities flexStrings `json:"previewAmenities"`
	Price            struct {
		Rate       float64 `json:"rate"`
		PriceItems []struct {
			Title  string  `json:"title"`
			Amount float64 `json:"amount"`
		} `json:"priceItems"`
	} `json:"price"`
}

// Search calls GET /search-location. Non-200 responses and API-level errors
// are returned as errors.
func (c *Client) Search(ctx context.Context, q scraper.Query) ([]*models.RawListing, error) {
	params, err := query.Values(searchParams{
		Location: q.Location,
		CheckIn:  q.CheckIn.String(),
		CheckOut: q.CheckOut.String(),
		Adults:   q.Guests,
		Page:     1,
		Currency: "USD",
		PriceMin: q.PriceMin,
		PriceMax: q.PriceMax,
	})
	if err != nil {
		return nil, fmt.Errorf("rapidapi: encode params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search-location?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("rapidapi: build request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("[rapidapi] GET /search-location %s", params.Encode())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rapidapi: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("rapidapi: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rapidapi: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("rapidapi: decode response: %w", err)
	}
	if sr.Error {
		return nil, fmt.Errorf("rapidapi: api error: %s", sr.Message)
	}

	now := c.now()
	out := make([]*models.RawListing, 0, len(sr.Results))
	for _, r := range sr.Results {
		out = append(out, c.toRaw(r, q.Location, now))
	}
	c.logger.Info("[rapidapi] %q returned %d results", q.Location, len(out))
	return out, nil
}

func (c *Client) toRaw(r result, fallbackLocation string, now time.Time) *models.RawListing {
	raw := &models.RawListing{
		ID:           string(r.ID),
		Title:        r.Name,
		Location:     strings.TrimSpace(r.City + " " + r.Country),
		ReviewsCount: r.ReviewsCount,
		Bedrooms:     r.Bedrooms,
		Bathrooms:    r.Bathrooms,
		MaxGuests:    r.MaxGuests,
		Amenities:    []string(r.PreviewAmenities),
		Platform:     platform,
		ScrapedAt:    now,
	}
	if raw.Location == "" {
		raw.Location = fallbackLocation
	}
	if raw.MaxGuests == 0 {
		raw.MaxGuests = r.Persons
	}
	if raw.ID != "" {
		raw.URL = roomURLPrefix + raw.ID
	}
	if r.Rating > 0 {
		raw.RawRating = strconv.FormatFloat(r.Rating, 'f', -1, 64)
	}
	switch {
	case len(r.Price.PriceItems) > 0 && r.Price.PriceItems[0].Title != "":
		raw.RawPrice = r.Price.PriceItems[0].Title
	case r.Price.Rate > 0:
		raw.RawPrice = "$" + strconv.FormatFloat(r.Price.Rate, 'f', -1, 64)
	}
	return raw
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexStrings accepts a list of strings or of objects carrying a name.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		// Unexpected shapes are dropped rather than failing the whole search.
		*f = nil
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Name  string `json:"name"`
			Title string `json:"title"`
		}
		if json.Unmarshal(it, &obj) == nil {
			if obj.Name != "" {
				out = append(out, obj.Name)
			} else if obj.Title != "" {
				out = append(out, obj.Title)
			}
		}
	}
	*f = out
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
