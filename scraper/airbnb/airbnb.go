// Package airbnb searches airbnb.com with a headless browser.
package airbnb

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/go-querystring/query"

	"airbnb-bot/models"
	"airbnb-bot/scraper"
	"airbnb-bot/utils"
)

const (
	baseURL  = "https://www.airbnb.com"
	platform = "airbnb"
)

// Options tune the browser scraper.
type Options struct {
	ChromeBin       string
	MaxConcurrency  int
	RateLimitMs     int
	MaxRetries      int
	PagesToScrape   int
	ListingsPerPage int
}

// Scraper is a scraper.Provider that drives Chrome through search result pages.
type Scraper struct {
	opts   Options
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// New creates a ready-to-use Airbnb Scraper.
func New(opts Options, logger *utils.Logger) *Scraper {
	if opts.PagesToScrape < 1 {
		opts.PagesToScrape = 1
	}
	if opts.ListingsPerPage < 1 {
		opts.ListingsPerPage = 20
	}
	return &Scraper{
		opts:   opts,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

func (s *Scraper) Name() string { return "browser" }

type searchParams struct {
	CheckIn  string `url:"checkin"`
	CheckOut string `url:"checkout"`
	Adults   int    `url:"adults"`
	PriceMin int    `url:"price_min,omitempty"`
	PriceMax int    `url:"price_max,omitempty"`
}

// SearchURL is the results page for q.
func SearchURL(q scraper.Query) (string, error) {
	v, err := query.Values(searchParams{
		CheckIn:  q.CheckIn.String(),
		CheckOut: q.CheckOut.String(),
		Adults:   q.Guests,
		PriceMin: q.PriceMin,
		PriceMax: q.PriceMax,
	})
	if err != nil {
		return "", err
	}
	return baseURL + "/s/" + url.PathEscape(strings.TrimSpace(q.Location)) + "/homes?" + v.Encode(), nil
}

// Search drives pagination and detail-page enrichment for one query.
func (s *Scraper) Search(ctx context.Context, q scraper.Query) ([]*models.RawListing, error) {
	searchURL, err := SearchURL(q)
	if err != nil {
		return nil, fmt.Errorf("airbnb: build search url: %w", err)
	}

	chromeBin := findChromeBinary(s.opts.ChromeBin)
	s.logger.Debug("[airbnb] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	visited := utils.NewURLSet()
	var listings []*models.RawListing

	currentURL := searchURL
	for page := 1; page <= s.opts.PagesToScrape; page++ {
		s.logger.Info("[airbnb] Scraping page %d — URL: %s", page, currentURL)

		pageListings, nextURL, err := s.scrapePage(browserCtx, currentURL, page, visited)
		if err != nil {
			if len(listings) == 0 {
				return nil, fmt.Errorf("airbnb: page %d: %w", page, err)
			}
			s.logger.Error("[airbnb] Page %d failed: %v", page, err)
			break
		}
		if len(pageListings) == 0 {
			s.logger.Warn("[airbnb] Page %d returned 0 listings — stopping", page)
			break
		}

		s.enrichListings(browserCtx, pageListings)
		listings = append(listings, pageListings...)

		if nextURL == "" || page >= s.opts.PagesToScrape {
			break
		}
		currentURL = nextURL

		select {
		case <-ctx.Done():
			return listings, nil
		case <-time.After(time.Duration(s.opts.RateLimitMs) * time.Millisecond):
		}
	}

	s.logger.Info("[airbnb] Search complete — %d raw listings for %q", len(listings), q.Location)
	return listings, nil
}

type cardData struct {
	Title     string   `json:"title"`
	Price     string   `json:"price"`
	Location  string   `json:"location"`
	Rating    string   `json:"rating"`
	URL       string   `json:"url"`
	Lines     []string `json:"lines"`
	Amenities []string `json:"amenities"`
}

var (
	guestsRegexp   = regexp.MustCompile(`(?i)(\d+)\s+guests?`)
	bedroomsRegexp = regexp.MustCompile(`(?i)(\d+)\s+bedrooms?`)
	bathsRegexp    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s+(?:shared\s+|private\s+)?baths?`)
	reviewsRegexp  = regexp.MustCompile(`(?i)\((\d[\d,]*)\)|(\d[\d,]*)\s+reviews?`)
)

// capacity is what the card and overview text say about the space.
type capacity struct {
	guests   int
	bedrooms float64
	baths    float64
	reviews  int
}

func parseCapacity(lines []string) capacity {
	var c capacity
	for _, line := range lines {
		if m := guestsRegexp.FindStringSubmatch(line); m != nil && c.guests == 0 {
			c.guests, _ = strconv.Atoi(m[1])
		}
		if m := bedroomsRegexp.FindStringSubmatch(line); m != nil && c.bedrooms == 0 {
			c.bedrooms, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := bathsRegexp.FindStringSubmatch(line); m != nil && c.baths == 0 {
			c.baths, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := reviewsRegexp.FindStringSubmatch(line); m != nil && c.reviews == 0 {
			digits := m[1]
			if digits == "" {
				digits = m[2]
			}
			c.reviews, _ = strconv.Atoi(strings.ReplaceAll(digits, ",", ""))
		}
	}
	return c
}

// scrapePage loads a search results page and extracts listings.
func (s *Scraper) scrapePage(browserCtx context.Context, pageURL string, pageNum int, visited *utils.URLSet) ([]*models.RawListing, string, error) {
	var rawListings []*models.RawListing
	var nextURL string

	err := s.retry.Do(browserCtx, fmt.Sprintf("scrape-page-%d", pageNum), func(ctx context.Context) error {
		tabCtx, cancel := chromedp.NewContext(ctx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 90*time.Second)
		defer cancelTimeout()

		var cards []cardData
		var nextPageURL string

		err := chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(6*time.Second),

			// Scroll to load all cards
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(2*time.Second),

			chromedp.Evaluate(cardsScript(s.opts.ListingsPerPage), &cards),
			chromedp.Evaluate(nextPageScript, &nextPageURL),
		)
		if err != nil {
			return fmt.Errorf("chromedp page scrape: %w", err)
		}

		s.logger.Debug("[airbnb] Page %d — found %d cards", pageNum, len(cards))

		rawListings = rawListings[:0]
		for _, c := range cards {
			if c.URL == "" {
				continue
			}
			if !visited.Add(c.URL) {
				s.logger.Debug("[airbnb] Skipping duplicate: %s", c.URL)
				continue
			}
			rawListings = append(rawListings, cardToRaw(c, time.Now()))
		}

		nextURL = nextPageURL
		return nil
	})

	return rawListings, nextURL, err
}

func cardToRaw(c cardData, now time.Time) *models.RawListing {
	raw := &models.RawListing{
		ID:        roomID(c.URL),
		Title:     c.Title,
		RawPrice:  c.Price,
		Location:  c.Location,
		RawRating: c.Rating,
		URL:       canonicalRoomURL(c.URL),
		ScrapedAt: now,
		Platform:  platform,
	}
	applyDetails(raw, c)
	return raw
}

// applyDetails fills fields of raw that are still empty from c.
func applyDetails(raw *models.RawListing, c cardData) {
	if raw.Title == "" && c.Title != "" {
		raw.Title = c.Title
	}
	if raw.RawPrice == "" && c.Price != "" {
		raw.RawPrice = c.Price
	}
	if raw.Location == "" && c.Location != "" {
		raw.Location = c.Location
	}
	if raw.RawRating == "" && c.Rating != "" {
		raw.RawRating = c.Rating
	}
	capa := parseCapacity(c.Lines)
	if raw.MaxGuests == 0 {
		raw.MaxGuests = capa.guests
	}
	if raw.Bedrooms == 0 {
		raw.Bedrooms = capa.bedrooms
	}
	if raw.Bathrooms == 0 {
		raw.Bathrooms = capa.baths
	}
	if raw.ReviewsCount == 0 {
		raw.ReviewsCount = capa.reviews
	}
	if len(raw.Amenities) == 0 && len(c.Amenities) > 0 {
		raw.Amenities = c.Amenities
	}
}

// roomID extracts the numeric id from a /rooms/<id> link.
func roomID(link string) string {
	i := strings.Index(link, "/rooms/")
	if i < 0 {
		return ""
	}
	rest := link[i+len("/rooms/"):]
	end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// canonicalRoomURL drops tracking query parameters so the URL is a stable key.
func canonicalRoomURL(link string) string {
	if id := roomID(link); id != "" {
		return baseURL + "/rooms/" + id
	}
	return link
}

// needsDetails reports whether the card left out data the ranking or the
// preference model relies on.
func needsDetails(l *models.RawListing) bool {
	return l.Title == "" || l.RawPrice == "" || len(l.Amenities) == 0 ||
		(l.MaxGuests == 0 && l.Bedrooms == 0)
}

// enrichListings visits detail pages for listings whose card lacked data.
func (s *Scraper) enrichListings(browserCtx context.Context, listings []*models.RawListing) {
	pool := utils.NewWorkerPool(s.opts.MaxConcurrency, s.opts.RateLimitMs)
	for _, listing := range listings {
		l := listing
		if l.URL == "" || !needsDetails(l) {
			continue
		}

		pool.Submit(func() {
			details, err := s.scrapeDetailPage(browserCtx, l.URL)
			if err != nil {
				s.logger.Warn("[airbnb] Detail page failed for %s: %v", l.URL, err)
				return
			}
			applyDetails(l, details)
			s.logger.Debug("[airbnb] Enriched %s: %d amenities", l.URL, len(l.Amenities))
		})
	}
	pool.Wait()
}

func (s *Scraper) scrapeDetailPage(browserCtx context.Context, link string) (cardData, error) {
	var details cardData

	err := s.retry.Do(browserCtx, "detail-page", func(ctx context.Context) error {
		tabCtx, cancel := chromedp.NewContext(ctx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(link),
			chromedp.Sleep(4*time.Second),
			chromedp.Evaluate(detailScript, &details),
		)
	})
	return details, err
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
