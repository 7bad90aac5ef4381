package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"airbnb-bot/metrics"
	"airbnb-bot/models"
	"airbnb-bot/scraper"
	"airbnb-bot/storage"
	"airbnb-bot/utils"
)

// TopN is the number of listings shown per search.
const TopN = 5

// SearchService runs a listing search end to end: cache, provider with
// timeout and retry, cleaning, and price-ascending ranking.
type SearchService struct {
	provider scraper.Provider
	cleaner  *Cleaner
	cache    storage.Cache
	cacheTTL time.Duration
	timeout  time.Duration
	retry    *utils.RetryConfig
	rawDump  storage.RawListingWriter
	filter   bool
	metrics  *metrics.Metrics
	logger   *utils.Logger
}

type SearchOptions struct {
	CacheTTL   time.Duration
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// RawDump, when set, receives every unprocessed provider result.
	RawDump storage.RawListingWriter
	// FilterAmenities drops listings whose amenity list lacks a selected key.
	FilterAmenities bool
	Metrics         *metrics.Metrics
}

func NewSearchService(provider scraper.Provider, cache storage.Cache, opts SearchOptions, logger *utils.Logger) *SearchService {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &SearchService{
		provider: provider,
		cleaner:  NewCleaner(logger),
		cache:    cache,
		cacheTTL: opts.CacheTTL,
		timeout:  opts.Timeout,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   opts.RetryDelay,
			Logger:      logger,
		},
		rawDump: opts.RawDump,
		filter:  opts.FilterAmenities,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// CacheKey identifies a search by its normalised criteria.
func CacheKey(q scraper.Query) string {
	amenities := append([]string(nil), q.Amenities...)
	sort.Strings(amenities)
	return strings.Join([]string{
		"search",
		strings.ToLower(normaliseText(q.Location)),
		q.CheckIn.String(),
		q.CheckOut.String(),
		strconv.Itoa(q.Guests),
		strconv.Itoa(q.PriceMin),
		strconv.Itoa(q.PriceMax),
		strings.Join(amenities, ","),
	}, ":")
}

// Search returns at most TopN listings sorted by ascending price. Provider
// failures, including timeouts, are wrapped in ErrCollaborator.
func (s *SearchService) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Listing, error) {
	q := scraper.QueryFromCriteria(criteria)
	key := CacheKey(q)

	var cached []*models.Listing
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("[search] cache read failed for %s: %v", key, err)
	} else if found {
		s.logger.Debug("[search] cache hit %s", key)
		s.metrics.Search("cached", 0)
		return cached, nil
	}

	start := time.Now()
	searchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var raw []*models.RawListing
	err := s.retry.Do(searchCtx, s.provider.Name()+"-search", func(ctx context.Context) error {
		var err error
		raw, err = s.provider.Search(ctx, q)
		return err
	})
	if err != nil {
		s.metrics.Search("error", time.Since(start))
		s.logger.Error("[search] %s search for %q failed: %v", s.provider.Name(), q.Location, err)
		return nil, fmt.Errorf("%w: search: %w", ErrCollaborator, err)
	}

	if s.rawDump != nil {
		if err := s.rawDump.WriteRaw(q.Location, raw); err != nil {
			s.logger.Warn("[search] raw dump failed: %v", err)
		}
	}

	cleaned := s.cleaner.Clean(raw)
	if s.filter {
		cleaned = FilterAmenities(cleaned, criteria.Amenities)
	}
	listings := Rank(cleaned, TopN)

	outcome := "ok"
	if len(listings) == 0 {
		outcome = "empty"
	}
	s.metrics.Search(outcome, time.Since(start))

	if err := s.cache.Set(ctx, key, listings, s.cacheTTL); err != nil {
		s.logger.Warn("[search] cache write failed for %s: %v", key, err)
	}
	return listings, nil
}

// Rank sorts listings by ascending price, keeping provider order for ties,
// and keeps the first n.
func Rank(listings []*models.Listing, n int) []*models.Listing {
	sorted := append([]*models.Listing(nil), listings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
