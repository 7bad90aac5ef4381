// Package scraper defines the listings lookup collaborator. Concrete
// providers live in subpackages.
package scraper

import (
	"context"

	"airbnb-bot/models"
)

// Query is what a provider is asked for. Dates are YYYY-MM-DD; zero price
// bounds mean "no bound".
type Query struct {
	Location  string
	CheckIn   models.Date
	CheckOut  models.Date
	Guests    int
	PriceMin  int
	PriceMax  int
	Amenities []string
}

// Provider searches a remote catalogue and returns unprocessed results.
type Provider interface {
	Search(ctx context.Context, q Query) ([]*models.RawListing, error)
	Name() string
}

// QueryFromCriteria builds a Query from completed criteria.
func QueryFromCriteria(c models.SearchCriteria) Query {
	return Query{
		Location:  c.Location,
		CheckIn:   c.CheckIn,
		CheckOut:  c.CheckOut,
		Guests:    c.GuestCount,
		PriceMin:  c.Price.Min,
		PriceMax:  c.Price.Max,
		Amenities: c.Amenities.Strings(),
	}
}
