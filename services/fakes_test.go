package services

import (
	"context"
	"errors"
	"sync"

	"airbnb-bot/models"
	"airbnb-bot/scraper"
)

type fakeProvider struct {
	mu      sync.Mutex
	results []*models.RawListing
	err     error
	calls   []scraper.Query
	block   bool
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Search(ctx context.Context, q scraper.Query) ([]*models.RawListing, error) {
	p.mu.Lock()
	p.calls = append(p.calls, q)
	p.mu.Unlock()

	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.results, p.err
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fit struct {
	userID string
	f      models.Features
	liked  bool
}

type fakeClassifier struct {
	mu   sync.Mutex
	fits []fit
	err  error
}

func (c *fakeClassifier) PartialFit(_ context.Context, userID string, f models.Features, liked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.fits = append(c.fits, fit{userID, f, liked})
	return nil
}

func (c *fakeClassifier) Score(context.Context, string, models.Features) (float64, bool, error) {
	return 0.5, false, nil
}

var errBroken = errors.New("broken")

// brokenFeedback fails every append.
type brokenFeedback struct{}

func (brokenFeedback) AppendFeedback(context.Context, models.FeedbackRecord) error { return errBroken }
func (brokenFeedback) ListFeedback(context.Context, string) ([]models.FeedbackRecord, error) {
	return nil, errBroken
}
