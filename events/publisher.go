// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"airbnb-bot/models"
	"airbnb-bot/utils"
)

const (
	FeedbackRecordedSubject = "feedback.recorded"
	SearchCompletedSubject  = "search.completed"
)

// FeedbackRecorded is emitted after a feedback row has been persisted.
type FeedbackRecorded struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	ListingID string          `json:"listing_id"`
	Liked     bool            `json:"liked"`
	Features  models.Features `json:"features"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewFeedbackRecorded(rec models.FeedbackRecord) FeedbackRecorded {
	return FeedbackRecorded{
		ID:        rec.ID,
		UserID:    rec.UserID,
		ListingID: rec.ListingID,
		Liked:     rec.Liked,
		Features:  rec.Features,
		CreatedAt: rec.CreatedAt,
	}
}

// SearchCompleted is emitted after a search produced results.
type SearchCompleted struct {
	UserID     string    `json:"user_id"`
	Location   string    `json:"location"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Guests     int       `json:"guests"`
	ListingIDs []string  `json:"listing_ids"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	PublishFeedback(ctx context.Context, e FeedbackRecorded) error
	PublishSearch(ctx context.Context, e SearchCompleted) error
	Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishFeedback(context.Context, FeedbackRecorded) error { return nil }
func (NopPublisher) PublishSearch(context.Context, SearchCompleted) error    { return nil }
func (NopPublisher) Close()                                                  {}

// NATSPublisher sends JSON-encoded events over core NATS.
type NATSPublisher struct {
	nc      *nats.Conn
	publish func(subject string, data []byte) error
	logger  *utils.Logger
}

func NewNATSPublisher(url string, connectTimeout time.Duration, logger *utils.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("airbnb-bot"),
		nats.Timeout(connectTimeout),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("[events] NATS error: %v", err)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("[events] NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("[events] NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("[events] NATS disconnected: %v", err)
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: connect to NATS: %w", err)
	}
	logger.Info("[events] connected to NATS at %s", nc.ConnectedUrl())

	return &NATSPublisher{nc: nc, publish: nc.Publish, logger: logger}, nil
}

// New returns a NATS publisher when url is set, or a NopPublisher when it is
// empty or the server is unreachable.
func New(url string, logger *utils.Logger) Publisher {
	if url == "" {
		return NopPublisher{}
	}
	p, err := NewNATSPublisher(url, 5*time.Second, logger)
	if err != nil {
		logger.Warn("[events] %v; events disabled", err)
		return NopPublisher{}
	}
	return p
}

func (p *NATSPublisher) PublishFeedback(_ context.Context, e FeedbackRecorded) error {
	return p.send(FeedbackRecordedSubject, e)
}

func (p *NATSPublisher) PublishSearch(_ context.Context, e SearchCompleted) error {
	return p.send(SearchCompletedSubject, e)
}

func (p *NATSPublisher) send(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", subject, err)
	}
	if err := p.publish(subject, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	p.logger.Debug("[events] published %s", subject)
	return nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
