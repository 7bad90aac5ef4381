package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"airbnb-bot/models"
	"airbnb-bot/storage"
	"airbnb-bot/utils"
)

// progressSaturation is the feedback count at which learning progress is full.
const progressSaturation = 10

// ProfileService owns the UserProfile update operations and the stats summary.
type ProfileService struct {
	users    storage.UserRepository
	feedback storage.FeedbackRepository
	logger   *utils.Logger
	now      func() time.Time
}

func NewProfileService(users storage.UserRepository, feedback storage.FeedbackRepository, logger *utils.Logger) *ProfileService {
	return &ProfileService{users: users, feedback: feedback, logger: logger, now: time.Now}
}

// Touch resolves the user, creating the profile on first contact, and
// refreshes its last-active time.
func (s *ProfileService) Touch(ctx context.Context, userID string) (*models.UserProfile, bool, error) {
	now := s.now()
	u, created, err := s.users.GetOrCreate(ctx, userID, now)
	if err != nil {
		return nil, false, fmt.Errorf("%w: resolve user: %w", ErrCollaborator, err)
	}
	if !created {
		u.LastActive = now
		if err := s.users.Update(ctx, u); err != nil {
			return nil, false, fmt.Errorf("%w: update user: %w", ErrCollaborator, err)
		}
	}
	return u, created, nil
}

// RecordSearch counts a completed search and remembers its parameters.
func (s *ProfileService) RecordSearch(ctx context.Context, userID string, c models.SearchCriteria) error {
	now := s.now()
	u, _, err := s.users.GetOrCreate(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("%w: resolve user: %w", ErrCollaborator, err)
	}

	u.SearchCount++
	u.Preferences.Merge(models.PreferencesFromCriteria(c))
	u.LastActive = now
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("%w: update user: %w", ErrCollaborator, err)
	}
	s.logger.Debug("[profile] user %s search #%d", userID, u.SearchCount)
	return nil
}

// Summary aggregates the user's feedback history. It never mutates state
// and succeeds for users with no history.
func (s *ProfileService) Summary(ctx context.Context, userID string) (models.ProfileSummary, error) {
	var profile models.UserProfile
	u, err := s.users.Get(ctx, userID)
	switch {
	case err == nil:
		profile = *u
	case errors.Is(err, storage.ErrNotFound):
		profile = models.UserProfile{StableID: userID}
	default:
		return models.ProfileSummary{}, fmt.Errorf("%w: get user: %w", ErrCollaborator, err)
	}

	records, err := s.feedback.ListFeedback(ctx, userID)
	if err != nil {
		return models.ProfileSummary{}, fmt.Errorf("%w: list feedback: %w", ErrCollaborator, err)
	}
	return Summarize(profile, records), nil
}

// Summarize computes the stats summary from a profile and its feedback rows.
func Summarize(profile models.UserProfile, records []models.FeedbackRecord) models.ProfileSummary {
	summary := models.ProfileSummary{
		SearchCount: profile.SearchCount,
		Total:       len(records),
		Preferences: profile.Preferences,
	}
	if len(records) == 0 {
		return summary
	}

	var likedPrice, dislikedPrice, bedrooms, bathrooms, ratings []float64
	for _, r := range records {
		if r.Liked {
			summary.Liked++
			likedPrice = append(likedPrice, r.Features.Price)
			bedrooms = append(bedrooms, r.Features.Bedrooms)
			bathrooms = append(bathrooms, r.Features.Bathrooms)
			ratings = append(ratings, r.Features.Rating)
		} else {
			summary.Disliked++
			dislikedPrice = append(dislikedPrice, r.Features.Price)
		}
	}

	if len(likedPrice) > 0 && len(dislikedPrice) > 0 {
		summary.HasPriceComparison = true
		summary.AvgLikedPrice = mean(likedPrice)
		summary.AvgDislikedPrice = mean(dislikedPrice)
	}
	if summary.Liked > 0 {
		summary.HasLikedStats = true
		summary.AvgLikedBedrooms = mean(bedrooms)
		summary.AvgLikedBathrooms = mean(bathrooms)
		summary.AvgLikedRating = mean(ratings)
	}

	summary.LearningProgress = math.Min(float64(summary.Total)/progressSaturation, 1)
	return summary
}

// mean is rounded to two decimals; empty input yields 0.
func mean(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return round2(m)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
