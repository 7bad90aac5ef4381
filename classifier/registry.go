package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"airbnb-bot/models"
)

// Registry holds every user's Model. Access is serialised behind a single
// lock that callers acquire with a context, so a stuck caller can never
// block others past their own deadline.
type Registry struct {
	lock   chan struct{}
	models map[string]*Model
}

func NewRegistry() *Registry {
	return &Registry{
		lock:   make(chan struct{}, 1),
		models: make(map[string]*Model),
	}
}

func (r *Registry) acquire(ctx context.Context) error {
	select {
	case r.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("classifier: %w", ctx.Err())
	}
}

func (r *Registry) release() { <-r.lock }

// PartialFit feeds one labelled example into userID's model.
func (r *Registry) PartialFit(ctx context.Context, userID string, f models.Features, liked bool) error {
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	m, ok := r.models[userID]
	if !ok {
		m = &Model{}
		r.models[userID] = m
	}
	m.PartialFit(f, liked)
	return nil
}

// Score returns P(like) for f under userID's model. trained is false
// until the model has seen both a like and a dislike.
func (r *Registry) Score(ctx context.Context, userID string, f models.Features) (score float64, trained bool, err error) {
	if err := r.acquire(ctx); err != nil {
		return 0, false, err
	}
	defer r.release()

	m, ok := r.models[userID]
	if !ok || !m.Trained() {
		return 0.5, false, nil
	}
	return m.Score(f), true, nil
}

type snapshot struct {
	Version int               `json:"version"`
	Models  map[string]*Model `json:"models"`
}

// Save writes all models to path atomically.
func (r *Registry) Save(ctx context.Context, path string) error {
	if err := r.acquire(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(snapshot{Version: 1, Models: r.models})
	r.release()
	if err != nil {
		return fmt.Errorf("classifier: encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("classifier: create model dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("classifier: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("classifier: rename: %w", err)
	}
	return nil
}

// Load replaces the registry contents with the models stored at path.
// A missing file leaves the registry empty and is not an error.
func (r *Registry) Load(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("classifier: read: %w", err)
	}

	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("classifier: decode %s: %w", path, err)
	}
	if s.Models == nil {
		s.Models = make(map[string]*Model)
	}

	if err := r.acquire(ctx); err != nil {
		return err
	}
	r.models = s.Models
	r.release()
	return nil
}

// Len is the number of users with a model.
func (r *Registry) Len() int {
	r.lock <- struct{}{}
	defer r.release()
	return len(r.models)
}
