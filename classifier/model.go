// Package classifier implements an incremental multinomial naive Bayes
// binary classifier over listing features, with one model per user.
package classifier

import (
	"math"

	"airbnb-bot/models"
)

const (
	numFeatures = 7
	alpha       = 1.0
)

// Model is one user's like/dislike classifier. Features are min-max
// scaled with running bounds so every input is non-negative.
type Model struct {
	// FeatureCounts[c][i] is the summed scaled value of feature i over
	// examples of class c (0 dislike, 1 like).
	FeatureCounts [2][numFeatures]float64 `json:"feature_counts"`
	ClassCounts   [2]int                  `json:"class_counts"`
	Min           [numFeatures]float64    `json:"min"`
	Max           [numFeatures]float64    `json:"max"`
	Seen          bool                    `json:"seen"`
}

// Trained reports whether both classes have been observed.
func (m *Model) Trained() bool {
	return m.ClassCounts[0] > 0 && m.ClassCounts[1] > 0
}

// Total is the number of examples fitted so far.
func (m *Model) Total() int {
	return m.ClassCounts[0] + m.ClassCounts[1]
}

// PartialFit adds one example.
func (m *Model) PartialFit(f models.Features, liked bool) {
	x := f.Vector()
	m.observe(x)

	c := 0
	if liked {
		c = 1
	}
	for i, v := range m.scale(x) {
		m.FeatureCounts[c][i] += v
	}
	m.ClassCounts[c]++
}

// Score returns P(like | f). An untrained model returns 0.5.
func (m *Model) Score(f models.Features) float64 {
	if !m.Trained() {
		return 0.5
	}
	x := m.scale(f.Vector())
	total := float64(m.Total())

	var logp [2]float64
	for c := 0; c < 2; c++ {
		logp[c] = math.Log((float64(m.ClassCounts[c]) + 1) / (total + 2))

		var sum float64
		for _, n := range m.FeatureCounts[c] {
			sum += n
		}
		denom := sum + alpha*numFeatures
		for i, v := range x {
			logp[c] += v * math.Log((m.FeatureCounts[c][i]+alpha)/denom)
		}
	}

	// P(like) = 1 / (1 + exp(logp0 - logp1)), computed stably.
	d := logp[0] - logp[1]
	if d > 0 {
		e := math.Exp(-d)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(d))
}

func (m *Model) observe(x []float64) {
	if !m.Seen {
		for i, v := range x {
			m.Min[i], m.Max[i] = v, v
		}
		m.Seen = true
		return
	}
	for i, v := range x {
		if v < m.Min[i] {
			m.Min[i] = v
		}
		if v > m.Max[i] {
			m.Max[i] = v
		}
	}
}

// scale maps x into [0,1] using the running bounds; values outside the
// observed range are clamped and degenerate ranges map to 0.
func (m *Model) scale(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		span := m.Max[i] - m.Min[i]
		if span <= 0 {
			continue
		}
		s := (v - m.Min[i]) / span
		switch {
		case s < 0:
			s = 0
		case s > 1:
			s = 1
		}
		out[i] = s
	}
	return out
}
