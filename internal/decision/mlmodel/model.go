// Package mlmodel implements the probabilistic risk analyzer: a
// calibrated probability over a deterministic feature vector plus the
// top contributing features, evaluated against an artifact loaded
// once at startup and held read-only for the life of the process.
package mlmodel

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
)

const topKAttributions = 5

// Model wraps a loaded Artifact for concurrent read access. A Model
// with no artifact reports itself unavailable rather than panicking;
// the aggregator is expected to proceed without it per §4.2.
type Model struct {
	mu       sync.RWMutex
	artifact *Artifact
	log      logger.Logger
}

// NewModel attempts to load the artifact at path. A load failure is
// logged and leaves the model unavailable rather than returned as an
// error, since the service must start even without a model.
func NewModel(path string, log logger.Logger) *Model {
	m := &Model{log: log}

	artifact, err := LoadArtifact(path)
	if err != nil {
		log.Warn("risk model artifact unavailable", logger.Field{Key: "path", Value: path}, logger.Field{Key: "error", Value: err.Error()})
		return m
	}

	m.mu.Lock()
	m.artifact = artifact
	m.mu.Unlock()

	log.Info("risk model artifact loaded", logger.Field{Key: "version", Value: artifact.Version})
	return m
}

// Available reports whether a usable artifact is currently loaded.
func (m *Model) Available() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.artifact != nil
}

// Reload swaps in a freshly loaded artifact, e.g. after a deployment.
// The previous artifact, if any, is discarded atomically under the
// write lock so concurrent Predict calls never observe a torn state.
func (m *Model) Reload(path string) error {
	artifact, err := LoadArtifact(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.artifact = artifact
	m.mu.Unlock()
	return nil
}

// Predict scores a case's feature vector and returns its calibrated
// probability, risk tier and top-k feature attributions. Returns
// errorx.Unavailable if no artifact is loaded.
func (m *Model) Predict(features map[string]float64) (*model.ModelResult, error) {
	m.mu.RLock()
	artifact := m.artifact
	m.mu.RUnlock()

	if artifact == nil {
		return nil, errorx.New(errorx.Unavailable, "risk model artifact not loaded")
	}

	z := artifact.Bias
	contributions := make([]model.FeatureAttribution, 0, len(features))

	for feature, value := range features {
		weight, ok := artifact.Weights[feature]
		if !ok {
			continue
		}
		contribution := weight * value
		z += contribution
		contributions = append(contributions, model.FeatureAttribution{
			Feature:      feature,
			Value:        value,
			Contribution: contribution,
			Label:        artifact.label(feature),
		})
	}

	probability := sigmoid(z)

	sort.Slice(contributions, func(i, j int) bool {
		ai, aj := math.Abs(contributions[i].Contribution), math.Abs(contributions[j].Contribution)
		if ai != aj {
			return ai > aj
		}
		return contributions[i].Feature < contributions[j].Feature
	})
	if len(contributions) > topKAttributions {
		contributions = contributions[:topKAttributions]
	}

	return &model.ModelResult{
		Available:    true,
		Probability:  probability,
		Level:        tierForProbability(probability),
		Attributions: contributions,
		ShapText:     shapText(contributions),
		ModelVersion: artifact.Version,
	}, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// tierForProbability maps a calibrated probability to a tier using
// the fixed bucket boundaries: [0,.30) low, [.30,.55) moderate,
// [.55,.80) high, [.80,1.0] critical.
func tierForProbability(p float64) model.Tier {
	switch {
	case p >= 0.80:
		return model.TierCritical
	case p >= 0.55:
		return model.TierHigh
	case p >= 0.30:
		return model.TierModerate
	default:
		return model.TierLow
	}
}

// shapText joins the top two attributions into one sentence.
func shapText(contributions []model.FeatureAttribution) string {
	if len(contributions) == 0 {
		return ""
	}
	if len(contributions) == 1 {
		return fmt.Sprintf("%s was the main driver of this prediction.", contributions[0].Label)
	}
	return fmt.Sprintf("%s and %s were the main drivers of this prediction.",
		contributions[0].Label, contributions[1].Label)
}
