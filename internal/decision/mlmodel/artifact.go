package mlmodel

import (
	"encoding/json"
	"os"
)

// Artifact is the trained model payload the engine consumes: a linear
// scorer over named features plus display labels for attribution
// text. Training itself is out of scope; this package only loads and
// evaluates an already-fitted artifact.
type Artifact struct {
	Version string             `json:"version"`
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
	Labels  map[string]string  `json:"labels"`
}

// LoadArtifact reads and parses a model artifact from path.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}

	return &a, nil
}

// label returns the human-readable name for a feature, falling back
// to the raw feature key when the artifact carries no label for it.
func (a *Artifact) label(feature string) string {
	if l, ok := a.Labels[feature]; ok {
		return l
	}
	return feature
}
