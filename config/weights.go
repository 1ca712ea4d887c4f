package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"volunteermatch/internal/domain"
)

var validate = validator.New()

// LoadScoringWeights reads scoring weights from a YAML file. Fields missing from the file
// keep their defaults. An empty path returns the defaults.
func LoadScoringWeights(path string) (domain.ScoringWeights, error) {
	w := domain.DefaultScoringWeights()
	if path == "" {
		return w, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("failed to read weights file: %w", err)
	}
	return ParseScoringWeights(data)
}

// ParseScoringWeights decodes YAML over the default weights and validates the result.
func ParseScoringWeights(data []byte) (domain.ScoringWeights, error) {
	w := domain.DefaultScoringWeights()
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("failed to parse weights file: %w", err)
	}
	if err := ValidateScoringWeights(w); err != nil {
		return w, err
	}
	return w, nil
}

// ValidateScoringWeights checks field ranges and tier ordering.
func ValidateScoringWeights(w domain.ScoringWeights) error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("weights validation failed: %w", err)
	}
	return nil
}
