package utils

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"nodenet/m"
)

// Config holds training configuration
type Config struct {
	Architecture []int
	DataPath     string
	Header       bool
	Epochs       int
	LearningRate float64
	DecayEvery   int
	Decay        float64
	Lambda       float64
	Loss         string
	Activation   string
	Init         string
	Seed         uint64
	Intelligent  bool
	Online       bool
	Normalize    bool
	Split        bool
	LogN         int
}

// ParseArchitecture parses an architecture string such as "2 2 1" into layer
// sizes, input layer first.
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.Fields(archStr)
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		arch[i] = n
	}
	return arch, nil
}

// ValidateConfig validates training configuration
func ValidateConfig(config *Config) error {
	if len(config.Architecture) < 2 {
		return errors.New("architecture must have at least 2 layers (input and output)")
	}
	for i, size := range config.Architecture {
		if size <= 0 {
			return errors.Errorf("layer %d must have a positive size, got %d", i, size)
		}
	}

	if config.Epochs <= 0 {
		return errors.New("epochs must be positive")
	}
	if config.LearningRate < 0 {
		return errors.New("learning rate must not be negative")
	}
	if config.Decay <= 0 {
		return errors.New("decay factor must be positive")
	}
	if config.Lambda < 0 {
		return errors.New("lambda must not be negative")
	}
	if _, ok := m.LossLookup[config.Loss]; !ok {
		return errors.Errorf("unknown loss %q", config.Loss)
	}
	if _, ok := m.ActivationLookup[config.Activation]; !ok {
		return errors.Errorf("unknown activation %q", config.Activation)
	}
	if _, ok := m.InitializerFor(config.Init, config.Seed); !ok {
		return errors.Errorf("unknown initializer %q", config.Init)
	}

	if config.Split && (config.LogN < 12 || config.LogN > 16) {
		return errors.Errorf("logN must be within [12, 16], got %d", config.LogN)
	}

	return nil
}
