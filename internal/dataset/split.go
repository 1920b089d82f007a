// Package dataset partitions parsed records into train/validation/test
// splits and materializes the Donut directory layout.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split names one of the three dataset partitions. The values double
// as output directory names.
type Split string

const (
	Train      Split = "train"
	Validation Split = "validation"
	Test       Split = "test"
)

// Splits returns all splits in their canonical write order.
func Splits() []Split {
	return []Split{Train, Validation, Test}
}

// Ratios holds the partition proportions. They must sum to 1.
type Ratios struct {
	Train      float64
	Validation float64
	Test       float64
}

// DefaultRatios is the 70/15/15 partition the dataset ships with.
func DefaultRatios() Ratios {
	return Ratios{Train: 0.7, Validation: 0.15, Test: 0.15}
}

// Validate checks the ratios form a complete partition.
func (r Ratios) Validate() error {
	for _, v := range []float64{r.Train, r.Validation, r.Test} {
		if v < 0 || v > 1 {
			return fmt.Errorf("split ratio %v is outside [0, 1]", v)
		}
	}
	if math.Abs(r.Train+r.Validation+r.Test-1) > 1e-9 {
		return fmt.Errorf("split ratios must sum to 1, got %v", r.Train+r.Validation+r.Test)
	}
	return nil
}

// Assignment maps every input name to exactly one split.
type Assignment struct {
	Names map[Split][]string
}

// Total returns the number of assigned names across all splits.
func (a *Assignment) Total() int {
	n := 0
	for _, names := range a.Names {
		n += len(names)
	}
	return n
}

// Lookup inverts the assignment into a name → split index.
func (a *Assignment) Lookup() map[string]Split {
	idx := make(map[string]Split, a.Total())
	for split, names := range a.Names {
		for _, name := range names {
			idx[name] = split
		}
	}
	return idx
}

// Assign partitions names into splits. The input is sorted before a
// seeded shuffle, so a fixed seed always yields the same assignment
// regardless of input order. Train and validation take floor(n*ratio)
// names each; test takes the remainder, so the union is always the
// full input and the splits are pairwise disjoint.
func Assign(names []string, ratios Ratios, seed int64) (*Assignment, error) {
	if err := ratios.Validate(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.New("no records to split")
	}

	shuffled := make([]string, len(names))
	copy(shuffled, names)
	sort.Strings(shuffled)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	trainCount := int(float64(len(shuffled)) * ratios.Train)
	valCount := int(float64(len(shuffled)) * ratios.Validation)

	return &Assignment{
		Names: map[Split][]string{
			Train:      shuffled[:trainCount],
			Validation: shuffled[trainCount : trainCount+valCount],
			Test:       shuffled[trainCount+valCount:],
		},
	}, nil
}
