// Package allocation defines the risk-profile allocation presets.
package allocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/advisor/internal/domain"
)

// Target is one asset's share of a profile.
type Target struct {
	Asset  domain.AssetID `json:"asset"`
	Weight float64        `json:"weight"`
}

// Profile is a named set of target weights. Targets order is the asset order used downstream.
type Profile struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Targets     []Target `json:"targets"`
}

// Assets returns the profile's assets in target order.
func (p Profile) Assets() []domain.AssetID {
	out := make([]domain.AssetID, len(p.Targets))
	for i, t := range p.Targets {
		out[i] = t.Asset
	}
	return out
}

// Weights returns the profile's weights in target order.
func (p Profile) Weights() domain.WeightVector {
	out := make(domain.WeightVector, len(p.Targets))
	for i, t := range p.Targets {
		out[i] = t.Weight
	}
	return out
}

// Validate checks the profile has distinct assets and a valid weight vector.
func (p Profile) Validate() error {
	seen := make(map[domain.AssetID]bool, len(p.Targets))
	for _, t := range p.Targets {
		if t.Asset == "" {
			return fmt.Errorf("profile %s: %w: empty asset id", p.Name, domain.ErrInvalidWeights)
		}
		if seen[t.Asset] {
			return fmt.Errorf("profile %s: %w: %s", p.Name, domain.ErrDuplicateAsset, t.Asset)
		}
		seen[t.Asset] = true
	}
	if err := p.Weights().Validate(len(p.Targets)); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return nil
}

// Built-in profiles, a bond ETF (AGG) against a broad equity ETF (SPY).
var (
	Conservative = Profile{
		Name:        "Conservative",
		Description: "Capital preservation with modest growth",
		Targets:     []Target{{Asset: "AGG", Weight: 0.70}, {Asset: "SPY", Weight: 0.30}},
	}
	Moderate = Profile{
		Name:        "Moderate",
		Description: "Balanced growth and stability",
		Targets:     []Target{{Asset: "AGG", Weight: 0.50}, {Asset: "SPY", Weight: 0.50}},
	}
	Aggressive = Profile{
		Name:        "Aggressive",
		Description: "Long-term growth with higher volatility",
		Targets:     []Target{{Asset: "AGG", Weight: 0.20}, {Asset: "SPY", Weight: 0.80}},
	}
)

var profiles = map[string]Profile{
	"conservative": Conservative,
	"moderate":     Moderate,
	"aggressive":   Aggressive,
}

// Get looks a profile up by name, case-insensitively.
func Get(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", domain.ErrUnknownProfile, name)
	}
	return p, nil
}

// Profiles returns all built-in profiles, ordered from least to most equity exposure.
func Profiles() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return equityShare(out[i]) < equityShare(out[j])
	})
	return out
}

func equityShare(p Profile) float64 {
	for _, t := range p.Targets {
		if t.Asset == "SPY" {
			return t.Weight
		}
	}
	return 0
}
