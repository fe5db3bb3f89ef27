// Package industry holds the static industry classification table that
// supplies the industry factor φ and turnover multiplier ρ.
package industry

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultName is the fallback classification.
const DefaultName = "Manufacturing"

var (
	// ErrUnknownDefault is returned when the default profile is not in the table.
	ErrUnknownDefault = errors.New("default industry not in table")
	// ErrInvalidProfile is returned for a profile with an empty name or bad factors.
	ErrInvalidProfile = errors.New("invalid industry profile")
)

// Profile is one industry classification.
type Profile struct {
	Name     string   `koanf:"name" json:"name" yaml:"name"`
	Phi      float64  `koanf:"phi" json:"phi" yaml:"phi"`
	Rho      float64  `koanf:"rho" json:"rho" yaml:"rho"`
	NAICS    []string `koanf:"naics" json:"naics,omitempty" yaml:"naics,omitempty"`
	Criteria string   `koanf:"criteria" json:"criteria,omitempty" yaml:"criteria,omitempty"`
}

func (p Profile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProfile)
	}
	for _, v := range []float64{p.Phi, p.Rho} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: %s has factor %g", ErrInvalidProfile, p.Name, v)
		}
	}
	return nil
}

// Profiles returns the built-in classification table.
func Profiles() []Profile {
	return []Profile{
		{Name: "Healthcare", Phi: 1.30, Rho: 1.25, NAICS: []string{"62"}, Criteria: "patient safety exposure, licensed-staff turnover"},
		{Name: "Financial Services", Phi: 1.25, Rho: 1.20, NAICS: []string{"52"}, Criteria: "regulatory exposure, error cost per transaction"},
		{Name: "Technology", Phi: 1.20, Rho: 1.15, NAICS: []string{"51", "54"}, Criteria: "knowledge concentration, replacement cost of engineers"},
		{Name: "Professional Services", Phi: 1.15, Rho: 1.10, NAICS: []string{"54"}, Criteria: "billable utilization, client-facing rework"},
		{Name: "Manufacturing", Phi: 1.00, Rho: 1.00, NAICS: []string{"31-33"}, Criteria: "baseline"},
		{Name: "Retail", Phi: 0.90, Rho: 0.95, NAICS: []string{"44-45"}, Criteria: "high baseline turnover, low replacement cost"},
		{Name: "Government", Phi: 0.85, Rho: 0.90, NAICS: []string{"92"}, Criteria: "low turnover, slow feedback on cost"},
	}
}

// Table resolves industry names to profiles.
type Table struct {
	byKey    map[string]Profile
	fallback Profile
}

// NewTable builds a table from profiles. defaultName must be one of them.
func NewTable(profiles []Profile, defaultName string) (*Table, error) {
	t := &Table{byKey: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
		t.byKey[key(p.Name)] = p
	}
	fallback, ok := t.byKey[key(defaultName)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefault, defaultName)
	}
	t.fallback = fallback
	return t, nil
}

// Default returns the built-in table with Manufacturing as fallback.
func Default() *Table {
	t, err := NewTable(Profiles(), DefaultName)
	if err != nil {
		panic(err) // built-in table is static
	}
	return t
}

// Lookup resolves name case-insensitively. Unknown or empty names return
// the fallback profile with found=false.
func (t *Table) Lookup(name string) (Profile, bool) {
	if p, ok := t.byKey[key(name)]; ok {
		return p, true
	}
	return t.fallback, false
}

// Fallback returns the profile used for unknown names.
func (t *Table) Fallback() Profile { return t.fallback }

// List returns every profile ordered by descending φ, then name.
func (t *Table) List() []Profile {
	out := make([]Profile, 0, len(t.byKey))
	for _, p := range t.byKey {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Phi != out[j].Phi {
			return out[i].Phi > out[j].Phi
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
