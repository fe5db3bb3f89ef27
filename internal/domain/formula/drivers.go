package formula

import (
	"fmt"
	"sort"
	"strings"
)

// Driver score bounds on the 1-7 survey scale.
const (
	MinDriverScore = 1.0
	MaxDriverScore = 7.0
)

// Driver names as they appear on the wire.
const (
	Communication = "communication"
	Trust         = "trust"
	PsychSafety   = "psych_safety"
	GoalClarity   = "goal_clarity"
	Coordination  = "coordination"
	TMS           = "tms"
	TeamCognition = "team_cognition"
)

// driverAliases maps legacy survey keys onto canonical driver names.
var driverAliases = map[string]string{
	"comm_quality": Communication,
}

// DriverNames returns the seven canonical driver names in a stable order.
func DriverNames() []string {
	return []string{Communication, Trust, PsychSafety, GoalClarity, Coordination, TMS, TeamCognition}
}

// DriverScores holds the seven team-health driver scores.
type DriverScores struct {
	Communication float64 `json:"communication" yaml:"communication"`
	Trust         float64 `json:"trust" yaml:"trust"`
	PsychSafety   float64 `json:"psych_safety" yaml:"psych_safety"`
	GoalClarity   float64 `json:"goal_clarity" yaml:"goal_clarity"`
	Coordination  float64 `json:"coordination" yaml:"coordination"`
	TMS           float64 `json:"tms" yaml:"tms"`
	TeamCognition float64 `json:"team_cognition" yaml:"team_cognition"`
}

// UniformDrivers returns a score set with every driver set to v.
func UniformDrivers(v float64) DriverScores {
	return DriverScores{v, v, v, v, v, v, v}
}

// ParseDriverScores builds a DriverScores from a name->score map. Unknown
// names are rejected and all seven drivers must be present, so a typo can
// never silently turn into a zero score.
func ParseDriverScores(raw map[string]float64) (DriverScores, error) {
	var d DriverScores
	seen := make(map[string]bool, len(raw))
	for key, v := range raw {
		name := strings.ToLower(strings.TrimSpace(key))
		if canonical, ok := driverAliases[name]; ok {
			name = canonical
		}
		ptr := d.field(name)
		if ptr == nil {
			return DriverScores{}, driverError(key, v, "is not a known driver")
		}
		if seen[name] {
			return DriverScores{}, driverError(key, v, "is given more than once")
		}
		seen[name] = true
		*ptr = v
	}
	var missing []string
	for _, name := range DriverNames() {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return DriverScores{}, fmt.Errorf("%w: missing drivers %s", ErrInvalidDriverScore, strings.Join(missing, ", "))
	}
	return d, nil
}

// Map returns the scores keyed by canonical driver name.
func (d DriverScores) Map() map[string]float64 {
	out := make(map[string]float64, 7)
	for _, name := range DriverNames() {
		out[name] = *d.field(name)
	}
	return out
}

// Get returns the score for a canonical driver name.
func (d DriverScores) Get(name string) (float64, bool) {
	ptr := d.field(name)
	if ptr == nil {
		return 0, false
	}
	return *ptr, true
}

// With returns a copy of d with one driver replaced.
func (d DriverScores) With(name string, v float64) DriverScores {
	if ptr := d.field(name); ptr != nil {
		*ptr = v
	}
	return d
}

// Validate rejects NaN and infinite scores. Finite out-of-range scores are
// not an error; Sanitize clamps them.
func (d DriverScores) Validate() error {
	for _, name := range DriverNames() {
		v := *d.field(name)
		if !isFinite(v) {
			return driverError(name, v, "must be a finite number")
		}
	}
	return nil
}

// Sanitize clamps every score into [1, 7].
func (d DriverScores) Sanitize() DriverScores {
	return DriverScores{
		Communication: Clamp(d.Communication, MinDriverScore, MaxDriverScore),
		Trust:         Clamp(d.Trust, MinDriverScore, MaxDriverScore),
		PsychSafety:   Clamp(d.PsychSafety, MinDriverScore, MaxDriverScore),
		GoalClarity:   Clamp(d.GoalClarity, MinDriverScore, MaxDriverScore),
		Coordination:  Clamp(d.Coordination, MinDriverScore, MaxDriverScore),
		TMS:           Clamp(d.TMS, MinDriverScore, MaxDriverScore),
		TeamCognition: Clamp(d.TeamCognition, MinDriverScore, MaxDriverScore),
	}
}

// Mean is the arithmetic mean of the seven scores.
func (d DriverScores) Mean() float64 {
	sum := d.Communication + d.Trust + d.PsychSafety + d.GoalClarity + d.Coordination + d.TMS + d.TeamCognition
	return sum / 7
}

// Engagement is the average of trust and psychological safety.
func (d DriverScores) Engagement() float64 {
	return (d.Trust + d.PsychSafety) / 2
}

func (d *DriverScores) field(name string) *float64 {
	switch name {
	case Communication:
		return &d.Communication
	case Trust:
		return &d.Trust
	case PsychSafety:
		return &d.PsychSafety
	case GoalClarity:
		return &d.GoalClarity
	case Coordination:
		return &d.Coordination
	case TMS:
		return &d.TMS
	case TeamCognition:
		return &d.TeamCognition
	}
	return nil
}
