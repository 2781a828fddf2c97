package domain

import (
	"strings"
	"time"
)

// DefaultPresetName is the built-in practice type used when a requested name is unknown.
const DefaultPresetName = "default"

// CommentKeyPrefix marks preset document keys that carry notes rather than presets.
const CommentKeyPrefix = "__COMMENT__"

// DefaultDances is the standard competition order.
var DefaultDances = []string{
	"Waltz", "Tango", "VWSlow", "VienneseWaltz", "Foxtrot", "QuickStep", "WCS",
	"Samba", "ChaCha", "Rumba", "PasoDoble", "JSlow", "Jive",
}

// Preset is a named bundle of playlist generation parameters (a practice type).
type Preset struct {
	// Name is the practice type name shown to the user
	Name string

	// Dances is the play order; each name is also a music subfolder
	Dances []string

	// NumSelections is the songs-per-dance count before adjustment
	NumSelections int

	// PlayAllSongs selects every file of each dance
	PlayAllSongs bool

	// AutoUpdate regenerates and continues when the playlist ends
	AutoUpdate bool

	// PlaySingleSong stops after each track instead of advancing
	PlaySingleSong bool

	// RandomizePlaylist draws songs at random instead of in path order
	RandomizePlaylist bool

	// AdjustSongCounts enables DanceAdjustments
	AdjustSongCounts bool

	// DanceAdjustments maps a dance name to its count rule
	DanceAdjustments map[string]CountRule

	// DanceMaxPlaytimes maps a dance name to its play limit
	DanceMaxPlaytimes map[string]time.Duration

	// BuiltIn is true when the preset comes from the read-only layer
	BuiltIn bool
}

// FallbackPreset is used when neither layer defines the default practice type.
func FallbackPreset() Preset {
	dances := make([]string, len(DefaultDances))
	copy(dances, DefaultDances)
	return Preset{
		Name:              DefaultPresetName,
		Dances:            dances,
		NumSelections:     2,
		AutoUpdate:        true,
		RandomizePlaylist: true,
		DanceAdjustments:  map[string]CountRule{},
		DanceMaxPlaytimes: map[string]time.Duration{},
		BuiltIn:           true,
	}
}

// RuleFor returns the count rule for dance, or nil when adjustments are off
// or the dance has no rule.
func (p Preset) RuleFor(dance string) CountRule {
	if !p.AdjustSongCounts {
		return nil
	}
	return p.DanceAdjustments[dance]
}

// MaxPlaytimeFor returns the dance-specific play limit, or fallback.
func (p Preset) MaxPlaytimeFor(dance string, fallback time.Duration) time.Duration {
	if d, ok := p.DanceMaxPlaytimes[dance]; ok && d > 0 {
		return d
	}
	return fallback
}

// Normalize fills the standard adjustments when counts are to be adjusted
// but no rules were given.
func (p Preset) Normalize() Preset {
	out := p.Clone()
	if out.AdjustSongCounts && len(out.DanceAdjustments) == 0 {
		out.DanceAdjustments = DefaultDanceAdjustments()
	}
	return out
}

// Clone returns a deep copy of the preset.
func (p Preset) Clone() Preset {
	out := p
	out.Dances = append([]string(nil), p.Dances...)

	out.DanceAdjustments = make(map[string]CountRule, len(p.DanceAdjustments))
	for dance, rule := range p.DanceAdjustments {
		out.DanceAdjustments[dance] = CloneCountRule(rule)
	}

	out.DanceMaxPlaytimes = make(map[string]time.Duration, len(p.DanceMaxPlaytimes))
	for dance, d := range p.DanceMaxPlaytimes {
		out.DanceMaxPlaytimes[dance] = d
	}
	return out
}

// ValidateDanceName rejects names that do not denote one folder under the
// music root.
func ValidateDanceName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return NewValidationError("dances", name, "dance name cannot be empty")
	case trimmed == "." || trimmed == ".." || strings.ContainsAny(name, `/\`):
		return NewValidationError("dances", name, "dance name must be a single folder name")
	}
	return nil
}

// Validate checks the preset for values the editor must reject.
func (p Preset) Validate() error {
	if p.Name == "" {
		return NewValidationError("name", p.Name, "practice type name cannot be empty")
	}
	if strings.HasPrefix(p.Name, CommentKeyPrefix) {
		return NewValidationError("name", p.Name, "name is reserved for comments")
	}
	if len(p.Dances) == 0 {
		return NewValidationError("dances", p.Dances, "at least one dance is required")
	}
	for _, dance := range p.Dances {
		if err := ValidateDanceName(dance); err != nil {
			return err
		}
	}
	if p.NumSelections < 0 {
		return NewValidationError("num_selections", p.NumSelections, "must not be negative")
	}
	for dance, d := range p.DanceMaxPlaytimes {
		if d <= 0 {
			return NewValidationError("dance_max_playtimes."+dance, d, "must be positive")
		}
	}
	return nil
}
