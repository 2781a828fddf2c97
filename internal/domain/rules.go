package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CountRule transforms a preset's songs-per-dance number into a dance-specific count.
// The set of rules is closed: NMinusOne, CapAt and Mapping.
type CountRule interface {
	countRule()
}

// NMinusOne selects one song fewer than requested when more than one is requested.
type NMinusOne struct{}

// CapAt limits the count to Max when more than Max songs are requested.
type CapAt struct {
	Max int
}

// Mapping looks the requested count up in Table, falling back to Default
// and then to the requested count itself.
type Mapping struct {
	Table   map[int]int
	Default *int
}

func (NMinusOne) countRule() {}
func (CapAt) countRule()     {}
func (Mapping) countRule()   {}

// AdjustCount applies rule to requested. A nil rule leaves the count unchanged.
func AdjustCount(rule CountRule, requested int) int {
	switch r := rule.(type) {
	case nil:
		return requested
	case NMinusOne:
		if requested > 1 {
			return requested - 1
		}
		return requested
	case CapAt:
		if requested > r.Max {
			return r.Max
		}
		return requested
	case Mapping:
		if n, ok := r.Table[requested]; ok {
			return n
		}
		if r.Default != nil {
			return *r.Default
		}
		return requested
	default:
		panic(fmt.Sprintf("domain: unhandled count rule %T", rule))
	}
}

const capAtPrefix = "cap_at_"

// ParseCountRule decodes a rule from its JSON form: the strings "n-1" and
// "cap_at_<k>", or an object keyed by requested count with an optional "default".
func ParseCountRule(raw json.RawMessage) (CountRule, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseNamedRule(s)
	}

	var obj map[string]int
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("count rule must be a formula name or an object of integers: %w", err)
	}

	m := Mapping{Table: make(map[int]int, len(obj))}
	for key, value := range obj {
		if key == "default" {
			v := value
			m.Default = &v
			continue
		}
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("count rule key %q is not an integer", key)
		}
		m.Table[n] = value
	}
	return m, nil
}

func parseNamedRule(s string) (CountRule, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "n-1" {
		return NMinusOne{}, nil
	}
	if rest, ok := strings.CutPrefix(s, capAtPrefix); ok {
		k, err := strconv.Atoi(rest)
		if err != nil || k < 0 {
			return nil, fmt.Errorf("invalid cap in count rule %q", s)
		}
		return CapAt{Max: k}, nil
	}
	return nil, fmt.Errorf("unknown count rule %q", s)
}

// MarshalCountRule encodes a rule into the JSON form accepted by ParseCountRule.
func MarshalCountRule(rule CountRule) (json.RawMessage, error) {
	switch r := rule.(type) {
	case NMinusOne:
		return json.Marshal("n-1")
	case CapAt:
		return json.Marshal(fmt.Sprintf("%s%d", capAtPrefix, r.Max))
	case Mapping:
		keys := make([]int, 0, len(r.Table))
		for k := range r.Table {
			keys = append(keys, k)
		}
		sort.Ints(keys)

		obj := make(map[string]int, len(r.Table)+1)
		for _, k := range keys {
			obj[strconv.Itoa(k)] = r.Table[k]
		}
		if r.Default != nil {
			obj["default"] = *r.Default
		}
		return json.Marshal(obj)
	default:
		return nil, fmt.Errorf("cannot encode count rule %T", rule)
	}
}

// CloneCountRule returns a copy of rule sharing no memory with the original.
func CloneCountRule(rule CountRule) CountRule {
	m, ok := rule.(Mapping)
	if !ok {
		return rule
	}
	out := Mapping{Table: make(map[int]int, len(m.Table))}
	for k, v := range m.Table {
		out.Table[k] = v
	}
	if m.Default != nil {
		d := *m.Default
		out.Default = &d
	}
	return out
}

// DefaultDanceAdjustments returns a fresh copy of the standard rule set used
// when a preset asks for adjusted counts without listing any rules.
func DefaultDanceAdjustments() map[string]CountRule {
	pasoDefault := 2
	return map[string]CountRule{
		"PasoDoble":     Mapping{Table: map[int]int{1: 0, 2: 1, 3: 1}, Default: &pasoDefault},
		"VWSlow":        CapAt{Max: 1},
		"JSlow":         CapAt{Max: 1},
		"VienneseWaltz": NMinusOne{},
		"Jive":          NMinusOne{},
		"WCS":           CapAt{Max: 2},
	}
}
