package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

// entry is one top-level key of a preset document with its raw value.
type entry struct {
	Key   string
	Value json.RawMessage
}

// presetJSON is the on-disk shape of one practice type.
// Pointer fields distinguish "absent" from the zero value.
type presetJSON struct {
	Dances            []string                   `json:"dances"`
	NumSelections     *int                       `json:"num_selections,omitempty"`
	PlayAllSongs      *bool                      `json:"play_all_songs,omitempty"`
	AutoUpdate        *bool                      `json:"auto_update,omitempty"`
	PlaySingleSong    *bool                      `json:"play_single_song,omitempty"`
	RandomizePlaylist *bool                      `json:"randomize_playlist,omitempty"`
	AdjustSongCounts  *bool                      `json:"adjust_song_counts,omitempty"`
	DanceAdjustments  map[string]json.RawMessage `json:"dance_adjustments,omitempty"`
	DanceMaxPlaytimes map[string]float64         `json:"dance_max_playtimes,omitempty"`
}

// readEntries decodes a JSON object keeping its key order.
func readEntries(r io.Reader) ([]entry, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("document must be a JSON object")
	}

	var entries []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		entries = append(entries, entry{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after document")
	}
	return entries, nil
}

// writeEntries encodes entries as an indented JSON object in order.
func writeEntries(w io.Writer, entries []entry) error {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, e := range entries {
		key, err := json.Marshal(e.Key)
		if err != nil {
			return err
		}
		var value bytes.Buffer
		if err := json.Indent(&value, e.Value, "  ", "  "); err != nil {
			return fmt.Errorf("value of %q: %w", e.Key, err)
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value.Bytes())
		if i < len(entries)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func isComment(key string) bool {
	return strings.HasPrefix(key, domain.CommentKeyPrefix)
}

// decodePresets turns document entries into presets, skipping comment keys.
// Any malformed preset makes the whole document invalid.
func decodePresets(entries []entry, builtIn bool) ([]domain.Preset, error) {
	presets := make([]domain.Preset, 0, len(entries))
	for _, e := range entries {
		if isComment(e.Key) {
			continue
		}
		p, err := decodePreset(e.Key, e.Value, builtIn)
		if err != nil {
			return nil, fmt.Errorf("practice type %q: %w", e.Key, err)
		}
		presets = append(presets, p)
	}
	return presets, nil
}

func decodePreset(name string, raw json.RawMessage, builtIn bool) (domain.Preset, error) {
	var pj presetJSON
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&pj); err != nil {
		return domain.Preset{}, err
	}

	p := domain.Preset{
		Name:              name,
		Dances:            pj.Dances,
		NumSelections:     intOr(pj.NumSelections, 2),
		PlayAllSongs:      boolOr(pj.PlayAllSongs, false),
		AutoUpdate:        boolOr(pj.AutoUpdate, false),
		PlaySingleSong:    boolOr(pj.PlaySingleSong, false),
		RandomizePlaylist: boolOr(pj.RandomizePlaylist, true),
		AdjustSongCounts:  boolOr(pj.AdjustSongCounts, false),
		DanceAdjustments:  make(map[string]domain.CountRule, len(pj.DanceAdjustments)),
		DanceMaxPlaytimes: make(map[string]time.Duration, len(pj.DanceMaxPlaytimes)),
		BuiltIn:           builtIn,
	}

	for _, dance := range pj.Dances {
		if err := domain.ValidateDanceName(dance); err != nil {
			return domain.Preset{}, err
		}
	}
	for dance, rawRule := range pj.DanceAdjustments {
		rule, err := domain.ParseCountRule(rawRule)
		if err != nil {
			return domain.Preset{}, fmt.Errorf("dance_adjustments.%s: %w", dance, err)
		}
		p.DanceAdjustments[dance] = rule
	}
	for dance, secs := range pj.DanceMaxPlaytimes {
		d, ok := domain.PlaytimeFromSeconds(secs)
		if !ok {
			return domain.Preset{}, fmt.Errorf("dance_max_playtimes.%s must be a positive number of seconds", dance)
		}
		p.DanceMaxPlaytimes[dance] = d
	}
	return p, nil
}

func encodePreset(p domain.Preset) (json.RawMessage, error) {
	pj := presetJSON{
		Dances:            p.Dances,
		NumSelections:     &p.NumSelections,
		PlayAllSongs:      &p.PlayAllSongs,
		AutoUpdate:        &p.AutoUpdate,
		PlaySingleSong:    &p.PlaySingleSong,
		RandomizePlaylist: &p.RandomizePlaylist,
		AdjustSongCounts:  &p.AdjustSongCounts,
	}
	if pj.Dances == nil {
		pj.Dances = []string{}
	}

	if len(p.DanceAdjustments) > 0 {
		pj.DanceAdjustments = make(map[string]json.RawMessage, len(p.DanceAdjustments))
		for dance, rule := range p.DanceAdjustments {
			raw, err := domain.MarshalCountRule(rule)
			if err != nil {
				return nil, err
			}
			pj.DanceAdjustments[dance] = raw
		}
	}
	if len(p.DanceMaxPlaytimes) > 0 {
		pj.DanceMaxPlaytimes = make(map[string]float64, len(p.DanceMaxPlaytimes))
		for dance, d := range p.DanceMaxPlaytimes {
			pj.DanceMaxPlaytimes[dance] = d.Seconds()
		}
	}
	return json.Marshal(pj)
}

// MarshalPreset renders p as an indented single-entry document, the form a
// user pastes into the custom file.
func MarshalPreset(p domain.Preset) ([]byte, error) {
	raw, err := encodePreset(p)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeEntries(&buf, []entry{{Key: p.Name, Value: raw}}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
