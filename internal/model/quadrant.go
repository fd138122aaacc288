package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownQuadrant = errors.New("model: unknown quadrant")

type Quadrant string

const (
	QuadrantUrgentImportant       Quadrant = "urgent_important"
	QuadrantNotUrgentImportant    Quadrant = "not_urgent_important"
	QuadrantUrgentNotImportant    Quadrant = "urgent_not_important"
	QuadrantNotUrgentNotImportant Quadrant = "not_urgent_not_important"
)

// Quadrants lists the matrix cells in display order.
var Quadrants = []Quadrant{
	QuadrantUrgentImportant,
	QuadrantNotUrgentImportant,
	QuadrantUrgentNotImportant,
	QuadrantNotUrgentNotImportant,
}

type quadrantMeta struct {
	short  string
	label  string
	color  string
	legacy []string
}

var quadrantMetadata = map[Quadrant]quadrantMeta{
	QuadrantUrgentImportant: {
		short: "U+I",
		label: "Urgent & important",
		color: "#7A001F",
		legacy: []string{
			"q1",
			"i: wichtig & dringend / important & urgent",
			"i: wichtig & dringend",
			"important & urgent",
			"u+i (dringend & wichtig)",
		},
	},
	QuadrantNotUrgentImportant: {
		short: "I+nU",
		label: "Important & not urgent",
		color: "#F2C94C",
		legacy: []string{
			"q2",
			"ii: wichtig & nicht dringend / important & not urgent",
			"ii: wichtig & nicht dringend",
			"important & not urgent",
			"i+nu (wichtig & nicht dringend)",
		},
	},
	QuadrantUrgentNotImportant: {
		short: "nI+U",
		label: "Not important & urgent",
		color: "#27AE60",
		legacy: []string{
			"q3",
			"iii: nicht wichtig & dringend / not important & urgent",
			"iii: nicht wichtig & dringend",
			"not important & urgent",
			"ni+u (nicht wichtig & dringend)",
		},
	},
	QuadrantNotUrgentNotImportant: {
		short: "nI+nU",
		label: "Not important & not urgent",
		color: "#2D9CDB",
		legacy: []string{
			"q4",
			"iv: nicht wichtig & nicht dringend / not important & not urgent",
			"iv: nicht wichtig & nicht dringend",
			"not important & not urgent",
			"ni+nu (nicht wichtig & nicht dringend)",
		},
	},
}

// quadrantAliases maps every lower-cased label, short label and legacy
// spelling to its quadrant. Built once from quadrantMetadata.
var quadrantAliases = func() map[string]Quadrant {
	out := make(map[string]Quadrant)
	for q, meta := range quadrantMetadata {
		out[strings.ToLower(meta.short)] = q
		out[strings.ToLower(meta.label)] = q
		out[strings.ToLower(meta.short+" ("+meta.label+")")] = q
		for _, alias := range meta.legacy {
			out[strings.ToLower(alias)] = q
		}
	}
	return out
}()

func (q Quadrant) IsValid() bool {
	_, ok := quadrantMetadata[q]
	return ok
}

func (q Quadrant) ShortLabel() string {
	if meta, ok := quadrantMetadata[q]; ok {
		return meta.short
	}
	return string(q)
}

func (q Quadrant) Label() string {
	if meta, ok := quadrantMetadata[q]; ok {
		return meta.short + " (" + meta.label + ")"
	}
	return string(q)
}

func (q Quadrant) Color() string {
	return quadrantMetadata[q].color
}

// ParseQuadrant accepts the canonical value or any known legacy label.
func ParseQuadrant(raw string) (Quadrant, error) {
	if q := Quadrant(raw); q.IsValid() {
		return q, nil
	}
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if q := Quadrant(normalized); q.IsValid() {
		return q, nil
	}
	if q, ok := quadrantAliases[normalized]; ok {
		return q, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQuadrant, raw)
}

func (q *Quadrant) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseQuadrant(raw)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
