package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var ErrNotObject = errors.New("storage: state document is not a JSON object")

// Section is one top-level key of the state document.
type Section struct {
	Name string
	Body []byte
}

// splitSections breaks a JSON object into its top-level members, sorted by
// name.
func splitSections(data []byte) ([]Section, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if members == nil {
		return nil, ErrNotObject
	}
	out := make([]Section, 0, len(members))
	for name, body := range members {
		out = append(out, Section{Name: name, Body: []byte(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// joinSections is the inverse of splitSections.
func joinSections(sections []Section) ([]byte, error) {
	if len(sections) == 0 {
		return nil, nil
	}
	members := make(map[string]json.RawMessage, len(sections))
	for _, s := range sections {
		if !json.Valid(s.Body) {
			return nil, fmt.Errorf("storage: section %q holds invalid JSON", s.Name)
		}
		members[s.Name] = json.RawMessage(bytes.Clone(s.Body))
	}
	return json.Marshal(members)
}
