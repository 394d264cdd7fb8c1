// Package models defines the wire and domain types shared by the similarity demo.
package models

import (
	"bytes"
	"encoding/json"
)

// Item is one entry of a similarity group. The API usually sends sentences as
// JSON strings, but any JSON value is accepted and kept verbatim.
type Item json.RawMessage

// TextItem returns an Item holding the JSON string s.
func TextItem(s string) Item {
	b, _ := json.Marshal(s)
	return Item(b)
}

// Text returns the string value for JSON strings and compact JSON for anything else.
func (it Item) Text() string {
	if len(it) == 0 {
		return ""
	}
	if raw := bytes.TrimSpace(it); len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, it); err != nil {
		return string(it)
	}
	return buf.String()
}

// MarshalJSON returns the raw value.
func (it Item) MarshalJSON() ([]byte, error) {
	if len(it) == 0 {
		return []byte("null"), nil
	}
	return it, nil
}

// UnmarshalJSON stores a copy of the raw value.
func (it *Item) UnmarshalJSON(b []byte) error {
	*it = append((*it)[0:0], b...)
	return nil
}

// SimilarityGroup is an ordered collection of items judged similar by the API.
// Valid is false when the wire value was not a JSON array; such a group counts as empty.
type SimilarityGroup struct {
	Items []Item
	Valid bool
}

// NewGroup returns a valid group of text items.
func NewGroup(texts ...string) SimilarityGroup {
	items := make([]Item, 0, len(texts))
	for _, t := range texts {
		items = append(items, TextItem(t))
	}
	return SimilarityGroup{Items: items, Valid: true}
}

// Count returns the number of items, 0 for invalid groups.
func (g SimilarityGroup) Count() int {
	if !g.Valid {
		return 0
	}
	return len(g.Items)
}

// Texts returns the stringified items in order.
func (g SimilarityGroup) Texts() []string {
	out := make([]string, 0, g.Count())
	if !g.Valid {
		return out
	}
	for _, it := range g.Items {
		out = append(out, it.Text())
	}
	return out
}

// UnmarshalJSON accepts any JSON value. Arrays become valid groups; anything
// else (objects, strings, null) becomes an invalid group without an error.
func (g *SimilarityGroup) UnmarshalJSON(b []byte) error {
	*g = SimilarityGroup{}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	var items []Item
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}
	if items == nil {
		items = []Item{}
	}
	g.Items = items
	g.Valid = true
	return nil
}

// MarshalJSON writes valid groups as arrays and invalid ones as null.
func (g SimilarityGroup) MarshalJSON() ([]byte, error) {
	if !g.Valid {
		return []byte("null"), nil
	}
	if g.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(g.Items)
}
