// Package visualize computes the bar-chart layout of similarity groups and the
// detail shown when a bar is focused. Rendering is left to a Renderer so the
// layout can be used by the web page and the terminal alike.
package visualize

import (
	"fmt"
	"math"

	"github.com/hyperjump/semsim/internal/models"
)

const (
	// MinHeight is the height of empty and invalid groups.
	MinHeight = 5.0
	// MaxHeightFloor is the smallest tallest-bar height, whatever the container.
	MaxHeightFloor = 50.0
	// HeightRatio is the share of the container the tallest bar fills.
	HeightRatio = 0.70
	// MaxDetailItems is how many items a detail lists before the "more" marker.
	MaxDetailItems = 5
	// EmptyPlaceholder is rendered instead of bars when there are no groups.
	EmptyPlaceholder = "No similarity groups found in response."
	// ClearedPlaceholder is shown where no visualization exists.
	ClearedPlaceholder = "-"
)

// Column is the rendered state of one group.
type Column struct {
	Index  int     `json:"index"`
	Count  int     `json:"count"`
	Height float64 `json:"height"`
	Valid  bool    `json:"valid"`
}

// Layout is the computed chart. When Empty is set no heights were computed.
type Layout struct {
	Columns         []Column `json:"columns"`
	MaxItems        int      `json:"max_items"`
	MaxHeight       float64  `json:"max_height"`
	MinHeight       float64  `json:"min_height"`
	ContainerHeight float64  `json:"container_height"`
	Empty           bool     `json:"empty"`
}

// Compute lays out groups in a container of the given pixel height. Heights
// scale linearly with item count so the largest group gets MaxHeight, and are
// clamped into [MinHeight, MaxHeight].
func Compute(groups []models.SimilarityGroup, containerHeight float64) Layout {
	if math.IsNaN(containerHeight) || math.IsInf(containerHeight, 0) {
		containerHeight = 0
	}
	if len(groups) == 0 {
		return Layout{Columns: []Column{}, ContainerHeight: containerHeight, Empty: true}
	}

	maxItems := 0
	for _, g := range groups {
		if g.Valid && len(g.Items) > maxItems {
			maxItems = len(g.Items)
		}
	}
	maxHeight := math.Max(MaxHeightFloor, containerHeight*HeightRatio)

	columns := make([]Column, 0, len(groups))
	for i, g := range groups {
		count := g.Count()
		height := MinHeight
		if count > 0 && maxItems > 0 {
			height = float64(count) / float64(maxItems) * maxHeight
		}
		columns = append(columns, Column{
			Index:  i,
			Count:  count,
			Height: clamp(height, MinHeight, maxHeight),
			Valid:  g.Valid,
		})
	}
	return Layout{
		Columns:         columns,
		MaxItems:        maxItems,
		MaxHeight:       maxHeight,
		MinHeight:       MinHeight,
		ContainerHeight: containerHeight,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// Detail is the content of the shared detail surface for one group.
type Detail struct {
	Header string   `json:"header"`
	Items  []string `json:"items"`
	More   string   `json:"more,omitempty"`
}

// DetailFor builds the detail of the group at index: a header, at most
// MaxDetailItems stringified items and a "more" marker for the rest.
func DetailFor(index int, group models.SimilarityGroup) Detail {
	count := group.Count()
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	d := Detail{
		Header: fmt.Sprintf("Group %d | %d %s", index+1, count, noun),
		Items:  make([]string, 0, min(count, MaxDetailItems)),
	}
	for i := 0; i < count && i < MaxDetailItems; i++ {
		d.Items = append(d.Items, group.Items[i].Text())
	}
	if count > MaxDetailItems {
		d.More = fmt.Sprintf("... and %d more", count-MaxDetailItems)
	}
	return d
}
