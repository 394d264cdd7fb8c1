package visualize

import "github.com/hyperjump/semsim/internal/models"

// Renderer draws a visualization. RenderEmpty is called alone when there are
// no groups; otherwise RenderColumn is called once per group, in order, with
// the detail to show when that column gains focus.
type Renderer interface {
	RenderEmpty(placeholder string) error
	RenderColumn(c Column, detail Detail) error
}

// Surface is the single detail popover shared by every column.
type Surface struct {
	Visible bool
	Group   int
	Detail  Detail
}

// Visualization is a computed layout plus its shared detail surface.
// It is not safe for concurrent use.
type Visualization struct {
	Layout  Layout
	groups  []models.SimilarityGroup
	surface Surface
}

// New computes the layout of groups for a container of the given height.
func New(groups []models.SimilarityGroup, containerHeight float64) *Visualization {
	return &Visualization{
		Layout: Compute(groups, containerHeight),
		groups: groups,
	}
}

// Groups returns the groups the visualization was built from.
func (v *Visualization) Groups() []models.SimilarityGroup {
	return v.groups
}

// Detail returns the detail for the group at i.
func (v *Visualization) Detail(i int) (Detail, bool) {
	if i < 0 || i >= len(v.groups) {
		return Detail{}, false
	}
	return DetailFor(i, v.groups[i]), true
}

// Focus shows the detail of group i on the surface. Invalid and empty groups
// leave the surface untouched, as does an out-of-range index.
func (v *Visualization) Focus(i int) bool {
	if i < 0 || i >= len(v.groups) || v.groups[i].Count() == 0 {
		return false
	}
	v.surface = Surface{Visible: true, Group: i, Detail: DetailFor(i, v.groups[i])}
	return true
}

// Leave hides the surface, as when the pointer leaves the whole chart.
func (v *Visualization) Leave() {
	v.surface.Visible = false
}

// Surface returns the current state of the shared detail surface.
func (v *Visualization) Surface() Surface {
	return v.surface
}

// Render drives r over the layout.
func (v *Visualization) Render(r Renderer) error {
	if v.Layout.Empty {
		return r.RenderEmpty(EmptyPlaceholder)
	}
	for _, c := range v.Layout.Columns {
		if err := r.RenderColumn(c, DetailFor(c.Index, v.groups[c.Index])); err != nil {
			return err
		}
	}
	return nil
}
