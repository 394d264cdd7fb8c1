package server

import (
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/hyperjump/semsim/internal/controller"
	"github.com/hyperjump/semsim/internal/models"
	"github.com/hyperjump/semsim/internal/samples"
	"github.com/hyperjump/semsim/internal/visualize"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"px": func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "px" },
}).ParseFS(templateFS, "templates/index.html"))

type statusView struct {
	Text     string
	Severity models.Severity
}

func newStatusView(st models.Status) statusView {
	return statusView{Text: st.Display(), Severity: st.Severity}
}

type columnView struct {
	visualize.Column
	Detail  visualize.Detail
	Focused bool
	Href    string
}

type chartView struct {
	Placeholder string
	Height      float64
	Columns     []columnView
	Surface     visualize.Surface
}

// RenderEmpty implements visualize.Renderer.
func (c *chartView) RenderEmpty(placeholder string) error {
	c.Placeholder = placeholder
	return nil
}

// RenderColumn implements visualize.Renderer.
func (c *chartView) RenderColumn(col visualize.Column, detail visualize.Detail) error {
	href := "/"
	if col.Count > 0 {
		href = fmt.Sprintf("/?focus=%d", col.Index)
	}
	c.Columns = append(c.Columns, columnView{Column: col, Detail: detail, Href: href})
	return nil
}

type pageView struct {
	Samples       []string
	Sample        *samples.Sample
	Request       models.SubmitRequest
	SubmitStatus  statusView
	ResultsStatus statusView
	Chart         chartView
}

// buildPage renders the snapshot into a view. The visualization is rebuilt
// per request so focusing a column never touches shared state.
func (s *Server) buildPage(snap controller.Snapshot, focus int) (pageView, error) {
	view := pageView{
		Samples:       samples.Names(),
		Sample:        snap.Sample,
		Request:       snap.Request,
		SubmitStatus:  newStatusView(snap.SubmitStatus),
		ResultsStatus: newStatusView(snap.ResultsStatus),
		Chart:         chartView{Height: snap.ContainerHeight},
	}
	if snap.Visualization == nil {
		view.Chart.Placeholder = visualize.ClearedPlaceholder
		return view, nil
	}
	v := visualize.New(snap.Visualization.Groups(), snap.Visualization.Layout.ContainerHeight)
	if err := v.Render(&view.Chart); err != nil {
		return view, err
	}
	if v.Focus(focus) {
		view.Chart.Columns[focus].Focused = true
	}
	view.Chart.Surface = v.Surface()
	return view, nil
}
