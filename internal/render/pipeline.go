package render

import (
	"math"
	"sort"

	"chartview/internal/config"
	"chartview/internal/downsample"
	"chartview/internal/format"
	"chartview/internal/gesture"
	"chartview/internal/model"
	"chartview/internal/scale"
)

const (
	// EmptyGraphMessage is always the first line of a placeholder frame
	EmptyGraphMessage = "No graph available"

	defaultYTicks = 5
)

// State is the input of a frame build.
//
// Series, Visible, Overview and Sources are index aligned: entry i of each
// describes the same metric. Visible holds the downsampled slice of the main
// window and Overview the downsampled full series; Series holds the raw data
// used for the tooltip, annotations and messages.
type State struct {
	ChartID   string
	Title     string
	Small     bool
	Dims      Dimensions
	Scales    *scale.Manager
	Series    []model.Series
	Visible   []model.Series
	Overview  []model.Series
	Sources   []model.Source
	Gesture   gesture.State
	Presets   []gesture.Preset
	Formatter format.Formatter
	Menu      config.MenuOption
	Hover     *int64 // Hovered timestamp, nil when the pointer is outside the chart
}

// Pipeline builds frames.
type Pipeline struct{}

// NewPipeline creates a frame pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Build produces the frame for the given state.
//
// This method performs the following operations:
//  1. Falls back to a placeholder frame with diagnostic messages when no series is plottable
//  2. Maps the visible slice of every displayed series onto the main plot
//  3. Computes axis ticks, the date range label and annotation markers
//  4. Adds the overview strip and the brush representation for regular charts
//  5. Computes the focus for the hovered timestamp
//
// Lines, markers and focus are left out while the x-domain does not intersect
// the data extent.
func (p *Pipeline) Build(s State) Frame {
	f := Frame{
		ChartID: s.ChartID,
		Title:   s.Title,
		Dims:    s.Dims,
		Legend:  legend(s.Sources),
	}

	extent, ok := DataExtent(s.Series)
	if !ok || s.Scales == nil {
		f.Placeholder = true
		f.Messages = Messages(s.Series)
		return f
	}

	fm := s.Formatter
	if fm == nil {
		fm = format.New(true, "", s.Menu.YAxisConfig.FormatYaxis, s.Small)
	}

	x, y := s.Scales.X, s.Scales.Y
	inRange := x.Domain().Intersects(extent)
	if inRange {
		f.Lines = lines(s.Visible, s.Sources, x, y)
		f.Markers = markers(s.Series, s.Sources, x)
	}

	f.XTicks = timeTicks(x, s.Dims.XTicks, fm)
	yTicks := s.Menu.YAxisConfig.NumTicksYaxis
	if yTicks <= 0 {
		yTicks = defaultYTicks
	}
	for _, v := range y.Ticks(yTicks) {
		f.YTicks = append(f.YTicks, Tick{Pos: y.Map(v), Label: fm.Tick(v)})
	}
	f.DateRange = dateRange(fm, x.Domain())

	if !s.Small {
		f.ShowOverview = true
		f.OverviewLines = lines(s.Overview, s.Sources, s.Scales.X2, s.Scales.Y2)
		f.OverviewTicks = timeTicks(s.Scales.X2, s.Dims.XTicks, fm)
		if s.Menu.IsBrushOn {
			f.Brush = s.Gesture.Selection
		}
		f.Presets = s.Presets
	}
	if s.Menu.IsBrushMainOn {
		f.MainOverlay = s.Gesture.MainOverlay
	}

	if s.Hover != nil && s.Menu.IsTooltipOn && inRange {
		f.Focus = focus(s, *s.Hover, fm)
	}
	return f
}

// Messages returns the diagnostic lines of a chart without plottable data.
func Messages(series []model.Series) []string {
	messages := []string{EmptyGraphMessage}

	var invalid, noData, empty bool
	var errs []string
	for _, s := range series {
		switch {
		case s.Invalid:
			invalid = true
			errs = append(errs, s.ErrorMessage)
		case s.NoData:
			noData = true
		case len(s.Points) == 0:
			empty = true
		}
	}

	if invalid {
		messages = append(messages, "Metric does not exist in TSDB")
		messages = append(messages, errs...)
		messages = append(messages, "(Failed metrics are black in the legend)")
	}
	if noData {
		messages = append(messages, "No data returned from TSDB", "(Empty metrics are labeled maroon)")
	}
	if empty {
		messages = append(messages, "No data found for metric expressions", "(Valid sources have normal colors)")
	}
	return messages
}

// DataExtent returns the time extent of the plottable series.
func DataExtent(series []model.Series) (scale.Interval, bool) {
	extent := scale.Interval{Lo: math.Inf(1), Hi: math.Inf(-1)}
	found := false
	for _, s := range series {
		if !s.Plottable() {
			continue
		}
		lo, hi, _ := s.TimeExtent()
		extent = extent.Union(scale.Interval{Lo: float64(lo), Hi: float64(hi)})
		found = true
	}
	return extent, found
}

// legend builds the legend entries.
func legend(sources []model.Source) []LegendEntry {
	entries := make([]LegendEntry, 0, len(sources))
	for _, src := range sources {
		entries = append(entries, LegendEntry{
			Name:       src.Name,
			ClassToken: src.ClassToken,
			Color:      LabelColor(src),
			Displaying: src.Displaying,
		})
	}
	return entries
}

// lines maps every displayed, non-empty series onto a plot.
func lines(series []model.Series, sources []model.Source, x, y scale.Scale) []Line {
	var out []Line
	for i, s := range series {
		if i >= len(sources) || !sources[i].Displaying || !s.Plottable() {
			continue
		}
		pts := make([]Pixel, 0, len(s.Points))
		for _, p := range s.Points {
			py := y.Map(p.V)
			if math.IsNaN(py) || math.IsInf(py, 0) {
				continue
			}
			pts = append(pts, Pixel{X: x.Map(float64(p.T)), Y: py})
		}
		out = append(out, Line{
			Name:       sources[i].Name,
			ClassToken: sources[i].ClassToken,
			Color:      sources[i].Color,
			Points:     pts,
		})
	}
	return out
}

// markers places the annotations of displayed series that fall inside the window.
func markers(series []model.Series, sources []model.Source, x scale.Scale) []Marker {
	var out []Marker
	d := x.Domain()
	for i, s := range series {
		if i >= len(sources) || !sources[i].Displaying {
			continue
		}
		for _, a := range s.Annotations {
			if !d.Contains(float64(a.T)) {
				continue
			}
			out = append(out, Marker{
				Name:       sources[i].Name,
				ClassToken: sources[i].ClassToken,
				Color:      sources[i].Color,
				Label:      a.Label,
				X:          x.Map(float64(a.T)),
				Fields:     a.Fields,
			})
		}
	}
	return out
}

// timeTicks returns the labelled time ticks of an x scale.
func timeTicks(x scale.Scale, count int, fm format.Formatter) []Tick {
	var ticks []Tick
	for _, t := range scale.TimeTicks(x.Domain(), count) {
		ticks = append(ticks, Tick{Pos: x.Map(t), Label: fm.Date(int64(t))})
	}
	return ticks
}

// dateRange returns the label of the visible window.
func dateRange(fm format.Formatter, d scale.Interval) string {
	lo, hi := int64(math.Round(d.Lo)), int64(math.Round(d.Hi))
	if r, ok := fm.(interface{ Range(lo, hi int64) string }); ok {
		return r.Range(lo, hi)
	}
	return fm.Date(lo) + " - " + fm.Date(hi)
}

// focus computes the crossline, circles and tooltip rows at timestamp ts.
//
// The focus is hidden when ts lies outside the x-domain. For every displayed
// series the sample closest to ts is marked, unless that sample itself lies
// outside the x-domain.
func focus(s State, ts int64, fm format.Formatter) Focus {
	x, y := s.Scales.X, s.Scales.Y
	d := x.Domain()
	if !d.Contains(float64(ts)) {
		return Focus{}
	}

	f := Focus{
		Visible: true,
		X:       x.Map(float64(ts)),
		Date:    fm.Date(ts),
	}
	for i, series := range s.Series {
		if i >= len(s.Sources) || !s.Sources[i].Displaying || !series.Plottable() {
			continue
		}
		p, ok := nearest(series.Points, ts)
		if !ok || !d.Contains(float64(p.T)) {
			continue
		}
		src := s.Sources[i]
		f.Circles = append(f.Circles, Circle{
			ClassToken: src.ClassToken,
			Color:      src.Color,
			At:         Pixel{X: x.Map(float64(p.T)), Y: y.Map(p.V)},
		})
		f.Rows = append(f.Rows, TooltipRow{
			Name:  src.Name,
			Color: src.Color,
			Value: tooltipValue(p.V, s.Menu, fm),
			Raw:   p.V,
		})
	}

	if s.Menu.TooltipConfig.IsTooltipSortOn {
		sort.SliceStable(f.Rows, func(i, j int) bool { return f.Rows[i].Raw > f.Rows[j].Raw })
	}
	return f
}

// nearest returns the point closest in time to ts.
func nearest(points []model.Point, ts int64) (model.Point, bool) {
	if len(points) == 0 {
		return model.Point{}, false
	}
	i := downsample.Bisect(points, ts, 1)
	if i >= len(points) {
		return points[len(points)-1], true
	}
	if i == 0 {
		return points[0], true
	}
	d0, d1 := points[i-1], points[i]
	if ts-d0.T > d1.T-ts {
		return d1, true
	}
	return d0, true
}

// tooltipValue formats a tooltip value with the y-axis format or the custom tooltip format.
func tooltipValue(v float64, menu config.MenuOption, fm format.Formatter) string {
	tc := menu.TooltipConfig
	switch {
	case tc.RawTooltip:
		return fm.Tick(v)
	case tc.CustomTooltipFormat != "":
		return format.New(true, "", tc.CustomTooltipFormat, false).Tick(v)
	default:
		return format.Padded(v, tc.LeadingNum, tc.TrailingNum)
	}
}
