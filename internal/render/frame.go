// Package render builds the declarative picture of one chart.
//
// A Pipeline turns the chart state (scales, sliced series, legend sources,
// gesture representation, hover position) into a Frame: plain values in pixel
// coordinates that a Surface draws. Building a frame never mutates the state,
// so the same state always produces the same frame.
package render

import (
	"chartview/internal/gesture"
	"chartview/internal/scale"
)

// Pixel is a position inside a plot area, origin at the top-left corner.
type Pixel struct {
	X float64
	Y float64
}

// Line is the rendered path of one series.
type Line struct {
	Name       string
	ClassToken string
	Color      string
	Points     []Pixel
}

// Tick is an axis tick and its grid line position.
type Tick struct {
	Pos   float64 // Pixel offset along the axis
	Label string
}

// Marker is an annotation flag placed on the main plot.
type Marker struct {
	Name       string // Series the annotation belongs to
	ClassToken string
	Color      string
	Label      string
	X          float64
	Fields     map[string]string
}

// TooltipRow is one line of the hover tooltip.
type TooltipRow struct {
	Name  string
	Color string
	Value string
	Raw   float64 // Unformatted value, used for sorting
}

// Circle is a focus circle marking the hovered point of a series.
type Circle struct {
	ClassToken string
	Color      string
	At         Pixel
}

// Focus is the crossline, focus circles and tooltip of a hovered timestamp.
type Focus struct {
	Visible bool
	Synced  bool    // Driven by another chart, the horizontal crossline is hidden
	X       float64 // Crossline position
	Date    string  // Crossline label
	Circles []Circle
	Rows    []TooltipRow
}

// LegendEntry is one source in the legend.
type LegendEntry struct {
	Name       string
	ClassToken string
	Color      string // Label color, white when hidden
	Displaying bool
}

// Frame is everything a surface needs to draw one chart.
//
// A placeholder frame carries only the title, geometry, legend and messages;
// every other field is empty.
type Frame struct {
	ChartID     string
	Title       string
	Dims        Dimensions
	Placeholder bool
	Messages    []string

	Lines         []Line
	OverviewLines []Line
	XTicks        []Tick
	YTicks        []Tick
	OverviewTicks []Tick
	DateRange     string
	Markers       []Marker

	ShowOverview bool
	Brush        *scale.Interval // Overview brush in overview pixels, nil when showing everything
	MainOverlay  *scale.Interval // Drag-to-zoom overlay in main pixels
	Presets      []gesture.Preset

	Focus  Focus
	Legend []LegendEntry
}

// Surface draws frames.
type Surface interface {
	Draw(f Frame) error
}
