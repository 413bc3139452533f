package render

// Margin is the space between the container edge and a plot area.
type Margin struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// Dimensions is the geometry of one chart.
//
// Width is shared by the main plot and the overview strip. Height2 and Margin2
// describe the overview strip; both are zero for a small chart, which has no
// overview.
type Dimensions struct {
	ContainerWidth  int
	ContainerHeight int
	Width           int    // Plot width
	Height          int    // Main plot height
	Height2         int    // Overview strip height
	Margin          Margin // Main plot margins
	Margin2         Margin // Overview strip margins
	XTicks          int    // Approximate number of x-axis ticks
}

const (
	marginTop      = 15
	marginBottom   = 35
	marginLeft     = 50
	marginRight    = 60
	mainChartRatio = 0.8
	xAxisGap       = 20

	smallMarginTop    = 5
	smallMarginBottom = 25
	smallMarginLeft   = 35
	smallMarginRight  = 10

	xTicks      = 7
	smallXTicks = 3
)

// CalculateDimensions derives the plot geometry from the container size.
//
// A regular chart splits the height left by the margins between the main plot
// (80%) and the overview strip, keeping a gap for the main x-axis. A small chart
// gives everything to the main plot. Width may come out non-positive for a
// hidden container; callers check Visible before drawing.
func CalculateDimensions(containerWidth, containerHeight int, small bool) Dimensions {
	if small {
		return Dimensions{
			ContainerWidth:  containerWidth,
			ContainerHeight: containerHeight,
			Width:           containerWidth - smallMarginLeft - smallMarginRight,
			Height:          containerHeight - smallMarginTop - smallMarginBottom,
			Margin:          Margin{Top: smallMarginTop, Right: smallMarginRight, Bottom: smallMarginBottom, Left: smallMarginLeft},
			XTicks:          smallXTicks,
		}
	}

	available := containerHeight - marginTop - marginBottom
	height := int(float64(available) * mainChartRatio)
	height2 := available - height - xAxisGap
	if height2 < 0 {
		height2 = 0
	}

	return Dimensions{
		ContainerWidth:  containerWidth,
		ContainerHeight: containerHeight,
		Width:           containerWidth - marginLeft - marginRight,
		Height:          height,
		Height2:         height2,
		Margin:          Margin{Top: marginTop, Right: marginRight, Bottom: containerHeight - marginTop - height, Left: marginLeft},
		Margin2:         Margin{Top: containerHeight - marginBottom - height2, Right: marginRight, Bottom: marginBottom, Left: marginLeft},
		XTicks:          xTicks,
	}
}

// Visible reports whether the plot area has a drawable size.
func (d Dimensions) Visible() bool {
	return d.Width > 0 && d.Height > 0
}
