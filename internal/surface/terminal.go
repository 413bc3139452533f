// Package surface draws chart frames as styled text.
//
// The Terminal surface draws a render.Frame on ntcharts canvases: the main
// plot with its axes, and the overview strip with the brush. Series are drawn
// as braille lines. The quick range buttons, the tooltip of a visible focus
// and the legend follow as plain lines. Colors are applied with lipgloss and
// degrade to plain text when the writer is not a terminal.
package surface

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"chartview/internal/render"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/canvas/graph"
	"github.com/charmbracelet/lipgloss"
)

var (
	// ErrWrite indicates a frame could not be written to the output.
	ErrWrite = errors.New("failed to write frame")
)

const (
	// DefaultColumns is the plot width in cells
	DefaultColumns = 72

	// DefaultRows is the plot height in cells
	DefaultRows = 16

	// DefaultSmallRows is the plot height in cells of a small chart
	DefaultSmallRows = 6
)

// Glyphs drawn next to the braille lines.
const (
	focusGlyph   = '┊'
	overlayGlyph = '░'
	circleGlyph  = 'o'
	markerGlyph  = '▲'
	brushGlyph   = '█'
	axisTick     = '┤'
	shownLegend  = "■"
	hiddenLegend = "□"
)

// Options configures the plot size of a terminal surface.
type Options struct {
	Columns int // Plot width in cells, DefaultColumns when zero
	Rows    int // Plot height in cells, DefaultRows or DefaultSmallRows when zero
}

// Terminal is a render.Surface writing frames to an io.Writer.
type Terminal struct {
	mu   sync.Mutex
	out  io.Writer
	opts Options

	renderer *lipgloss.Renderer
	plain    lipgloss.Style
	title    lipgloss.Style
	muted    lipgloss.Style
	message  lipgloss.Style
	selected lipgloss.Style
}

var _ render.Surface = (*Terminal)(nil)

// NewTerminal creates a terminal surface writing to out.
func NewTerminal(out io.Writer, opts Options) *Terminal {
	r := lipgloss.NewRenderer(out)
	return &Terminal{
		out:      out,
		opts:     opts,
		renderer: r,
		plain:    r.NewStyle(),
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		message:  r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		selected: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")),
	}
}

// Draw renders the frame and writes it followed by a blank line.
// Frames drawn from several goroutines never interleave.
func (t *Terminal) Draw(f render.Frame) error {
	text := t.Render(f)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.out, text+"\n\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Render returns the text of a frame.
//
// This method performs the following operations:
//  1. Writes the header with the chart id, title and date range
//  2. Writes the diagnostic messages of a placeholder frame
//  3. Draws the main plot, its axes and annotation markers
//  4. Writes the overview strip and the quick range buttons
//  5. Writes the tooltip of a visible focus and the legend
func (t *Terminal) Render(f render.Frame) string {
	var b strings.Builder
	b.WriteString(t.header(f))

	if f.Placeholder {
		for _, m := range f.Messages {
			b.WriteString("\n" + t.message.Render(m))
		}
		if len(f.Legend) > 0 {
			b.WriteString("\n" + t.legend(f.Legend))
		}
		return b.String()
	}

	cols, rows := t.size(f)
	b.WriteString("\n" + t.plot(f, cols, rows))
	if f.ShowOverview {
		b.WriteString("\n" + t.overview(f, cols))
		if len(f.Presets) > 0 {
			b.WriteString("\n" + t.presets(f))
		}
	}
	if f.Focus.Visible {
		b.WriteString("\n" + t.tooltip(f.Focus))
	}
	if len(f.Legend) > 0 {
		b.WriteString("\n" + t.legend(f.Legend))
	}
	return b.String()
}

// size returns the cell size of the main plot area.
func (t *Terminal) size(f render.Frame) (cols, rows int) {
	cols, rows = t.opts.Columns, t.opts.Rows
	if cols <= 0 {
		cols = DefaultColumns
	}
	if rows <= 0 {
		rows = DefaultRows
		if f.Dims.Height2 == 0 {
			rows = DefaultSmallRows
		}
	}
	return cols, rows
}

func (t *Terminal) header(f render.Frame) string {
	parts := []string{t.title.Render(f.ChartID)}
	if f.Title != "" {
		parts = append(parts, f.Title)
	}
	if f.DateRange != "" {
		parts = append(parts, t.muted.Render(f.DateRange))
	}
	return strings.Join(parts, "  ")
}

// color returns the style of a frame color; an empty color is unstyled.
func (t *Terminal) color(c string) lipgloss.Style {
	if c == "" {
		return t.plain
	}
	return t.renderer.NewStyle().Foreground(lipgloss.Color(c))
}

// toCell maps a pixel offset inside [0, span] onto one of n cells.
// Offsets outside the span map to the nearest edge cell.
func toCell(px, span float64, n int) int {
	if span <= 0 || n <= 1 || math.IsNaN(px) {
		return 0
	}
	c := int(math.Round(px / span * float64(n-1)))
	return min(max(c, 0), n-1)
}

// plot draws the main plot on a canvas.
//
// The canvas is laid out left to right as the y tick labels, the y axis and
// cols cells of plot area; top to bottom as rows cells of plot area, the
// annotation row when there are markers, the x axis and the x tick labels.
func (t *Terminal) plot(f render.Frame, cols, rows int) string {
	width, height := float64(f.Dims.Width), float64(f.Dims.Height)

	labelWidth := 0
	for _, tick := range f.YTicks {
		labelWidth = max(labelWidth, len([]rune(tick.Label)))
	}
	markerRows := 0
	if len(f.Markers) > 0 {
		markerRows = 1
	}

	origin := canvas.Point{X: labelWidth, Y: rows + markerRows}
	cv := canvas.New(labelWidth+1+cols, origin.Y+2)
	area := canvas.Point{X: origin.X + 1, Y: 0}

	graph.DrawXYAxis(&cv, origin, t.muted)
	for _, tick := range f.YTicks {
		row := toCell(tick.Pos, height, rows)
		cv.SetStringWithStyle(canvas.Point{X: origin.X - len([]rune(tick.Label)), Y: row}, tick.Label, t.plain)
		cv.SetCell(canvas.Point{X: origin.X, Y: row}, canvas.NewCellWithStyle(axisTick, t.muted))
	}

	if f.MainOverlay != nil {
		lo, hi := toCell(f.MainOverlay.Lo, width, cols), toCell(f.MainOverlay.Hi, width, cols)
		for col := lo; col <= hi; col++ {
			for row := 0; row < rows; row++ {
				cv.SetCell(canvas.Point{X: area.X + col, Y: row}, canvas.NewCellWithStyle(overlayGlyph, t.muted))
			}
		}
	}
	if f.Focus.Visible {
		col := toCell(f.Focus.X, width, cols)
		for row := 0; row < rows; row++ {
			cv.SetCell(canvas.Point{X: area.X + col, Y: row}, canvas.NewCellWithStyle(focusGlyph, t.muted))
		}
	}

	for _, line := range f.Lines {
		t.drawLine(&cv, area, line, cols, rows, width, height)
	}
	for _, c := range f.Focus.Circles {
		at := canvas.Point{X: area.X + toCell(c.At.X, width, cols), Y: toCell(c.At.Y, height, rows)}
		cv.SetCell(at, canvas.NewCellWithStyle(circleGlyph, t.color(c.Color)))
	}
	for _, m := range f.Markers {
		at := canvas.Point{X: area.X + toCell(m.X, width, cols), Y: rows}
		cv.SetCell(at, canvas.NewCellWithStyle(markerGlyph, t.color(m.Color)))
	}

	drawTicks(&cv, canvas.Point{X: area.X, Y: origin.Y + 1}, f.XTicks, width, cols, t.plain)
	return cv.View()
}

// overview draws the overview strip between brackets, its lines, the brush
// selection and the overview ticks.
func (t *Terminal) overview(f render.Frame, cols int) string {
	width, height := float64(f.Dims.Width), float64(f.Dims.Height2)

	cv := canvas.New(cols+2, 2)
	strip := canvas.Point{X: 1, Y: 0}
	graph.DrawHorizonalLineRight(&cv, strip, t.muted)
	cv.SetCell(canvas.Point{X: 0, Y: 0}, canvas.NewCellWithStyle('[', t.plain))
	cv.SetCell(canvas.Point{X: cols + 1, Y: 0}, canvas.NewCellWithStyle(']', t.plain))

	for _, line := range f.OverviewLines {
		t.drawLine(&cv, strip, line, cols, 1, width, height)
	}
	if f.Brush != nil {
		lo, hi := toCell(f.Brush.Lo, width, cols), toCell(f.Brush.Hi, width, cols)
		for col := lo; col <= hi; col++ {
			cv.SetCell(canvas.Point{X: strip.X + col, Y: 0}, canvas.NewCellWithStyle(brushGlyph, t.selected))
		}
	}

	drawTicks(&cv, canvas.Point{X: strip.X, Y: 1}, f.OverviewTicks, width, cols, t.plain)
	return cv.View()
}

// drawLine draws a series as a braille line onto the cols x rows cells whose
// top-left corner is at. Pixels are relative to a width x height plot area.
// A NaN pixel breaks the line.
func (t *Terminal) drawLine(cv *canvas.Model, at canvas.Point, line render.Line, cols, rows int, width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	g := graph.NewBrailleGrid(cols, rows, 0, width, 0, height)

	var prev canvas.Point
	joined := false
	for _, p := range line.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			joined = false
			continue
		}
		// braille grid y grows upwards, pixel y downwards
		cur := g.GridPoint(canvas.Float64Point{X: p.X, Y: height - p.Y})
		if !joined {
			g.Set(cur)
		} else {
			for _, q := range graph.GetLinePoints(prev, cur) {
				g.Set(q)
			}
		}
		prev, joined = cur, true
	}
	graph.DrawBraillePatterns(cv, at, g.BraillePatterns(), t.color(line.Color))
}

// drawTicks writes tick labels centred under their cells, starting at the
// given canvas point. Labels that would overlap or leave the cols cells are dropped.
func drawTicks(cv *canvas.Model, at canvas.Point, ticks []render.Tick, span float64, cols int, style lipgloss.Style) {
	next := 0
	for _, tick := range ticks {
		n := len([]rune(tick.Label))
		start := max(toCell(tick.Pos, span, cols)-n/2, 0)
		if start < next || start+n > cols {
			continue
		}
		cv.SetStringWithStyle(canvas.Point{X: at.X + start, Y: at.Y}, tick.Label, style)
		next = start + n + 1
	}
}

func (t *Terminal) presets(f render.Frame) string {
	buttons := make([]string, 0, len(f.Presets))
	for _, p := range f.Presets {
		label := "[" + p.Name + "]"
		if p.Enabled {
			buttons = append(buttons, t.selected.Render(label))
		} else {
			buttons = append(buttons, t.muted.Render(label))
		}
	}
	return strings.Join(buttons, " ")
}

func (t *Terminal) tooltip(focus render.Focus) string {
	lines := []string{t.title.Render(focus.Date)}
	for _, row := range focus.Rows {
		lines = append(lines, t.color(row.Color).Render(row.Name+": "+row.Value))
	}
	return strings.Join(lines, "\n")
}

func (t *Terminal) legend(entries []render.LegendEntry) string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		symbol := shownLegend
		if !e.Displaying {
			symbol = hiddenLegend
		}
		items = append(items, t.color(e.Color).Render(symbol+" "+e.Name))
	}
	return strings.Join(items, "  ")
}
