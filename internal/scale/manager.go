package scale

import (
	"math"

	"chartview/internal/model"
	"chartview/internal/utils"

	"github.com/rs/zerolog/log"
)

const (
	// BufferRatio is the share of the visible value span added above and below
	// the fitted y-domain.
	BufferRatio = 0.2

	// YAxisPadding widens a degenerate y-domain and replaces a zero buffer.
	YAxisPadding = 1.0

	// degenerateTimePadding widens an x-domain built from a single timestamp.
	degenerateTimePadding = 60_000
)

// View is a snapshot of the four scale domains of a chart.
type View struct {
	X         Interval // Main time window
	Y         Interval // Main value window
	OverviewX Interval // Full data extent, never reclipped by zoom
	OverviewY Interval // Raw value extent of the overview strip
}

// Manager owns the main and overview scales of one chart.
//
// The manager performs the initial fit of all four domains, refits the main
// y-domain whenever the visible window or the displayed series change, and
// updates ranges when the chart geometry changes. Ranges and domains are
// updated independently: Resize never touches a domain and the fitting
// methods never touch a range.
type Manager struct {
	// X maps time onto the main chart width
	X Scale

	// Y maps values onto the main chart height
	Y Scale

	// X2 maps time onto the overview strip width
	X2 Scale

	// Y2 maps values onto the overview strip height
	Y2 Scale

	// cfg is the y-axis configuration, including optional pinned bounds
	cfg model.YScaleConfig
}

// NewManager creates a manager with unfitted scales for the given y configuration.
func NewManager(cfg model.YScaleConfig) *Manager {
	unit := Interval{Lo: 0, Hi: 1}
	return &Manager{
		X:   NewLinear(unit, unit),
		Y:   ForConfig(cfg),
		X2:  NewLinear(unit, unit),
		Y2:  ForConfig(cfg),
		cfg: cfg,
	}
}

// Config returns the y-axis configuration.
func (m *Manager) Config() model.YScaleConfig {
	return m.cfg
}

// View returns the current domains.
func (m *Manager) View() View {
	return View{
		X:         m.X.Domain(),
		Y:         m.Y.Domain(),
		OverviewX: m.X2.Domain(),
		OverviewY: m.Y2.Domain(),
	}
}

// Fit performs the initial fit of every domain.
//
// The x-domain is the timestamp extent of the plottable series, or window when
// one is configured; the overview then covers the union of both so a brush can
// always reach the configured window. The overview y-domain is the raw value
// extent, widened asymmetrically for a flat series. The main y-domain is fitted
// with FitY over the points inside the x-domain.
//
// Fit returns false and leaves every scale untouched when no series is
// plottable.
func (m *Manager) Fit(series []model.Series, window *Interval) bool {
	xExt, yExt, ok := extents(series)
	if !ok {
		return false
	}

	if xExt.Lo == xExt.Hi {
		xExt = Interval{Lo: xExt.Lo - degenerateTimePadding, Hi: xExt.Hi + degenerateTimePadding}
	}

	xDomain, overview := xExt, xExt
	if window != nil && window.Lo < window.Hi {
		xDomain = *window
		overview = xExt.Union(*window)
	}

	// only a straight line is plotted
	if yExt.Lo == yExt.Hi {
		yExt.Lo -= YAxisPadding
		yExt.Hi += 3 * YAxisPadding
	}

	m.X = m.X.WithDomain(xDomain)
	m.X2 = m.X2.WithDomain(overview)
	m.Y2 = m.Y2.WithDomain(m.logSafe(yExt))
	m.Y = m.Y.WithDomain(m.logSafe(m.pinned(yExt)))

	visible := make([][]model.Point, 0, len(series))
	for _, s := range series {
		if !s.Plottable() {
			continue
		}
		var inside []model.Point
		for _, p := range s.Points {
			if xDomain.Contains(float64(p.T)) {
				inside = append(inside, p)
			}
		}
		visible = append(visible, inside)
	}
	m.FitY(visible)

	log.Debug().
		Float64("x0", xDomain.Lo).
		Float64("x1", xDomain.Hi).
		Float64("y0", m.Y.Domain().Lo).
		Float64("y1", m.Y.Domain().Hi).
		Msg("scales fitted")
	return true
}

// FitY refits the main y-domain to the given points.
//
// Callers pass the points of the displayed series restricted to the current
// x-domain. The extent is buffered by BufferRatio in the scale's plain space
// (log_base for a log scale, v^e for a power scale) and mapped back, so
// buffers stay proportional on non-linear scales. NaN and ±Inf produced along
// the way are replaced by the un-buffered bound. A configured bound always
// wins over the computed one, and with both bounds configured the domain is
// pinned and FitY only re-applies them. An empty point set keeps the current
// domain.
func (m *Manager) FitY(points [][]model.Point) {
	if m.cfg.Pinned() {
		m.Y = m.Y.WithDomain(m.logSafe(Interval{Lo: *m.cfg.Min, Hi: *m.cfg.Max}))
		return
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	found := false
	for _, pts := range points {
		l, h, ok := model.ValueExtent(pts)
		if !ok {
			continue
		}
		lo, hi = math.Min(lo, l), math.Max(hi, h)
		found = true
	}
	if !found {
		return
	}

	yMin := utils.ValidNumber(m.Y.Transform(lo), lo)
	yMax := utils.ValidNumber(m.Y.Transform(hi), hi)
	buffer := (yMax - yMin) * BufferRatio
	if buffer == 0 {
		buffer = YAxisPadding
	}

	domain := Interval{
		Lo: utils.ValidNumber(m.Y.Untransform(yMin-buffer), lo),
		Hi: utils.ValidNumber(m.Y.Untransform(yMax+buffer), hi),
	}
	m.Y = m.Y.WithDomain(m.logSafe(m.pinned(domain)))
}

// SetXDomain replaces the main x-domain. Degenerate or reversed domains are ignored.
func (m *Manager) SetXDomain(d Interval) bool {
	if !(d.Lo < d.Hi) {
		return false
	}
	m.X = m.X.WithDomain(d)
	return true
}

// Resize updates the ranges of all four scales; domains are preserved.
func (m *Manager) Resize(width, height, height2 float64) {
	m.X = m.X.WithRange(Interval{Lo: 0, Hi: width})
	m.X2 = m.X2.WithRange(Interval{Lo: 0, Hi: width})
	m.Y = m.Y.WithRange(Interval{Lo: height, Hi: 0})
	m.Y2 = m.Y2.WithRange(Interval{Lo: height2, Hi: 0})
}

// pinned applies individually configured bounds.
func (m *Manager) pinned(d Interval) Interval {
	if m.cfg.Min != nil {
		d.Lo = *m.cfg.Min
	}
	if m.cfg.Max != nil {
		d.Hi = *m.cfg.Max
	}
	return d
}

// logSafe replaces zero bounds by 1 on a log scale, log(0) does not exist.
func (m *Manager) logSafe(d Interval) Interval {
	if m.cfg.Type != model.LogScale {
		return d
	}
	if d.Lo == 0 {
		d.Lo = 1
	}
	if d.Hi == 0 {
		d.Hi = 1
	}
	return d
}

// extents returns the time and value extents across plottable series.
func extents(series []model.Series) (x, y Interval, ok bool) {
	x = Interval{Lo: math.Inf(1), Hi: math.Inf(-1)}
	y = Interval{Lo: math.Inf(1), Hi: math.Inf(-1)}
	for _, s := range series {
		if !s.Plottable() {
			continue
		}
		t0, t1, _ := s.TimeExtent()
		x.Lo = math.Min(x.Lo, float64(t0))
		x.Hi = math.Max(x.Hi, float64(t1))
		if lo, hi, found := model.ValueExtent(s.Points); found {
			y.Lo = math.Min(y.Lo, lo)
			y.Hi = math.Max(y.Hi, hi)
			ok = true
		}
	}
	return x, y, ok
}
