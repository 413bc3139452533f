package render

import (
	"chartview/internal/model"

	"github.com/rs/zerolog/log"
)

const (
	// InvalidColor marks series whose query failed
	InvalidColor = "#000000"

	// NoDataColor marks series whose query returned nothing
	NoDataColor = "#800000"

	// HiddenLabelColor is the legend label color of a hidden source
	HiddenLabelColor = "#FFFFFF"

	// DefaultScheme is used when no or an unknown scheme is configured
	DefaultScheme = "schemeCategory10"
)

// schemes are the categorical color schemes a menu option can select.
var schemes = map[string][]string{
	"schemeCategory10": {
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
		"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
	},
	"schemeDark2": {
		"#1b9e77", "#d95f02", "#7570b3", "#e7298a",
		"#66a61e", "#e6ab02", "#a6761d", "#666666",
	},
	"schemeSet1": {
		"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00",
		"#ffff33", "#a65628", "#f781bf", "#999999",
	},
}

// Palette assigns scheme colors to names in order of first request, cycling
// through the scheme when it runs out. The same name always gets the same
// color. A Palette is not safe for concurrent use.
type Palette struct {
	scheme   string
	colors   []string
	assigned map[string]string
}

// NewPalette creates a palette for the named scheme.
func NewPalette(scheme string) *Palette {
	colors, ok := schemes[scheme]
	if !ok {
		if scheme != "" {
			log.Warn().Str("scheme", scheme).Msg("unknown color scheme, using default")
		}
		scheme, colors = DefaultScheme, schemes[DefaultScheme]
	}
	return &Palette{
		scheme:   scheme,
		colors:   colors,
		assigned: make(map[string]string),
	}
}

// Scheme returns the name of the scheme in use.
func (p *Palette) Scheme() string {
	return p.scheme
}

// ColorFor returns the color assigned to name, assigning the next one if needed.
func (p *Palette) ColorFor(name string) string {
	if c, ok := p.assigned[name]; ok {
		return c
	}
	c := p.colors[len(p.assigned)%len(p.colors)]
	p.assigned[name] = c
	return c
}

// SeriesColor returns the line and legend color of a series.
//
// Failed series are black and empty ones maroon regardless of any explicit
// color; otherwise an explicit color wins over the palette.
func (p *Palette) SeriesColor(s model.Series) string {
	switch {
	case s.Invalid:
		return InvalidColor
	case s.NoData:
		return NoDataColor
	case s.Color != "":
		return s.Color
	default:
		return p.ColorFor(s.Name)
	}
}

// LabelColor returns the legend label color of a source.
func LabelColor(src model.Source) string {
	if !src.Displaying {
		return HiddenLabelColor
	}
	return src.Color
}
