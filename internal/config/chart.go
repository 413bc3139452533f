package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"chartview/internal/model"
	"chartview/internal/scale"
	"chartview/internal/utils"
)

const (
	// DefaultHeight is the container height of a regular chart
	DefaultHeight = 330

	// DefaultSmallHeight is the container height of a small chart
	DefaultSmallHeight = 150
)

// YAxisOptions is the authored y-axis section of a chart.
//
// Base and Exponent are kept as strings because dashboards written by hand
// carry them quoted as often as not.
type YAxisOptions struct {
	Type     string   `yaml:"type" json:"type"`
	Min      *float64 `yaml:"min" json:"min"`
	Max      *float64 `yaml:"max" json:"max"`
	Base     string   `yaml:"base" json:"base"`
	Exponent string   `yaml:"exponent" json:"exponent"`
}

// DateConfig is the time window and zone of a chart.
type DateConfig struct {
	StartTime *int64 `yaml:"startTime" json:"startTime"` // Unix ms, optional
	EndTime   *int64 `yaml:"endTime" json:"endTime"`     // Unix ms, optional
	GMT       bool   `yaml:"gmt" json:"gmt"`
}

// Window returns the configured window when both bounds are set and ordered.
func (d DateConfig) Window() *scale.Interval {
	if d.StartTime == nil || d.EndTime == nil || *d.StartTime >= *d.EndTime {
		return nil
	}
	return &scale.Interval{Lo: float64(*d.StartTime), Hi: float64(*d.EndTime)}
}

// ChartConfig is the authored configuration of one chart.
type ChartConfig struct {
	ChartID    string       `yaml:"chartId" json:"chartId" validate:"required"`
	Title      string       `yaml:"title" json:"title"`
	SmallChart bool         `yaml:"smallChart" json:"smallChart"`
	Width      int          `yaml:"width" json:"width" validate:"gte=0"`
	Height     int          `yaml:"height" json:"height" validate:"gte=0"`
	XAxisTitle string       `yaml:"xAxisTitle" json:"xAxisTitle"`
	YAxis      YAxisOptions `yaml:"yAxis" json:"yAxis"`
	Date       DateConfig   `yaml:"date" json:"date"`
}

// Validate checks the chart configuration against its constraints.
func (c ChartConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChartConfig, err)
	}
	if err := utils.ValidateChartID(c.ChartID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChartConfig, err)
	}
	return nil
}

// ContainerHeight returns the configured height or the default for the chart size.
func (c ChartConfig) ContainerHeight() int {
	if c.Height > 0 {
		return c.Height
	}
	if c.SmallChart {
		return DefaultSmallHeight
	}
	return DefaultHeight
}

// YScale derives the y scale configuration from the authored y-axis section.
//
// The type accepts "log" or "logarithmic" and "pow" or "power" in any case;
// anything else is linear. Unparsable base or exponent values fall back to 10
// and 1. NaN bounds are treated as absent.
func (c ChartConfig) YScale() model.YScaleConfig {
	cfg := model.YScaleConfig{
		Type:     model.LinearScale,
		Min:      finiteOrNil(c.YAxis.Min),
		Max:      finiteOrNil(c.YAxis.Max),
		Base:     10,
		Exponent: 1,
	}

	switch strings.ToLower(strings.TrimSpace(c.YAxis.Type)) {
	case "log", "logarithmic":
		cfg.Type = model.LogScale
		if b, err := strconv.Atoi(strings.TrimSpace(c.YAxis.Base)); err == nil && b > 1 {
			cfg.Base = float64(b)
		}
	case "pow", "power":
		cfg.Type = model.PowerScale
		if e, err := strconv.Atoi(strings.TrimSpace(c.YAxis.Exponent)); err == nil && e != 0 {
			cfg.Exponent = float64(e)
		}
	}
	return cfg
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	out := *v
	return &out
}
