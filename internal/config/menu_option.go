// Package config holds the per-chart settings of the view engine and their
// persistence.
//
// Two kinds of settings exist:
//   - ChartConfig: authored with the dashboard (id, size, y-axis type and
//     bounds, date window); read-only for the engine.
//   - MenuOption: user adjustable from the chart menu (palette, date format,
//     downsampling, toggles). Menu options are stored per dashboard and chart
//     in a Store as JSON and migrated from the legacy flat layout on load.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidMenuOption indicates a stored or supplied menu option failed decoding or validation.
	ErrInvalidMenuOption = errors.New("invalid menu option")

	// ErrInvalidChartConfig indicates a chart configuration failed validation.
	ErrInvalidChartConfig = errors.New("invalid chart configuration")
)

// validate is shared by every configuration type of this package.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateStep, Step{})
	return v
}

// TooltipConfig controls the content of the hover tooltip.
type TooltipConfig struct {
	// RawTooltip shows values with the y-axis format instead of the custom one
	RawTooltip bool `json:"rawTooltip"`

	// CustomTooltipFormat is a d3 number format used when RawTooltip is off
	CustomTooltipFormat string `json:"customTooltipFormat"`

	// LeadingNum is the minimum number of integer digits of custom values
	LeadingNum int `json:"leadingNum" validate:"gte=0,lte=20"`

	// TrailingNum is the number of decimals of custom values
	TrailingNum int `json:"trailingNum" validate:"gte=0,lte=20"`

	// IsTooltipSortOn sorts tooltip rows by descending value
	IsTooltipSortOn bool `json:"isTooltipSortOn"`
}

// YAxisConfig controls the y-axis ticks.
type YAxisConfig struct {
	FormatYaxis   string `json:"formatYaxis"`                           // d3 number format of tick labels
	NumTicksYaxis int    `json:"numTicksYaxis" validate:"gte=0,lte=50"` // Approximate tick count
}

// MenuOption is the user adjustable state of one chart.
type MenuOption struct {
	DateFormat       string        `json:"dateFormat"`
	ColorPalette     string        `json:"colorPalette" validate:"omitempty,oneof=schemeCategory10 schemeDark2 schemeSet1"`
	DownSampleMethod string        `json:"downSampleMethod" validate:"omitempty,oneof=average min-max largest-triangle-one-bucket largest-triangle-three-bucket"`
	IsSyncChart      bool          `json:"isSyncChart"`
	IsBrushOn        bool          `json:"isBrushOn"`
	IsBrushMainOn    bool          `json:"isBrushMainOn"`
	IsWheelOn        bool          `json:"isWheelOn"`
	IsTooltipOn      bool          `json:"isTooltipOn"`
	TooltipConfig    TooltipConfig `json:"tooltipConfig"`
	YAxisConfig      YAxisConfig   `json:"yAxisConfig"`
}

// DefaultMenuOption returns the menu option used for charts without stored settings.
func DefaultMenuOption() MenuOption {
	return MenuOption{
		ColorPalette: "schemeCategory10",
		IsBrushOn:    true,
		IsTooltipOn:  true,
		TooltipConfig: TooltipConfig{
			RawTooltip:  true,
			LeadingNum:  1,
			TrailingNum: 3,
		},
		YAxisConfig: YAxisConfig{
			FormatYaxis:   ",",
			NumTicksYaxis: 5,
		},
	}
}

// Validate checks the menu option against its constraints.
func (m MenuOption) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMenuOption, err)
	}
	return nil
}

// storedMenuOption is the persisted layout, including the legacy flat fields
// that predate the nested tooltip and y-axis sections.
type storedMenuOption struct {
	DateFormat       string         `json:"dateFormat"`
	ColorPalette     string         `json:"colorPalette"`
	DownSampleMethod string         `json:"downSampleMethod"`
	IsSyncChart      bool           `json:"isSyncChart"`
	IsBrushOn        *bool          `json:"isBrushOn,omitempty"`
	IsBrushMainOn    bool           `json:"isBrushMainOn"`
	IsWheelOn        bool           `json:"isWheelOn"`
	IsTooltipOn      *bool          `json:"isTooltipOn,omitempty"`
	TooltipConfig    *TooltipConfig `json:"tooltipConfig,omitempty"`
	YAxisConfig      *YAxisConfig   `json:"yAxisConfig,omitempty"`

	// legacy flat layout
	RawTooltip          *bool  `json:"rawTooltip,omitempty"`
	CustomTooltipFormat string `json:"customTooltipFormat,omitempty"`
	LeadingNum          int    `json:"leadingNum,omitempty"`
	TrailingNum         int    `json:"trailingNum,omitempty"`
	IsTooltipSortOn     bool   `json:"isTooltipSortOn,omitempty"`
	FormatYaxis         string `json:"formatYaxis,omitempty"`
	NumTicksYaxis       int    `json:"numTicksYaxis,omitempty"`
}

// toMenuOption converts the stored layout, migrating legacy fields.
// migrated reports whether a legacy section had to be rebuilt.
func (s storedMenuOption) toMenuOption() (opt MenuOption, migrated bool) {
	def := DefaultMenuOption()
	opt = MenuOption{
		DateFormat:       s.DateFormat,
		ColorPalette:     s.ColorPalette,
		DownSampleMethod: s.DownSampleMethod,
		IsSyncChart:      s.IsSyncChart,
		IsBrushOn:        def.IsBrushOn,
		IsBrushMainOn:    s.IsBrushMainOn,
		IsWheelOn:        s.IsWheelOn,
		IsTooltipOn:      def.IsTooltipOn,
	}
	if s.IsBrushOn != nil {
		opt.IsBrushOn = *s.IsBrushOn
	}
	if s.IsTooltipOn != nil {
		opt.IsTooltipOn = *s.IsTooltipOn
	}

	if s.TooltipConfig != nil {
		opt.TooltipConfig = *s.TooltipConfig
	} else {
		migrated = true
		opt.TooltipConfig = TooltipConfig{
			RawTooltip:          def.TooltipConfig.RawTooltip,
			CustomTooltipFormat: s.CustomTooltipFormat,
			LeadingNum:          s.LeadingNum,
			TrailingNum:         s.TrailingNum,
			IsTooltipSortOn:     s.IsTooltipSortOn,
		}
		if s.RawTooltip != nil {
			opt.TooltipConfig.RawTooltip = *s.RawTooltip
		}
	}

	if s.YAxisConfig != nil {
		opt.YAxisConfig = *s.YAxisConfig
	} else {
		migrated = true
		opt.YAxisConfig = YAxisConfig{
			FormatYaxis:   s.FormatYaxis,
			NumTicksYaxis: s.NumTicksYaxis,
		}
	}
	return opt, migrated
}
