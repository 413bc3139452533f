package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidDashboard indicates a dashboard file failed decoding or validation.
	ErrInvalidDashboard = errors.New("invalid dashboard")

	// ErrInvalidScript indicates a gesture script failed decoding or validation.
	ErrInvalidScript = errors.New("invalid gesture script")
)

// Dashboard is a set of charts rendered together, as read from a YAML file.
//
// Example:
//
//	id: ops
//	width: 100
//	charts:
//	  - chartId: cpu
//	    title: CPU
//	    data: cpu.json
//	    yAxis: {type: log, base: "10"}
type Dashboard struct {
	ID     string       `yaml:"id" validate:"required"`
	Width  int          `yaml:"width" validate:"gte=0"`
	Height int          `yaml:"height" validate:"gte=0"`
	Charts []ChartEntry `yaml:"charts" validate:"required,min=1,dive"`
}

// ChartEntry is one chart of a dashboard with the path of its metric payload.
type ChartEntry struct {
	ChartConfig `yaml:",inline"`
	Data        string `yaml:"data" validate:"required"`
}

// LoadDashboard decodes and validates a YAML dashboard.
func LoadDashboard(r io.Reader) (Dashboard, error) {
	var d Dashboard
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return Dashboard{}, fmt.Errorf("%w: %v", ErrInvalidDashboard, err)
	}
	if err := validate.Struct(d); err != nil {
		return Dashboard{}, fmt.Errorf("%w: %v", ErrInvalidDashboard, err)
	}

	seen := make(map[string]bool, len(d.Charts))
	for _, c := range d.Charts {
		if err := c.ChartConfig.Validate(); err != nil {
			return Dashboard{}, fmt.Errorf("%w: %v", ErrInvalidDashboard, err)
		}
		if seen[c.ChartID] {
			return Dashboard{}, fmt.Errorf("%w: duplicate chart id %q", ErrInvalidDashboard, c.ChartID)
		}
		seen[c.ChartID] = true
	}
	return d, nil
}

// Step is one scripted interaction replayed against a dashboard.
//
// The fields used depend on Action:
//   - brush, brush-main: From and To in pixels; omit both to clear the brush
//   - zoom, wheel: K and X of the zoom transform
//   - preset: Minutes
//   - hover: At in pixels
//   - toggle, hide-others: Source
//   - resize: Width and Height of the terminal
//   - fullscreen, reset, hover-end, sync: no arguments
type Step struct {
	Chart   string   `yaml:"chart" validate:"required_unless=Action resize"`
	Action  string   `yaml:"action" validate:"required,oneof=brush brush-main zoom wheel preset reset hover hover-end toggle hide-others resize fullscreen sync"`
	From    *float64 `yaml:"from"`
	To      *float64 `yaml:"to"`
	K       float64  `yaml:"k"`
	X       float64  `yaml:"x"`
	Minutes int      `yaml:"minutes" validate:"gte=0"`
	At      float64  `yaml:"at"`
	Source  string   `yaml:"source"`
	Width   int      `yaml:"width" validate:"gte=0"`
	Height  int      `yaml:"height" validate:"gte=0"`
}

// sourceActions are the step actions acting on one source.
var sourceActions = map[string]bool{
	"toggle":      true,
	"hide-others": true,
}

// validateStep requires a source for the actions acting on one.
func validateStep(sl validator.StructLevel) {
	s := sl.Current().Interface().(Step)
	if sourceActions[s.Action] && s.Source == "" {
		sl.ReportError(s.Source, "Source", "source", "required_for_action", s.Action)
	}
}

// Script is an ordered list of steps.
type Script struct {
	Steps []Step `yaml:"steps" validate:"dive"`
}

// LoadScript decodes and validates a YAML gesture script.
func LoadScript(r io.Reader) (Script, error) {
	var s Script
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Script{}, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := validate.Struct(s); err != nil {
		return Script{}, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return s, nil
}
