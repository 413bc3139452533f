package config

import (
	"math"
	"strings"
	"testing"

	"chartview/internal/model"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_LoadMenuOption tests reading, defaulting and migrating stored options
func Test_LoadMenuOption(t *testing.T) {
	tests := []struct {
		name        string
		stored      string
		expected    func() MenuOption
		expectError error
		rewritten   bool
		description string
	}{
		{
			name:        "Missing",
			expected:    DefaultMenuOption,
			rewritten:   true,
			description: "Should return and store the default option",
		},
		{
			name: "Current layout",
			stored: `{"colorPalette":"schemeDark2","downSampleMethod":"average","isSyncChart":true,
				"isBrushOn":false,"isTooltipOn":true,
				"tooltipConfig":{"rawTooltip":false,"customTooltipFormat":".2f","leadingNum":2,"trailingNum":2,"isTooltipSortOn":true},
				"yAxisConfig":{"formatYaxis":".3s","numTicksYaxis":8}}`,
			expected: func() MenuOption {
				return MenuOption{
					ColorPalette:     "schemeDark2",
					DownSampleMethod: "average",
					IsSyncChart:      true,
					IsBrushOn:        false,
					IsTooltipOn:      true,
					TooltipConfig:    TooltipConfig{CustomTooltipFormat: ".2f", LeadingNum: 2, TrailingNum: 2, IsTooltipSortOn: true},
					YAxisConfig:      YAxisConfig{FormatYaxis: ".3s", NumTicksYaxis: 8},
				}
			},
			description: "Should decode the nested layout as is",
		},
		{
			name:   "Legacy layout",
			stored: `{"colorPalette":"schemeSet1","rawTooltip":false,"leadingNum":3,"trailingNum":1,"isTooltipSortOn":true,"formatYaxis":",.1f","numTicksYaxis":4}`,
			expected: func() MenuOption {
				return MenuOption{
					ColorPalette:  "schemeSet1",
					IsBrushOn:     true,
					IsTooltipOn:   true,
					TooltipConfig: TooltipConfig{LeadingNum: 3, TrailingNum: 1, IsTooltipSortOn: true},
					YAxisConfig:   YAxisConfig{FormatYaxis: ",.1f", NumTicksYaxis: 4},
				}
			},
			rewritten:   true,
			description: "Should migrate flat fields into nested sections",
		},
		{
			name:        "Corrupt",
			stored:      `{"colorPalette":`,
			expected:    DefaultMenuOption,
			expectError: ErrInvalidMenuOption,
			description: "Should fall back to the default on decode failure",
		},
		{
			name:        "Invalid values",
			stored:      `{"downSampleMethod":"median","tooltipConfig":{},"yAxisConfig":{}}`,
			expected:    DefaultMenuOption,
			expectError: ErrInvalidMenuOption,
			description: "Should reject unknown downsample methods",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			if tt.stored != "" {
				store.Set(MenuOptionKey("dash", "chart-1"), []byte(tt.stored))
			}

			got, err := LoadMenuOption(store, "dash", "chart-1")
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError, tt.description)
			} else {
				require.NoError(t, err, tt.description)
			}
			assert.Equal(t, tt.expected(), got, tt.description)

			if tt.rewritten {
				raw, ok := store.Get(MenuOptionKey("dash", "chart-1"))
				require.True(t, ok)
				var back MenuOption
				require.NoError(t, json.Unmarshal(raw, &back))
				assert.Equal(t, tt.expected(), back, "Store should hold the current layout")
			}
		})
	}
}

// Test_SaveMenuOption tests validation on save
func Test_SaveMenuOption(t *testing.T) {
	store := NewMemoryStore()

	opt := DefaultMenuOption()
	opt.DownSampleMethod = "min-max"
	require.NoError(t, SaveMenuOption(store, "d", "c", opt))

	got, err := LoadMenuOption(store, "d", "c")
	require.NoError(t, err)
	assert.Equal(t, opt, got)

	opt.YAxisConfig.NumTicksYaxis = -1
	assert.ErrorIs(t, SaveMenuOption(store, "d", "c", opt), ErrInvalidMenuOption)

	got, err = LoadMenuOption(store, "d", "c")
	require.NoError(t, err)
	assert.Equal(t, "min-max", got.DownSampleMethod, "Failed save must not overwrite")
}

// Test_MemoryStore tests that stored values are isolated from callers
func Test_MemoryStore(t *testing.T) {
	store := NewMemoryStore()
	value := []byte("abc")
	store.Set("k", value)
	value[0] = 'x'

	got, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, _ := store.Get("k")
	assert.Equal(t, "abc", string(again))

	_, ok = store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "menuOption_dash_c1", MenuOptionKey("dash", "c1"))
}

// Test_ChartConfig_YScale tests y scale derivation from the authored section
func Test_ChartConfig_YScale(t *testing.T) {
	one, nan := 1.0, math.NaN()

	tests := []struct {
		name        string
		yAxis       YAxisOptions
		expected    model.YScaleConfig
		description string
	}{
		{
			name:        "Default",
			expected:    model.YScaleConfig{Type: model.LinearScale, Base: 10, Exponent: 1},
			description: "Missing type is linear",
		},
		{
			name:        "Logarithmic",
			yAxis:       YAxisOptions{Type: "Logarithmic", Base: "2"},
			expected:    model.YScaleConfig{Type: model.LogScale, Base: 2, Exponent: 1},
			description: "Type is case-insensitive and base parsed",
		},
		{
			name:        "Log bad base",
			yAxis:       YAxisOptions{Type: "log", Base: "e"},
			expected:    model.YScaleConfig{Type: model.LogScale, Base: 10, Exponent: 1},
			description: "Unparsable base falls back to 10",
		},
		{
			name:        "Power",
			yAxis:       YAxisOptions{Type: "pow", Exponent: "3"},
			expected:    model.YScaleConfig{Type: model.PowerScale, Base: 10, Exponent: 3},
			description: "Power exponent parsed",
		},
		{
			name:        "Bounds",
			yAxis:       YAxisOptions{Min: &one, Max: &nan},
			expected:    model.YScaleConfig{Type: model.LinearScale, Min: &one, Base: 10, Exponent: 1},
			description: "NaN bound is dropped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChartConfig{ChartID: "c", YAxis: tt.yAxis}.YScale()
			assert.Equal(t, tt.expected, got, tt.description)
		})
	}
}

// Test_ChartConfig_Validate tests chart configuration constraints
func Test_ChartConfig_Validate(t *testing.T) {
	assert.NoError(t, ChartConfig{ChartID: "cpu"}.Validate())
	assert.ErrorIs(t, ChartConfig{}.Validate(), ErrInvalidChartConfig)
	assert.ErrorIs(t, ChartConfig{ChartID: "cpu load"}.Validate(), ErrInvalidChartConfig)
	assert.ErrorIs(t, ChartConfig{ChartID: "cpu", Width: -1}.Validate(), ErrInvalidChartConfig)

	assert.Equal(t, DefaultHeight, ChartConfig{}.ContainerHeight())
	assert.Equal(t, DefaultSmallHeight, ChartConfig{SmallChart: true}.ContainerHeight())
	assert.Equal(t, 200, ChartConfig{Height: 200, SmallChart: true}.ContainerHeight())
}

// Test_DateConfig_Window tests the configured window
func Test_DateConfig_Window(t *testing.T) {
	start, end := int64(1000), int64(5000)
	assert.Nil(t, DateConfig{}.Window())
	assert.Nil(t, DateConfig{StartTime: &start}.Window())
	assert.Nil(t, DateConfig{StartTime: &end, EndTime: &start}.Window())

	w := DateConfig{StartTime: &start, EndTime: &end}.Window()
	require.NotNil(t, w)
	assert.Equal(t, 1000.0, w.Lo)
	assert.Equal(t, 5000.0, w.Hi)
}

// Test_LoadDashboard tests YAML dashboard decoding
func Test_LoadDashboard(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		expectError bool
		description string
	}{
		{
			name: "Valid",
			yaml: `
id: ops
width: 100
charts:
  - chartId: cpu
    title: CPU
    data: cpu.json
    yAxis: {type: log, base: "10", min: 1}
    date: {gmt: true, startTime: 1000, endTime: 2000}
  - chartId: mem
    smallChart: true
    data: mem.json
`,
			description: "Should decode every chart",
		},
		{
			name:        "No charts",
			yaml:        "id: ops\ncharts: []\n",
			expectError: true,
			description: "Should require at least one chart",
		},
		{
			name:        "Missing data",
			yaml:        "id: ops\ncharts:\n  - chartId: cpu\n",
			expectError: true,
			description: "Should require a data path",
		},
		{
			name:        "Duplicate ids",
			yaml:        "id: ops\ncharts:\n  - {chartId: a, data: a.json}\n  - {chartId: a, data: b.json}\n",
			expectError: true,
			description: "Should reject duplicate chart ids",
		},
		{
			name:        "Malformed",
			yaml:        "id: [",
			expectError: true,
			description: "Should reject malformed YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := LoadDashboard(strings.NewReader(tt.yaml))
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidDashboard, tt.description)
				return
			}
			require.NoError(t, err, tt.description)
			require.Len(t, d.Charts, 2)
			assert.Equal(t, "ops", d.ID)
			assert.Equal(t, "cpu", d.Charts[0].ChartID)
			assert.Equal(t, "cpu.json", d.Charts[0].Data)
			assert.Equal(t, model.LogScale, d.Charts[0].YScale().Type)
			require.NotNil(t, d.Charts[0].YAxis.Min)
			assert.Equal(t, 1.0, *d.Charts[0].YAxis.Min)
			assert.True(t, d.Charts[0].Date.GMT)
			assert.NotNil(t, d.Charts[0].Date.Window())
			assert.True(t, d.Charts[1].SmallChart)
		})
	}
}

// Test_LoadScript tests YAML gesture script decoding
func Test_LoadScript(t *testing.T) {
	s, err := LoadScript(strings.NewReader(`
steps:
  - {chart: cpu, action: brush, from: 10, to: 40}
  - {chart: cpu, action: toggle, source: a}
  - {action: resize, width: 80, height: 30}
`))
	require.NoError(t, err)
	require.Len(t, s.Steps, 3)
	require.NotNil(t, s.Steps[0].From)
	assert.Equal(t, 40.0, *s.Steps[0].To)

	_, err = LoadScript(strings.NewReader("steps:\n  - {chart: cpu, action: explode}\n"))
	assert.ErrorIs(t, err, ErrInvalidScript)

	_, err = LoadScript(strings.NewReader("steps:\n  - {chart: cpu, action: toggle}\n"))
	assert.ErrorIs(t, err, ErrInvalidScript, "Toggle needs a source")

	_, err = LoadScript(strings.NewReader("steps:\n  - {chart: cpu, action: hide-others}\n"))
	assert.ErrorIs(t, err, ErrInvalidScript, "Hide others needs a source")

	s, err = LoadScript(strings.NewReader("steps:\n  - {chart: cpu, action: hide-others, source: a}\n  - {chart: cpu, action: reset}\n"))
	require.NoError(t, err, "Only source actions need a source")
	assert.Len(t, s.Steps, 2)

	_, err = LoadScript(strings.NewReader("steps:\n  - {action: brush}\n"))
	assert.ErrorIs(t, err, ErrInvalidScript, "Brush needs a chart")
}
