// Package seriesio decodes metric query results into chart series.
//
// The decoder reads the JSON shape returned by an Argus-style metric query
// endpoint: one result per metric expression, each carrying either an error or
// a list of metrics whose datapoints map string timestamps to numeric values.
// Values may be encoded as strings or as numbers and are parsed through
// decimal.Decimal so precision does not depend on the encoding.
//
// Example payload:
//
//	[
//		{
//			"expression": "-1h:system:cpu.user{host=a}:avg",
//			"metrics": [
//				{
//					"scope": "system",
//					"metric": "cpu.user",
//					"tags": {"host": "a"},
//					"datapoints": {"1700000000000": "12.5", "1700000060000": 13}
//				}
//			]
//		},
//		{"expression": "-1h:system:missing:avg", "error": "Metric does not exist"}
//	]
//
// Failed expressions become Invalid series, expressions that returned no
// metrics become NoData series; both keep the expression as their name so the
// legend and messages can refer to them.
package seriesio

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"chartview/internal/model"
	"chartview/internal/utils"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPayload indicates the payload could not be decoded or failed validation.
	ErrInvalidPayload = errors.New("invalid metric payload")
)

// result is the outcome of one metric expression.
type result struct {
	Expression string   `json:"expression" validate:"required"`     // Query expression
	Color      string   `json:"color" validate:"omitempty,hexcolor"` // Optional explicit color
	Error      string   `json:"error"`                               // Upstream error, marks the result invalid
	Metrics    []metric `json:"metrics" validate:"dive"`             // Returned metrics
}

// metric is one time series of a result.
//
// Datapoint keys are Unix millisecond timestamps. Null values are skipped.
type metric struct {
	Scope       string                         `json:"scope"`
	Metric      string                         `json:"metric" validate:"required"`
	Namespace   string                         `json:"namespace"`
	DisplayName string                         `json:"displayName"`
	Tags        map[string]string              `json:"tags"`
	Datapoints  map[string]decimal.NullDecimal `json:"datapoints" validate:"dive,keys,numeric,endkeys"`
	Annotations []annotation                   `json:"annotations" validate:"dive"`
}

// annotation is a flag attached to a metric.
type annotation struct {
	Timestamp int64             `json:"timestamp" validate:"required,gt=0"`
	Type      string            `json:"type" validate:"required"`
	Fields    map[string]string `json:"fields"`
}

// Decoder converts metric query payloads into series.
type Decoder struct {
	validate *validator.Validate // Validator instance for payload validation
}

// NewDecoder creates a decoder.
func NewDecoder() *Decoder {
	return &Decoder{validate: validator.New()}
}

// Decode reads a payload and returns one series per metric, plus one series
// per failed or empty expression.
//
// This method performs the following operations:
//  1. Decodes the JSON array of expression results
//  2. Validates every result, metric and annotation
//  3. Converts datapoints into points sorted by timestamp
//  4. Derives names and class tokens for the legend
//
// Any decoding or validation failure aborts the whole payload with an error
// wrapping ErrInvalidPayload. Upstream query errors are not decoding failures:
// they are reported through Invalid series.
func (d *Decoder) Decode(r io.Reader) ([]model.Series, error) {
	var results []result
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		log.Error().Err(err).Msg("invalid metric payload JSON")
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	series := make([]model.Series, 0, len(results))
	for i := range results {
		res := &results[i]
		if err := d.validate.Struct(res); err != nil {
			log.Warn().Err(err).Str("expression", res.Expression).Msg("metric payload validation failed")
			return nil, fmt.Errorf("%w: result %d: %v", ErrInvalidPayload, i, err)
		}

		switch {
		case res.Error != "":
			series = append(series, model.Series{
				Name:         res.Expression,
				Color:        res.Color,
				Invalid:      true,
				ErrorMessage: res.Error,
			})
		case len(res.Metrics) == 0:
			series = append(series, model.Series{
				Name:   res.Expression,
				Color:  res.Color,
				NoData: true,
			})
		default:
			for _, m := range res.Metrics {
				s, err := toSeries(m)
				if err != nil {
					return nil, fmt.Errorf("%w: result %d: %v", ErrInvalidPayload, i, err)
				}
				if len(res.Metrics) == 1 {
					s.Color = res.Color
				}
				series = append(series, s)
			}
		}
	}

	for i := range series {
		token, err := utils.ClassToken(series[i].Name, i)
		if err != nil {
			return nil, fmt.Errorf("%w: series %d: %v", ErrInvalidPayload, i, err)
		}
		series[i].ClassToken = token
	}

	log.Debug().Int("series", len(series)).Msg("metric payload decoded")
	return series, nil
}

// toSeries converts a validated metric into a series with sorted points.
func toSeries(m metric) (model.Series, error) {
	points := make([]model.Point, 0, len(m.Datapoints))
	for key, value := range m.Datapoints {
		if !value.Valid {
			continue
		}
		ts, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return model.Series{}, fmt.Errorf("timestamp %q: %w", key, err)
		}
		points = append(points, model.Point{T: ts, V: value.Decimal.InexactFloat64()})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].T < points[j].T })

	annotations := make([]model.Annotation, 0, len(m.Annotations))
	for _, a := range m.Annotations {
		annotations = append(annotations, model.Annotation{T: a.Timestamp, Label: a.Type, Fields: a.Fields})
	}
	sort.Slice(annotations, func(i, j int) bool { return annotations[i].T < annotations[j].T })

	return model.Series{
		Name:        SeriesName(m.Scope, m.Metric, m.Namespace, m.DisplayName, m.Tags),
		Points:      points,
		Annotations: annotations,
	}, nil
}

// SeriesName builds the legend name of a metric.
//
// A display name wins when present. Otherwise the name is
// "[namespace:]scope:metric{k1=v1,k2=v2}" with tags sorted by key, which keeps
// names stable across queries.
func SeriesName(scope, metricName, namespace, displayName string, tags map[string]string) string {
	if displayName != "" {
		return displayName
	}

	var b strings.Builder
	if namespace != "" {
		b.WriteString(namespace)
		b.WriteByte(':')
	}
	if scope != "" {
		b.WriteString(scope)
		b.WriteByte(':')
	}
	b.WriteString(metricName)

	if len(tags) > 0 {
		keys := make([]string, 0, len(tags))
		for k := range tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(tags[k])
		}
		b.WriteByte('}')
	}
	return b.String()
}
