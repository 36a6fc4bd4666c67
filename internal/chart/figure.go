// Package chart builds the figures shown by the dashboard. Figures serialise
// to the JSON layout plotly.js expects and can also be rendered to PNG.
package chart

import (
	"encoding/json"
	"math"
)

// Series is a numeric trace column. NaN values serialise as null, which
// plotly draws as gaps.
type Series []float64

// MarshalJSON implements json.Marshaler.
func (s Series) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(s))
	for i := range s {
		if !math.IsNaN(s[i]) && !math.IsInf(s[i], 0) {
			out[i] = &s[i]
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Nulls read back as NaN.
func (s *Series) UnmarshalJSON(data []byte) error {
	var in []*float64
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in == nil {
		*s = nil
		return nil
	}
	out := make(Series, len(in))
	for i, v := range in {
		out[i] = math.NaN()
		if v != nil {
			out[i] = *v
		}
	}
	*s = out
	return nil
}

// Matrix is a heatmap z grid, rows along y. NaN cells serialise as null.
type Matrix [][]float64

// MarshalJSON implements json.Marshaler.
func (m Matrix) MarshalJSON() ([]byte, error) {
	rows := make([]Series, len(m))
	for i, r := range m {
		rows[i] = Series(r)
	}
	return json.Marshal(rows)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var rows []Series
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	if rows == nil {
		*m = nil
		return nil
	}
	out := make(Matrix, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	*m = out
	return nil
}

// Labels is a per-point text column. Empty strings serialise as null so that
// ring separators carry no label.
type Labels []string

// MarshalJSON implements json.Marshaler.
func (l Labels) MarshalJSON() ([]byte, error) {
	out := make([]*string, len(l))
	for i := range l {
		if l[i] != "" {
			out[i] = &l[i]
		}
	}
	return json.Marshal(out)
}

// Line styles a scatter outline.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

// Marker styles box plots.
type Marker struct {
	Color string `json:"color,omitempty"`
}

// Trace is one plotly trace. Only the attributes the dashboard uses are modelled.
type Trace struct {
	Type       string  `json:"type"`
	Name       string  `json:"name,omitempty"`
	Mode       string  `json:"mode,omitempty"`
	X          Series  `json:"x,omitempty"`
	Y          Series  `json:"y,omitempty"`
	Z          Matrix  `json:"z,omitempty"`
	Text       Labels  `json:"text,omitempty"`
	HoverInfo  string  `json:"hoverinfo,omitempty"`
	HoverOn    string  `json:"hoveron,omitempty"`
	Fill       string  `json:"fill,omitempty"`
	FillColor  string  `json:"fillcolor,omitempty"`
	Line       *Line   `json:"line,omitempty"`
	Marker     *Marker `json:"marker,omitempty"`
	ColorScale string  `json:"colorscale,omitempty"`
	BoxPoints  string  `json:"boxpoints,omitempty"`
	ShowLegend *bool   `json:"showlegend,omitempty"`

	// XLabels holds category names of box traces (one per Y value); it
	// replaces X when set.
	XLabels []string `json:"-"`
}

// MarshalJSON writes categorical x values for box traces.
func (t Trace) MarshalJSON() ([]byte, error) {
	type plain Trace
	if t.XLabels == nil {
		return json.Marshal(plain(t))
	}
	return json.Marshal(struct {
		plain
		X []string `json:"x"`
	}{plain: plain(t), X: t.XLabels})
}

// UnmarshalJSON reads x into XLabels when it holds category names and into X
// otherwise.
func (t *Trace) UnmarshalJSON(data []byte) error {
	type plain Trace
	var raw struct {
		plain
		X json.RawMessage `json:"x"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Trace(raw.plain)
	if len(raw.X) == 0 || string(raw.X) == "null" {
		return nil
	}

	var labels []*string
	if err := json.Unmarshal(raw.X, &labels); err == nil && isCategorical(labels) {
		t.XLabels = make([]string, len(labels))
		for i, l := range labels {
			if l != nil {
				t.XLabels[i] = *l
			}
		}
		return nil
	}
	return json.Unmarshal(raw.X, &t.X)
}

// isCategorical reports whether a decoded x column holds at least one string.
func isCategorical(labels []*string) bool {
	for _, l := range labels {
		if l != nil {
			return true
		}
	}
	return false
}

// Font sets annotation text size.
type Font struct {
	Size int `json:"size,omitempty"`
}

// Annotation is free text placed on the plot.
type Annotation struct {
	Text      string  `json:"text"`
	ShowArrow bool    `json:"showarrow"`
	Font      *Font   `json:"font,omitempty"`
	XRef      string  `json:"xref,omitempty"`
	YRef      string  `json:"yref,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// Axis configures one axis.
type Axis struct {
	Title       string `json:"title,omitempty"`
	Visible     *bool  `json:"visible,omitempty"`
	ScaleAnchor string `json:"scaleanchor,omitempty"`
}

// Margin is the plot margin in pixels.
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

// Layout is the figure layout.
type Layout struct {
	Title       string       `json:"title,omitempty"`
	XAxis       Axis         `json:"xaxis"`
	YAxis       Axis         `json:"yaxis"`
	Annotations []Annotation `json:"annotations,omitempty"`
	ShowLegend  *bool        `json:"showlegend,omitempty"`
	Margin      *Margin      `json:"margin,omitempty"`
}

// Figure is a plotly figure.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Clone returns a deep enough copy for independent trace-list edits.
func (f *Figure) Clone() *Figure {
	out := *f
	out.Data = append([]Trace(nil), f.Data...)
	out.Layout.Annotations = append([]Annotation(nil), f.Layout.Annotations...)
	return &out
}

// Placeholder returns an empty figure with hidden axes and text in the middle.
func Placeholder(text string) *Figure {
	hidden := false
	return &Figure{
		Data: []Trace{},
		Layout: Layout{
			XAxis: Axis{Visible: &hidden},
			YAxis: Axis{Visible: &hidden},
			Annotations: []Annotation{{
				Text:      text,
				ShowArrow: false,
				Font:      &Font{Size: 20},
				XRef:      "paper",
				YRef:      "paper",
				X:         0.5,
				Y:         0.5,
			}},
		},
	}
}

// IsPlaceholder reports whether f carries no data, only annotation text.
func (f *Figure) IsPlaceholder() bool {
	return len(f.Data) == 0 && len(f.Layout.Annotations) > 0
}

// PlaceholderText returns the annotation of a placeholder figure.
func (f *Figure) PlaceholderText() string {
	if !f.IsPlaceholder() {
		return ""
	}
	return f.Layout.Annotations[0].Text
}
