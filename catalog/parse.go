// ABOUTME: Parses the reporting backend's JSON payload into a Catalog using gjson.
// ABOUTME: Accepts numbers encoded as strings and nulls, fills implicit block starts, and enforces ordering.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ErrInvalidPayload is returned when the payload cannot be turned into a catalog.
var ErrInvalidPayload = errors.New("invalid catalog payload")

// Parse reads a backend payload. The payload holds one entry per column
// (partition) in "myData", "clDistrib", "simplificationPoints", and
// "maxConflRestart". Every section is optional.
func Parse(data []byte) (*Catalog, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidPayload)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalidPayload)
	}

	cat := &Catalog{
		ID:              uuid.NewString(),
		Simplifications: make(SimplificationIndex),
		MaxConflicts:    make(map[int]float64),
	}

	for col, column := range root.Get("myData").Array() {
		for n, entry := range column.Array() {
			s, err := parseSeries(entry, col, n)
			if err != nil {
				return nil, fmt.Errorf("%w: myData[%d][%d]: %v", ErrInvalidPayload, col, n, err)
			}
			cat.Series = append(cat.Series, s)
		}
	}

	for col, column := range root.Get("clDistrib").Array() {
		for row, entry := range column.Array() {
			h, err := parseHeatmap(entry, col, row)
			if err != nil {
				return nil, fmt.Errorf("%w: clDistrib[%d][%d]: %v", ErrInvalidPayload, col, row, err)
			}
			cat.Heatmaps = append(cat.Heatmaps, h)
		}
	}

	for col, column := range root.Get("simplificationPoints").Array() {
		points, err := parsePoints(column)
		if err != nil {
			return nil, fmt.Errorf("%w: simplificationPoints[%d]: %v", ErrInvalidPayload, col, err)
		}
		cat.Simplifications[col] = points
	}

	for col, v := range root.Get("maxConflRestart").Array() {
		maxConfl, err := number(v)
		if err != nil {
			return nil, fmt.Errorf("%w: maxConflRestart[%d]: %v", ErrInvalidPayload, col, err)
		}
		cat.MaxConflicts[col] = maxConfl
	}

	if err := checkUniqueIDs(cat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return cat, nil
}

func parseSeries(entry gjson.Result, col, n int) (Series, error) {
	if !entry.IsObject() {
		return Series{}, fmt.Errorf("series entry must be an object")
	}

	partition := col
	if v := entry.Get("colnum"); v.Exists() {
		p, err := number(v)
		if err != nil {
			return Series{}, fmt.Errorf("colnum: %v", err)
		}
		partition = int(p)
	}

	s := Series{
		ID:        stringOr(entry.Get("dataDivID"), fmt.Sprintf("toplot_%d_%d_datadiv", n, partition)),
		Partition: partition,
		Title:     entry.Get("title").String(),
		Stacked:   entry.Get("stacked").Bool(),
		BlockID:   stringOr(entry.Get("blockDivID"), ChartBlockID(n, partition)),
		LabelID:   stringOr(entry.Get("labelDivID"), fmt.Sprintf("toplot_%d_%d_labeldiv", n, partition)),
	}
	for _, l := range entry.Get("labels").Array() {
		s.Labels = append(s.Labels, l.String())
	}

	lastX := math.Inf(-1)
	for i, raw := range entry.Get("data").Array() {
		if !raw.IsArray() {
			return Series{}, fmt.Errorf("row %d: must be an array", i)
		}
		cells := raw.Array()
		if len(cells) == 0 {
			return Series{}, fmt.Errorf("row %d: empty", i)
		}
		x, err := number(cells[0])
		if err != nil {
			return Series{}, fmt.Errorf("row %d: x: %v", i, err)
		}
		if math.IsNaN(x) {
			return Series{}, fmt.Errorf("row %d: x is null", i)
		}
		if x < lastX {
			return Series{}, fmt.Errorf("row %d: x %g decreases (previous %g)", i, x, lastX)
		}
		lastX = x

		row := Row{X: x, Y: make([]float64, 0, len(cells)-1)}
		for j, c := range cells[1:] {
			y, err := number(c)
			if err != nil {
				return Series{}, fmt.Errorf("row %d column %d: %v", i, j+1, err)
			}
			row.Y = append(row.Y, y)
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

func parseHeatmap(entry gjson.Result, col, row int) (Heatmap, error) {
	if !entry.IsObject() {
		return Heatmap{}, fmt.Errorf("heatmap entry must be an object")
	}

	h := Heatmap{
		ID:        stringOr(entry.Get("canvasID"), fmt.Sprintf("drawingPad%d-%d", col, row)),
		Partition: col,
		Title:     entry.Get("title").String(),
		LookAt:    entry.Get("lookAt").String(),
		BlockID:   stringOr(entry.Get("blockDivID"), HeatmapBlockID(col, row)),
	}

	lastEnd := 0.0
	for i, raw := range entry.Get("data").Array() {
		start := lastEnd
		if v := raw.Get("conflStart"); v.Exists() {
			s, err := number(v)
			if err != nil {
				return Heatmap{}, fmt.Errorf("block %d: conflStart: %v", i, err)
			}
			start = s
		}
		end, err := number(raw.Get("conflEnd"))
		if err != nil {
			return Heatmap{}, fmt.Errorf("block %d: conflEnd: %v", i, err)
		}
		if math.IsNaN(start) || math.IsNaN(end) {
			return Heatmap{}, fmt.Errorf("block %d: missing bounds", i)
		}
		if end < start {
			return Heatmap{}, fmt.Errorf("block %d: conflEnd %g before conflStart %g", i, end, start)
		}
		if i > 0 && start < h.Blocks[i-1].ConflStart {
			return Heatmap{}, fmt.Errorf("block %d: out of order", i)
		}

		b := HeatmapBlock{ConflStart: start, ConflEnd: end}
		for j, d := range raw.Get("darkness").Array() {
			v, err := number(d)
			if err != nil {
				return Heatmap{}, fmt.Errorf("block %d bucket %d: %v", i, j, err)
			}
			if math.IsNaN(v) {
				v = 0
			}
			b.Darkness = append(b.Darkness, v)
		}
		h.Blocks = append(h.Blocks, b)
		lastEnd = end
	}
	return h, nil
}

// parsePoints reads a simplification point list. A repeat of the previous
// point is dropped (the backend always prepends 0, which may coincide with
// the first group), a decrease is an error.
func parsePoints(column gjson.Result) ([]float64, error) {
	var points []float64
	for i, v := range column.Array() {
		p, err := number(v)
		if err != nil {
			return nil, fmt.Errorf("point %d: %v", i, err)
		}
		if math.IsNaN(p) {
			continue
		}
		if n := len(points); n > 0 {
			if p == points[n-1] {
				continue
			}
			if p < points[n-1] {
				return nil, fmt.Errorf("point %d: %g is not increasing", i, p)
			}
		}
		points = append(points, p)
	}
	return points, nil
}

// number converts a JSON number, numeric string, or null (NaN) to float64.
// Infinities, and NaN spelled out as a string, are rejected; null is the only
// way to leave a value out.
func number(v gjson.Result) (float64, error) {
	switch v.Type {
	case gjson.Number:
		if math.IsInf(v.Num, 0) {
			return 0, fmt.Errorf("not finite: %s", v.Raw)
		}
		return v.Num, nil
	case gjson.Null:
		return math.NaN(), nil
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v.Str)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("not finite: %q", v.Str)
		}
		return f, nil
	default:
		if !v.Exists() {
			return 0, fmt.Errorf("missing value")
		}
		return 0, fmt.Errorf("not a number: %s", v.Raw)
	}
}

func stringOr(v gjson.Result, fallback string) string {
	if s := v.String(); s != "" {
		return s
	}
	return fallback
}

func checkUniqueIDs(cat *Catalog) error {
	ids := make(map[string]bool)
	blocks := make(map[string]bool)
	check := func(id, block string) error {
		if ids[id] {
			return fmt.Errorf("duplicate panel id %q", id)
		}
		if blocks[block] {
			return fmt.Errorf("duplicate block id %q", block)
		}
		ids[id] = true
		blocks[block] = true
		return nil
	}
	for _, s := range cat.Series {
		if err := check(s.ID, s.BlockID); err != nil {
			return err
		}
	}
	for _, h := range cat.Heatmaps {
		if err := check(h.ID, h.BlockID); err != nil {
			return err
		}
	}
	return nil
}
