package nbastats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/okian/defscout/internal/domain/model"
)

type resultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

type response struct {
	ResultSets []resultSet `json:"resultSets"`
	// Some endpoints return a single object under resultSet.
	ResultSet *resultSet `json:"resultSet"`
}

// decodeTable parses the first result set of body into a RawTable. A column
// is numeric when every non-null value in it is a JSON number; null numeric
// cells become NaN.
func decodeTable(name string, body []byte) (model.RawTable, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var resp response
	if err := dec.Decode(&resp); err != nil {
		return model.RawTable{}, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	var rs *resultSet
	switch {
	case len(resp.ResultSets) > 0:
		rs = &resp.ResultSets[0]
	case resp.ResultSet != nil:
		rs = resp.ResultSet
	default:
		return model.RawTable{}, fmt.Errorf("%w: %s", ErrNoResultSet, name)
	}

	numeric := make([]bool, len(rs.Headers))
	for i := range numeric {
		numeric[i] = true
	}
	for r, row := range rs.RowSet {
		if len(row) != len(rs.Headers) {
			return model.RawTable{}, fmt.Errorf("%w: %s row %d has %d cells for %d headers",
				ErrDecode, name, r, len(row), len(rs.Headers))
		}
		for i, cell := range row {
			if cell == nil {
				continue
			}
			if _, ok := cell.(json.Number); !ok {
				numeric[i] = false
			}
		}
	}

	t := model.RawTable{Name: name, Columns: make([]model.Column, len(rs.Headers))}
	for i, h := range rs.Headers {
		t.Columns[i] = model.Column{Name: h, Numeric: numeric[i]}
	}
	t.Rows = make([]model.Row, 0, len(rs.RowSet))
	for _, row := range rs.RowSet {
		out := model.NewRow()
		for i, cell := range row {
			col := rs.Headers[i]
			if numeric[i] {
				out.Num[col] = toFloat(cell)
				continue
			}
			out.Str[col] = toString(cell)
		}
		t.Rows = append(t.Rows, out)
	}
	return t, nil
}

func toFloat(cell any) float64 {
	n, ok := cell.(json.Number)
	if !ok {
		return math.NaN()
	}
	f, err := n.Float64()
	if err != nil {
		return math.NaN()
	}
	return f
}

func toString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// tagSeason adds a SEASON column to every row of t.
func tagSeason(t model.RawTable, season string) model.RawTable {
	if !t.Has(model.ColSeason) {
		t.Columns = append(t.Columns, model.Column{Name: model.ColSeason})
	}
	for _, r := range t.Rows {
		r.Str[model.ColSeason] = season
	}
	return t
}
