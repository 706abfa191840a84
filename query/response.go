package query

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/fmidev/obsengine/cmn"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// TimedValue is one (local time, value) pair within a Column.
type TimedValue struct {
	Time  time.Time `json:"time"`
	Value cmn.Value `json:"value"`
}

// Column is one requested parameter's full time series.
type Column struct {
	Parameter string       `json:"parameter"`
	Values    []TimedValue `json:"values"`
}

// Response is the dispatcher's column-major result: one Column per
// requested parameter, in request order, so a caller streaming CSV/JSON
// never has to transpose a row-major table.
type Response struct {
	Station int       `json:"fmisid,omitempty"`
	Columns []*Column `json:"columns"`
}

// EncodeJSON renders the response with json-iterator, matching the
// ambient stack's choice of encoder for both normal responses and debug
// traces.
func (r *Response) EncodeJSON() ([]byte, error) {
	return jsonAPI.Marshal(r)
}

// column finds or creates the column for name, preserving the order
// columns are first requested in.
func (r *Response) column(name string) *Column {
	for _, c := range r.Columns {
		if c.Parameter == name {
			return c
		}
	}
	c := &Column{Parameter: name}
	r.Columns = append(r.Columns, c)
	return c
}

// Set appends (t, v) to the named column.
func (r *Response) Set(name string, t time.Time, v cmn.Value) {
	c := r.column(name)
	c.Values = append(c.Values, TimedValue{Time: t, Value: v})
}
