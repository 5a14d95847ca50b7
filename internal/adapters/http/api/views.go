package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/counters/internal/domain/counter"
)

// Error messages returned in ErrorView bodies.
const (
	msgNotFound    = "Counter not found"
	msgConflict    = "Counter already exists"
	msgInvalidName = "Invalid counter name"
	msgInternal    = "Internal server error"
)

// CounterView renders a counter as {"<name>": <value>}.
type CounterView struct {
	Name  string
	Value int64
}

func newCounterView(c counter.Counter) CounterView {
	return CounterView{Name: c.Name, Value: c.Value}
}

// MarshalJSON implements json.Marshaler.
func (v CounterView) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int64{v.Name: v.Value})
}

// UnmarshalJSON implements json.Unmarshaler. The object must hold exactly
// one member.
func (v *CounterView) UnmarshalJSON(data []byte) error {
	var m map[string]int64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("counter view: expected one member, got %d", len(m))
	}
	for name, value := range m {
		v.Name, v.Value = name, value
	}
	return nil
}

// CounterListView renders counters as a single object keyed by name, in
// slice order.
type CounterListView []CounterView

// MarshalJSON implements json.Marshaler.
func (l CounterListView) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", v.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ErrorView is the body of every error response.
type ErrorView struct {
	Error string `json:"error"`
}
