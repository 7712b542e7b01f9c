package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ReservedStatsKey is the stats entry that carries subsystem health instead of a metric.
const ReservedStatsKey = "system_status"

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// MDashboardSnapshot is one complete copy of the backend dashboard state.
// ReservedStatus holds the entries extracted from stats[ReservedStatsKey];
// they never appear in Stats.
type MDashboardSnapshot struct {
	Stats          map[string]MStatValue    `json:"stats"`
	SystemStatus   map[string]MSystemStatus `json:"system_status"`
	RecentOrders   []MOrder                 `json:"recent_orders"`
	AgentStatus    []MAgent                 `json:"agent_status"`
	ReservedStatus map[string]MSystemStatus `json:"-"`
}

type rawSnapshot struct {
	Stats        json.RawMessage `json:"stats"`
	SystemStatus json.RawMessage `json:"system_status"`
	RecentOrders json.RawMessage `json:"recent_orders"`
	AgentStatus  json.RawMessage `json:"agent_status"`
}

// UnmarshalJSON splits the reserved key out of stats and tolerates PHP's
// habit of encoding empty associative arrays as [].
func (s *MDashboardSnapshot) UnmarshalJSON(data []byte) error {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var stats map[string]json.RawMessage
	if err := decodeObject(raw.Stats, &stats); err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	out := MDashboardSnapshot{
		Stats: make(map[string]MStatValue, len(stats)),
	}
	for key, value := range stats {
		if key == ReservedStatsKey {
			if err := decodeObject(value, &out.ReservedStatus); err != nil {
				return fmt.Errorf("stats.%s: %w", key, err)
			}
			continue
		}
		var sv MStatValue
		if err := json.Unmarshal(value, &sv); err != nil {
			return fmt.Errorf("stats.%s: %w", key, err)
		}
		out.Stats[key] = sv
	}

	if err := decodeObject(raw.SystemStatus, &out.SystemStatus); err != nil {
		return fmt.Errorf("system_status: %w", err)
	}
	if err := decodeList(raw.RecentOrders, &out.RecentOrders); err != nil {
		return fmt.Errorf("recent_orders: %w", err)
	}
	if err := decodeList(raw.AgentStatus, &out.AgentStatus); err != nil {
		return fmt.Errorf("agent_status: %w", err)
	}

	*s = out
	return nil
}

// MergedSystemStatus returns the subsystems to display. Top-level entries win
// over the ones extracted from stats.
func (s *MDashboardSnapshot) MergedSystemStatus() map[string]MSystemStatus {
	merged := make(map[string]MSystemStatus, len(s.SystemStatus)+len(s.ReservedStatus))
	for k, v := range s.ReservedStatus {
		merged[k] = v
	}
	for k, v := range s.SystemStatus {
		merged[k] = v
	}
	return merged
}

// -----------------------------------------------------------------------------
// Stats
// -----------------------------------------------------------------------------

// MStatValue is either a bare scalar or a {label, value, trend} record.
type MStatValue struct {
	Label    string   `json:"label,omitempty"`
	Value    MScalar  `json:"value"`
	Trend    *MScalar `json:"trend,omitempty"`
	IsRecord bool     `json:"-"`
}

func (v *MStatValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var rec struct {
			Label string   `json:"label"`
			Value MScalar  `json:"value"`
			Trend *MScalar `json:"trend"`
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		*v = MStatValue{Label: rec.Label, Value: rec.Value, Trend: rec.Trend, IsRecord: true}
		return nil
	}

	var sc MScalar
	if err := sc.UnmarshalJSON(data); err != nil {
		return err
	}
	*v = MStatValue{Value: sc}
	return nil
}

func (v MStatValue) MarshalJSON() ([]byte, error) {
	if !v.IsRecord {
		return json.Marshal(v.Value)
	}
	type rec MStatValue
	return json.Marshal(rec(v))
}

// TrendValue returns the numeric trend, if any.
func (v MStatValue) TrendValue() (float64, bool) {
	if v.Trend == nil {
		return 0, false
	}
	return v.Trend.Float()
}

// -----------------------------------------------------------------------------
// Scalar
// -----------------------------------------------------------------------------

// MScalar is a JSON number or string kept with its numeric interpretation.
type MScalar struct {
	Text    string
	Number  float64
	Numeric bool
}

func (s *MScalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = MScalar{}
		return nil
	}

	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = MScalar{Text: text}
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*s = MScalar{Text: strconv.FormatBool(b)}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("scalar expected, got %s", data)
	}
	*s = MScalar{Text: strconv.FormatFloat(f, 'f', -1, 64), Number: f, Numeric: true}
	return nil
}

func (s MScalar) MarshalJSON() ([]byte, error) {
	if s.Numeric {
		return json.Marshal(s.Number)
	}
	return json.Marshal(s.Text)
}

// Float returns the numeric value, parsing numeric strings as well.
func (s MScalar) Float() (float64, bool) {
	if s.Numeric {
		return s.Number, true
	}
	f, err := strconv.ParseFloat(s.Text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// NumberScalar builds a numeric scalar.
func NumberScalar(f float64) MScalar {
	return MScalar{Text: strconv.FormatFloat(f, 'f', -1, 64), Number: f, Numeric: true}
}

// TextScalar builds a string scalar.
func TextScalar(text string) MScalar {
	return MScalar{Text: text}
}

// MCount is a non-negative count that also accepts numeric strings, null and
// the empty string (zero).
type MCount int

func (c *MCount) UnmarshalJSON(data []byte) error {
	var sc MScalar
	if err := sc.UnmarshalJSON(data); err != nil {
		return err
	}
	if !sc.Numeric && strings.TrimSpace(sc.Text) == "" {
		*c = 0
		return nil
	}
	f, ok := sc.Float()
	if !ok {
		return fmt.Errorf("count expected, got %s", data)
	}
	if f < 0 {
		f = 0
	}
	*c = MCount(f)
	return nil
}

// -----------------------------------------------------------------------------
// System status
// -----------------------------------------------------------------------------

type MSystemStatus struct {
	Label   string         `json:"label"`
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Details MStatusDetails `json:"details,omitempty"`
}

type MStatusDetail struct {
	TableName string `json:"table_name"`
	Exists    bool   `json:"exists"`
	Name      string `json:"name"`
}

// MStatusDetails accepts both a JSON list and a keyed object; object entries
// are ordered by key.
type MStatusDetails []MStatusDetail

func (d *MStatusDetails) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*d = nil
		return nil
	}
	if data[0] == '[' {
		var list []MStatusDetail
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*d = list
		return nil
	}

	var keyed map[string]MStatusDetail
	if err := json.Unmarshal(data, &keyed); err != nil {
		return err
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]MStatusDetail, 0, len(keys))
	for _, k := range keys {
		list = append(list, keyed[k])
	}
	*d = list
	return nil
}

// -----------------------------------------------------------------------------
// Orders & Agents
// -----------------------------------------------------------------------------

type MOrder struct {
	OrderID      int64   `json:"order_id"`
	CustomerName string  `json:"customer_name"`
	Amount       MScalar `json:"amount"`
	Status       string  `json:"status"`
	AgentName    string  `json:"agent_name,omitempty"`
}

type MAgent struct {
	ID               int64  `json:"id"`
	DisplayName      string `json:"display_name"`
	UserEmail        string `json:"user_email"`
	Status           string `json:"status"`
	ActiveDeliveries MCount `json:"active_deliveries"`
}

// -----------------------------------------------------------------------------
// Decoding helpers
// -----------------------------------------------------------------------------

func isEmptyJSON(data json.RawMessage) bool {
	t := bytes.TrimSpace(data)
	return len(t) == 0 || string(t) == "null"
}

func decodeObject[T any](data json.RawMessage, out *map[string]T) error {
	if isEmptyJSON(data) {
		return nil
	}
	t := bytes.TrimSpace(data)
	if t[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(t, &list); err != nil {
			return err
		}
		if len(list) > 0 {
			return fmt.Errorf("object expected, got non-empty list")
		}
		return nil
	}
	return json.Unmarshal(t, out)
}

func decodeList[T any](data json.RawMessage, out *[]T) error {
	if isEmptyJSON(data) {
		return nil
	}
	t := bytes.TrimSpace(data)
	if t[0] == '{' {
		// PHP arrays with non-sequential keys arrive as objects.
		var keyed map[string]T
		if err := json.Unmarshal(t, &keyed); err != nil {
			return err
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })
		for _, k := range keys {
			*out = append(*out, keyed[k])
		}
		return nil
	}
	return json.Unmarshal(t, out)
}

func naturalLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
