package readings

import (
	"fmt"
	"sort"
	"strings"
)

// Schema maps (room, metric) pairs to column positions. It is built once from the
// header of the source file.
type Schema struct {
	Header          []string
	TimestampColumn string
	TimestampIndex  int

	columns map[SeriesKey]int
	rooms   []string
}

// NewSchema builds a schema from a header row. timestampIndex must point at the
// timestamp column. Columns that do not follow the <Metric>_<Room> convention are
// kept in Header but not mapped.
func NewSchema(header []string, timestampIndex int) (*Schema, error) {
	if timestampIndex < 0 || timestampIndex >= len(header) {
		return nil, fmt.Errorf("timestamp column index %d out of range", timestampIndex)
	}

	s := &Schema{
		Header:          append([]string(nil), header...),
		TimestampColumn: header[timestampIndex],
		TimestampIndex:  timestampIndex,
		columns:         make(map[SeriesKey]int),
	}

	roomSet := make(map[string]struct{})
	for i, name := range header {
		if i == timestampIndex {
			continue
		}
		key, ok := ParseColumn(name)
		if !ok {
			continue
		}
		if _, dup := s.columns[key]; dup {
			return nil, fmt.Errorf("duplicate column for series %s: %q", key.Name(), name)
		}
		s.columns[key] = i
		if key.Room != WholeHome {
			roomSet[key.Room] = struct{}{}
		}
	}

	s.rooms = make([]string, 0, len(roomSet))
	for room := range roomSet {
		s.rooms = append(s.rooms, room)
	}
	sort.Strings(s.rooms)

	return s, nil
}

// ParseColumn maps a header name to a series key.
// "Temperature_Kitchen" -> {Kitchen, temperature}; "Energy_Consumption" -> {"", energy}.
func ParseColumn(name string) (SeriesKey, bool) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, HouseEnergyColumn) {
		return SeriesKey{Room: WholeHome, Metric: MetricEnergy}, true
	}

	prefix, room, found := strings.Cut(name, "_")
	if !found || room == "" {
		return SeriesKey{}, false
	}
	for _, m := range AllMetrics() {
		if strings.EqualFold(prefix, m.ColumnPrefix()) {
			return SeriesKey{Room: room, Metric: m}, true
		}
	}
	return SeriesKey{}, false
}

// Lookup returns the column index of a series
func (s *Schema) Lookup(room string, metric Metric) (int, bool) {
	idx, ok := s.columns[SeriesKey{Room: room, Metric: metric}]
	return idx, ok
}

// Has reports whether the series exists in the source
func (s *Schema) Has(key SeriesKey) bool {
	_, ok := s.columns[key]
	return ok
}

// ColumnName returns the header name of a mapped series
func (s *Schema) ColumnName(key SeriesKey) (string, bool) {
	idx, ok := s.columns[key]
	if !ok {
		return "", false
	}
	return s.Header[idx], true
}

// Rooms returns the sorted list of rooms that have at least one column
func (s *Schema) Rooms() []string {
	return append([]string(nil), s.rooms...)
}

// HasRoom reports whether any column references the room
func (s *Schema) HasRoom(room string) bool {
	i := sort.SearchStrings(s.rooms, room)
	return i < len(s.rooms) && s.rooms[i] == room
}

// Series returns every mapped series ordered by room, then metric display order
func (s *Schema) Series() []SeriesKey {
	keys := make([]SeriesKey, 0, len(s.columns))
	for k := range s.columns {
		keys = append(keys, k)
	}
	order := map[Metric]int{MetricTemperature: 0, MetricHumidity: 1, MetricEnergy: 2}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Room != keys[j].Room {
			return keys[i].Room < keys[j].Room
		}
		return order[keys[i].Metric] < order[keys[j].Metric]
	})
	return keys
}
