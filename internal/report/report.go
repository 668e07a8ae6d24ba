// Package report builds the daily home summary: total energy, mean temperature
// and mean humidity of one room over one calendar day, plus that day's readings
// for charting.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/homedash/internal/aggregation"
	"github.com/soltixdb/homedash/internal/readings"
	"github.com/soltixdb/homedash/internal/utils"
)

// DateLayout is the layout of report dates
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid report date")

// Daily is the summary of one day
type Daily struct {
	ID              string    `json:"id"`
	Date            string    `json:"date"`
	Room            string    `json:"room"`
	Timezone        string    `json:"timezone"`
	GeneratedAt     time.Time `json:"generated_at"`
	Rows            int       `json:"rows"`
	TotalEnergy     *float64  `json:"total_energy_kwh"`
	MeanTemperature *float64  `json:"mean_temperature_c"`
	MeanHumidity    *float64  `json:"mean_humidity_pct"`
	NoData          bool      `json:"no_data"`
	Points          []Point   `json:"points,omitempty"`
}

// Point is one reading of the report day, for charting. Missing values are null.
type Point struct {
	Time        time.Time `json:"time"`
	Energy      *float64  `json:"energy_kwh"`
	Temperature *float64  `json:"temperature_c"`
	Humidity    *float64  `json:"humidity_pct"`
}

// Builder builds reports against one store
type Builder struct {
	store *readings.Store
	loc   *time.Location
	room  string
	now   func() time.Time
}

// NewBuilder creates a builder. Days are cut in loc; room defaults to the
// living room.
func NewBuilder(store *readings.Store, loc *time.Location, room string) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	if room == "" {
		room = utils.DefaultReportRoom
	}
	return &Builder{store: store, loc: loc, room: room, now: time.Now}
}

// Room returns the default room of the builder
func (b *Builder) Room() string { return b.room }

// HasRoom reports whether the dataset has any column for room
func (b *Builder) HasRoom(room string) bool {
	return b.store.Schema().HasRoom(room)
}

// Location returns the timezone days are cut in
func (b *Builder) Location() *time.Location { return b.loc }

// Today builds the report of the current day for the default room
func (b *Builder) Today() *Daily {
	return b.Build(b.now().In(b.loc), "")
}

// ParseDate parses a YYYY-MM-DD date in the builder's timezone. An empty string
// is today.
func (b *Builder) ParseDate(s string) (time.Time, error) {
	if s == "" {
		return b.now().In(b.loc), nil
	}
	t, err := time.ParseInLocation(DateLayout, s, b.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Build summarizes the calendar day containing day. An empty room uses the
// builder's default.
func (b *Builder) Build(day time.Time, room string) *Daily {
	if room == "" {
		room = b.room
	}
	start := aggregation.TruncateToDay(day.In(b.loc))
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	rep := &Daily{
		ID:          uuid.New().String(),
		Date:        start.Format(DateLayout),
		Room:        room,
		Timezone:    b.loc.String(),
		GeneratedAt: b.now().UTC(),
	}

	rows := b.store.Between(start, end)
	rep.Rows = len(rows)
	if len(rows) == 0 {
		rep.NoData = true
		return rep
	}

	energy := b.energySeries(room)
	temperature := readings.SeriesKey{Room: room, Metric: readings.MetricTemperature}
	humidity := readings.SeriesKey{Room: room, Metric: readings.MetricHumidity}

	kpis := aggregation.Summarize(rows, []readings.SeriesKey{energy, temperature, humidity})
	rep.TotalEnergy = headline(kpis[energy.Name()])
	rep.MeanTemperature = headline(kpis[temperature.Name()])
	rep.MeanHumidity = headline(kpis[humidity.Name()])

	rep.Points = make([]Point, len(rows))
	for i, r := range rows {
		rep.Points[i] = Point{
			Time:        r.Time.In(b.loc),
			Energy:      value(r, energy),
			Temperature: value(r, temperature),
			Humidity:    value(r, humidity),
		}
	}
	return rep
}

func value(r readings.Reading, key readings.SeriesKey) *float64 {
	v, ok := r.Value(key)
	if !ok {
		return nil
	}
	return utils.Float64Ptr(v)
}

// energySeries prefers the whole-home meter and falls back to the room's own
func (b *Builder) energySeries(room string) readings.SeriesKey {
	house := readings.SeriesKey{Room: readings.WholeHome, Metric: readings.MetricEnergy}
	if b.store.Schema().Has(house) {
		return house
	}
	own := readings.SeriesKey{Room: room, Metric: readings.MetricEnergy}
	if b.store.Schema().Has(own) {
		return own
	}
	return house
}

func headline(k aggregation.KPI) *float64 {
	v, ok := k.Headline()
	if !ok {
		return nil
	}
	return utils.Float64Ptr(v)
}

// Subject is the mail-style subject line of the report
func (r *Daily) Subject() string {
	return "Smart Home Daily Report - " + r.Date
}

// Text renders the report as plain text
func (r *Daily) Text() string {
	if r.NoData {
		return fmt.Sprintf("No data available for %s.", r.Date)
	}

	var sb strings.Builder
	sb.WriteString(r.Subject())
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Total Energy Consumption: %s\n", format(r.TotalEnergy, readings.MetricEnergy))
	fmt.Fprintf(&sb, "Average Temperature (%s): %s\n", r.Room, format(r.MeanTemperature, readings.MetricTemperature))
	fmt.Fprintf(&sb, "Average Humidity (%s): %s\n", r.Room, format(r.MeanHumidity, readings.MetricHumidity))
	return sb.String()
}

func format(v *float64, m readings.Metric) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f %s", utils.DisplayPrecision, *v, m.Unit())
}
