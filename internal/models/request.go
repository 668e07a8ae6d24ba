package models

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/homedash/internal/aggregation"
	"github.com/soltixdb/homedash/internal/readings"
	"github.com/soltixdb/homedash/internal/utils"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FilterRequest is the input shared by every data endpoint: a time range, a
// room and metric selection and the optional per-endpoint knobs
type FilterRequest struct {
	Start            string   `json:"start"`
	End              string   `json:"end"`
	Rooms            []string `json:"rooms"`
	Metrics          []string `json:"metrics"`
	Granularity      string   `json:"granularity"`
	Detail           bool     `json:"detail"`
	Downsampling     string   `json:"downsampling" validate:"omitempty,oneof=none auto lttb minmax avg m4"`
	Threshold        int      `json:"downsampling_threshold" validate:"gte=0"`
	Anomaly          string   `json:"anomaly_detection" validate:"omitempty,oneof=none zscore iqr moving_avg"`
	AnomalyThreshold float64  `json:"anomaly_threshold" validate:"gte=0"`
	Limit            int      `json:"limit" validate:"gte=0,lte=1000"`
	Format           string   `json:"format" validate:"omitempty,oneof=csv xlsx"`
}

// ParseFilterQuery reads a FilterRequest from query parameters
func ParseFilterQuery(c *fiber.Ctx) (*FilterRequest, error) {
	req := &FilterRequest{
		Start:        c.Query("start"),
		End:          c.Query("end"),
		Rooms:        SplitList(c.Query("rooms")),
		Metrics:      SplitList(c.Query("metrics")),
		Granularity:  c.Query("granularity"),
		Downsampling: c.Query("downsampling"),
		Anomaly:      c.Query("anomaly_detection"),
		Format:       strings.ToLower(c.Query("format")),
	}

	var err error
	if req.Detail, err = queryBool(c, "detail"); err != nil {
		return nil, err
	}
	if req.Threshold, err = queryInt(c, "downsampling_threshold"); err != nil {
		return nil, err
	}
	if req.Limit, err = queryInt(c, "limit"); err != nil {
		return nil, err
	}
	if s := c.Query("anomaly_threshold"); s != "" {
		if req.AnomalyThreshold, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, badRequest("anomaly_threshold must be a number")
		}
	}
	return req, nil
}

// ParseFilterBody reads a FilterRequest from a JSON body
func ParseFilterBody(c *fiber.Ctx) (*FilterRequest, error) {
	var req FilterRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, badRequest("failed to parse JSON body: " + err.Error())
	}
	req.Format = strings.ToLower(req.Format)
	return &req, nil
}

// Validate checks field constraints and converts the request for the engine.
// Dates without a time are read in loc; a date-only end covers its whole day.
// Start after End is left to the engine, which reports it as an invalid range.
func (r *FilterRequest) Validate(loc *time.Location) (aggregation.Request, error) {
	var out aggregation.Request

	if err := validate.Struct(r); err != nil {
		return out, badRequest(describe(err))
	}

	var err error
	if out.Start, err = ParseTime(r.Start, loc, false); err != nil {
		return out, badRequest("start must be RFC3339 or YYYY-MM-DD")
	}
	if out.End, err = ParseTime(r.End, loc, true); err != nil {
		return out, badRequest("end must be RFC3339 or YYYY-MM-DD")
	}

	if out.Granularity, err = aggregation.ParseGranularity(r.Granularity); err != nil {
		return out, badRequest("granularity must be one of: daily, weekly, monthly, yearly")
	}

	for _, name := range r.Metrics {
		m, err := readings.ParseMetric(name)
		if err != nil {
			return out, badRequest("metrics must be any of: temperature, humidity, energy")
		}
		out.Metrics = appendMetric(out.Metrics, m)
	}

	out.Rooms = r.Rooms
	out.Detail = r.Detail
	return out, nil
}

// RecentLimit returns the requested row count or the default
func (r *FilterRequest) RecentLimit() int {
	if r.Limit <= 0 {
		return utils.DefaultRecentRows
	}
	return r.Limit
}

// ReportRequest selects a daily report
type ReportRequest struct {
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Room   string `json:"room" validate:"omitempty,alphanum"`
	Format string `json:"format" validate:"omitempty,oneof=json text"`
}

// ParseReportQuery reads and validates a ReportRequest from query parameters
func ParseReportQuery(c *fiber.Ctx) (*ReportRequest, error) {
	req := &ReportRequest{
		Date:   c.Query("date"),
		Room:   c.Query("room"),
		Format: strings.ToLower(c.Query("format")),
	}
	if err := validate.Struct(req); err != nil {
		return nil, badRequest(describe(err))
	}
	return req, nil
}

// ParseTime parses an RFC3339 timestamp, a local date-time or a date. Empty is
// the zero time. When endOfDay is set a bare date means the last instant of
// that day.
func ParseTime(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

// SplitList splits a comma separated parameter, dropping blanks
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func appendMetric(list []readings.Metric, m readings.Metric) []readings.Metric {
	for _, existing := range list {
		if existing == m {
			return list
		}
	}
	return append(list, m)
}

func queryBool(c *fiber.Ctx, key string) (bool, error) {
	s := c.Query(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, badRequest(key + " must be true or false")
	}
	return v, nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, badRequest(key + " must be an integer")
	}
	return v, nil
}

// describe turns validator errors into one readable message
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+strings.ReplaceAll(fe.Param(), " ", ", "))
		case "gte", "lte":
			msgs = append(msgs, field+" is out of range")
		case "datetime":
			msgs = append(msgs, field+" must be YYYY-MM-DD")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func badRequest(msg string) *fiber.Error {
	return &fiber.Error{Code: fiber.StatusBadRequest, Message: msg}
}
