package services

import (
	"context"
	"fmt"

	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/report"
)

// ReportService builds daily reports on demand
type ReportService struct {
	logger  *logging.Logger
	builder *report.Builder
}

// NewReportService creates a new ReportService
func NewReportService(logger *logging.Logger, builder *report.Builder) *ReportService {
	return &ReportService{
		logger:  logger,
		builder: builder,
	}
}

// Daily builds the report of date (YYYY-MM-DD, empty for today) for room
// (empty for the configured room)
func (s *ReportService) Daily(ctx context.Context, date, room string) (*report.Daily, error) {
	day, err := s.builder.ParseDate(date)
	if err != nil {
		return nil, classify(err)
	}
	if room != "" && !s.builder.HasRoom(room) {
		return nil, NewServiceErrorWithDetails(CodeNotFound,
			fmt.Sprintf("room %q not found", room),
			map[string]interface{}{"room": room})
	}

	rep := s.builder.Build(day, room)
	logging.FromContext(ctx).Debug("Daily report built",
		"report_id", rep.ID,
		"date", rep.Date,
		"room", rep.Room,
		"rows", rep.Rows)
	return rep, nil
}
