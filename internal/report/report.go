// Package report produces the write-once audit records created for every
// terminal handover decision.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aparate/handover/internal/domain"
	"github.com/aparate/handover/internal/events"
)

// Sink persists a report. Save returns a location descriptor (file path,
// table row id) for logging.
type Sink interface {
	Save(ctx context.Context, report domain.HandoverReport) (string, error)
}

// Build assembles a report from a case and a decision outcome.
func Build(caseData domain.Case, valid bool, rejectReason, comments string) domain.HandoverReport {
	return domain.HandoverReport{
		ID:              uuid.NewString(),
		CaseNumber:      caseData.CaseNumber,
		Severity:        caseData.Severity,
		SendingEngineer: caseData.SendingEngineer,
		Vertical:        caseData.Vertical,
		SAP:             caseData.SAP,
		Valid:           valid,
		RejectReason:    rejectReason,
		TAReviewer:      caseData.TAReviewer,
		Comments:        comments,
		Timestamp:       time.Now().UTC(),
	}
}

// Generator fans a report out to the configured sinks. Sink failures are
// logged and never fail the dialog turn that triggered the report.
type Generator struct {
	sinks      []Sink
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewGenerator creates a generator over the given sinks.
func NewGenerator(dispatcher events.Dispatcher, logger *zap.Logger, sinks ...Sink) *Generator {
	return &Generator{sinks: sinks, dispatcher: dispatcher, logger: logger}
}

// Generate builds and persists a report for the given outcome.
func (g *Generator) Generate(ctx context.Context, caseData domain.Case, valid bool, rejectReason, comments string) domain.HandoverReport {
	rep := Build(caseData, valid, rejectReason, comments)

	var lastLocation string
	for _, sink := range g.sinks {
		location, err := sink.Save(ctx, rep)
		if err != nil {
			g.logger.Error("persist handover report",
				zap.String("report_id", rep.ID),
				zap.String("case_number", rep.CaseNumber),
				zap.Error(err))
			continue
		}
		lastLocation = location
		g.logger.Info("handover report saved",
			zap.String("report_id", rep.ID),
			zap.String("case_number", rep.CaseNumber),
			zap.String("location", location))
	}

	if g.dispatcher != nil {
		_ = g.dispatcher.Publish(ctx, events.New(events.EventReportWritten, rep.CaseNumber, events.ReportWrittenPayload{
			ReportID: rep.ID,
			Valid:    rep.Valid,
			Path:     lastLocation,
		}))
	}
	return rep
}
