package report

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aparate/handover/internal/domain"
)

// PGArchive persists reports to the handover_reports table. It is an optional
// secondary sink; the file store remains the primary record.
type PGArchive struct {
	pool *pgxpool.Pool
}

// NewPGArchive instantiates the archive.
func NewPGArchive(pool *pgxpool.Pool) *PGArchive {
	return &PGArchive{pool: pool}
}

// Save inserts the report row and returns its id.
func (a *PGArchive) Save(ctx context.Context, rep domain.HandoverReport) (string, error) {
	const query = `
        INSERT INTO handover_reports (id, case_number, severity, sending_engineer, vertical, sap, valid, reject_reason, ta_reviewer, comments, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := a.pool.Exec(ctx, query,
		rep.ID,
		rep.CaseNumber,
		rep.Severity,
		rep.SendingEngineer,
		rep.Vertical,
		rep.SAP,
		rep.Valid,
		rep.RejectReason,
		rep.TAReviewer,
		rep.Comments,
		rep.Timestamp,
	)
	if err != nil {
		return "", err
	}
	return rep.ID, nil
}
