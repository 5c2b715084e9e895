package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aparate/handover/internal/domain"
)

// FileStore writes one plain-text file per report, named
// handover_<DDMMYY>_<HHMMSS>.txt.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Save writes the report file and returns its path.
func (s *FileStore) Save(_ context.Context, rep domain.HandoverReport) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	local := rep.Timestamp.Local()
	filename := fmt.Sprintf("handover_%s_%s.txt", local.Format("020106"), local.Format("150405"))
	path := filepath.Join(s.dir, filename)

	content := fmt.Sprintf(`Case No: %s
Severity: %s
Sending Engineer: %s
Vertical: %s
SAP: %s
Valid: %t
Reject Reason: %s
TA/MGR reviewer: %s
Comments: %s
Timestamp: %s`,
		rep.CaseNumber,
		rep.Severity,
		rep.SendingEngineer,
		rep.Vertical,
		rep.SAP,
		rep.Valid,
		rep.RejectReason,
		rep.TAReviewer,
		rep.Comments,
		rep.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return path, nil
}
