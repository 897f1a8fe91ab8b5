package domain

import "time"

// AuditEntry is one accepted submission and how each sink handled it.
type AuditEntry struct {
	ID         string         `json:"id"`
	ReceivedAt time.Time      `json:"received_at"`
	Source     string         `json:"source"`
	Record     ScoutingRecord `json:"record"`
	CSVStatus  string         `json:"csv_status"`
	DBStatus   string         `json:"db_status"`
}
