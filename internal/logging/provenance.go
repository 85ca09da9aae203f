package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-decision
// LogDecision writes a provenance entry to the provenance_log table.
func LogDecision(db *sql.DB, entry ProvenanceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO provenance_log (version_id, event_id, trigger_type, input_text, delta_json, record_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.VersionID),
		nullIfEmpty(entry.EventID),
		entry.TriggerType,
		nullIfEmpty(entry.InputText),
		nullIfEmpty(entry.DeltaJSON),
		nullIfEmpty(entry.RecordJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region list-provenance
// ListProvenance returns the most recent entries, newest first.
func ListProvenance(db *sql.DB, limit int) ([]ProvenanceEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT version_id, event_id, trigger_type, input_text, delta_json, record_json, decision, reason, created_at
		 FROM provenance_log ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query provenance: %w", err)
	}
	defer rows.Close()

	var out []ProvenanceEntry
	for rows.Next() {
		var e ProvenanceEntry
		var versionID, eventID, input, delta, record, reason sql.NullString
		var createdAt string
		if err := rows.Scan(&versionID, &eventID, &e.TriggerType, &input, &delta, &record, &e.Decision, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan provenance: %w", err)
		}
		e.VersionID = versionID.String
		e.EventID = eventID.String
		e.InputText = input.String
		e.DeltaJSON = delta.String
		e.RecordJSON = record.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion list-provenance

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
