// Package compliance keeps an append-only audit trail of clinical state changes.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AuditEventType represents the type of audited event.
type AuditEventType string

const (
	// EventBookingStatusChanged is logged when a clinic moves a booking to a new status.
	EventBookingStatusChanged AuditEventType = "booking.status_changed"
	// EventMedicalRecordFiled is logged when a clinic files a medical record.
	EventMedicalRecordFiled AuditEventType = "medical_record.filed"
)

// AuditEvent represents an immutable audit record.
type AuditEvent struct {
	ID        int64           `json:"id"`
	EventType AuditEventType  `json:"eventType"`
	Actor     string          `json:"actor"`
	SubjectID int64           `json:"subjectId"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AuditDetails contains event-specific details.
type AuditDetails struct {
	ClinicID int64 `json:"clinicId,omitempty"`

	// For status changes
	FromStatus string `json:"fromStatus,omitempty"`
	ToStatus   string `json:"toStatus,omitempty"`

	// For filed records
	RecordID int64  `json:"recordId,omitempty"`
	Severity string `json:"severity,omitempty"`
}

type auditDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// AuditService handles audit logging.
type AuditService struct {
	db  auditDB
	now func() time.Time
}

// NewAuditService creates a new audit service.
func NewAuditService(db auditDB) *AuditService {
	return &AuditService{db: db, now: time.Now}
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}
	var details any
	if len(event.Details) > 0 {
		details = []byte(event.Details)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (event_type, actor, subject_id, details, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(event.EventType),
		event.Actor,
		event.SubjectID,
		details,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}
	return nil
}

// LogBookingStatusChanged logs a clinic-driven status transition.
func (s *AuditService) LogBookingStatusChanged(ctx context.Context, actor string, clinicID, bookingID int64, from, to string) error {
	detailsJSON, _ := json.Marshal(AuditDetails{ClinicID: clinicID, FromStatus: from, ToStatus: to})
	return s.LogEvent(ctx, AuditEvent{
		EventType: EventBookingStatusChanged,
		Actor:     actor,
		SubjectID: bookingID,
		Details:   detailsJSON,
	})
}

// LogMedicalRecordFiled logs a newly filed medical record against its booking.
func (s *AuditService) LogMedicalRecordFiled(ctx context.Context, actor string, clinicID, bookingID, recordID int64, severity string) error {
	detailsJSON, _ := json.Marshal(AuditDetails{ClinicID: clinicID, RecordID: recordID, Severity: severity})
	return s.LogEvent(ctx, AuditEvent{
		EventType: EventMedicalRecordFiled,
		Actor:     actor,
		SubjectID: bookingID,
		Details:   detailsJSON,
	})
}

// QueryEvents retrieves audit events with filters, newest first.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	query := `SELECT id, event_type, actor, subject_id, details, created_at FROM audit_events WHERE 1 = 1`
	var args []any

	if filter.EventType != "" {
		query += " AND event_type = ?"
		args = append(args, string(filter.EventType))
	}
	if filter.SubjectID != 0 {
		query += " AND subject_id = ?"
		args = append(args, filter.SubjectID)
	}
	if !filter.StartTime.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.StartTime)
	}

	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var details []byte
		if err := rows.Scan(&e.ID, &e.EventType, &e.Actor, &e.SubjectID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		if len(details) > 0 {
			e.Details = json.RawMessage(details)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("compliance: iterate audit events: %w", err)
	}
	return events, nil
}

// AuditFilter specifies criteria for querying audit events.
type AuditFilter struct {
	EventType AuditEventType
	SubjectID int64
	StartTime time.Time
	Limit     int
}
