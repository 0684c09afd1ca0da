package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_LogEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewAuditService(db)
	fixed := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	tests := []struct {
		name  string
		event AuditEvent
	}{
		{
			name: "status change with details",
			event: AuditEvent{
				EventType: EventBookingStatusChanged,
				Actor:     "clinic:1:vietphap",
				SubjectID: 10,
				Details:   json.RawMessage(`{"fromStatus":"pending","toStatus":"approved"}`),
			},
		},
		{
			name: "record filed without details",
			event: AuditEvent{
				EventType: EventMedicalRecordFiled,
				Actor:     "clinic:1:vietphap",
				SubjectID: 10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectExec("INSERT INTO audit_events").
				WithArgs(string(tt.event.EventType), tt.event.Actor, tt.event.SubjectID, sqlmock.AnyArg(), fixed).
				WillReturnResult(sqlmock.NewResult(1, 1))

			assert.NoError(t, service.LogEvent(context.Background(), tt.event))
		})
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_LogBookingStatusChanged(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs("booking.status_changed", "clinic:2:mindcare", int64(7),
			[]byte(`{"clinicId":2,"fromStatus":"pending","toStatus":"rejected"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewAuditService(db).LogBookingStatusChanged(context.Background(), "clinic:2:mindcare", 2, 7, "pending", "rejected")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_LogMedicalRecordFiled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs("medical_record.filed", "clinic:1:vietphap", int64(9),
			[]byte(`{"clinicId":1,"recordId":3,"severity":"mild"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewAuditService(db).LogMedicalRecordFiled(context.Background(), "clinic:1:vietphap", 1, 9, 3, "mild")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_LogEventError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_events").WillReturnError(errors.New("disk full"))

	err = NewAuditService(db).LogEvent(context.Background(), AuditEvent{EventType: EventMedicalRecordFiled})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compliance: failed to log audit event")
}

func TestAuditService_QueryEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "event_type", "actor", "subject_id", "details", "created_at"}).
		AddRow(2, "booking.status_changed", "clinic:1:a", 5, []byte(`{"toStatus":"approved"}`), now).
		AddRow(1, "booking.status_changed", "clinic:1:a", 5, nil, now.Add(-time.Minute))

	mock.ExpectQuery(`SELECT id, event_type, actor, subject_id, details, created_at FROM audit_events WHERE 1 = 1 AND event_type = \? AND subject_id = \? ORDER BY created_at DESC, id DESC LIMIT 10`).
		WithArgs("booking.status_changed", int64(5)).
		WillReturnRows(rows)

	events, err := NewAuditService(db).QueryEvents(context.Background(), AuditFilter{
		EventType: EventBookingStatusChanged,
		SubjectID: 5,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.JSONEq(t, `{"toStatus":"approved"}`, string(events[0].Details))
	assert.Nil(t, events[1].Details)
	require.NoError(t, mock.ExpectationsWereMet())
}
