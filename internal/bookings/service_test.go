package bookings

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellbot/wellbot-api/internal/apperr"
	"github.com/wellbot/wellbot-api/internal/clinic"
	"github.com/wellbot/wellbot-api/internal/notify"
)

var bookingCols = []string{
	"id", "user_id", "name", "phone", "age", "address", "timeslot", "date",
	"clinic_id", "clinic_name", "status", "created_at", "updated_at",
}

var recordCols = []string{
	"id", "booking_id", "user_id", "clinic_id", "doctor_name", "diagnosis", "symptoms",
	"mental_health_status", "severity", "recommendations", "medications", "next_appointment",
	"notes", "created_at",
}

const lockQuery = `FROM bookings b WHERE b.id = \? AND b.clinic_id = \? FOR UPDATE`

func bookingRow(id, userID, clinicID int64, clinicName string, status Status) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(bookingCols).AddRow(
		id, userID, "An", "0912345678", 30, "Hà Nội", "09:00",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		clinicID, clinicName, string(status), now, now,
	)
}

type stubAuditor struct {
	statusChanges []string
	filed         []int64
}

func (a *stubAuditor) LogBookingStatusChanged(ctx context.Context, actor string, clinicID, bookingID int64, from, to string) error {
	a.statusChanges = append(a.statusChanges, from+"->"+to)
	return nil
}

func (a *stubAuditor) LogMedicalRecordFiled(ctx context.Context, actor string, clinicID, bookingID, recordID int64, severity string) error {
	a.filed = append(a.filed, recordID)
	return nil
}

type stubNotifier struct {
	notices []notify.BookingStatusNotice
}

func (n *stubNotifier) BookingStatusChanged(ctx context.Context, notice notify.BookingStatusNotice) error {
	n.notices = append(n.notices, notice)
	return nil
}

type stubObserver struct {
	created     int
	transitions []string
}

func (o *stubObserver) ObserveCreated() { o.created++ }

func (o *stubObserver) ObserveTransition(from, to string) {
	o.transitions = append(o.transitions, from+"->"+to)
}

type fixture struct {
	svc      *Service
	mock     sqlmock.Sqlmock
	audit    *stubAuditor
	notifier *stubNotifier
	observer *stubObserver
}

func newFixture(t *testing.T, transitions Transitions) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{mock: mock, audit: &stubAuditor{}, notifier: &stubNotifier{}, observer: &stubObserver{}}
	f.svc = NewService(NewRepository(db), clinic.DefaultDirectory(), transitions, nil,
		WithAuditor(f.audit), WithNotifier(f.notifier), WithObserver(f.observer))
	return f
}

func validRequest() CreateBookingRequest {
	return CreateBookingRequest{
		Name:     "An",
		Phone:    "0912345678",
		Age:      30,
		Address:  "Hà Nội",
		Timeslot: "09:00",
		Date:     "2025-01-01",
		ClinicID: 1,
	}
}

func TestCreateBookingSnapshotsClinicName(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	f.mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(int64(7), "An", "0912345678", 30, "Hà Nội", "09:00", "2025-01-01",
			int64(1), "Phòng khám Tâm lý Việt Pháp Hà Nội", "pending").
		WillReturnResult(sqlmock.NewResult(10, 1))

	b, err := f.svc.CreateBooking(context.Background(), 7, validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(10), b.ID)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, "Phòng khám Tâm lý Việt Pháp Hà Nội", b.ClinicName)
	assert.Equal(t, 1, f.observer.created)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBookingRejectsInvalidPhoneWithoutWriting(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	for _, phone := range []string{"", "091234567", "09123456789", "09123-5678", "abcdefghij", " 0912345678", "０９１２３４５６７８"} {
		req := validRequest()
		req.Phone = phone
		_, err := f.svc.CreateBooking(context.Background(), 7, req)

		appErr, ok := apperr.As(err)
		require.True(t, ok, "phone %q", phone)
		assert.Equal(t, apperr.KindValidation, appErr.Kind)
		assert.Equal(t, "Invalid phone", appErr.Message)
	}
	// No INSERT was expected, so any write would fail this check.
	require.NoError(t, f.mock.ExpectationsWereMet())
	assert.Zero(t, f.observer.created)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	tests := []struct {
		name   string
		mutate func(*CreateBookingRequest)
		want   string
	}{
		{"missing clinic", func(r *CreateBookingRequest) { r.ClinicID = 0 }, "Please select a clinic"},
		{"unknown clinic", func(r *CreateBookingRequest) { r.ClinicID = 42 }, "Invalid clinic"},
		{"missing name", func(r *CreateBookingRequest) { r.Name = "  " }, "Name is required"},
		{"negative age", func(r *CreateBookingRequest) { r.Age = -1 }, "Invalid age"},
		{"missing timeslot", func(r *CreateBookingRequest) { r.Timeslot = "" }, "Timeslot is required"},
		{"bad date", func(r *CreateBookingRequest) { r.Date = "01/01/2025" }, "Invalid date"},
		{"long name", func(r *CreateBookingRequest) { r.Name = strings.Repeat("Ánh", 86) }, "Name is too long"},
		{"long address", func(r *CreateBookingRequest) { r.Address = strings.Repeat("a", 501) }, "Address is too long"},
		{"long timeslot", func(r *CreateBookingRequest) { r.Timeslot = strings.Repeat("9", 51) }, "Timeslot is too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := f.svc.CreateBooking(context.Background(), 7, req)
			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, appErr.Message)
		})
	}
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusApprovesAndNotifies(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockQuery).
		WithArgs(int64(10), int64(1)).
		WillReturnRows(bookingRow(10, 7, 1, "Phòng khám Tâm lý Việt Pháp Hà Nội", StatusPending))
	f.mock.ExpectExec(`UPDATE bookings SET status = \? WHERE id = \?`).
		WithArgs("approved", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()
	f.mock.ExpectQuery(`SELECT name, email FROM users WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "email"}).AddRow("An", "an@example.com"))

	b, err := f.svc.SetStatus(context.Background(), 1, 10, "approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, b.Status)
	assert.Equal(t, []string{"pending->approved"}, f.audit.statusChanges)
	assert.Equal(t, []string{"pending->approved"}, f.observer.transitions)
	require.Len(t, f.notifier.notices, 1)
	assert.Equal(t, "an@example.com", f.notifier.notices[0].PatientEmail)
	assert.Equal(t, "2025-01-01", f.notifier.notices[0].Date)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusOtherClinicIsNotFound(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	// Booking 10 belongs to clinic 1; clinic 2 sees no row and nothing is updated.
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockQuery).
		WithArgs(int64(10), int64(2)).
		WillReturnRows(sqlmock.NewRows(bookingCols))
	f.mock.ExpectRollback()

	_, err := f.svc.SetStatus(context.Background(), 2, 10, "approved")
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
	assert.Empty(t, f.audit.statusChanges)
	assert.Empty(t, f.notifier.notices)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusIllegalTransition(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockQuery).
		WillReturnRows(bookingRow(10, 7, 1, "A", StatusRejected))
	f.mock.ExpectRollback()

	_, err := f.svc.SetStatus(context.Background(), 1, 10, "approved")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrIllegalTransition)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusPermissiveAllowsAnyChange(t *testing.T) {
	f := newFixture(t, PermissiveTransitions())

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockQuery).WillReturnRows(bookingRow(10, 7, 1, "A", StatusRejected))
	f.mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs("completed", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	b, err := f.svc.SetStatus(context.Background(), 1, 10, "completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, b.Status)
	assert.Empty(t, f.notifier.notices)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusSameStatusIsNoop(t *testing.T) {
	for _, tr := range []Transitions{StrictTransitions(), PermissiveTransitions()} {
		t.Run(tr.Mode(), func(t *testing.T) {
			f := newFixture(t, tr)

			// Filing the record completes the booking, then the clinic app
			// sends the completed status again.
			expectFileRecord(f.mock, StatusApproved)
			f.mock.ExpectExec(`UPDATE bookings SET status = \? WHERE id = \?`).
				WithArgs("completed", int64(10)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			f.mock.ExpectCommit()
			f.mock.ExpectBegin()
			f.mock.ExpectQuery(lockQuery).
				WithArgs(int64(10), int64(1)).
				WillReturnRows(bookingRow(10, 7, 1, "A", StatusCompleted))
			f.mock.ExpectCommit()

			_, err := f.svc.FileMedicalRecord(context.Background(), 1, MedicalRecordRequest{
				BookingID: 10, DoctorName: "BS. Hạnh", Diagnosis: "mild anxiety",
			})
			require.NoError(t, err)

			b, err := f.svc.SetStatus(context.Background(), 1, 10, "completed")
			require.NoError(t, err)
			assert.Equal(t, StatusCompleted, b.Status)
			assert.Empty(t, f.audit.statusChanges)
			assert.Empty(t, f.notifier.notices)
			assert.Equal(t, []string{"approved->completed"}, f.observer.transitions)
			require.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestSetStatusSameApprovedDoesNotRenotify(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockQuery).WillReturnRows(bookingRow(10, 7, 1, "A", StatusApproved))
	f.mock.ExpectCommit()

	b, err := f.svc.SetStatus(context.Background(), 1, 10, "approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, b.Status)
	assert.Empty(t, f.notifier.notices)
	assert.Empty(t, f.observer.transitions)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusInvalidStatus(t *testing.T) {
	f := newFixture(t, StrictTransitions())
	_, err := f.svc.SetStatus(context.Background(), 1, 10, "archived")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func expectFileRecord(mock sqlmock.Sqlmock, from Status) {
	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).
		WithArgs(int64(10), int64(1)).
		WillReturnRows(bookingRow(10, 7, 1, "Phòng khám Tâm lý Việt Pháp Hà Nội", from))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM medical_records WHERE booking_id = \?\)`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO medical_records`).
		WithArgs(int64(10), int64(7), int64(1), "BS. Hạnh", "mild anxiety",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "mild", sqlmock.AnyArg(), sqlmock.AnyArg(), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(3, 1))
}

func TestFileMedicalRecordCompletesBookingInOneTransaction(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	expectFileRecord(f.mock, StatusApproved)
	f.mock.ExpectExec(`UPDATE bookings SET status = \? WHERE id = \?`).
		WithArgs("completed", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	rec, err := f.svc.FileMedicalRecord(context.Background(), 1, MedicalRecordRequest{
		BookingID:  10,
		DoctorName: "BS. Hạnh",
		Diagnosis:  "mild anxiety",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.ID)
	assert.Equal(t, SeverityMild, rec.Severity)
	assert.Equal(t, []int64{3}, f.audit.filed)
	assert.Equal(t, []string{"approved->completed"}, f.observer.transitions)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestFileMedicalRecordRollsBackWhenStatusUpdateFails(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	expectFileRecord(f.mock, StatusApproved)
	f.mock.ExpectExec(`UPDATE bookings SET status`).WillReturnError(errors.New("lock wait timeout"))
	f.mock.ExpectRollback()

	_, err := f.svc.FileMedicalRecord(context.Background(), 1, MedicalRecordRequest{
		BookingID: 10, DoctorName: "BS. Hạnh", Diagnosis: "mild anxiety",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Empty(t, f.audit.filed)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestFileMedicalRecordOnPendingBooking(t *testing.T) {
	t.Run("strict rejects", func(t *testing.T) {
		f := newFixture(t, StrictTransitions())
		f.mock.ExpectBegin()
		f.mock.ExpectQuery(lockQuery).WillReturnRows(bookingRow(10, 7, 1, "A", StatusPending))
		f.mock.ExpectRollback()

		_, err := f.svc.FileMedicalRecord(context.Background(), 1, MedicalRecordRequest{BookingID: 10})
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("permissive completes", func(t *testing.T) {
		f := newFixture(t, PermissiveTransitions())
		expectFileRecord(f.mock, StatusPending)
		f.mock.ExpectExec(`UPDATE bookings SET status`).
			WithArgs("completed", int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectCommit()

		_, err := f.svc.FileMedicalRecord(context.Background(), 1, MedicalRecordRequest{
			BookingID: 10, DoctorName: "BS. Hạnh", Diagnosis: "mild anxiety",
		})
		require.NoError(t, err)
		require.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestFileMedicalRecordOnCompletedBookingSkipsStatusUpdate(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	expectFileRecord(f.mock, StatusCompleted)
	f.mock.ExpectCommit()

	_, err := f.svc.FileMedicalRecord(context.Background(), 1, MedicalRecordRequest{
		BookingID: 10, DoctorName: "BS. Hạnh", Diagnosis: "mild anxiety",
	})
	require.NoError(t, err)
	assert.Empty(t, f.observer.transitions)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestFileMedicalRecordDuplicate(t *testing.T) {
	t.Run("existing record", func(t *testing.T) {
		f := newFixture(t, StrictTransitions())
		f.mock.ExpectBegin()
		f.mock.ExpectQuery(lockQuery).WillReturnRows(bookingRow(10, 7, 1, "A", StatusApproved))
		f.mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		f.mock.ExpectRollback()

		_, err := f.svc.FileMedicalRecord(context.Background(), 1, MedicalRecordRequest{BookingID: 10})
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.ErrorIs(t, err, ErrRecordExists)
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("unique key race", func(t *testing.T) {
		f := newFixture(t, StrictTransitions())
		f.mock.ExpectBegin()
		f.mock.ExpectQuery(lockQuery).WillReturnRows(bookingRow(10, 7, 1, "A", StatusApproved))
		f.mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		f.mock.ExpectExec(`INSERT INTO medical_records`).
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '10' for key 'uq_medical_records_booking'"})
		f.mock.ExpectRollback()

		_, err := f.svc.FileMedicalRecord(context.Background(), 1, MedicalRecordRequest{BookingID: 10})
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		require.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestFileMedicalRecordValidation(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	_, err := f.svc.FileMedicalRecord(context.Background(), 1, MedicalRecordRequest{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.FileMedicalRecord(context.Background(), 1, MedicalRecordRequest{BookingID: 10, Severity: "critical"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestListForClinicStatusFilter(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	now := time.Now()
	rows := sqlmock.NewRows(append(append([]string{}, bookingCols...), "name", "email")).
		AddRow(10, 7, "An", "0912345678", 30, "", "09:00", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			1, "A", "pending", now, now, "An Nguyễn", "an@example.com")
	f.mock.ExpectQuery(`WHERE b.clinic_id = \? AND b.status = \? ORDER BY b.date DESC, b.timeslot ASC`).
		WithArgs(int64(1), "pending").
		WillReturnRows(rows)

	list, err := f.svc.ListForClinic(context.Background(), 1, "pending")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "an@example.com", list[0].UserEmail)
	assert.Equal(t, "2025-01-02", list[0].Date)

	_, err = f.svc.ListForClinic(context.Background(), 1, "bogus")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestListRecordsForUserKeepsBookingClinicName(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	now := time.Now()
	rows := sqlmock.NewRows(append(append([]string{}, recordCols...), "clinic_name", "date")).
		AddRow(3, 10, 7, 1, "BS. Hạnh", "mild anxiety", "", "", "mild", "", "", "", "", now,
			"Phòng khám Tâm lý Việt Pháp Hà Nội", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	f.mock.ExpectQuery(`FROM medical_records mr\s+JOIN bookings b ON mr.booking_id = b.id\s+WHERE mr.user_id = \?\s+ORDER BY mr.created_at DESC, mr.id DESC LIMIT \?`).
		WithArgs(int64(7), 5).
		WillReturnRows(rows)

	records, err := f.svc.ListRecordsForUser(context.Background(), 7, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Phòng khám Tâm lý Việt Pháp Hà Nội", records[0].ClinicName)
	assert.Equal(t, "2025-01-01", records[0].AppointmentDate)
	assert.Equal(t, SeverityMild, records[0].Severity)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBookingAcceptsNameAtColumnWidth(t *testing.T) {
	f := newFixture(t, StrictTransitions())
	req := validRequest()
	// 255 characters, well over 255 bytes.
	req.Name = strings.Repeat("Ệ", 255)

	f.mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(11, 1))
	_, err := f.svc.CreateBooking(context.Background(), 7, req)
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestFileMedicalRecordFieldLengths(t *testing.T) {
	f := newFixture(t, StrictTransitions())

	for _, tc := range []struct {
		req   MedicalRecordRequest
		field string
	}{
		{MedicalRecordRequest{BookingID: 10, DoctorName: strings.Repeat("a", 256)}, "doctorName"},
		{MedicalRecordRequest{BookingID: 10, NextAppointment: strings.Repeat("a", 101)}, "nextAppointment"},
		{MedicalRecordRequest{BookingID: 10, Notes: strings.Repeat("a", 65536)}, "notes"},
	} {
		_, err := f.svc.FileMedicalRecord(context.Background(), 1, tc.req)
		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindValidation, appErr.Kind)
		assert.Equal(t, tc.field, appErr.Field)
	}
	require.NoError(t, f.mock.ExpectationsWereMet())
}
