package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wellbot/wellbot-api/internal/database"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const bookingColumns = `b.id, b.user_id, b.name, b.phone, b.age, b.address, b.timeslot, b.date,
	b.clinic_id, b.clinic_name, b.status, b.created_at, b.updated_at`

const recordColumns = `mr.id, mr.booking_id, mr.user_id, mr.clinic_id, mr.doctor_name,
	COALESCE(mr.diagnosis, ''), COALESCE(mr.symptoms, ''), COALESCE(mr.mental_health_status, ''),
	mr.severity, COALESCE(mr.recommendations, ''), COALESCE(mr.medications, ''),
	mr.next_appointment, COALESCE(mr.notes, ''), mr.created_at`

// Repository provides persistence helpers for bookings and medical records.
type Repository struct {
	db *sql.DB
	q  dbtx
}

// NewRepository creates a repository backed by the MySQL pool.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		panic("bookings: db required")
	}
	return &Repository{db: db, q: db}
}

// inTx runs fn with a repository bound to a single transaction.
func (r *Repository) inTx(ctx context.Context, fn func(tx *Repository) error) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&Repository{db: r.db, q: tx})
	})
}

// Insert stores a new booking and returns its id.
func (r *Repository) Insert(ctx context.Context, b *Booking) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO bookings (user_id, name, phone, age, address, timeslot, date, clinic_id, clinic_name, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Name, b.Phone, b.Age, b.Address, b.Timeslot, b.Date, b.ClinicID, b.ClinicName, string(b.Status))
	if err != nil {
		return 0, fmt.Errorf("bookings: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("bookings: last insert id: %w", err)
	}
	return id, nil
}

// ListForUser returns a user's bookings, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Booking, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list for user: %w", err)
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, fmt.Errorf("bookings: scan user booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate user bookings: %w", err)
	}
	return out, nil
}

// ListForClinic returns a clinic's bookings with the booking user's name and
// email, optionally filtered by status.
func (r *Repository) ListForClinic(ctx context.Context, clinicID int64, status *Status) ([]ClinicBooking, error) {
	query := `SELECT ` + bookingColumns + `, u.name, u.email
		FROM bookings b
		JOIN users u ON b.user_id = u.id
		WHERE b.clinic_id = ?`
	args := []any{clinicID}
	if status != nil {
		query += ` AND b.status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY b.date DESC, b.timeslot ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: list for clinic: %w", err)
	}
	defer rows.Close()

	out := []ClinicBooking{}
	for rows.Next() {
		var cb ClinicBooking
		if err := scanBooking(rows, &cb.Booking, &cb.UserName, &cb.UserEmail); err != nil {
			return nil, fmt.Errorf("bookings: scan clinic booking: %w", err)
		}
		out = append(out, cb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate clinic bookings: %w", err)
	}
	return out, nil
}

// lockForClinic loads a booking owned by clinicID and holds its row lock
// until the transaction ends.
func (r *Repository) lockForClinic(ctx context.Context, clinicID, bookingID int64) (*Booking, error) {
	var b Booking
	row := r.q.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ? AND b.clinic_id = ? FOR UPDATE`,
		bookingID, clinicID)
	if err := scanBooking(row, &b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: lock: %w", err)
	}
	return &b, nil
}

func (r *Repository) updateStatus(ctx context.Context, bookingID int64, status Status) error {
	if _, err := r.q.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, string(status), bookingID); err != nil {
		return fmt.Errorf("bookings: update status: %w", err)
	}
	return nil
}

func (r *Repository) recordExists(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	if err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM medical_records WHERE booking_id = ?)`, bookingID).Scan(&exists); err != nil {
		return false, fmt.Errorf("bookings: check record: %w", err)
	}
	return exists, nil
}

func (r *Repository) insertRecord(ctx context.Context, rec *MedicalRecord) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO medical_records (booking_id, user_id, clinic_id, doctor_name, diagnosis, symptoms,
			mental_health_status, severity, recommendations, medications, next_appointment, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BookingID, rec.UserID, rec.ClinicID, rec.DoctorName,
		database.NullString(rec.Diagnosis), database.NullString(rec.Symptoms),
		database.NullString(rec.MentalHealthStatus), string(rec.Severity),
		database.NullString(rec.Recommendations), database.NullString(rec.Medications),
		rec.NextAppointment, database.NullString(rec.Notes))
	if err != nil {
		if database.IsDuplicateKey(err) {
			return 0, ErrRecordExists
		}
		return 0, fmt.Errorf("bookings: insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("bookings: record insert id: %w", err)
	}
	return id, nil
}

// ListRecordsForClinic returns a clinic's records with patient and appointment
// details, newest first.
func (r *Repository) ListRecordsForClinic(ctx context.Context, clinicID int64) ([]ClinicMedicalRecord, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+recordColumns+`, u.name, u.email, b.date, b.age
		FROM medical_records mr
		JOIN users u ON mr.user_id = u.id
		JOIN bookings b ON mr.booking_id = b.id
		WHERE mr.clinic_id = ?
		ORDER BY mr.created_at DESC, mr.id DESC`, clinicID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list clinic records: %w", err)
	}
	defer rows.Close()

	out := []ClinicMedicalRecord{}
	for rows.Next() {
		var rec ClinicMedicalRecord
		var appointment time.Time
		if err := scanRecord(rows, &rec.MedicalRecord, &rec.PatientName, &rec.PatientEmail, &appointment, &rec.PatientAge); err != nil {
			return nil, fmt.Errorf("bookings: scan clinic record: %w", err)
		}
		rec.AppointmentDate = appointment.Format(dateLayout)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate clinic records: %w", err)
	}
	return out, nil
}

// ListRecordsForUser returns a user's records with the clinic name snapshotted
// on the booking, newest first. limit <= 0 returns all records.
func (r *Repository) ListRecordsForUser(ctx context.Context, userID int64, limit int) ([]UserMedicalRecord, error) {
	query := `SELECT ` + recordColumns + `, b.clinic_name, b.date
		FROM medical_records mr
		JOIN bookings b ON mr.booking_id = b.id
		WHERE mr.user_id = ?
		ORDER BY mr.created_at DESC, mr.id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: list user records: %w", err)
	}
	defer rows.Close()

	out := []UserMedicalRecord{}
	for rows.Next() {
		var rec UserMedicalRecord
		var appointment time.Time
		if err := scanRecord(rows, &rec.MedicalRecord, &rec.ClinicName, &appointment); err != nil {
			return nil, fmt.Errorf("bookings: scan user record: %w", err)
		}
		rec.AppointmentDate = appointment.Format(dateLayout)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate user records: %w", err)
	}
	return out, nil
}

// patientContact returns the account name and email of the booking user.
func (r *Repository) patientContact(ctx context.Context, userID int64) (string, string, error) {
	var name, email string
	err := r.q.QueryRowContext(ctx, `SELECT name, email FROM users WHERE id = ?`, userID).Scan(&name, &email)
	if err != nil {
		return "", "", fmt.Errorf("bookings: patient contact: %w", err)
	}
	return name, email, nil
}

func scanBooking(s rowScanner, b *Booking, extra ...any) error {
	var date time.Time
	var status string
	dest := []any{
		&b.ID, &b.UserID, &b.Name, &b.Phone, &b.Age, &b.Address, &b.Timeslot, &date,
		&b.ClinicID, &b.ClinicName, &status, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	b.Date = date.Format(dateLayout)
	b.Status = Status(status)
	return nil
}

func scanRecord(s rowScanner, rec *MedicalRecord, extra ...any) error {
	var severity string
	dest := []any{
		&rec.ID, &rec.BookingID, &rec.UserID, &rec.ClinicID, &rec.DoctorName,
		&rec.Diagnosis, &rec.Symptoms, &rec.MentalHealthStatus,
		&severity, &rec.Recommendations, &rec.Medications,
		&rec.NextAppointment, &rec.Notes, &rec.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	rec.Severity = Severity(severity)
	return nil
}
