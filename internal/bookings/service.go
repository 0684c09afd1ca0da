// Package bookings implements the booking lifecycle: user bookings, clinic
// status changes and medical-record filing.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wellbot/wellbot-api/internal/apperr"
	"github.com/wellbot/wellbot-api/internal/clinic"
	"github.com/wellbot/wellbot-api/internal/notify"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

var bookingsTracer = otel.Tracer("wellbot.internal.bookings")

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Column widths of the bookings and medical_records tables, in characters.
// TEXT columns are bounded in bytes.
const (
	maxNameRunes            = 255
	maxAddressRunes         = 500
	maxTimeslotRunes        = 50
	maxDoctorNameRunes      = 255
	maxNextAppointmentRunes = 100
	maxTextBytes            = 65535
)

const (
	msgBookingNotFound = "Không tìm thấy lịch hẹn"
	msgRecordExists    = "Medical record already exists for this booking"
)

// Auditor records clinical state changes.
type Auditor interface {
	LogBookingStatusChanged(ctx context.Context, actor string, clinicID, bookingID int64, from, to string) error
	LogMedicalRecordFiled(ctx context.Context, actor string, clinicID, bookingID, recordID int64, severity string) error
}

// StatusNotifier tells patients about clinic decisions.
type StatusNotifier interface {
	BookingStatusChanged(ctx context.Context, notice notify.BookingStatusNotice) error
}

// Observer receives booking lifecycle metrics.
type Observer interface {
	ObserveCreated()
	ObserveTransition(from, to string)
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithAuditor records status changes and filed records.
func WithAuditor(a Auditor) ServiceOption {
	return func(s *Service) { s.audit = a }
}

// WithNotifier emails patients when their booking is approved or rejected.
func WithNotifier(n StatusNotifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithObserver reports creations and transitions.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// Service validates and applies booking lifecycle operations.
type Service struct {
	repo        *Repository
	directory   *clinic.Directory
	transitions Transitions
	audit       Auditor
	notifier    StatusNotifier
	observer    Observer
	logger      *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo *Repository, directory *clinic.Directory, transitions Transitions, logger *logging.Logger, opts ...ServiceOption) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if directory == nil {
		panic("bookings: clinic directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{repo: repo, directory: directory, transitions: transitions, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking validates details and stores a pending booking with the
// clinic's current name snapshotted onto it.
func (s *Service) CreateBooking(ctx context.Context, userID int64, req CreateBookingRequest) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("wellbot.user_id", userID),
		attribute.Int64("wellbot.clinic_id", req.ClinicID),
	)

	partner, err := s.validateCreate(req)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		UserID:     userID,
		Name:       strings.TrimSpace(req.Name),
		Phone:      req.Phone,
		Age:        req.Age,
		Address:    strings.TrimSpace(req.Address),
		Timeslot:   strings.TrimSpace(req.Timeslot),
		Date:       strings.TrimSpace(req.Date),
		ClinicID:   partner.ID,
		ClinicName: partner.Name,
		Status:     StatusPending,
	}
	id, err := s.repo.Insert(ctx, b)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	now := time.Now().UTC()
	b.ID, b.CreatedAt, b.UpdatedAt = id, now, now

	if s.observer != nil {
		s.observer.ObserveCreated()
	}
	s.logger.Info("booking created", "booking_id", id, "user_id", userID, "clinic_id", partner.ID)
	return b, nil
}

func (s *Service) validateCreate(req CreateBookingRequest) (clinic.PartnerClinic, error) {
	if !phonePattern.MatchString(req.Phone) {
		return clinic.PartnerClinic{}, apperr.Validation("phone", "Invalid phone")
	}
	if req.ClinicID == 0 {
		return clinic.PartnerClinic{}, apperr.Validation("clinicId", "Please select a clinic")
	}
	partner, ok := s.directory.Lookup(req.ClinicID)
	if !ok {
		return clinic.PartnerClinic{}, apperr.Validation("clinicId", "Invalid clinic")
	}
	if strings.TrimSpace(req.Name) == "" {
		return clinic.PartnerClinic{}, apperr.Validation("name", "Name is required")
	}
	if tooLong(strings.TrimSpace(req.Name), maxNameRunes) {
		return clinic.PartnerClinic{}, apperr.Validation("name", "Name is too long")
	}
	if req.Age < 0 {
		return clinic.PartnerClinic{}, apperr.Validation("age", "Invalid age")
	}
	if tooLong(strings.TrimSpace(req.Address), maxAddressRunes) {
		return clinic.PartnerClinic{}, apperr.Validation("address", "Address is too long")
	}
	if strings.TrimSpace(req.Timeslot) == "" {
		return clinic.PartnerClinic{}, apperr.Validation("timeslot", "Timeslot is required")
	}
	if tooLong(strings.TrimSpace(req.Timeslot), maxTimeslotRunes) {
		return clinic.PartnerClinic{}, apperr.Validation("timeslot", "Timeslot is too long")
	}
	if _, err := time.Parse(dateLayout, strings.TrimSpace(req.Date)); err != nil {
		return clinic.PartnerClinic{}, apperr.Validation("date", "Invalid date")
	}
	return partner, nil
}

// ListForUser returns the caller's bookings.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Booking, error) {
	return s.repo.ListForUser(ctx, userID)
}

// ListForClinic returns a clinic's bookings. An empty filter lists every status.
func (s *Service) ListForClinic(ctx context.Context, clinicID int64, statusFilter string) ([]ClinicBooking, error) {
	var filter *Status
	if statusFilter != "" {
		st, ok := ParseStatus(statusFilter)
		if !ok {
			return nil, apperr.Validation("status", "Invalid status")
		}
		filter = &st
	}
	return s.repo.ListForClinic(ctx, clinicID, filter)
}

// SetStatus moves a clinic's booking to status. Bookings of other clinics are
// reported as not found and left untouched. Setting the current status again
// succeeds without auditing, notifying or counting a transition.
func (s *Service) SetStatus(ctx context.Context, clinicID, bookingID int64, status string) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.set_status")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("wellbot.clinic_id", clinicID),
		attribute.Int64("wellbot.booking_id", bookingID),
		attribute.String("wellbot.status", status),
	)

	to, ok := ParseStatus(status)
	if !ok {
		return nil, apperr.Validation("status", "Invalid status")
	}

	var booking *Booking
	var from Status
	err := s.repo.inTx(ctx, func(tx *Repository) error {
		b, err := tx.lockForClinic(ctx, clinicID, bookingID)
		if err != nil {
			return err
		}
		from = b.Status
		booking = b
		if b.Status == to {
			return nil
		}
		if !s.transitions.Allowed(b.Status, to) {
			return apperr.Conflict(fmt.Sprintf("Cannot change booking status from %s to %s", b.Status, to), ErrIllegalTransition)
		}
		if err := tx.updateStatus(ctx, bookingID, to); err != nil {
			return err
		}
		b.Status = to
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, mapNotFound(err)
	}
	if from == to {
		s.logger.Debug("booking status unchanged", "booking_id", bookingID, "clinic_id", clinicID, "status", to)
		return booking, nil
	}

	if s.observer != nil {
		s.observer.ObserveTransition(string(from), string(to))
	}
	s.logger.Info("booking status changed", "booking_id", bookingID, "clinic_id", clinicID, "from", from, "to", to)

	if s.audit != nil {
		if err := s.audit.LogBookingStatusChanged(ctx, clinicActor(clinicID), clinicID, bookingID, string(from), string(to)); err != nil {
			s.logger.Warn("failed to audit status change", "booking_id", bookingID, "error", err)
		}
	}
	s.notifyPatient(ctx, booking)
	return booking, nil
}

func (s *Service) notifyPatient(ctx context.Context, b *Booking) {
	if s.notifier == nil || (b.Status != StatusApproved && b.Status != StatusRejected) {
		return
	}
	name, email, err := s.repo.patientContact(ctx, b.UserID)
	if err != nil {
		s.logger.Warn("failed to load patient contact", "booking_id", b.ID, "error", err)
		return
	}
	if err := s.notifier.BookingStatusChanged(ctx, notify.BookingStatusNotice{
		BookingID:    b.ID,
		PatientName:  name,
		PatientEmail: email,
		ClinicName:   b.ClinicName,
		Date:         b.Date,
		Timeslot:     b.Timeslot,
		Status:       string(b.Status),
	}); err != nil {
		s.logger.Warn("failed to notify patient", "booking_id", b.ID, "error", err)
	}
}

// FileMedicalRecord stores a record for a clinic's booking and completes the
// booking in the same transaction. A booking holds at most one record.
func (s *Service) FileMedicalRecord(ctx context.Context, clinicID int64, req MedicalRecordRequest) (*MedicalRecord, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.file_medical_record")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("wellbot.clinic_id", clinicID),
		attribute.Int64("wellbot.booking_id", req.BookingID),
	)

	if req.BookingID == 0 {
		return nil, apperr.Validation("bookingId", "Booking is required")
	}
	severity, ok := ParseSeverity(req.Severity)
	if !ok {
		return nil, apperr.Validation("severity", "Invalid severity")
	}
	if err := validateRecordLengths(req); err != nil {
		return nil, err
	}

	var rec *MedicalRecord
	var from Status
	err := s.repo.inTx(ctx, func(tx *Repository) error {
		b, err := tx.lockForClinic(ctx, clinicID, req.BookingID)
		if err != nil {
			return err
		}
		from = b.Status
		// A booking completed through the status endpoint may still get its record.
		if b.Status != StatusCompleted && !s.transitions.Allowed(b.Status, StatusCompleted) {
			return apperr.Conflict(fmt.Sprintf("Cannot file a record for a %s booking", b.Status), ErrIllegalTransition)
		}
		exists, err := tx.recordExists(ctx, b.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict(msgRecordExists, ErrRecordExists)
		}

		rec = &MedicalRecord{
			BookingID:          b.ID,
			UserID:             b.UserID,
			ClinicID:           clinicID,
			DoctorName:         strings.TrimSpace(req.DoctorName),
			Diagnosis:          req.Diagnosis,
			Symptoms:           req.Symptoms,
			MentalHealthStatus: req.MentalHealthStatus,
			Severity:           severity,
			Recommendations:    req.Recommendations,
			Medications:        req.Medications,
			NextAppointment:    req.NextAppointment,
			Notes:              req.Notes,
		}
		id, err := tx.insertRecord(ctx, rec)
		if err != nil {
			if errors.Is(err, ErrRecordExists) {
				return apperr.Conflict(msgRecordExists, err)
			}
			return err
		}
		rec.ID = id
		rec.CreatedAt = time.Now().UTC()

		if b.Status == StatusCompleted {
			return nil
		}
		return tx.updateStatus(ctx, b.ID, StatusCompleted)
	})
	if err != nil {
		span.RecordError(err)
		return nil, mapNotFound(err)
	}

	if s.observer != nil && from != StatusCompleted {
		s.observer.ObserveTransition(string(from), string(StatusCompleted))
	}
	s.logger.Info("medical record filed", "record_id", rec.ID, "booking_id", rec.BookingID, "clinic_id", clinicID)

	if s.audit != nil {
		if err := s.audit.LogMedicalRecordFiled(ctx, clinicActor(clinicID), clinicID, rec.BookingID, rec.ID, string(rec.Severity)); err != nil {
			s.logger.Warn("failed to audit medical record", "record_id", rec.ID, "error", err)
		}
	}
	return rec, nil
}

// ListRecordsForClinic returns every record a clinic has filed.
func (s *Service) ListRecordsForClinic(ctx context.Context, clinicID int64) ([]ClinicMedicalRecord, error) {
	return s.repo.ListRecordsForClinic(ctx, clinicID)
}

// ListRecordsForUser returns a patient's records, newest first. limit <= 0 means all.
func (s *Service) ListRecordsForUser(ctx context.Context, userID int64, limit int) ([]UserMedicalRecord, error) {
	return s.repo.ListRecordsForUser(ctx, userID, limit)
}

func validateRecordLengths(req MedicalRecordRequest) error {
	if tooLong(strings.TrimSpace(req.DoctorName), maxDoctorNameRunes) {
		return apperr.Validation("doctorName", "Doctor name is too long")
	}
	if tooLong(req.NextAppointment, maxNextAppointmentRunes) {
		return apperr.Validation("nextAppointment", "Next appointment is too long")
	}
	for _, f := range []struct{ field, value string }{
		{"diagnosis", req.Diagnosis},
		{"symptoms", req.Symptoms},
		{"mentalHealthStatus", req.MentalHealthStatus},
		{"recommendations", req.Recommendations},
		{"medications", req.Medications},
		{"notes", req.Notes},
	} {
		if len(f.value) > maxTextBytes {
			return apperr.Validation(f.field, "Field is too long")
		}
	}
	return nil
}

func tooLong(s string, maxRunes int) bool {
	return utf8.RuneCountInString(s) > maxRunes
}

func mapNotFound(err error) error {
	if errors.Is(err, ErrBookingNotFound) {
		return apperr.NotFound(msgBookingNotFound)
	}
	return err
}

func clinicActor(clinicID int64) string {
	return fmt.Sprintf("clinic:%d", clinicID)
}
