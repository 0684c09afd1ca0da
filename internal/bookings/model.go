package bookings

import "time"

// Status is a booking's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, bool) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Severity grades a medical record.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ParseSeverity validates a severity, defaulting empty input to mild.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case "":
		return SeverityMild, true
	case SeverityMild, SeverityModerate, SeveritySevere:
		return Severity(s), true
	}
	return "", false
}

const dateLayout = "2006-01-02"

// Booking is an appointment request from a user to a partner clinic.
type Booking struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Age        int       `json:"age"`
	Address    string    `json:"address"`
	Timeslot   string    `json:"timeslot"`
	Date       string    `json:"date"`
	ClinicID   int64     `json:"clinicId"`
	ClinicName string    `json:"clinicName"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ClinicBooking is a booking as listed to its clinic, with the booking user's account.
type ClinicBooking struct {
	Booking
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

// MedicalRecord is a clinician's note filed against a booking.
type MedicalRecord struct {
	ID                 int64     `json:"id"`
	BookingID          int64     `json:"bookingId"`
	UserID             int64     `json:"userId"`
	ClinicID           int64     `json:"clinicId"`
	DoctorName         string    `json:"doctorName"`
	Diagnosis          string    `json:"diagnosis"`
	Symptoms           string    `json:"symptoms"`
	MentalHealthStatus string    `json:"mentalHealthStatus"`
	Severity           Severity  `json:"severity"`
	Recommendations    string    `json:"recommendations"`
	Medications        string    `json:"medications"`
	NextAppointment    string    `json:"nextAppointment"`
	Notes              string    `json:"notes"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ClinicMedicalRecord is a record as listed to its clinic.
type ClinicMedicalRecord struct {
	MedicalRecord
	PatientName     string `json:"patientName"`
	PatientEmail    string `json:"patientEmail"`
	AppointmentDate string `json:"appointmentDate"`
	PatientAge      int    `json:"patientAge"`
}

// UserMedicalRecord is a record as listed to its patient.
type UserMedicalRecord struct {
	MedicalRecord
	ClinicName      string `json:"clinicName"`
	AppointmentDate string `json:"appointmentDate"`
}

// CreateBookingRequest is the body of POST /booking.
type CreateBookingRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Age      int    `json:"age"`
	Address  string `json:"address"`
	Timeslot string `json:"timeslot"`
	Date     string `json:"date"`
	ClinicID int64  `json:"clinicId"`
}

// MedicalRecordRequest is the body of POST /clinic/medical-records.
type MedicalRecordRequest struct {
	BookingID          int64  `json:"bookingId"`
	DoctorName         string `json:"doctorName"`
	Diagnosis          string `json:"diagnosis"`
	Symptoms           string `json:"symptoms"`
	MentalHealthStatus string `json:"mentalHealthStatus"`
	Severity           string `json:"severity"`
	Recommendations    string `json:"recommendations"`
	Medications        string `json:"medications"`
	NextAppointment    string `json:"nextAppointment"`
	Notes              string `json:"notes"`
}

// UpdateStatusRequest is the body of PUT /clinic/bookings/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
