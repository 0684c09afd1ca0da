package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/wellbot/wellbot-api/pkg/logging"
)

// BookingStatusNotice describes a booking whose status a clinic just changed.
type BookingStatusNotice struct {
	BookingID    int64
	PatientName  string
	PatientEmail string
	ClinicName   string
	Date         string
	Timeslot     string
	Status       string
}

// Service sends patient-facing notifications.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. A nil sender disables email.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// BookingStatusChanged emails the patient when a booking is approved or
// rejected. Other statuses are ignored.
func (s *Service) BookingStatusChanged(ctx context.Context, notice BookingStatusNotice) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping booking notice", "booking_id", notice.BookingID)
		return nil
	}
	if strings.TrimSpace(notice.PatientEmail) == "" {
		return nil
	}

	var subject, headline string
	switch notice.Status {
	case "approved":
		subject = "Lịch hẹn của bạn đã được xác nhận"
		headline = "đã được xác nhận"
	case "rejected":
		subject = "Lịch hẹn của bạn chưa thể được xác nhận"
		headline = "chưa thể được xác nhận. Bạn có thể đặt lại một khung giờ khác trong ứng dụng"
	default:
		return nil
	}

	body := fmt.Sprintf("Xin chào %s,\n\nLịch hẹn tại %s vào %s lúc %s %s.\n\nWellBot luôn đồng hành cùng bạn 💕",
		notice.PatientName, notice.ClinicName, notice.Date, notice.Timeslot, headline)
	htmlBody := fmt.Sprintf("<p>Xin chào %s,</p><p>Lịch hẹn tại <strong>%s</strong> vào <strong>%s</strong> lúc <strong>%s</strong> %s.</p><p>WellBot luôn đồng hành cùng bạn 💕</p>",
		html.EscapeString(notice.PatientName), html.EscapeString(notice.ClinicName),
		html.EscapeString(notice.Date), html.EscapeString(notice.Timeslot), headline)

	if err := s.email.Send(ctx, EmailMessage{
		To:       notice.PatientEmail,
		ToName:   notice.PatientName,
		Subject:  subject,
		Body:     body,
		HTML:     htmlBody,
		Category: "booking_status",
	}); err != nil {
		return fmt.Errorf("notify: booking status email: %w", err)
	}
	s.logger.Info("booking status email sent", "booking_id", notice.BookingID, "status", notice.Status)
	return nil
}
