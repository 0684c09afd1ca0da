package bookings

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wellbot/wellbot-api/internal/apperr"
	"github.com/wellbot/wellbot-api/internal/http/middleware"
	"github.com/wellbot/wellbot-api/internal/http/respond"
	"github.com/wellbot/wellbot-api/internal/tenancy"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

// Handler serves the booking endpoints for users and clinics.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// CreateBooking handles POST /booking.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}

	var req CreateBookingRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), user.UserID, req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{
		"message":    "Đặt lịch thành công!",
		"clinicName": booking.ClinicName,
		"booking":    booking,
	})
}

// ListUserBookings handles GET /user-bookings.
func (h *Handler) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}

	bookings, err := h.service.ListForUser(r.Context(), user.UserID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{"bookings": bookings})
}

// ListUserRecords handles GET /user/medical-records.
func (h *Handler) ListUserRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}

	records, err := h.service.ListRecordsForUser(r.Context(), user.UserID, 0)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{"records": records})
}

// ListClinicBookings handles GET /clinic/bookings?status=.
func (h *Handler) ListClinicBookings(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}

	bookings, err := h.service.ListForClinic(r.Context(), clinicID, r.URL.Query().Get("status"))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{"bookings": bookings})
}

// UpdateStatus handles PUT /clinic/bookings/{bookingID}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}

	bookingID, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil || bookingID <= 0 {
		respond.Error(w, h.logger, apperr.Validation("bookingId", "Invalid booking id"))
		return
	}

	var req UpdateStatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	booking, err := h.service.SetStatus(r.Context(), clinicID, bookingID, req.Status)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{
		"message": "Cập nhật trạng thái thành công",
		"booking": booking,
	})
}

// CreateMedicalRecord handles POST /clinic/medical-records.
func (h *Handler) CreateMedicalRecord(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}

	var req MedicalRecordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	record, err := h.service.FileMedicalRecord(r.Context(), clinicID, req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{
		"message":  "Tạo hồ sơ bệnh án thành công",
		"recordId": record.ID,
	})
}

// ListClinicRecords handles GET /clinic/medical-records.
func (h *Handler) ListClinicRecords(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}

	records, err := h.service.ListRecordsForClinic(r.Context(), clinicID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{"records": records})
}
