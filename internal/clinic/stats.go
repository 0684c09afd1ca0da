package clinic

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/wellbot/wellbot-api/internal/http/respond"
	"github.com/wellbot/wellbot-api/internal/tenancy"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

// Stats summarizes a clinic's booking pipeline.
type Stats struct {
	Pending      int64 `json:"pending"`
	Approved     int64 `json:"approved"`
	Completed    int64 `json:"completed"`
	TotalRecords int64 `json:"totalRecords"`
}

// statsDB defines the database interface needed by StatsRepository
type statsDB interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// StatsRepository queries clinic metrics from the database.
type StatsRepository struct {
	db statsDB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db statsDB) *StatsRepository {
	if db == nil {
		panic("clinic: db required for stats")
	}
	return &StatsRepository{db: db}
}

// GetStats counts pending, approved and completed bookings plus filed records.
func (r *StatsRepository) GetStats(ctx context.Context, clinicID int64) (*Stats, error) {
	stats := &Stats{}

	const bookingsQuery = `SELECT
		COALESCE(SUM(status = 'pending'), 0),
		COALESCE(SUM(status = 'approved'), 0),
		COALESCE(SUM(status = 'completed'), 0)
	FROM bookings WHERE clinic_id = ?`
	if err := r.db.QueryRowContext(ctx, bookingsQuery, clinicID).Scan(&stats.Pending, &stats.Approved, &stats.Completed); err != nil {
		return nil, fmt.Errorf("clinic stats: count bookings: %w", err)
	}

	const recordsQuery = `SELECT COUNT(*) FROM medical_records WHERE clinic_id = ?`
	if err := r.db.QueryRowContext(ctx, recordsQuery, clinicID).Scan(&stats.TotalRecords); err != nil {
		return nil, fmt.Errorf("clinic stats: count records: %w", err)
	}

	return stats, nil
}

// StatsHandler provides HTTP endpoints for clinic statistics.
type StatsHandler struct {
	repo   *StatsRepository
	logger *logging.Logger
}

// NewStatsHandler creates a new stats HTTP handler.
func NewStatsHandler(repo *StatsRepository, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{
		repo:   repo,
		logger: logger,
	}
}

// GetStats returns aggregated metrics for the authenticated clinic.
// GET /clinic/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}

	stats, err := h.repo.GetStats(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to get clinic stats", "clinic_id", clinicID, "error", err)
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.OK(w, map[string]any{"stats": stats})
}
