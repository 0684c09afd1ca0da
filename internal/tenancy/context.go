package tenancy

import "context"

type ctxKey string

const clinicKey ctxKey = "wellbot.clinic_id"

// WithClinicID stores the clinic tenant id in context.
func WithClinicID(ctx context.Context, clinicID int64) context.Context {
	return context.WithValue(ctx, clinicKey, clinicID)
}

// ClinicIDFromContext extracts the clinic tenant id if present.
func ClinicIDFromContext(ctx context.Context) (int64, bool) {
	val := ctx.Value(clinicKey)
	if val == nil {
		return 0, false
	}
	clinicID, ok := val.(int64)
	return clinicID, ok && clinicID > 0
}
