package tenant

import (
	"context"

	"github.com/google/uuid"

	"github.com/nurseport/staffing-backend/internal/models"
)

type contextKey string

const agencyKey contextKey = "agency"

func WithAgency(ctx context.Context, a *models.Agency) context.Context {
	return context.WithValue(ctx, agencyKey, a)
}

func FromContext(ctx context.Context) *models.Agency {
	a, _ := ctx.Value(agencyKey).(*models.Agency)
	return a
}

func IDFromContext(ctx context.Context) uuid.UUID {
	if a := FromContext(ctx); a != nil {
		return a.ID
	}
	return uuid.Nil
}
