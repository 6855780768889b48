package handler

import (
	"net/http"

	"docuvault/internal/domain"
	"docuvault/internal/domain/services"
	"docuvault/internal/httputil"
)

// getActor extracts the authenticated caller from the request context.
// The auth middleware populates it for every non-public route.
func getActor(r *http.Request) (services.Actor, error) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		return services.Actor{}, domain.ErrUnauthorized
	}
	return services.Actor{
		UserID: userID,
		Role:   httputil.GetRole(r),
	}, nil
}
