package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/authsdk"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
)

// Pinger is an optional backend checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyCheckTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe returning the status of the database, the signing keys and, when configured, the redis revocation store.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get]
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeyManager,
	revocations Pinger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK
		degrade := func() {
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := st.Ping(ctx); err != nil {
			checks.Database = "error: " + err.Error()
			degrade()
		}

		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			degrade()
		}

		if revocations != nil {
			checks.Revocations = "ok"
			if err := revocations.Ping(ctx); err != nil {
				checks.Revocations = "error: " + err.Error()
				degrade()
			}
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
