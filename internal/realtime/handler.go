package realtime

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/comandapos/comanda-backend/api/responses"
	pkgAuth "github.com/comandapos/comanda-backend/pkg/auth"
	"github.com/comandapos/comanda-backend/pkg/config"
	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
	"github.com/comandapos/comanda-backend/pkg/logger"
)

// NewHandler returns the SSE endpoint. Clients authenticate with a bearer
// token or, for EventSource clients that cannot set headers, a token query
// parameter.
func NewHandler(jwtCfg config.JWTConfig, rtCfg config.RealtimeConfig, hub *Hub, logg *logger.Logger) http.HandlerFunc {
	heartbeat := rtCfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		claims, err := pkgAuth.ParseAccessToken(jwtCfg, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		conn, err := hub.Register(Principal{UserID: claims.UserID, Role: claims.Role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register connection"))
			return
		}
		defer hub.Unregister(conn.ID)

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"user_id":    claims.UserID.String(),
				"actor_role": string(claims.Role),
				"conn_id":    conn.ID.String(),
			})
			logg.Info(ctx, "realtime client connected")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		fmt.Fprintf(w, ": connected %s\n\n", conn.ID)
		flusher.Flush()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				if logg != nil {
					logg.Info(ctx, "realtime client disconnected")
				}
				return
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case raw, open := <-conn.Events():
				if !open {
					if logg != nil {
						logg.Info(ctx, "realtime connection closed by hub")
					}
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", raw)
				flusher.Flush()
			}
		}
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	if raw != "" {
		return raw
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
