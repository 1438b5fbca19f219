package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueStats exposes the request queue's current load.
type QueueStats interface {
	Stats() (active, pending int)
}

type Status struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message,omitempty"`
	Database bool   `json:"database"`
	Active   int    `json:"queue_active"`
	Pending  int    `json:"queue_pending"`
}

// HTTPHandler reports service health: database reachability when a
// store is configured, plus queue load. A nil db means no store is
// configured and does not count against health.
func HTTPHandler(db Pinger, q QueueStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := Status{OK: true, Message: "ok", Database: true}

		if q != nil {
			st.Active, st.Pending = q.Stats()
		}
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				st.OK = false
				st.Message = "db ping failed"
				st.Database = false
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}
