package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeStats struct {
	active, pending int
}

func (f *fakeStats) Stats() (int, int) { return f.active, f.pending }

func TestHTTPHandler(t *testing.T) {
	tests := []struct {
		name           string
		db             Pinger
		queue          QueueStats
		expectedCode   int
		expectedStatus Status
	}{
		{
			name:         "healthy without a store",
			db:           nil,
			queue:        &fakeStats{active: 2, pending: 5},
			expectedCode: http.StatusOK,
			expectedStatus: Status{
				OK: true, Message: "ok", Database: true, Active: 2, Pending: 5,
			},
		},
		{
			name:         "healthy with reachable database",
			db:           &fakePinger{},
			queue:        &fakeStats{},
			expectedCode: http.StatusOK,
			expectedStatus: Status{
				OK: true, Message: "ok", Database: true,
			},
		},
		{
			name:         "unhealthy when database ping fails",
			db:           &fakePinger{err: context.DeadlineExceeded},
			queue:        &fakeStats{active: 1},
			expectedCode: http.StatusServiceUnavailable,
			expectedStatus: Status{
				OK: false, Message: "db ping failed", Database: false, Active: 1,
			},
		},
		{
			name:         "nil queue stats",
			db:           nil,
			queue:        nil,
			expectedCode: http.StatusOK,
			expectedStatus: Status{
				OK: true, Message: "ok", Database: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()

			HTTPHandler(tt.db, tt.queue)(w, req)

			if w.Code != tt.expectedCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.expectedCode)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var got Status
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("response JSON parse error: %v", err)
			}
			if got != tt.expectedStatus {
				t.Errorf("status = %+v, want %+v", got, tt.expectedStatus)
			}
		})
	}
}
