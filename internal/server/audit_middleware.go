package server

import (
	"net/http"
	"strings"
	"time"
)

func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The SSE stream never completes; auditing it would buffer the
		// response forever.
		if strings.HasSuffix(r.URL.Path, "/stream") {
			next.ServeHTTP(w, r)
			return
		}

		entry := AuditLogEntry{
			Timestamp: time.Now(),
			Method:    r.Method,
			Path:      r.URL.Path,
			Handler:   getHandlerName(r.URL.Path, r.Method),
		}

		if username, _, ok := r.BasicAuth(); ok {
			entry.UserID = username
		}

		if strings.HasPrefix(r.URL.Path, "/orders/") {
			parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
			if len(parts) >= 2 {
				entry.OrderID = parts[1]
			}
			if len(parts) >= 3 {
				entry.Action = parts[2]
			}
		}

		wrw := newResponseWriterWrapper(w)

		next.ServeHTTP(wrw, r)

		entry.StatusCode = wrw.GetStatusCode()
		entry.Response = string(wrw.GetBody())

		s.AuditManager.LogEntry(r.Context(), entry)
	})
}

func getHandlerName(path string, method string) string {
	switch {
	case strings.HasSuffix(path, "/cancel") && method == http.MethodPost:
		return "handleCancel"
	case strings.HasSuffix(path, "/activate") && method == http.MethodPost:
		return "handleActivate"
	case strings.HasSuffix(path, "/stream"):
		return "handleStreamOrders"
	case strings.HasPrefix(path, "/orders") && method == http.MethodGet:
		return "handleListOrders"
	}
	return "unknown"
}
