// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"github.com/dailytoolbox/navsrv/internal/geoip"
)

// Analytics tags each request with a UUID, resolves the viewer country via
// GeoIP, and emits a structured access log entry with parsed user agent
// details. The country lands in the request context for geo targeting.
func Analytics(geo *geoip.Lookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()

			country := ""
			if geo != nil && geo.IsEnabled() {
				country = geo.LookupCountry(ipWithoutPort(ClientIP(r)))
			}

			ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestID)
			ctx = context.WithValue(ctx, ContextKeyCountry, country)

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(ctx))

			ua := useragent.Parse(r.UserAgent())
			slog.Debug("request",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"country", country,
				"browser", ua.Name,
				"os", ua.OS,
				"bot", ua.Bot,
			)
		})
	}
}

// GetCountry returns the viewer country resolved by Analytics, or "".
func GetCountry(r *http.Request) string {
	country, _ := r.Context().Value(ContextKeyCountry).(string)
	return country
}

// GetRequestID returns the request UUID assigned by Analytics, or "".
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(ContextKeyRequestID).(string)
	return id
}

// ipWithoutPort strips the port from host:port addresses; bare IPs pass
// through unchanged.
func ipWithoutPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
