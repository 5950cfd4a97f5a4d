package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"career-compass/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// recoverer turns a handler panic into a 500 response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				s.logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.Stack("stack"),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)

				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Message: "Something went wrong. Please try again later.",
					Code:    "internal",
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// requestLogger logs every request after it is handled
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}

		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error("request failed", fields...)
		case status >= http.StatusBadRequest:
			s.logger.Warn("request rejected", fields...)
		default:
			s.logger.Info("request handled", fields...)
		}
	})
}

// observe counts requests by matched route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		var route string
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		metrics.ObserveHTTP(r.Method, route, status)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		count, err := s.limiter.IncrementClientRateLimit(ctx, client)
		if err != nil {
			s.logger.Error("failed to check rate limit",
				zap.String("client", client),
				zap.Error(err),
			)
			next.ServeHTTP(w, r)
			return
		}

		if count > s.limit {
			s.logger.Warn("rate limit exceeded",
				zap.String("client", client),
				zap.Int64("count", count),
			)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Message: "Too many requests. Please wait a minute.",
				Code:    "rate_limited",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
