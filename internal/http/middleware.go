package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/fjod/go_cart/storefront-checkout/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	HeaderCustomerID    = "X-Customer-ID"
	HeaderCustomerEmail = "X-Customer-Email"
	HeaderCartID        = "X-Cart-ID"
	HeaderRequestID     = "X-Request-ID"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	customerKey
	cartOwnerKey
)

// HTTPRecorder counts API requests by route pattern.
type HTTPRecorder interface {
	ObserveHTTP(route string, status int)
}

// CustomerMiddleware reads the identity set by the upstream session layer. Signed-in customers own
// their cart; guests are identified by the cart id header alone.
func CustomerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner := r.Header.Get(HeaderCartID)
		if id := r.Header.Get(HeaderCustomerID); id != "" {
			ctx = context.WithValue(ctx, customerKey, &domain.Customer{
				ID:    id,
				Email: r.Header.Get(HeaderCustomerEmail),
			})
			owner = id
		}
		if owner == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing customer or cart identity")
			return
		}
		ctx = context.WithValue(ctx, cartOwnerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs one line per request once the handler returns.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.WithContext(r.Context(), log).Info("http request",
				zap.String("method", r.Method),
				zap.String("route", routePattern(r)),
				zap.Int("status", statusOf(ww)),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", getRequestID(r.Context())))
		})
	}
}

// MetricsMiddleware labels requests by chi route pattern so session ids do not blow up cardinality.
func MetricsMiddleware(rec HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			rec.ObserveHTTP(routePattern(r), statusOf(ww))
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func statusOf(ww middleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}

func getCustomer(ctx context.Context) *domain.Customer {
	c, _ := ctx.Value(customerKey).(*domain.Customer)
	return c
}

func getCartOwner(ctx context.Context) string {
	owner, _ := ctx.Value(cartOwnerKey).(string)
	return owner
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}
