package echoapi

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var contextObjectKey = "object"

// ownedObject loads the caller's object identified by the `:id` path param into the context.
// find is expected to return a core.NotFoundError when the caller owns no such object.
func ownedObject[T any](find func(ctx context.Context, userID, id string) (T, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			caller, err := getCaller(ctx)
			if err != nil {
				return err
			}
			obj, err := find(ctx.Request().Context(), caller.UserID, ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "loading object")
			}
			ctx.Set(contextObjectKey, obj)
			return next(ctx)
		}
	}
}

func contextObject[T any](ctx echo.Context) (T, error) {
	obj, ok := ctx.Get(contextObjectKey).(T)
	if !ok {
		return obj, errors.Wrap(errObjectNotFoundInCtx, "retrieving object from context")
	}
	return obj, nil
}

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) (*httpMetrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alloy",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests processed, by method, route and status code.",
	}, []string{"method", "route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "alloy",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests, by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	if err := reg.Register(requests); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, errors.Wrap(err, "registering http requests counter")
		}
		requests = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(duration); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, errors.Wrap(err, "registering http duration histogram")
		}
		duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	return &httpMetrics{requests: requests, duration: duration}, nil
}

// middleware records every request. Errors are handled here so the final status code is known.
func (m *httpMetrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		if err := next(ctx); err != nil {
			ctx.Error(err)
		}

		method := ctx.Request().Method
		route := ctx.Path()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(method, route, strconv.Itoa(ctx.Response().Status)).Inc()
		return nil
	}
}
