// Package httpapi serves an [sms.Service] over HTTP with gin.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spachava753/smskit/assist"
	"github.com/spachava753/smskit/internal/metrics"
	"github.com/spachava753/smskit/sms"
)

// Messenger is the operation surface the router needs. *sms.Service
// satisfies it.
type Messenger interface {
	GetMessages(ctx context.Context, filter sms.Filter, count int) ([]sms.Record, error)
	SendMessage(ctx context.Context, address, body string) (sms.SendResult, error)
}

type Dependencies struct {
	Service        Messenger
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	AllowedOrigins []string
	// Timeout bounds how long a request waits on the service.
	Timeout time.Duration
}

type handler struct {
	svc     Messenger
	timeout time.Duration
}

type sendBody struct {
	Address string `json:"address"`
	Body    string `json:"body"`
}

type listData struct {
	Messages []sms.Record `json:"messages"`
	Count    int          `json:"count"`
}

// NewRouter builds the engine:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /v1/messages?box=&search=&address=&count=
//	POST /v1/messages {"address": "...", "body": "..."}
func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	router := gin.New()
	router.Use(recovery(log))
	router.Use(requestLogger(log, deps.Metrics))
	if len(deps.AllowedOrigins) > 0 {
		router.Use(gincors.New(gincors.Config{
			AllowOrigins: deps.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		success(c, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	h := &handler{svc: deps.Service, timeout: timeout}
	v1 := router.Group("/v1")
	v1.GET("/messages", h.list)
	v1.POST("/messages", h.send)
	return router
}

func (h *handler) list(c *gin.Context) {
	count := assist.DefaultCount
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "count must be an integer")
			return
		}
		count = n
	}
	filter := sms.Filter{
		Box:     sms.Box(c.Query("box")),
		Search:  c.Query("search"),
		Address: c.Query("address"),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	records, err := sms.Await(ctx, func(ctx context.Context) ([]sms.Record, error) {
		return h.svc.GetMessages(ctx, filter, count)
	})
	if err != nil {
		failure(c, err)
		return
	}
	success(c, listData{Messages: records, Count: len(records)})
}

func (h *handler) send(c *gin.Context) {
	var body sendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	result, err := sms.Await(ctx, func(ctx context.Context) (sms.SendResult, error) {
		return h.svc.SendMessage(ctx, body.Address, body.Body)
	})
	if err != nil {
		failure(c, err)
		return
	}
	success(c, result)
}

func requestLogger(log *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if m != nil {
			m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), elapsed)
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("ip", c.ClientIP()),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered",
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", rec),
					zap.Stack("stack"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Code: CodeInternal, Msg: "internal server error"})
			}
		}()
		c.Next()
	}
}
