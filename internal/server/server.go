package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/xscopehub/mcp-http-server/internal/audit"
	"github.com/xscopehub/mcp-http-server/internal/config"
	"github.com/xscopehub/mcp-http-server/internal/dispatcher"
	"github.com/xscopehub/mcp-http-server/internal/jsonrpc"
	"github.com/xscopehub/mcp-http-server/internal/metrics"
	"github.com/xscopehub/mcp-http-server/pkg/manifest"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// Metric labels for requests that never reached a known method.
const (
	labelInvalid      = "invalid"
	labelUnknown      = "unknown"
	labelNotification = "notification"
)

// Dispatcher answers decoded JSON-RPC requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, req jsonrpc.Request) dispatcher.Outcome
	Methods() []string
}

// Options configures the MCP HTTP server.
type Options struct {
	Config     config.ServerConfig
	Manifest   manifest.Manifest
	Dispatcher Dispatcher
	Metrics    *metrics.Metrics
	Audit      *audit.Logger
	Logger     *slog.Logger
	// TracingService enables otelgin spans under this service name.
	TracingService string
}

// Server exposes the dispatcher over HTTP.
type Server struct {
	cfg        config.ServerConfig
	engine     *gin.Engine
	dispatcher Dispatcher
	manifest   manifest.Manifest
	metrics    *metrics.Metrics
	auditLog   *audit.Logger
	logger     *slog.Logger
	methods    map[string]struct{}
}

// New constructs a server with all dependencies wired.
func New(opts Options) *Server {
	s := &Server{
		cfg:        opts.Config,
		dispatcher: opts.Dispatcher,
		manifest:   opts.Manifest,
		metrics:    opts.Metrics,
		auditLog:   opts.Audit,
		logger:     opts.Logger,
		methods:    make(map[string]struct{}),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, m := range s.dispatcher.Methods() {
		s.methods[m] = struct{}{}
	}
	if len(s.manifest.Methods) == 0 {
		s.manifest.Methods = s.dispatcher.Methods()
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(s.recoverHTTP))
	r.Use(requestID())
	if opts.TracingService != "" {
		r.Use(otelgin.Middleware(opts.TracingService))
	}
	r.Use(s.accessLog())

	for _, path := range []string{"/", "/mcp"} {
		r.POST(path, s.limitBody(), s.handleRPC)
		r.GET(path, s.handleInfo)
		r.HEAD(path, s.handleInfo)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.engine = r
	return s
}

// Handler exposes the HTTP handler for embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP server until context cancellation.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening", "address", s.cfg.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.manifest)
}

func (s *Server) handleRPC(c *gin.Context) {
	start := time.Now()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.reject(c, start, status, jsonrpc.ParseError(fmt.Errorf("read body: %w", err)))
		return
	}

	req, rpcErr := jsonrpc.Decode(body)
	if rpcErr != nil {
		s.reject(c, start, http.StatusBadRequest, rpcErr)
		return
	}

	out, panicked := s.dispatch(c.Request.Context(), req)
	status := http.StatusOK
	if panicked {
		status = http.StatusInternalServerError
	}
	s.record(c, start, req, out)

	if out.NoReply {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(status, out.Response)
}

// dispatch shields the transport from faults outside the handlers.
func (s *Server) dispatch(ctx context.Context, req jsonrpc.Request) (out dispatcher.Outcome, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatch panic", "method", req.Method, "panic", r)
			out = dispatcher.Outcome{Response: jsonrpc.NewError(req.ID, jsonrpc.InternalError(fmt.Errorf("%v", r)))}
			panicked = true
		}
	}()
	return s.dispatcher.Dispatch(ctx, req), false
}

func (s *Server) reject(c *gin.Context, start time.Time, status int, rpcErr *jsonrpc.Error) {
	resp := jsonrpc.NewError(nil, rpcErr)
	s.metrics.ObserveRequest(labelInvalid, int(rpcErr.Code), time.Since(start))
	s.auditLog.Log(audit.Entry{
		RequestID: c.GetString(requestIDKey),
		ID:        resp.ID.String(),
		Code:      int(rpcErr.Code),
		Duration:  time.Since(start),
		Error:     rpcErr.Message,
	})
	c.JSON(status, resp)
}

func (s *Server) record(c *gin.Context, start time.Time, req jsonrpc.Request, out dispatcher.Outcome) {
	elapsed := time.Since(start)
	code := 0
	var message string
	if out.Response.Error != nil {
		code = int(out.Response.Error.Code)
		message = out.Response.Error.Message
	}

	label := req.Method
	switch {
	case out.NoReply:
		label = labelNotification
	case !s.known(req.Method):
		label = labelUnknown
	}
	s.metrics.ObserveRequest(label, code, elapsed)

	s.auditLog.Log(audit.Entry{
		RequestID: c.GetString(requestIDKey),
		Method:    req.Method,
		ID:        req.ID.String(),
		Tool:      out.Tool,
		Code:      code,
		Degraded:  out.Degraded,
		Duration:  elapsed,
		Error:     message,
	})
}

func (s *Server) known(method string) bool {
	_, ok := s.methods[method]
	return ok
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.MaxBodyBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
		}
		c.Next()
	}
}

func (s *Server) recoverHTTP(c *gin.Context, recovered any) {
	s.logger.Error("http handler panic", "path", c.Request.URL.Path, "panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		jsonrpc.NewError(nil, jsonrpc.InternalError(fmt.Errorf("%v", recovered))))
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
			"remote", c.ClientIP(),
		)
	}
}
