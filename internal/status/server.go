// Package status exposes the live state of a run over HTTP.
package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dcheck/dcheck/internal/executor"
)

// Source provides the current run status
type Source interface {
	Status() executor.Status
}

// Server serves GET /status and GET /healthz
type Server struct {
	source Source
}

// Quiet switches gin to release mode and sends whatever it still logs to w,
// keeping stdout reserved for results
func Quiet(w io.Writer) {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = w
	gin.DefaultErrorWriter = w
}

// NewServer creates a status server for source
func NewServer(source Source) *Server {
	return &Server{source: source}
}

// RegisterRoutes attaches the status endpoints to router
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/status", s.statusHandler)
	router.GET("/healthz", s.healthHandler)
}

func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.source.Status())
}

func (s *Server) healthHandler(c *gin.Context) {
	st := s.source.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"run_id":  st.RunID,
		"running": st.Running,
	})
}

// Handler returns the routed engine without starting a listener
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	s.RegisterRoutes(router)
	return router
}

// Start listens on addr and serves until ctx is canceled. It returns the
// bound address (useful with port 0) once the listener is ready. Serve
// errors after startup are sent to errc, which may be nil.
func (s *Server) Start(ctx context.Context, addr string, errc chan<- error) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("status server listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && errc != nil {
			errc <- err
		}
	}()

	return ln.Addr().String(), nil
}
