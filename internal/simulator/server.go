package simulator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/zeptrion/internal/logging"
)

// Shutdown grace period for in-flight requests
const shutdownTimeout = 10 * time.Second

// Config holds the simulator configuration
type Config struct {
	Host     string
	Port     int
	LogLevel string
	LogFile  string // Rotating log file (empty = stderr)
}

// Server serves a simulated Device over plain HTTP
type Server struct {
	config     *Config
	device     *Device
	httpServer *http.Server
	listener   net.Listener
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	var err error
	if config.LogFile != "" {
		err = logging.InitializeFile(config.LogLevel, logging.FileOptions{Path: config.LogFile})
	} else {
		err = logging.Initialize(config.LogLevel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	device := NewDevice()
	return &Server{
		config: config,
		device: device,
		httpServer: &http.Server{
			Handler:           device.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Device returns the simulated device
func (s *Server) Device() *Device {
	return s.device
}

// Addr returns the listening address, or "" before Listen
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Listen binds the configured address without serving
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	return nil
}

// Serve serves on the bound listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	logging.Info("Simulator listening for connections",
		zap.String("addr", s.Addr()),
		zap.String("log_level", s.config.LogLevel),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Start starts the server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("Starting Zeptrion simulator",
		zap.String("host", s.config.Host),
		zap.Int("port", s.config.Port),
	)

	err := s.Serve(ctx)
	if ctx.Err() != nil {
		logging.Info("Shutdown signal received, simulator stopped")
	}
	return err
}

// Shutdown closes WebSocket clients and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down simulator...",
		zap.Int("websocket_clients", s.device.ClientCount()),
	)

	s.device.CloseClients(websocket.CloseGoingAway, "shutdown")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = s.httpServer.Close()
	}

	logging.Sync()
	return nil
}
