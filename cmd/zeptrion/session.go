package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/zeptrion/internal/config"
	"github.com/muurk/zeptrion/internal/logging"
	"github.com/muurk/zeptrion/internal/ui"
	"github.com/muurk/zeptrion/internal/zeptrion"
)

// session is one CLI invocation against one device
type session struct {
	address  string
	name     string
	registry *config.Registry
	client   *zeptrion.Client

	mu      sync.Mutex
	results []zeptrion.Result
}

// openSession resolves --device and connects a client
func openSession() (*session, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load device registry: %w", err)
	}

	address, name, err := reg.Resolve(deviceFlag)
	if err != nil {
		return nil, fmt.Errorf("%w (use --device or 'zeptrion devices add --default')", err)
	}

	s := &session{
		address:  address,
		name:     name,
		registry: reg,
	}
	s.client = zeptrion.NewClientWithTransport(address, zeptrion.Transport{
		HTTP: &http.Client{Timeout: timeout},
		Dialer: zeptrion.WebSocketDialer{Dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		}},
		OnResult: s.record,
	})

	logging.Debug("Session opened",
		zap.String("address", address),
		zap.String("nickname", name),
	)
	return s, nil
}

func (s *session) record(res zeptrion.Result) {
	s.mu.Lock()
	s.results = append(s.results, res)
	s.mu.Unlock()
}

// label is the nickname when one was used, otherwise the address
func (s *session) label() string {
	if s.name != "" {
		return fmt.Sprintf("%s (%s)", s.name, s.address)
	}
	return s.address
}

// channelLabels returns saved channel labels for the device, if any
func (s *session) channelLabels() map[int]string {
	if device := s.registry.GetDevice(s.name); device != nil {
		return device.Channels
	}
	return nil
}

// waitOpen blocks until the WebSocket is open or --timeout passes
func (s *session) waitOpen(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.client.WaitOpen(ctx); err != nil {
		return zeptrion.NewNotConnectedError(s.address, s.client.State())
	}
	return nil
}

// finish waits for outstanding requests, closes the client and reports the
// outcome of every dispatched request.
func (s *session) finish(p *ui.Printer, title string) error {
	s.client.Wait()
	_ = s.client.Close()

	if s.name != "" {
		s.registry.Touch(s.name)
		if err := saveRegistry(s.registry); err != nil {
			logging.Warn("Failed to update registry", zap.Error(err))
		}
	}

	s.mu.Lock()
	results := append([]zeptrion.Result(nil), s.results...)
	s.mu.Unlock()

	for _, res := range results {
		if !res.OK() {
			p.PrintError(title+" failed", res.Err, zeptrion.TroubleshootingHint(res.Err))
			return fmt.Errorf("%s: %s", title, zeptrion.ShortErrorMessage(res.Err))
		}
	}

	p.PrintSuccess(title, resultDetails(s.label(), results))
	return nil
}

// resultDetails lists every dispatched request. Several requests are keyed
// by position ("Request 1", "Status 1", ...).
func resultDetails(device string, results []zeptrion.Result) map[string]string {
	details := map[string]string{"Device": device}
	for i, res := range results {
		suffix := ""
		if len(results) > 1 {
			suffix = " " + strconv.Itoa(i+1)
		}
		details["Request"+suffix] = res.Request.Method + " " + res.Request.URL
		if res.StatusCode != 0 {
			details["Status"+suffix] = strconv.Itoa(res.StatusCode)
		}
	}
	return details
}

// fail closes the client and prints a failure box for a synchronous error
func (s *session) fail(p *ui.Printer, title string, err error) error {
	_ = s.client.Close()
	p.PrintError(title+" failed", err, zeptrion.TroubleshootingHint(err))
	return err
}
