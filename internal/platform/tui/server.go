// Package tui provides the Bubble Tea front end for livepoll and the SSH
// server (via Wish) that hosts it. Each SSH connection gets its own session
// flow: create a poll, or join one by code and vote, with the tally
// updating live.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/livepoll/internal/config"
	"github.com/vovakirdan/livepoll/internal/live"
	"github.com/vovakirdan/livepoll/internal/poll"
	"github.com/vovakirdan/livepoll/internal/storage"
)

// connCtxKey is the ssh.Context key under which the session's connection
// handle is stored, so the cleanup middleware can find it after the Bubble
// Tea program exits.
const connCtxKey = "livepoll-conn"

// SSHServer wraps a Wish SSH server hosting the live poll TUI.
type SSHServer struct {
	config      config.ServerConfig
	server      *ssh.Server
	coordinator *live.Coordinator
	store       *storage.Store
	logger      *log.Logger
}

// NewSSHServer creates the server, the coordinator, and the backing store.
func NewSSHServer(cfg config.ServerConfig) (*SSHServer, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "livepoll",
	})

	// Open storage; the server runs without it, minus archives.
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn("could not open database", "error", err)
		store = nil
	}

	registry := poll.NewRegistry(poll.NewCodeGenerator(cfg.Session.CodeLength, cfg.Session.CodeRetries))
	coordinator := live.NewCoordinator(
		live.CoordinatorConfig{MessageBuffer: cfg.Session.MessageBuffer},
		registry,
		logger,
	)
	if store != nil {
		coordinator.SetArchiver(store)
	}

	srv := &SSHServer{
		config:      cfg,
		coordinator: coordinator,
		store:       store,
		logger:      logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.SSH.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".livepoll", "host_key")
	}

	// Ensure host key directory exists
	if mkdirErr := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.SSH.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.SSH.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.connMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session and attaches
// its connection handle to the coordinator.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	connID := uuid.NewString()
	conn := live.NewChannelConn(connID, s.config.Session.EventBuffer)
	s.coordinator.Attach(conn)
	sshSession.Context().SetValue(connCtxKey, conn)

	model := NewSessionModel(s.coordinator, s.store, conn, sshSession.User(), pty.Window.Width, pty.Window.Height)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// connMiddleware logs session lifecycle and tears the connection down after
// the Bubble Tea program exits. Sending ConnClosedMsg here (not in the
// model) guarantees cleanup even when a client drops without quitting.
func (s *SSHServer) connMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("connection opened",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)

		if conn, ok := sshSession.Context().Value(connCtxKey).(*live.ChannelConn); ok {
			conn.Close()
			s.coordinator.Send(live.ConnClosedMsg{ConnID: conn.ID()})
		}
		s.logger.Info("connection closed",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the coordinator and the SSH server, blocking until
// SIGINT/SIGTERM.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.SSH.Address)
	s.coordinator.Start()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server, closing live sessions so their
// tallies are archived.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.coordinator.Stop()
	s.coordinator.CloseAll()

	err := s.server.Shutdown(ctx)

	// Archive writes run async; let them land before the store goes away.
	s.coordinator.WaitArchives()
	if s.store != nil {
		s.store.Close()
	}
	return err
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.SSH.Address
}
