package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/wowemu/realmd/internal/config"
	"github.com/wowemu/realmd/internal/realm"
)

// Server accepts client connections on the auth port and runs one Session
// per connection.
type Server struct {
	cfg    config.Realmd
	gw     AccountGateway
	realms *realm.Store

	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates an auth server around a gateway and realm store.
func NewServer(cfg config.Realmd, gw AccountGateway, realms *realm.Store) *Server {
	return &Server{
		cfg:    cfg,
		gw:     gw,
		realms: realms,
	}
}

// Addr returns the listening address, or nil before Run is called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close shuts down the listener.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run listens on cfg.BindAddress:cfg.Port and accepts connections until ctx
// is canceled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on a caller-provided listener. Used by tests
// that listen on an ephemeral port.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("auth server started", "address", ln.Addr())
		s.acceptLoop(ctx, &wg, ln)
	}()

	wg.Wait()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("failed to accept connection", "error", err)
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				slog.Debug("new connection", "remote", conn.RemoteAddr())
				NewSession(conn, s.cfg, s.gw, s.realms).Run(ctx)
			}()
		}
	}
}
