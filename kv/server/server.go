// Package server implements the networked front of the table store: a TCP
// acceptor that drives one Session per connection against the shared table
// registry.
package server

import (
	"net"

	"github.com/juju/errors"
	"github.com/ngaut/log"
	"go.uber.org/atomic"
	"golang.org/x/net/netutil"

	"github.com/kvstack/tablestore/config"
	"github.com/kvstack/tablestore/kv/storage"
)

// Server owns the listening socket and the process-wide table registry. The
// registry is the only process-wide mutable structure; it is created here at
// startup and torn down with the process.
type Server struct {
	cfg      *config.Config
	registry *storage.Registry
	listener net.Listener
	closed   *atomic.Bool
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:      cfg,
		registry: storage.NewRegistry(),
		closed:   atomic.NewBool(false),
	}
}

// Registry exposes the table registry, mainly for tests and tooling.
func (srv *Server) Registry() *storage.Registry {
	return srv.registry
}

// Listen binds the configured address. With MaxConnections > 0 the listener
// is capped so that excess clients queue in the accept backlog instead of
// spawning sessions.
func (srv *Server) Listen() error {
	l, err := net.Listen("tcp", srv.cfg.Addr)
	if err != nil {
		return errors.Trace(err)
	}
	if srv.cfg.MaxConnections > 0 {
		l = netutil.LimitListener(l, srv.cfg.MaxConnections)
	}
	srv.listener = l
	return nil
}

// Addr returns the bound listen address. Valid only after Listen.
func (srv *Server) Addr() net.Addr {
	return srv.listener.Addr()
}

// Serve accepts connections until Stop is called, handing each to its own
// worker goroutine. Transient accept errors are logged and survived.
func (srv *Server) Serve() error {
	log.Infof("serving on %s", srv.listener.Addr())
	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			if srv.closed.Load() {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				log.Errorf("accept failed: %v", err)
				continue
			}
			return errors.Trace(err)
		}
		connectionsTotal.Inc()
		go srv.clientWorker(conn)
	}
}

func (srv *Server) clientWorker(conn net.Conn) {
	liveSessions.Inc()
	defer liveSessions.Dec()
	defer conn.Close()
	NewSession(conn, srv.registry).Chat()
}

// Stop closes the listener. Sessions already running finish on their own;
// each one's exit path rolls back any open transaction.
func (srv *Server) Stop() {
	if !srv.closed.CAS(false, true) {
		return
	}
	if srv.listener != nil {
		srv.listener.Close()
	}
}
