// Package resp implements a minimal RESP2 (Redis serialization protocol)
// server over the same CacheLayer the HTTP proxy serves, so existing
// redis-cli and client libraries can poke the cache directly.
package resp

import (
	"bufio"
	"context"
	"net"

	"go.uber.org/zap"

	"github.com/kclaka/colander/cache"
)

// Server accepts RESP2 connections and dispatches commands against a
// CacheLayer reachable through lp.
type Server struct {
	Addr string
	Layer *cache.LayerPointer
	Log   *zap.Logger
}

// NewServer constructs a Server. It does not start listening until Run
// is called.
func NewServer(addr string, lp *cache.LayerPointer, log *zap.Logger) *Server {
	return &Server{Addr: addr, Layer: lp, Log: log}
}

// Run listens on s.Addr and serves connections until ctx is cancelled or
// the listener errors.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.Log.Warn("resp accept failed", zap.Error(err))
				return err
			}
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(nc net.Conn) {
	defer nc.Close()
	remote := nc.RemoteAddr().String()
	s.Log.Debug("resp client connected", zap.String("remote", remote))
	defer s.Log.Debug("resp client disconnected", zap.String("remote", remote))

	c := &conn{
		r:     bufio.NewReader(nc),
		w:     bufio.NewWriter(nc),
		layer: s.Layer,
		log:   s.Log,
	}
	c.serve()
}
