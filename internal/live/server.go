package live

import (
	"bufio"
	"context"
	"errors"
	"net"
)

// Server accepts TCP subscribers of the live feed.
type Server struct {
	Addr string
	Hub  *Hub
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

// Run listens on Addr until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is done; ln is closed on
// return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.Hub.logger.Info("tcp feed listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		s.Hub.logger.Info("tcp client connected", "remote", conn.RemoteAddr().String())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.Hub.logger.Info("tcp client disconnected", "remote", c.RemoteAddr().String())
			}()

			// subscribers only listen; anything they send is discarded
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}
