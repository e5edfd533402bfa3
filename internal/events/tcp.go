package events

import (
	"bufio"
	"context"
	"errors"
	"net"
)

// Server accepts raw TCP subscribers.
type Server struct {
	Addr string
	Hub  *Hub
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

// ListenAndServe listens on s.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts subscribers on ln until ctx is done. It closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.Hub.logger.Info().Str("addr", ln.Addr().String()).Msg("event server listening")

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
			s.Hub.logger.Warn().Err(err).Msg("accept")
			continue
		}

		if _, err := conn.Write(welcome("tcp")); err != nil {
			_ = conn.Close()
			continue
		}
		s.Hub.addTCP(conn)
		s.Hub.logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("tcp subscriber connected")

		go func(c net.Conn) {
			defer s.Hub.removeTCP(c)
			// subscribers only listen; drain until they hang up
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}
