package events

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/gorilla/websocket"
)

// Watch connects to an event stream and calls fn with every raw JSON line
// until the stream ends or ctx is done. target is either a ws:// or wss://
// URL or a host:port TCP address.
func Watch(ctx context.Context, target string, fn func(line []byte)) error {
	if strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://") {
		return watchWS(ctx, target, fn)
	}
	return watchTCP(ctx, target, fn)
}

func watchTCP(ctx context.Context, addr string, fn func([]byte)) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		fn(sc.Bytes())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return sc.Err()
}

func watchWS(ctx context.Context, url string, fn func([]byte)) error {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer ws.Close()
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		fn([]byte(strings.TrimRight(string(msg), "\n")))
	}
}
