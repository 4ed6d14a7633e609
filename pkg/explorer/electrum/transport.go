package electrum

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const dialTimeout = 10 * time.Second

// transport moves one JSON message at a time between client and server. The
// Electrum protocol is newline-delimited JSON over TCP/TLS, while websocket
// endpoints frame one JSON document per message.
type transport interface {
	send(msg []byte) error
	recv() ([]byte, error)
	close() error
}

// dialTransport opens a connection to the given endpoint. The scheme selects
// the transport: tcp:// and ssl:// for raw sockets, ws:// and wss:// for
// websocket endpoints.
func dialTransport(addr string) (transport, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint '%s': %v", addr, err)
	}

	switch u.Scheme {
	case "tcp":
		conn, err := net.DialTimeout("tcp", u.Host, dialTimeout)
		if err != nil {
			return nil, err
		}
		return newLineTransport(conn), nil
	case "ssl":
		conn, err := tls.DialWithDialer(
			&net.Dialer{Timeout: dialTimeout}, "tcp", u.Host,
			&tls.Config{ServerName: u.Hostname()},
		)
		if err != nil {
			return nil, err
		}
		return newLineTransport(conn), nil
	case "ws", "wss":
		dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
		conn, _, err := dialer.Dial(addr, nil)
		if err != nil {
			return nil, err
		}
		return &wsTransport{conn: conn}, nil
	default:
		return nil, fmt.Errorf(
			"unsupported endpoint scheme '%s', must be one of "+
				"tcp, ssl, ws, wss", u.Scheme,
		)
	}
}

type lineTransport struct {
	conn     net.Conn
	reader   *bufio.Reader
	writeMtx sync.Mutex
}

func newLineTransport(conn net.Conn) *lineTransport {
	return &lineTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

func (t *lineTransport) send(msg []byte) error {
	t.writeMtx.Lock()
	defer t.writeMtx.Unlock()

	_, err := t.conn.Write(append(msg, '\n'))
	return err
}

func (t *lineTransport) recv() ([]byte, error) {
	return t.reader.ReadBytes('\n')
}

func (t *lineTransport) close() error {
	return t.conn.Close()
}

type wsTransport struct {
	conn     *websocket.Conn
	writeMtx sync.Mutex
}

func (t *wsTransport) send(msg []byte) error {
	t.writeMtx.Lock()
	defer t.writeMtx.Unlock()

	return t.conn.WriteMessage(websocket.TextMessage, msg)
}

func (t *wsTransport) recv() ([]byte, error) {
	_, msg, err := t.conn.ReadMessage()
	return msg, err
}

func (t *wsTransport) close() error {
	return t.conn.Close()
}
