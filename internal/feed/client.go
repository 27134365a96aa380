// Package feed follows the formBar server over Socket.IO and hands poll,
// timer, class and sound events to a Handler.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"formpix/internal/display"
)

// DefaultReconnectDelay is the fixed pause between connection attempts.
const DefaultReconnectDelay = 5 * time.Second

// readTimeout applies until the server's handshake says otherwise.
const readTimeout = 60 * time.Second

// SoundEvents are the bare notifications upstream sends for sound cues.
var SoundEvents = []string{
	"helpSound",
	"breakSound",
	"pollSound",
	"removePollSound",
	"joinSound",
	"leaveSound",
	"kickStudentsSound",
	"endClassSound",
	"timerSound",
}

// Handler receives feed events. Calls come from the client's goroutine, one
// at a time.
type Handler interface {
	Connected()
	Disconnected()
	SetClass(class string)
	UpdatePoll(s display.Snapshot)
	UpdateTimer(t display.TimerState)
	Sound(event string)
}

type Config struct {
	// URL is the formBar base URL, e.g. http://172.16.3.100:420.
	URL            string
	APIKey         string
	ReconnectDelay time.Duration
	Logger         *log.Logger
}

// Client keeps one Socket.IO session to formBar alive.
type Client struct {
	url     string
	apiKey  string
	delay   time.Duration
	handler Handler
	logger  *log.Logger
	dialer  websocket.Dialer

	writeMu sync.Mutex
	conn    *websocket.Conn
}

func New(cfg Config, h Handler) (*Client, error) {
	u, err := socketURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		url:     u,
		apiKey:  cfg.APIKey,
		delay:   cfg.ReconnectDelay,
		handler: h,
		logger:  cfg.Logger,
		dialer:  websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}, nil
}

// socketURL turns the formBar base URL into its Socket.IO websocket endpoint.
func socketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("formbar url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("formbar url: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/socket.io/"
	u.RawQuery = "EIO=4&transport=websocket"
	return u.String(), nil
}

// Run connects and reconnects until ctx is cancelled. Every lost or failed
// session is reported to the handler before the next attempt.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Printf("connection lost: %v", err)
		c.handler.Disconnected()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("api", c.apiKey)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c.setConn(conn)
	defer c.setConn(nil)

	timeout := readTimeout
	for {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		// Binary frames carry attachments of binary packets, which are dropped.
		if kind != websocket.TextMessage || len(msg) == 0 {
			continue
		}

		switch msg[0] {
		case eioOpen:
			var hs handshake
			if err := json.Unmarshal(msg[1:], &hs); err == nil && hs.PingInterval > 0 {
				timeout = time.Duration(hs.PingInterval+hs.PingTimeout) * time.Millisecond
			}
			if err := c.write([]byte{eioMessage, sioConnect}); err != nil {
				return err
			}
		case eioPing:
			if err := c.write([]byte{eioPong}); err != nil {
				return err
			}
		case eioClose:
			return errors.New("server closed the session")
		case eioMessage:
			if err := c.message(msg[1:]); err != nil {
				return err
			}
		}
	}
}

func (c *Client) message(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	switch p[0] {
	case sioConnect:
		c.logger.Printf("connected to %s", c.url)
		c.handler.Connected()
	case sioConnectError:
		return fmt.Errorf("connect refused: %s", connectError(p[1:]))
	case sioDisconnect:
		return errors.New("server disconnected the socket")
	case sioEvent:
		name, args, err := parseEvent(p[1:])
		if err != nil {
			c.logger.Printf("bad event: %v", err)
			return nil
		}
		if err := c.dispatch(name, args); err != nil {
			c.logger.Printf("%s: %v", name, err)
		}
		if id, ok := ackID(p[1:]); ok {
			return c.write(encodeAck(id))
		}
	case sioBinaryEvent, sioBinaryAck:
		c.logger.Printf("binary packet ignored: %.32s", p)
	case sioAck:
		// Emit never asks for an ack.
	}
	return nil
}

func (c *Client) dispatch(name string, args []json.RawMessage) error {
	switch name {
	case "setClass":
		var class string
		if len(args) > 0 {
			if err := json.Unmarshal(args[0], &class); err != nil {
				return err
			}
		}
		c.logger.Printf("moved to class: %s", class)
		c.handler.SetClass(class)
		if class != display.NoClass {
			if err := c.Emit("vbUpdate"); err != nil {
				return err
			}
			return c.Emit("vbTimer")
		}
	case "vbUpdate":
		if !present(args) {
			return nil
		}
		s, err := DecodeSnapshot(args[0])
		if err != nil {
			return err
		}
		c.handler.UpdatePoll(s)
	case "vbTimer":
		if !present(args) {
			return nil
		}
		t, err := DecodeTimer(args[0])
		if err != nil {
			return err
		}
		c.handler.UpdateTimer(t)
	default:
		for _, ev := range SoundEvents {
			if ev == name {
				c.handler.Sound(name)
				return nil
			}
		}
	}
	return nil
}

func present(args []json.RawMessage) bool {
	return len(args) > 0 && string(args[0]) != "null"
}

// Emit sends an event to formBar on the current session.
func (c *Client) Emit(name string, args ...any) error {
	frame, err := encodeEvent(name, args...)
	if err != nil {
		return err
	}
	return c.write(frame)
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
}

func (c *Client) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return errors.New("not connected")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}
