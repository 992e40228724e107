// Package uplink keeps a WebSocket session to a controller. Inbound frames
// become commands submitted through the host's sender; notifications
// addressed to the uplink endpoint are written back.
package uplink

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/EchoPBX/c2host/internal/config"
	"github.com/EchoPBX/c2host/internal/dispatch"
	"github.com/EchoPBX/c2host/pkg/sdk"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Frame is a command from the controller.
type Frame struct {
	To      sdk.PluginID    `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

// Result is written back for every notification addressed to the uplink.
type Result struct {
	ID      string       `json:"id"`
	From    sdk.PluginID `json:"from"`
	Payload string       `json:"payload"`
}

type Client struct {
	url      string
	id       sdk.PluginID
	insecure bool
	log      *zap.Logger
	sender   sdk.Sender
	out      *outbox

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(cfg *config.Config, log *zap.Logger, sender sdk.Sender) *Client {
	return &Client{
		url:      cfg.Uplink.URL,
		id:       sdk.PluginID(cfg.Uplink.EndpointID),
		insecure: cfg.Uplink.Insecure,
		log:      log.Named("uplink"),
		sender:   sender,
		out:      newOutbox(),
	}
}

// Observe queues notifications addressed to the uplink endpoint for the
// controller. Results queued while disconnected go out on the next session.
func (c *Client) Observe(ex dispatch.Exchange) {
	if ex.Kind != dispatch.KindNotify || ex.To != c.id {
		return
	}
	c.out.push(Result{ID: ex.ID, From: ex.From, Payload: ex.Payload})
}

// Pending returns the number of results not yet written to the controller.
func (c *Client) Pending() int { return c.out.len() }

// Run dials the controller and serves the session, reconnecting with
// exponential backoff, until ctx is done or the host stops accepting
// commands.
func (c *Client) Run(ctx context.Context) {
	d := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: c.insecure},
	}
	backoff := minBackoff
	for ctx.Err() == nil {
		conn, _, err := d.DialContext(ctx, c.url, http.Header{"User-Agent": {"c2host"}})
		if err != nil {
			c.log.Warn("uplink dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff
		c.log.Info("uplink connected", zap.String("url", c.url))

		err = c.serve(ctx, conn)
		if errors.Is(err, sdk.ErrHostClosed) {
			c.log.Info("host closed, uplink stopping")
			return
		}
		if ctx.Err() == nil {
			c.log.Warn("uplink session ended", zap.Error(err), zap.Int("pending_results", c.out.len()))
			if !sleep(ctx, minBackoff) {
				return
			}
		}
	}
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		c.drop(conn)
	}()
	go func() {
		select {
		case <-ctx.Done():
			c.drop(conn)
		case <-done:
		}
	}()
	go c.write(conn, done)

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			var (
				syntax  *json.SyntaxError
				badType *json.UnmarshalTypeError
			)
			if errors.As(err, &syntax) || errors.As(err, &badType) {
				c.log.Warn("uplink frame is not json", zap.Error(err))
				continue
			}
			return err
		}
		if f.To == "" {
			c.log.Warn("uplink frame has no target")
			continue
		}
		cmd := sdk.NewCommand(c.id, f.To, sdk.PayloadText(f.Payload))
		if err := c.sender.Send(cmd); err != nil {
			return err
		}
		c.log.Debug("uplink command submitted", zap.String("id", cmd.ID), zap.String("to", string(f.To)))
	}
}

// write drains the outbox to conn until the session ends. A result whose
// write fails goes back to the head of the outbox.
func (c *Client) write(conn *websocket.Conn, done <-chan struct{}) {
	for {
		for {
			res, ok := c.out.pop()
			if !ok {
				break
			}
			if err := conn.WriteJSON(res); err != nil {
				c.out.requeue(res)
				c.log.Debug("uplink write error", zap.Error(err))
				c.drop(conn)
				return
			}
		}
		select {
		case <-done:
			return
		case <-c.out.ready():
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// drop closes conn and forgets it if it is still the current session.
func (c *Client) drop(conn *websocket.Conn) {
	_ = conn.Close()
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
