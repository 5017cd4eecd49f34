package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/net/websocket"

	"github.com/tgdash/dashclient/types"
)

// State is the channel's connection state.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// ErrNotReady is returned when the channel is asked to open before a
// self user id and a non-empty init-data assertion are available.
var ErrNotReady = errors.New("live: self id and init data required")

// URL derives the live-channel endpoint from the backend origin. The
// scheme follows the origin's transport security (https becomes wss).
func URL(serverURL string, selfID int64, initData string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/ws/user/" + strconv.FormatInt(selfID, 10)
	q := u.Query()
	q.Set("initData", initData)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Channel is the persistent push connection for balance updates. It
// moves Closed -> Connecting -> Open -> Closed; once closed it never
// reconnects on its own, the owner re-establishes if desired.
type Channel struct {
	serverURL string
	selfID    int64
	initData  string
	onBalance func(types.BalanceUpdate)

	mu    sync.Mutex
	state State
	conn  *websocket.Conn
}

// New constructs a Channel. onBalance is invoked from the receive
// goroutine for every well-formed inbound message.
func New(serverURL string, selfID int64, initData string, onBalance func(types.BalanceUpdate)) *Channel {
	return &Channel{
		serverURL: serverURL,
		selfID:    selfID,
		initData:  initData,
		onBalance: onBalance,
	}
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open dials the endpoint and starts the receive loop. It refuses to
// open without a self id and assertion, and closes when ctx is
// canceled.
func (c *Channel) Open(ctx context.Context) error {
	if c.selfID <= 0 || c.initData == "" {
		return ErrNotReady
	}

	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return errors.New("live: channel already open")
	}
	c.state = StateConnecting
	c.mu.Unlock()

	wsURL, err := URL(c.serverURL, c.selfID, c.initData)
	if err != nil {
		c.markClosed()
		return err
	}

	conn, err := websocket.Dial(wsURL, "", c.serverURL)
	if err != nil {
		c.markClosed()
		return fmt.Errorf("dial live channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()
	go func() {
		defer close(done)
		c.receive(conn)
	}()
	return nil
}

// Close tears the channel down. Idempotent; no reconnect is attempted.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	conn := c.conn
	c.conn = nil
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Channel) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
	c.conn = nil
}

// frame mirrors the wire shape with an optional balance so messages
// missing the field can be told apart from a zero balance.
type frame struct {
	Balance *decimal.Decimal `json:"balance"`
}

func (c *Channel) receive(conn *websocket.Conn) {
	for {
		var raw string
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			c.markClosed()
			return
		}

		var msg frame
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			log.Printf("live: discarding malformed message: %v", err)
			continue
		}
		if msg.Balance == nil {
			log.Printf("live: discarding message without balance field")
			continue
		}
		c.onBalance(types.BalanceUpdate{Balance: *msg.Balance})
	}
}
