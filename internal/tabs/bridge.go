package tabs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lotas/tabkorb/internal/applog"
	"github.com/lotas/tabkorb/internal/types"
	"nhooyr.io/websocket"
)

// ErrNotConnected is returned when a command is issued while no extension
// is connected.
var ErrNotConnected = fmt.Errorf("no extension connected")

const commandTimeout = 10 * time.Second

// Bridge is the WebSocket implementation of Gateway. It accepts a single
// connection from the browser extension; a newer connection replaces the
// current one. Commands carry a uuid and block until the matching response
// arrives or the timeout fires.
type Bridge struct {
	port   int
	events chan Event

	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context
	pending map[string]chan incomingMsg
}

// NewBridge creates a Bridge. The listener only starts when ListenAndServe
// is called.
func NewBridge(port int) *Bridge {
	return &Bridge{
		port:    port,
		events:  make(chan Event, 64),
		pending: make(map[string]chan incomingMsg),
	}
}

// Port returns the configured port.
func (b *Bridge) Port() int {
	return b.port
}

// Events returns the tab lifecycle feed. Events are dropped rather than
// blocked on when the consumer falls behind.
func (b *Bridge) Events() <-chan Event {
	return b.events
}

// Connected reports whether an extension is currently connected.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// List implements Gateway.
func (b *Bridge) List(ctx context.Context) ([]types.Tab, error) {
	resp, err := b.roundTrip(ctx, outgoingMsg{Action: actionGetTabs})
	if err != nil {
		return nil, err
	}
	tabs, err := parseTabs(resp.Tabs)
	if err != nil {
		return nil, fmt.Errorf("parse tabs: %w", err)
	}
	return tabs, nil
}

// SwitchTo implements Gateway.
func (b *Bridge) SwitchTo(ctx context.Context, tabID int) error {
	_, err := b.roundTrip(ctx, outgoingMsg{Action: actionSwitchTab, TabID: tabID})
	return err
}

// Close implements Gateway.
func (b *Bridge) Close(ctx context.Context, tabID int) error {
	_, err := b.roundTrip(ctx, outgoingMsg{Action: actionCloseTab, TabID: tabID})
	return err
}

// Pin implements Gateway.
func (b *Bridge) Pin(ctx context.Context, tabID int, pinned bool) error {
	_, err := b.roundTrip(ctx, outgoingMsg{Action: actionPinTab, TabID: tabID, Pinned: &pinned})
	return err
}

// Create implements Gateway.
func (b *Bridge) Create(ctx context.Context, url string) (types.Tab, error) {
	resp, err := b.roundTrip(ctx, outgoingMsg{Action: actionCreateTab, URL: url})
	if err != nil {
		return types.Tab{}, err
	}
	tab, err := parseTab(resp.Tab)
	if err != nil {
		return types.Tab{}, fmt.Errorf("parse created tab: %w", err)
	}
	return tab, nil
}

// roundTrip sends a command and waits for the correlated response.
func (b *Bridge) roundTrip(ctx context.Context, msg outgoingMsg) (incomingMsg, error) {
	msg.ID = uuid.NewString()

	b.mu.Lock()
	conn := b.conn
	connCtx := b.connCtx
	if conn == nil {
		b.mu.Unlock()
		return incomingMsg{}, ErrNotConnected
	}
	ch := make(chan incomingMsg, 1)
	b.pending[msg.ID] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, msg.ID)
		b.mu.Unlock()
	}()

	data, err := json.Marshal(msg)
	if err != nil {
		return incomingMsg{}, fmt.Errorf("marshal command: %w", err)
	}
	applog.Debug("ws.send", "action", msg.Action, "id", msg.ID)
	if err := conn.Write(connCtx, websocket.MessageText, data); err != nil {
		return incomingMsg{}, fmt.Errorf("send %s: %w", msg.Action, err)
	}

	timer := time.NewTimer(commandTimeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		if resp.Error != "" {
			return incomingMsg{}, fmt.Errorf("%s: %s", msg.Action, resp.Error)
		}
		if resp.OK != nil && !*resp.OK {
			return incomingMsg{}, fmt.Errorf("%s: extension refused", msg.Action)
		}
		return resp, nil
	case <-timer.C:
		return incomingMsg{}, fmt.Errorf("%s: timed out after %s", msg.Action, commandTimeout)
	case <-ctx.Done():
		return incomingMsg{}, ctx.Err()
	}
}

// Handler returns an http.Handler that accepts WebSocket upgrades from the
// extension.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			applog.Error("ws.accept", err)
			return
		}

		conn.SetReadLimit(16 << 20) // tab lists with many tabs can be large

		ctx := r.Context()
		b.mu.Lock()
		if b.conn != nil {
			applog.Info("ws.replaced")
			b.conn.CloseNow()
		}
		b.conn = conn
		b.connCtx = ctx
		b.mu.Unlock()

		applog.Info("ws.connected", "remote", r.RemoteAddr)
		select {
		case b.events <- Connected{}:
		default:
		}

		defer func() {
			b.mu.Lock()
			if b.conn == conn {
				b.conn = nil
				b.connCtx = nil
			}
			b.mu.Unlock()
			conn.CloseNow()
			applog.Info("ws.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg incomingMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				applog.Error("ws.parse", err)
				continue
			}
			b.route(msg)
		}
	})
}

// route hands a message to the pending command waiter or converts a
// notification into an Event.
func (b *Bridge) route(msg incomingMsg) {
	if msg.ID != "" {
		b.mu.Lock()
		ch := b.pending[msg.ID]
		b.mu.Unlock()
		if ch != nil {
			ch <- msg
		}
		return
	}

	var event Event
	switch msg.Type {
	case notifyCreated:
		tab, err := parseTab(msg.Tab)
		if err != nil {
			applog.Error("ws.tab_created", err)
			return
		}
		event = Created{Tab: tab}
	case notifyRemoved:
		event = Removed{TabID: msg.TabID, WindowID: msg.WindowID}
	case notifyUpdated:
		tab, err := parseTab(msg.Tab)
		if err != nil {
			applog.Error("ws.tab_updated", err)
			return
		}
		event = Updated{TabID: msg.TabID, Tab: tab}
	case notifyActivated:
		event = Activated{TabID: msg.TabID, WindowID: msg.WindowID}
	case responseType:
		// Response without an id; nothing to correlate it with.
		return
	default:
		applog.Debug("ws.unknown", "type", msg.Type)
		return
	}

	select {
	case b.events <- event:
	default:
		applog.Info("ws.event_dropped", "type", msg.Type)
	}
}

// ListenAndServe starts the WebSocket server on 127.0.0.1 at the
// configured port and blocks until ctx is cancelled.
func (b *Bridge) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", b.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", b.port)
	applog.Info("bridge.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	return srv.ListenAndServe()
}
