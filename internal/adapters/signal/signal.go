package signal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/rendezvous/internal/app"
	"github.com/dkeye/rendezvous/internal/config"
	"github.com/dkeye/rendezvous/internal/core"
)

// Subprotocol is the WebSocket sub-protocol negotiated on upgrade.
const Subprotocol = "signaling"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalWSController upgrades inbound connections and runs their
// read/write pumps. All dispatch policy lives in the router.
type SignalWSController struct {
	Router   *app.Router
	cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewSignalWSController(router *app.Router, cfg *config.Config) *SignalWSController {
	return &SignalWSController{
		Router: router,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{Subprotocol},
			CheckOrigin:  originChecker(cfg.AllowedOrigins),
		},
	}
}

// originChecker allows any origin when no prefixes are configured,
// otherwise requires the Origin header to match one of them.
func originChecker(prefixes []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(prefixes) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, p := range prefixes {
			if strings.HasPrefix(origin, p) {
				return true
			}
		}
		log.Warn().Str("module", "signal").Str("origin", origin).Msg("origin rejected")
		return false
	}
}

// wsSignalConn is the transport endpoint behind core.SignalConnection.
type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the request and starts the connection's pumps.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.cfg.SendBuffer),
	}
	sess := app.NewSession(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cancel, conn)
	go ctl.readPump(ctx, cancel, sess, conn)
}
