package ws

import (
	"context"
	"errors"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"shakeout/server/internal/game"
	"shakeout/server/internal/net/intake"
	"shakeout/server/internal/net/proto"
	"shakeout/server/internal/telemetry"
	"shakeout/server/logging"
	loggingnetwork "shakeout/server/logging/network"
)

const (
	defaultWriteTimeout = 5 * time.Second

	metricClients          = "ws_clients_connected"
	metricMessagesRejected = "ws_messages_rejected_total"
	metricEventsSent       = "ws_events_broadcast_total"
)

// Engine is the game engine surface the lobby needs.
type Engine interface {
	intake.Controller
	Events() *game.Bus
	State() game.State
	RemovePlayer(playerID string) bool
}

type LobbyConfig struct {
	Logger    telemetry.Logger
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	// DefaultConfig is used for start requests that omit parts of the config.
	DefaultConfig game.ModeConfig
	// Modes is advertised to clients in the welcome message.
	Modes        []string
	AllowAdmin   bool
	WriteTimeout time.Duration
}

// Lobby bridges websocket clients and a single game engine. Every connected
// client joins the next game started by any client, receives every engine
// event, and drives its own player with motion messages.
type Lobby struct {
	engine      Engine
	cfg         LobbyConfig
	upgrader    websocket.Upgrader
	ctx         context.Context
	unsubscribe func()

	mu      sync.RWMutex
	clients map[string]*client
	order   []string
}

// NewLobby attaches a lobby to the engine's event bus.
func NewLobby(engine Engine, cfg LobbyConfig) *Lobby {
	if cfg.Logger == nil {
		cfg.Logger = telemetry.Discard()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	l := &Lobby{
		engine: engine,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
		ctx:     context.Background(),
		clients: make(map[string]*client),
	}
	l.unsubscribe = engine.Events().SubscribeAll(l.broadcastEvent)
	return l
}

// Close detaches from the engine and disconnects every client.
func (l *Lobby) Close() {
	if l.unsubscribe != nil {
		l.unsubscribe()
	}
	for _, c := range l.snapshot() {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
}

// Members lists connected clients in join order.
func (l *Lobby) Members() []proto.LobbyMember {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.membersLocked()
}

func (l *Lobby) membersLocked() []proto.LobbyMember {
	members := make([]proto.LobbyMember, 0, len(l.order))
	for _, id := range l.order {
		members = append(members, l.clients[id].member())
	}
	return members
}

func (l *Lobby) roster() []game.PlayerSpec {
	l.mu.RLock()
	defer l.mu.RUnlock()
	specs := make([]game.PlayerSpec, 0, len(l.order))
	for _, id := range l.order {
		specs = append(specs, l.clients[id].spec())
	}
	return specs
}

func (l *Lobby) snapshot() []*client {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*client, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.clients[id])
	}
	return out
}

// Handle upgrades /ws requests. Clients pass ?name=, optionally ?id= to keep
// a stable identity and ?codec=msgpack for binary frames.
func (l *Lobby) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	query := r.URL.Query()
	codec, err := proto.CodecByName(query.Get("codec"))
	if err != nil {
		nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
		return
	}
	id := query.Get("id")
	if id == "" {
		id = uuid.NewString()
	}
	name := query.Get("name")
	if name == "" {
		name = id
	}

	l.mu.RLock()
	_, taken := l.clients[id]
	l.mu.RUnlock()
	if taken {
		nethttp.Error(w, "duplicate id", nethttp.StatusConflict)
		return
	}

	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.cfg.Logger.Printf("upgrade failed for %s: %v", id, err)
		return
	}

	c := &client{id: id, name: name, conn: conn, codec: codec, writeTimeout: l.cfg.WriteTimeout}
	if !l.join(c) {
		c.close(websocket.ClosePolicyViolation, "duplicate id")
		return
	}
	loggingnetwork.ClientConnected(l.ctx, l.cfg.Publisher, logging.PlayerRef(id), loggingnetwork.ClientPayload{Name: name, Codec: codec.Name()}, nil)
	l.broadcast(proto.NewLobby(l.engine.State(), l.Members()))

	l.serve(c)
}

// join registers the client and sends its welcome before any broadcast can
// reach it.
func (l *Lobby) join(c *client) bool {
	welcome := proto.NewWelcome(c.id, c.name, c.codec, l.engine.State(), nil, l.cfg.Modes)

	l.mu.Lock()
	if _, taken := l.clients[c.id]; taken {
		l.mu.Unlock()
		return false
	}
	c.mu.Lock()
	l.clients[c.id] = c
	l.order = append(l.order, c.id)
	welcome.Lobby = l.membersLocked()
	count := len(l.order)
	l.mu.Unlock()

	data, err := c.codec.Marshal(welcome)
	if err == nil {
		err = c.writeLocked(data)
	}
	c.mu.Unlock()
	if err != nil {
		l.cfg.Logger.Printf("failed to send welcome to %s: %v", c.id, err)
	}
	if l.cfg.Metrics != nil {
		l.cfg.Metrics.Store(metricClients, uint64(count))
	}
	return true
}

func (l *Lobby) serve(c *client) {
	ctx := intake.CommandContext{
		Engine:        l.engine,
		Roster:        l.roster,
		DefaultConfig: l.cfg.DefaultConfig,
		AllowAdmin:    l.cfg.AllowAdmin,
	}
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			reason := "closed"
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reason = err.Error()
			}
			l.leave(c, reason)
			return
		}

		msg, err := proto.DecodeClientMessage(c.codec, payload)
		if err == nil {
			err = intake.Dispatch(ctx, c.id, msg)
		}
		if err != nil {
			l.reject(c, msg, err)
		}
	}
}

func (l *Lobby) reject(c *client, msg proto.ClientMessage, err error) {
	if l.cfg.Metrics != nil {
		l.cfg.Metrics.Add(metricMessagesRejected, 1)
	}
	loggingnetwork.MessageRejected(l.ctx, l.cfg.Publisher, logging.PlayerRef(c.id), loggingnetwork.MessageRejectedPayload{
		MessageType: msg.Type,
		Reason:      err.Error(),
	}, nil)
	if serr := c.send(proto.NewError(msg.Type, msg.Seq, err)); serr != nil {
		c.conn.Close()
	}
}

func (l *Lobby) leave(c *client, reason string) {
	l.mu.Lock()
	current, ok := l.clients[c.id]
	if !ok || current != c {
		l.mu.Unlock()
		return
	}
	delete(l.clients, c.id)
	for i, id := range l.order {
		if id == c.id {
			l.order = append(l.order[:i:i], l.order[i+1:]...)
			break
		}
	}
	count := len(l.order)
	l.mu.Unlock()

	c.conn.Close()
	if l.cfg.Metrics != nil {
		l.cfg.Metrics.Store(metricClients, uint64(count))
	}
	loggingnetwork.ClientDisconnected(l.ctx, l.cfg.Publisher, logging.PlayerRef(c.id), loggingnetwork.ClientPayload{Name: c.name, Reason: reason}, nil)

	l.engine.RemovePlayer(c.id)
	l.broadcast(proto.NewLobby(l.engine.State(), l.Members()))
}

func (l *Lobby) broadcastEvent(e game.Event) {
	l.broadcast(proto.NewEvent(e))
	if l.cfg.Metrics != nil {
		l.cfg.Metrics.Add(metricEventsSent, 1)
	}
}

// broadcast encodes once per codec and writes to every client. A client
// whose write fails is disconnected; its read loop performs the cleanup.
func (l *Lobby) broadcast(v any) {
	encoded := make(map[string][]byte, 2)
	for _, c := range l.snapshot() {
		data, ok := encoded[c.codec.Name()]
		if !ok {
			var err error
			data, err = c.codec.Marshal(v)
			if err != nil {
				l.cfg.Logger.Printf("failed to encode %T for %s: %v", v, c.codec.Name(), err)
				continue
			}
			encoded[c.codec.Name()] = data
		}
		c.mu.Lock()
		err := c.writeLocked(data)
		c.mu.Unlock()
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			l.cfg.Logger.Printf("write to %s failed: %v", c.id, err)
			c.conn.Close()
		}
	}
}
