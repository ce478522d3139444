// Package server coordinates connection registration, room events, and
// broadcast fan-out for the chat relay via the Hub type.
package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stchat/relay/internal/protocol"
	"github.com/stchat/relay/internal/room"
)

// Hub is the room relay. Its Run loop is the single writer over the session
// registry and the room log: every register, unregister, and inbound frame is
// applied one at a time, so the shared state needs no locking.
type Hub struct {
	clients    map[*Client]bool
	frames     chan inbound
	register   chan *Client
	unregister chan *Client

	registry *room.Registry
	log      *room.Log

	// leaving queues clients whose departure notices still need to go out;
	// drained after each event so broadcasts never recurse.
	leaving []*Client

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a Hub with an empty registry and room log, ready to accept
// connections.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		frames:     make(chan inbound),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		registry:   room.NewRegistry(),
		log:        room.NewLog(),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

var hub = NewHub()

// Run starts the hub's event loop. It should be called in its own goroutine
// and runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}
			h.clients[client] = true
			openConnections.Inc()
			log.Printf("Client %s connected from %s. Open connections: %d", client.id, client.addr, len(h.clients))

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.drop(client)
			h.flushDepartures()

		case in := <-h.frames:
			h.handleFrame(in.client, in.raw)
			h.flushDepartures()
		}
	}
}

// handleFrame decodes one client frame and applies it to the room state.
// Malformed frames are logged and dropped; the connection stays open.
func (h *Hub) handleFrame(c *Client, raw []byte) {
	event, err := protocol.DecodeInbound(raw)
	if err != nil {
		malformedFrames.Inc()
		log.Printf("Dropping malformed frame from %s: %v", c.id, err)
		return
	}

	switch ev := event.(type) {
	case protocol.Join:
		framesRelayed.WithLabelValues("join").Inc()
		h.handleJoin(c, ev)
	case protocol.Typing:
		framesRelayed.WithLabelValues("typing").Inc()
		h.handleTyping(c, ev)
	case protocol.DeleteMessage:
		framesRelayed.WithLabelValues("delete_message").Inc()
		h.handleDelete(ev)
	case protocol.React:
		framesRelayed.WithLabelValues("react").Inc()
		h.handleReact(ev)
	case protocol.NewMessage:
		framesRelayed.WithLabelValues("message").Inc()
		h.handleNewMessage(ev)
	}
}

// handleJoin moves a connection from Connecting to Joined, or rejects it when
// the requested name is already live. A rejected connection stays Connecting;
// the client is expected to close it.
func (h *Hub) handleJoin(c *Client, ev protocol.Join) {
	// A frame can trail in after the hub dropped its connection; binding a
	// name for it would leak the name with nobody left to release it.
	if _, ok := h.clients[c]; !ok || c.departed {
		return
	}

	if h.registry.IsNameTaken(ev.User) {
		reply := fmt.Sprintf("Username '%s' is already in use. Please choose another.", ev.User)
		if frame, ok := buildFrame(protocol.ErrorFrame(protocol.CodeUsernameTaken, reply)); ok {
			h.sendTo(c, frame)
		}
		log.Printf("Rejected join from %s: username %q already taken", c.id, ev.User)
		return
	}

	// A joined connection may rebind under a new name; the old one is freed
	// immediately so it can be claimed again.
	if c.username != "" {
		h.registry.Release(c.username)
		joinedParticipants.Dec()
	}

	c.username = ev.User
	h.registry.Bind(ev.User)
	joinedParticipants.Inc()
	log.Printf("Client %s joined as %q. Participants: %d", c.id, ev.User, h.registry.Len())

	// History goes to the joiner alone; everyone else just hears about it.
	if frame, ok := buildFrame(protocol.HistoryFrame(h.log.Snapshot())); ok {
		h.sendTo(c, frame)
	}
	if frame, ok := buildFrame(protocol.SystemFrame(ev.User+" joined the chat", time.Now())); ok {
		h.broadcastExcept(c, frame)
	}
	h.broadcastUserList()
}

func (h *Hub) handleTyping(c *Client, ev protocol.Typing) {
	if frame, ok := buildFrame(protocol.TypingFrame(ev.User, ev.IsTyping)); ok {
		h.broadcastExcept(c, frame)
	}
}

func (h *Hub) handleNewMessage(ev protocol.NewMessage) {
	msg := h.log.Append(ev.User, ev.Text, ev.IV, ev.ReplyTo)
	if frame, ok := buildFrame(protocol.MessageFrame(msg)); ok {
		h.broadcast(frame)
	}
}

// handleDelete removes a message on an id+author match and rebroadcasts the
// full history. Anything else (wrong id, wrong author, already deleted) is a
// silent no-op.
func (h *Hub) handleDelete(ev protocol.DeleteMessage) {
	if !h.log.Delete(ev.ID, ev.User) {
		return
	}
	if frame, ok := buildFrame(protocol.HistoryUpdateFrame(h.log.Snapshot())); ok {
		h.broadcast(frame)
	}
}

// handleReact toggles the reaction and rebroadcasts the message's reaction
// map. An unknown message id is a silent no-op.
func (h *Hub) handleReact(ev protocol.React) {
	reactions, ok := h.log.React(ev.MsgID, ev.User, ev.Emoji)
	if !ok {
		return
	}
	if frame, ok := buildFrame(protocol.ReactionUpdateFrame(ev.MsgID, reactions)); ok {
		h.broadcast(frame)
	}
}

// drop removes a client from the hub and queues its departure notices. Safe to
// call more than once per client.
func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closed = true
		close(c.send)
		openConnections.Dec()
		log.Printf("Client %s disconnected. Open connections: %d", c.id, len(h.clients))
	}
	if !c.departed {
		c.departed = true
		h.leaving = append(h.leaving, c)
	}
}

// flushDepartures announces queued departures and resets the room once the
// last connection is gone. Departure broadcasts may drop further clients;
// those are picked up on the next iteration.
func (h *Hub) flushDepartures() {
	for len(h.leaving) > 0 {
		c := h.leaving[0]
		h.leaving = h.leaving[1:]

		if c.username != "" {
			h.registry.Release(c.username)
			joinedParticipants.Dec()
			purged := h.log.PurgeAuthor(c.username)
			log.Printf("Participant %q left; purged %d message(s)", c.username, purged)

			if frame, ok := buildFrame(protocol.SystemFrame(c.username+" left the chat", time.Now())); ok {
				h.broadcast(frame)
			}
			if frame, ok := buildFrame(protocol.HistoryUpdateFrame(h.log.Snapshot())); ok {
				h.broadcast(frame)
			}
			h.broadcastUserList()
		}

		if len(h.clients) == 0 && h.log.Len() > 0 {
			h.log.Reset()
			log.Printf("Room reset - all participants left")
		}
	}
}

// sendTo queues a frame for one client. A client that is gone or cannot keep
// up is dropped; delivery is best-effort and never retried.
func (h *Hub) sendTo(c *Client, frame []byte) {
	if _, ok := h.clients[c]; !ok || c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		droppedSends.Inc()
		log.Printf("Client %s send buffer full; dropping connection", c.id)
		h.drop(c)
	}
}

func (h *Hub) clientSnapshot() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) broadcast(frame []byte) {
	for _, client := range h.clientSnapshot() {
		h.sendTo(client, frame)
	}
}

func (h *Hub) broadcastExcept(skip *Client, frame []byte) {
	for _, client := range h.clientSnapshot() {
		if client == skip {
			continue
		}
		h.sendTo(client, frame)
	}
}

func (h *Hub) broadcastUserList() {
	if frame, ok := buildFrame(protocol.UserListFrame(h.registry.Names())); ok {
		h.broadcast(frame)
	}
}

// buildFrame logs and discards frames that fail to marshal so handlers can
// stay on the happy path.
func buildFrame(frame []byte, err error) ([]byte, bool) {
	if err != nil {
		log.Printf("Error building outbound frame: %v", err)
		return nil, false
	}
	return frame, true
}

// shutdownClients closes all active client connections.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	clients := h.clientSnapshot()
	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				log.Printf("Error closing client connection %s: %v", client.id, err)
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown stops the event loop and waits for client goroutines to finish, or
// until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
