/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package wire contains the protocol driver of mesh. The driver routes GET,
PUT and ACK messages over transport connections with deduplication, rate
limiting and subscription-based filtering. Outbound messages are routed
through the finger table toward the peers closest to the target soul and
fall back to a broadcast if no closer peer is known.
*/
package wire

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"devt.de/krotik/common/flowutil"
	"devt.de/krotik/common/logutil"
	"devt.de/krotik/mesh/graph"
	"devt.de/krotik/mesh/graph/data"
	"devt.de/krotik/mesh/graph/graphstorage"
	"devt.de/krotik/mesh/transport"
	"devt.de/krotik/mesh/xor"
	"golang.org/x/time/rate"
)

/*
DefaultGetTimeout is the default timeout of a GET request.
*/
const DefaultGetTimeout = 100 * time.Millisecond

/*
DefaultMaxQueueLength is the default cap of the outbound message queue.
*/
const DefaultMaxQueueLength = 1000

/*
SendPacing is the cooperative backpressure delay between outbound sends.
*/
const SendPacing = 10 * time.Millisecond

/*
Wire related error types
*/
var (
	ErrInvalidMessage = errors.New("Invalid message")
	ErrNoPeers        = errors.New("No peers to send to")
	ErrUserMismatch   = errors.New("Soul is owned by a different user")
	ErrRemote         = errors.New("Remote error")
	ErrQueueFull      = errors.New("Outbound queue is full")
)

/*
Error is a wire related error.
*/
type Error struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
}

/*
Error returns a human-readable string representation of this error.
*/
func (we *Error) Error() string {
	if we.Detail != "" {
		return fmt.Sprintf("WireError: %v (%v)", we.Type, we.Detail)
	}

	return fmt.Sprintf("WireError: %v", we.Type)
}

/*
GetCallback receives the result of a GET request. The callback may be called
twice: once with local data and once with the network reply.
*/
type GetCallback func(res data.Graph, err error)

/*
Config holds the tunable options of a wire instance.
*/
type Config struct {
	Secure           bool                    // Require signatures for user souls, reject writes to plain souls
	Wait             time.Duration           // GET timeout and deferred-retry ceiling
	DedupMaxAge      time.Duration           // Retention of seen message ids
	MaxQueueLength   int                     // Cap of the outbound message queue
	Verifier         graph.SignatureVerifier // Signature verifier for user souls
	RateLimitCleanup bool                    // Enable the rate limiter cleanup sweep
}

/*
pendingGet is a GET request waiting for its network reply.
*/
type pendingGet struct {
	cb    GetCallback // Callback of the requester
	timer *time.Timer // Timeout timer
}

/*
outboundMessage is a single entry of the outbound message queue.
*/
type outboundMessage struct {
	frame   string // Encoded message
	target  string // Target soul for next-hop routing ("" = broadcast)
	exclude string // Connection which must not receive the message
	direct  string // Deliver only to this connection (replies)
	msgID   string // Message id for error correlation
}

/*
Wire is a single mesh protocol instance. All mutable state of the instance
(graph, queue, subscriptions, pending references, finger table) is owned by
the instance and protected by a single mutex - multiple instances in the
same process are independent and share nothing.
*/
type Wire struct {
	selfID    string                    // Stable id of this peer
	cfg       *Config                   // Instance options
	graph     data.Graph                // In-memory working set
	store     graphstorage.Storage      // Persistent storage
	listeners *graph.Listeners          // Per-soul subscriptions
	queue     map[string]*pendingGet    // Pending reply callbacks by message id
	pending   map[string]bool           // Souls eligible for storage (seen relation targets)
	deferred  data.Graph                // Future-dated fields waiting for their state
	deferAt   time.Time                 // Deadline of the deferral timer
	deferTm   *time.Timer               // Single earliest-deadline deferral timer
	dup       *Dup                      // Seen message ids
	rl        *RateLimiter              // Per-client rate limiter
	ft        *xor.FingerTable          // Routing table
	pump      *flowutil.EventPump       // Transport lifecycle events
	conns     map[string]func(string) error // Delivery handles by connection id
	outbound  chan *outboundMessage     // Outbound message queue
	pacer     *rate.Limiter             // Cooperative backpressure for sends
	done      chan bool                 // Shutdown signal for the send thread
	stats     map[string]int64          // Simple operation counters
	changeCb  graph.Listener            // Optional hook receiving every accepted change
	mutex     *sync.Mutex               // Mutex for all instance state
	log       logutil.Logger            // Logger of this instance
}

/*
NewWire creates a new wire instance for a given peer id.
*/
func NewWire(selfID string, store graphstorage.Storage,
	pump *flowutil.EventPump, cfg *Config) *Wire {

	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultGetTimeout
	}
	if cfg.MaxQueueLength <= 0 {
		cfg.MaxQueueLength = DefaultMaxQueueLength
	}

	return &Wire{
		selfID:    selfID,
		cfg:       cfg,
		graph:     make(data.Graph),
		store:     store,
		listeners: graph.NewListeners(),
		queue:     make(map[string]*pendingGet),
		pending:   make(map[string]bool),
		deferred:  make(data.Graph),
		dup:       NewDup(cfg.DedupMaxAge),
		rl:        NewRateLimiter(cfg.RateLimitCleanup),
		ft:        xor.NewFingerTable(selfID),
		pump:      pump,
		conns:     make(map[string]func(string) error),
		outbound:  make(chan *outboundMessage, cfg.MaxQueueLength),
		pacer:     rate.NewLimiter(rate.Every(SendPacing), 1),
		done:      make(chan bool, 1),
		stats:     make(map[string]int64),
		mutex:     &sync.Mutex{},
		log:       logutil.GetLogger("mesh.wire"),
	}
}

/*
SelfID returns the stable peer id of this instance.
*/
func (w *Wire) SelfID() string {
	return w.selfID
}

/*
FingerTable returns the routing table of this instance.
*/
func (w *Wire) FingerTable() *xor.FingerTable {
	return w.ft
}

/*
Start starts the send thread and subscribes to transport lifecycle events.
*/
func (w *Wire) Start() {

	if w.pump != nil {

		w.pump.AddObserver(transport.EventConnected, nil,
			func(event string, eventSource interface{}) {
				if conn, ok := eventSource.(*transport.Conn); ok {
					w.addConn(conn)
				}
			})

		w.pump.AddObserver(transport.EventDisconnected, nil,
			func(event string, eventSource interface{}) {
				if conn, ok := eventSource.(*transport.Conn); ok {
					w.removeConn(conn.ID)
				}
			})
	}

	go w.sendLoop()
}

/*
Shutdown stops the send thread and the rate limiter.
*/
func (w *Wire) Shutdown() {
	w.done <- true
	w.rl.Stop()

	w.mutex.Lock()
	if w.deferTm != nil {
		w.deferTm.Stop()
		w.deferTm = nil
	}
	w.mutex.Unlock()
}

// Public API
// ==========

/*
Get runs a lex query. The query is answered synchronously from the local
graph if possible. Otherwise the storage is consulted and in parallel a GET
message is routed to the network. Without a network reply within the wait
time the callback receives a null-valued subgraph. A zero wait selects the
configured default.
*/
func (w *Wire) Get(lexSpec map[string]interface{}, cb GetCallback,
	wait time.Duration) error {

	lex, err := data.NewLex(lexSpec)
	if err != nil {
		return err
	}

	if wait <= 0 {
		wait = w.cfg.Wait
	}

	w.mutex.Lock()

	// Data returned for this soul is accepted from now on

	w.pending[lex.Soul] = true

	res, err := graph.Query(lex, w.graph, false)

	w.mutex.Unlock()

	if err != nil {
		return err
	}

	if res != nil {
		w.incStat("get.local")
		cb(res, nil)
		return nil
	}

	// Ask the network

	msg := NewMessage()
	msg[MessageGet] = lex.Spec()

	msgID := msg.ID()

	w.mutex.Lock()

	w.queue[msgID] = &pendingGet{cb, time.AfterFunc(wait, func() {
		w.expireGet(msgID, lex)
	})}

	w.mutex.Unlock()

	w.dup.Track(msgID)
	w.enqueue(&outboundMessage{msg.Encode(), lex.Soul, "", "", msgID})

	// Ask the local storage in parallel - the callback may be called twice

	go func() {
		if stored, err := w.store.Get(lex, false); err == nil && stored != nil {
			w.incStat("get.store")

			w.applyLocal(stored)

			cb(stored, nil)
		}
	}()

	return nil
}

/*
Put merges a change into the local graph, persists it, fires listeners and
routes the accepted subgraph to the network. The optional callback is
invoked once the change was applied locally.
*/
func (w *Wire) Put(change data.Graph, cb func(err error)) error {

	if change == nil {
		return &Error{ErrInvalidMessage, "Put requires a change graph"}
	}

	// Anti-spoofing check: a pre-existing user soul cannot change its owner

	if err := w.checkOwner(change); err != nil {
		if cb != nil {
			cb(err)
		}
		return err
	}

	// Record outgoing relation targets so replies for them are accepted

	w.mutex.Lock()
	for _, node := range change {
		for _, field := range node.Fields() {
			if target, ok := data.RelationSoul(node[field]); ok {
				w.pending[target] = true
			}
		}
		w.pending[node.Soul()] = true
	}
	w.mutex.Unlock()

	res, err := w.applyMix(change)
	if err != nil {
		return err
	}

	if len(res.Now) == 0 && len(res.Defer) == 0 {
		if cb != nil {
			cb(nil)
		}
		return nil
	}

	if len(res.Now) > 0 {
		w.incStat("put.local")
		w.routePut(res.Now)
	}

	if cb != nil {
		cb(nil)
	}

	return nil
}

/*
On subscribes a callback to accepted changes of the soul of a given lex. If
fetch is set a GET is issued so the callback also fires with existing data.
The returned handle removes the subscription again.
*/
func (w *Wire) On(lexSpec map[string]interface{}, cb graph.Listener,
	fetch bool) (uint64, error) {

	lex, err := data.NewLex(lexSpec)
	if err != nil {
		return 0, err
	}

	id := w.listeners.Add(lex, cb)

	if fetch {
		err = w.Get(lexSpec, func(res data.Graph, err error) {
			if err != nil || res == nil {
				return
			}

			for soul, node := range res {
				for _, field := range node.Fields() {
					if node[field] == nil {
						continue
					}

					state, _ := node.State(field)
					cb(graph.ListenerEvent{Soul: soul, Field: field,
						Value: node[field], State: state})
				}
			}
		}, 0)
	}

	return id, err
}

/*
Off removes a single subscription by its handle.
*/
func (w *Wire) Off(id uint64) {
	w.listeners.Remove(id)
}

/*
OffSoul removes all subscriptions of a soul.
*/
func (w *Wire) OffSoul(soul string) {
	w.listeners.Clear(soul)
}

/*
SetChangeHandler sets a hook which receives every accepted change of this
instance regardless of subscriptions. Used by integrations such as the
scripting interpreter.
*/
func (w *Wire) SetChangeHandler(cb graph.Listener) {
	w.changeCb = cb
}

/*
Stats returns a copy of the operation counters of this instance.
*/
func (w *Wire) Stats() map[string]int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	ret := make(map[string]int64)
	for k, v := range w.stats {
		ret[k] = v
	}

	return ret
}

// Inbound message handling
// ========================

/*
Receive processes a single inbound frame from a transport connection.
*/
func (w *Wire) Receive(connID string, frame string) {

	if len(frame) > MaxFrameSize {
		w.incStat("drop.oversize")
		w.log.Debug("Dropping oversize frame from ", connID)
		return
	}

	// Rate limit per client - a breached client is delayed, a repeat
	// offender is cut off

	delay, disconnect := w.rl.Check(connID)

	if disconnect {
		w.incStat("drop.ratelimit")
		w.log.Warning("Disconnecting client after sustained rate limit breach: ", connID)
		w.removeConn(connID)
		return
	}

	if delay > 0 {
		w.incStat("throttle")
		time.Sleep(delay)
	}

	msg, err := ParseMessage(frame)
	if err != nil {
		w.incStat("drop.parse")
		w.log.Debug("Dropping unparsable frame from ", connID, ": ", err)
		return
	}

	msgID := msg.ID()

	if msgID == "" || w.dup.Check(msgID) {
		w.incStat("drop.dup")
		return
	}

	w.dup.Track(msgID)
	w.incStat("recv")

	if hello := msg.HelloID(); hello != "" {

		// The peer id from the handshake is used for routing - the
		// transport connection id remains the delivery handle

		if err := w.ft.AddPeer(xor.NewPeer(hello, connID)); err == nil {
			w.log.Debug("Peer joined: ", hello, " on ", connID)
		}
	}

	if msg.GetLex() != nil {
		w.handleGet(msg, connID)
	}

	if msg.PutGraph() != nil {
		w.handlePut(msg, connID, frame)
	}

	if replyTo := msg.ReplyTo(); replyTo != "" {
		w.deliverReply(replyTo, msg)
	}
}

/*
handleGet answers a GET message from the local graph or the storage.
*/
func (w *Wire) handleGet(msg Message, connID string) {

	reply := NewMessage()
	reply[MessageReplyTo] = msg.ID()

	lex, err := data.NewLex(msg.GetLex())
	if err != nil {
		reply[MessageErr] = err.Error()
		w.sendReply(reply, connID)
		return
	}

	w.mutex.Lock()
	res, _ := graph.Query(lex, w.graph, false)
	w.mutex.Unlock()

	if res == nil {
		var storeErr error

		if res, storeErr = w.store.Get(lex, true); storeErr != nil {
			reply[MessageErr] = storeErr.Error()
			w.sendReply(reply, connID)
			return
		}
	}

	if res == nil {

		// Not found is answered with a null-valued subgraph

		res = nullSubgraph(lex)
	}

	reply.SetPutGraph(res)

	w.incStat("get.serve")
	w.sendReply(reply, connID)
}

/*
handlePut merges a PUT message. Only souls which are subscribed - present in
the graph, awaited as a relation target or listened to - are persisted. The
message stays eligible for forwarding either way.
*/
func (w *Wire) handlePut(msg Message, connID string, frame string) {

	change := msg.PutGraph()

	w.mutex.Lock()

	// First pass: subscribed souls donate their relation targets so graph
	// walks converge

	for soul, node := range change {
		if w.subscribedLocked(soul) {
			for _, field := range node.Fields() {
				if target, ok := data.RelationSoul(node[field]); ok {
					w.pending[target] = true
				}
			}
		}
	}

	// Second pass: the subscription filter

	filtered := make(data.Graph)

	for soul, node := range change {
		if w.subscribedLocked(soul) {
			filtered[soul] = node
		}
	}

	w.mutex.Unlock()

	if len(filtered) > 0 {
		if _, err := w.applyMix(filtered); err != nil {
			w.log.Debug("Could not merge change from ", connID, ": ", err)
		} else {
			w.incStat("put.recv")
		}
	} else {
		w.incStat("put.filtered")
	}

	// Forward the message onward - dedup makes reprocessing free at peers
	// which have already seen it

	target := ""
	for soul := range change {
		target = soul
		break
	}

	w.enqueue(&outboundMessage{frame, target, connID, "", msg.ID()})
}

/*
deliverReply correlates a reply with its pending GET request.
*/
func (w *Wire) deliverReply(replyTo string, msg Message) {

	w.mutex.Lock()

	pending, ok := w.queue[replyTo]
	if ok {
		delete(w.queue, replyTo)
	}

	w.mutex.Unlock()

	if !ok {
		return
	}

	pending.timer.Stop()

	if errString := msg.Err(); errString != "" {
		pending.cb(nil, &Error{ErrRemote, errString})
		return
	}

	res := msg.PutGraph()

	w.applyLocal(res)

	w.incStat("get.reply")
	pending.cb(res, nil)
}

/*
expireGet times out a pending GET request with a null-valued subgraph.
*/
func (w *Wire) expireGet(msgID string, lex *data.Lex) {

	w.mutex.Lock()

	pending, ok := w.queue[msgID]
	if ok {
		delete(w.queue, msgID)
	}

	w.mutex.Unlock()

	if ok {
		w.incStat("get.timeout")
		pending.cb(nullSubgraph(lex), nil)
	}
}

// Merging and deferral
// ====================

/*
applyMix merges a change into the working graph, persists the accepted
subgraph, schedules deferred fields and fires listeners.
*/
func (w *Wire) applyMix(change data.Graph) (*graph.MixResult, error) {

	w.mutex.Lock()

	res, err := graph.Mix(change, w.graph, w.cfg.Secure, w.cfg.Verifier)
	if err != nil {
		w.mutex.Unlock()
		return nil, err
	}

	if len(res.Defer) > 0 {
		w.scheduleDeferLocked(res)
	}

	w.mutex.Unlock()

	if len(res.Now) > 0 {
		if err := w.store.Put(res.Now); err != nil {
			return nil, err
		}
	}

	// Listeners fire only after persistence

	w.listeners.Fire(res.Listeners)

	if w.changeCb != nil {
		for _, event := range res.Listeners {
			w.changeCb(event)
		}
	}

	return res, nil
}

/*
applyLocal merges a subgraph received on behalf of a local request. The
merge is silent about rejections - historical data is simply ignored.
*/
func (w *Wire) applyLocal(res data.Graph) {
	if res != nil {
		if _, err := w.applyMix(res); err != nil {
			w.log.Debug("Could not merge received data: ", err)
		}
	}
}

/*
scheduleDeferLocked stages deferred fields and maintains the single
earliest-deadline retry timer. It is assumed that the mutex is held.
*/
func (w *Wire) scheduleDeferLocked(res *graph.MixResult) {

	for soul, node := range res.Defer {

		target, ok := w.deferred[soul]
		if !ok {
			w.deferred[soul] = node
			continue
		}

		for _, field := range node.Fields() {
			target[field] = node[field]
			if state, ok := node.State(field); ok {
				target.SetState(field, state)
			}
		}
	}

	// The configured wait is the ceiling for a single retry delay; fields
	// which are still future-dated at the retry are deferred again

	wait := res.Wait
	if wait > w.cfg.Wait {
		wait = w.cfg.Wait
	}

	deadline := time.Now().Add(wait)

	if w.deferTm == nil || deadline.Before(w.deferAt) {

		if w.deferTm != nil {
			w.deferTm.Stop()
		}

		w.deferAt = deadline
		w.deferTm = time.AfterFunc(wait, w.retryDeferred)
	}
}

/*
retryDeferred re-runs the merge for all deferred fields. Fields which are
still future-dated are deferred again.
*/
func (w *Wire) retryDeferred() {

	w.mutex.Lock()

	change := w.deferred
	w.deferred = make(data.Graph)
	w.deferTm = nil

	w.mutex.Unlock()

	if len(change) == 0 {
		return
	}

	res, err := w.applyMix(change)
	if err != nil {
		w.log.Debug("Could not merge deferred change: ", err)
		return
	}

	if len(res.Now) > 0 {
		w.incStat("put.deferred")
		w.routePut(res.Now)
	}
}

// Outbound routing
// ================

/*
routePut routes an accepted subgraph to the network.
*/
func (w *Wire) routePut(now data.Graph) {

	msg := NewMessage()
	msg.SetPutGraph(now)

	target := ""
	for soul := range now {
		target = soul
		break
	}

	w.dup.Track(msg.ID())
	w.enqueue(&outboundMessage{msg.Encode(), target, "", "", msg.ID()})
}

/*
sendReply sends a reply message directly to the connection which asked.
*/
func (w *Wire) sendReply(reply Message, connID string) {
	w.dup.Track(reply.ID())
	w.enqueue(&outboundMessage{reply.Encode(), "", "", connID, reply.ID()})
}

/*
enqueue adds a message to the outbound queue. The queue is bounded - on
overflow the message is dropped and the pending callback notified.
*/
func (w *Wire) enqueue(out *outboundMessage) {

	select {
	case w.outbound <- out:

	default:
		w.incStat("drop.queue")
		w.log.Warning("Outbound queue is full - dropping message")
		w.failPending(out.msgID, &Error{ErrQueueFull, ""})
	}
}

/*
sendLoop drains the outbound queue with cooperative pacing. Delivery order
is FIFO - the pacing does not reorder.
*/
func (w *Wire) sendLoop() {
	for {
		select {
		case out := <-w.outbound:
			w.pacer.Wait(context.Background())
			w.routedSend(out)

		case <-w.done:
			return
		}
	}
}

/*
routedSend delivers a single outbound message. Next hops are the peers
closest to the target soul. Without closer peers the message is broadcast
to all connections. If no connection can be reached the pending callback of
the message receives an error.
*/
func (w *Wire) routedSend(out *outboundMessage) {

	w.mutex.Lock()

	sends := make(map[string]func(string) error)

	if out.direct != "" {

		if send, ok := w.conns[out.direct]; ok {
			sends[out.direct] = send
		}

	} else if out.target != "" {

		// Route toward the peers closest to the target soul

		for _, peer := range w.ft.FindClosestPeers(out.target, xor.DefaultClosestPeers) {
			if peer.ConnID == out.exclude {
				continue
			}
			if send, ok := w.conns[peer.ConnID]; ok {
				sends[peer.ConnID] = send
			}
		}
	}

	if len(sends) == 0 {

		// Fall back to a broadcast

		for connID, send := range w.conns {
			if connID != out.exclude {
				sends[connID] = send
			}
		}
	}

	w.mutex.Unlock()

	if len(sends) == 0 {
		w.incStat("drop.nopeers")
		w.failPending(out.msgID, &Error{ErrNoPeers, ""})
		return
	}

	for connID, send := range sends {
		if err := send(out.frame); err != nil {
			w.log.Debug("Could not send to ", connID, ": ", err)
		}
	}

	w.incStat("sent")
}

/*
failPending fails a pending GET request with a given error.
*/
func (w *Wire) failPending(msgID string, err *Error) {

	if msgID == "" {
		return
	}

	w.mutex.Lock()

	pending, ok := w.queue[msgID]
	if ok {
		delete(w.queue, msgID)
	}

	w.mutex.Unlock()

	if ok {
		pending.timer.Stop()
		pending.cb(nil, err)
	}
}

// Connection management
// =====================

/*
addConn registers a new transport connection and starts the handshake.
*/
func (w *Wire) addConn(conn *transport.Conn) {

	w.mutex.Lock()
	w.conns[conn.ID] = conn.Send
	w.mutex.Unlock()

	// Announce the own stable id - the remote side uses it for routing

	msg := NewMessage()
	msg[MessageHello] = map[string]interface{}{HelloPub: w.selfID}

	w.dup.Track(msg.ID())

	if err := conn.Send(msg.Encode()); err != nil {
		w.log.Debug("Could not send handshake on ", conn.ID, ": ", err)
	}
}

/*
removeConn drops a transport connection and its peer entry.
*/
func (w *Wire) removeConn(connID string) {

	w.mutex.Lock()
	delete(w.conns, connID)
	w.mutex.Unlock()

	for _, id := range w.ft.PeerIDs() {
		if peer := w.ft.GetPeer(id); peer != nil && peer.ConnID == connID {
			w.ft.RemovePeer(id)
		}
	}
}

// Helpers
// =======

/*
subscribedLocked checks if a soul is in the graph, awaited as a relation
target or listened to. It is assumed that the mutex is held.
*/
func (w *Wire) subscribedLocked(soul string) bool {
	if _, ok := w.graph[soul]; ok {
		return true
	}

	if w.pending[soul] {
		return true
	}

	return w.listeners.HasSoul(soul)
}

/*
checkOwner rejects a change which tries to change the owner of an existing
user soul.
*/
func (w *Wire) checkOwner(change data.Graph) error {

	for soul, node := range change {

		pub, ok := data.UserSoulPub(soul)
		if !ok {
			continue
		}

		incoming, ok := node["pub"].(string)
		if !ok {
			incoming = pub
		}

		var current interface{}

		w.mutex.Lock()
		if existing, ok := w.graph[soul]; ok {
			current = existing["pub"]
		}
		w.mutex.Unlock()

		if current == nil {
			lex, _ := data.NewLex(map[string]interface{}{
				data.SoulKey: soul, data.LexFieldKey: "pub"})

			if stored, err := w.store.Get(lex, false); err == nil && stored != nil {
				current = stored[soul]["pub"]
			}
		}

		if currentPub, ok := current.(string); ok && currentPub != incoming {
			return &Error{ErrUserMismatch, soul}
		}
	}

	return nil
}

/*
incStat increments an operation counter.
*/
func (w *Wire) incStat(name string) {
	w.mutex.Lock()
	w.stats[name]++
	w.mutex.Unlock()
}

/*
nullSubgraph builds the not-found answer for a lex: the requested soul with
a null value for the requested field.
*/
func nullSubgraph(lex *data.Lex) data.Graph {
	node := data.NewNode(lex.Soul)

	if lex.Kind == data.LexExact {
		node[lex.Field] = nil
	}

	return data.Graph{lex.Soul: node}
}
