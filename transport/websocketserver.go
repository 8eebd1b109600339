/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package transport

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"devt.de/krotik/common/cryptutil"
	"devt.de/krotik/common/flowutil"
	"devt.de/krotik/common/logutil"
	"github.com/gorilla/websocket"
)

/*
wsLog is the logger of the websocket transports.
*/
var wsLog = logutil.GetLogger("mesh.transport")

/*
WSEndpoint is the http endpoint under which websocket connections are
accepted.
*/
const WSEndpoint = "/mesh"

/*
WSServer is a websocket server transport.
*/
type WSServer struct {
	addr     string                       // Address to listen on
	pump     *flowutil.EventPump          // Event pump for lifecycle events
	handler  MessageHandler               // Handler for received frames
	upgrader websocket.Upgrader           // Upgrader for http connections
	conns    map[string]*wsConn           // Connected clients
	listener net.Listener                 // Listener of the running server
	server   *http.Server                 // Running http server
	mutex    *sync.RWMutex                // Mutex to protect connection state
}

/*
wsConn is a single websocket connection.

Websocket connections support one concurrent reader and one concurrent
writer. See: https://godoc.org/github.com/gorilla/websocket#hdr-Concurrency
*/
type wsConn struct {
	connID string          // Connection id
	conn   *websocket.Conn // Underlying websocket connection
	wMutex *sync.Mutex     // Mutex for writing
}

/*
newConnID returns a fresh connection id.
*/
func newConnID(prefix string) string {
	return fmt.Sprintf("%v-%x", prefix, cryptutil.GenerateUUID())
}

/*
send writes a frame to the websocket connection.
*/
func (wc *wsConn) send(frame string) error {
	wc.wMutex.Lock()
	defer wc.wMutex.Unlock()

	return wc.conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

/*
close closes the websocket connection.
*/
func (wc *wsConn) close(msg string) {
	wc.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(
			websocket.CloseNormalClosure, msg), time.Now().Add(10*time.Second))

	wc.conn.Close()
}

/*
NewWSServer creates a new websocket server transport listening on a given
address.
*/
func NewWSServer(addr string, pump *flowutil.EventPump) *WSServer {
	return &WSServer{
		addr:     addr,
		pump:     pump,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		conns:    make(map[string]*wsConn),
		mutex:    &sync.RWMutex{},
	}
}

/*
SetMessageHandler sets the handler for received frames.
*/
func (ws *WSServer) SetMessageHandler(handler MessageHandler) {
	ws.handler = handler
}

/*
Start starts accepting connections.
*/
func (ws *WSServer) Start() error {

	listener, err := net.Listen("tcp", ws.addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WSEndpoint, ws.handleUpgrade)

	ws.listener = listener
	ws.server = &http.Server{Handler: mux}

	go func() {
		ws.server.Serve(listener)
	}()

	wsLog.Info("Websocket server listening on ", ws.addr)

	return nil
}

/*
Stop stops the server and closes all connections.
*/
func (ws *WSServer) Stop() error {

	ws.mutex.Lock()

	for _, conn := range ws.conns {
		conn.close("Server shutdown")
	}
	ws.conns = make(map[string]*wsConn)

	ws.mutex.Unlock()

	if ws.server != nil {
		return ws.server.Close()
	}

	return nil
}

/*
Addr returns the address the running server is listening on.
*/
func (ws *WSServer) Addr() string {
	if ws.listener != nil {
		return ws.listener.Addr().String()
	}

	return ws.addr
}

/*
Broadcast sends a frame to all connected clients except an optional excluded
connection.
*/
func (ws *WSServer) Broadcast(frame string, exclude string) {
	ws.mutex.RLock()

	var conns []*wsConn
	for connID, conn := range ws.conns {
		if connID != exclude {
			conns = append(conns, conn)
		}
	}

	ws.mutex.RUnlock()

	for _, conn := range conns {
		conn.send(frame)
	}
}

/*
SendTo sends a frame to a single connected client.
*/
func (ws *WSServer) SendTo(connID string, frame string) error {
	ws.mutex.RLock()
	conn, ok := ws.conns[connID]
	ws.mutex.RUnlock()

	if !ok {
		return ErrNotConnected
	}

	return conn.send(frame)
}

/*
ConnectedClients returns the connection ids of all connected clients.
*/
func (ws *WSServer) ConnectedClients() []string {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	var ret []string
	for connID := range ws.conns {
		ret = append(ret, connID)
	}

	return ret
}

/*
handleUpgrade upgrades an http connection and runs its read loop.
*/
func (ws *WSServer) handleUpgrade(w http.ResponseWriter, r *http.Request) {

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wsLog.Warning("Could not upgrade connection: ", err)
		return
	}

	wc := &wsConn{newConnID("ws"), conn, &sync.Mutex{}}

	ws.mutex.Lock()
	ws.conns[wc.connID] = wc
	ws.mutex.Unlock()

	if ws.pump != nil {
		ws.pump.PostEvent(EventConnected, &Conn{wc.connID, wc.send})
	}

	go ws.readLoop(wc)
}

/*
readLoop reads frames from a connection until it fails or closes.
*/
func (ws *WSServer) readLoop(wc *wsConn) {

	for {
		_, msg, err := wc.conn.ReadMessage()

		if err != nil {
			break
		}

		if ws.handler != nil {
			ws.handler(wc.connID, string(msg))
		}
	}

	ws.mutex.Lock()
	delete(ws.conns, wc.connID)
	ws.mutex.Unlock()

	wc.conn.Close()

	if ws.pump != nil {
		ws.pump.PostEvent(EventDisconnected, &Conn{ID: wc.connID})
	}
}
