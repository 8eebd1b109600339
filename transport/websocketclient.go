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
	"sync"

	"devt.de/krotik/common/flowutil"
	"github.com/gorilla/websocket"
)

/*
WSClient is a websocket client transport connecting to a single upstream
peer.
*/
type WSClient struct {
	pump    *flowutil.EventPump // Event pump for lifecycle events
	handler MessageHandler      // Handler for received frames
	conn    *wsConn             // Active connection (nil if disconnected)
	mutex   *sync.RWMutex       // Mutex to protect connection state
}

/*
NewWSClient creates a new websocket client transport.
*/
func NewWSClient(pump *flowutil.EventPump) *WSClient {
	return &WSClient{pump: pump, mutex: &sync.RWMutex{}}
}

/*
SetMessageHandler sets the handler for received frames.
*/
func (wc *WSClient) SetMessageHandler(handler MessageHandler) {
	wc.handler = handler
}

/*
Connect connects to a given address (e.g. ws://localhost:8765/mesh).
*/
func (wc *WSClient) Connect(address string) error {

	conn, _, err := websocket.DefaultDialer.Dial(address, nil)
	if err != nil {
		return err
	}

	c := &wsConn{newConnID("peer"), conn, &sync.Mutex{}}

	wc.mutex.Lock()
	wc.conn = c
	wc.mutex.Unlock()

	if wc.pump != nil {
		wc.pump.PostEvent(EventConnected, &Conn{c.connID, c.send})
	}

	go wc.readLoop(c)

	return nil
}

/*
Disconnect closes the connection.
*/
func (wc *WSClient) Disconnect() error {
	wc.mutex.Lock()
	c := wc.conn
	wc.conn = nil
	wc.mutex.Unlock()

	if c == nil {
		return ErrNotConnected
	}

	c.close("")

	return nil
}

/*
IsConnected checks if the transport is currently connected.
*/
func (wc *WSClient) IsConnected() bool {
	wc.mutex.RLock()
	defer wc.mutex.RUnlock()

	return wc.conn != nil
}

/*
Send sends a frame to the remote peer.
*/
func (wc *WSClient) Send(frame string) error {
	wc.mutex.RLock()
	c := wc.conn
	wc.mutex.RUnlock()

	if c == nil {
		return ErrNotConnected
	}

	return c.send(frame)
}

/*
readLoop reads frames from the connection until it fails or closes.
*/
func (wc *WSClient) readLoop(c *wsConn) {

	for {
		_, msg, err := c.conn.ReadMessage()

		if err != nil {
			break
		}

		if wc.handler != nil {
			wc.handler(c.connID, string(msg))
		}
	}

	c.conn.Close()

	wc.mutex.Lock()
	if wc.conn == c {
		wc.conn = nil
	}
	wc.mutex.Unlock()

	if wc.pump != nil {
		wc.pump.PostEvent(EventDisconnected, &Conn{ID: c.connID})
	}
}
