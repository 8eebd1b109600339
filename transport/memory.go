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
)

/*
MemoryTransport is an in-process transport used by unit tests. Two
MemoryTransport objects form a pair - a frame sent on one side is delivered
to the message handler of the other side.
*/
type MemoryTransport struct {
	connID    string              // Shared connection id of the pair
	peer      *MemoryTransport    // Other side of the pair
	pump      *flowutil.EventPump // Event pump for lifecycle events
	handler   MessageHandler      // Handler for received frames
	connected bool                // Flag if the pair is connected
	mutex     *sync.RWMutex       // Mutex shared by both sides
}

/*
NewMemoryPair creates a connected pair of memory transports.
*/
func NewMemoryPair() (*MemoryTransport, *MemoryTransport) {
	mutex := &sync.RWMutex{}
	connID := newConnID("mem")

	t1 := &MemoryTransport{connID: connID, mutex: mutex}
	t2 := &MemoryTransport{connID: connID, mutex: mutex}

	t1.peer = t2
	t2.peer = t1

	return t1, t2
}

/*
SetEventPump sets the event pump for lifecycle events of this side.
*/
func (mt *MemoryTransport) SetEventPump(pump *flowutil.EventPump) {
	mt.pump = pump
}

/*
SetMessageHandler sets the handler for received frames.
*/
func (mt *MemoryTransport) SetMessageHandler(handler MessageHandler) {
	mt.handler = handler
}

/*
Connect connects both sides of the pair. The address is ignored.
*/
func (mt *MemoryTransport) Connect(address string) error {
	mt.mutex.Lock()
	mt.connected = true
	mt.peer.connected = true
	mt.mutex.Unlock()

	mt.announce()
	mt.peer.announce()

	return nil
}

/*
announce posts the connection event of this side.
*/
func (mt *MemoryTransport) announce() {
	if mt.pump != nil {
		mt.pump.PostEvent(EventConnected, &Conn{mt.connID, mt.Send})
	}
}

/*
Disconnect closes both sides of the pair.
*/
func (mt *MemoryTransport) Disconnect() error {
	mt.mutex.Lock()

	if !mt.connected {
		mt.mutex.Unlock()
		return ErrNotConnected
	}

	mt.connected = false
	mt.peer.connected = false

	mt.mutex.Unlock()

	if mt.pump != nil {
		mt.pump.PostEvent(EventDisconnected, &Conn{ID: mt.connID})
	}
	if mt.peer.pump != nil {
		mt.peer.pump.PostEvent(EventDisconnected, &Conn{ID: mt.connID})
	}

	return nil
}

/*
IsConnected checks if the pair is currently connected.
*/
func (mt *MemoryTransport) IsConnected() bool {
	mt.mutex.RLock()
	defer mt.mutex.RUnlock()

	return mt.connected
}

/*
Send delivers a frame to the message handler of the other side.
*/
func (mt *MemoryTransport) Send(frame string) error {
	mt.mutex.RLock()

	if !mt.connected {
		mt.mutex.RUnlock()
		return ErrNotConnected
	}

	handler := mt.peer.handler

	mt.mutex.RUnlock()

	if handler != nil {

		// Frames are delivered asynchronously like on a real network

		go handler(mt.connID, frame)
	}

	return nil
}
