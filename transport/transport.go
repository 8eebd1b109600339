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
Package transport contains the transport layer of mesh. A transport is an
abstract bidirectional framed byte-stream. Frames are UTF-8 strings - the
wire encodes messages as JSON.

Connection lifecycle is published on an event pump: every new connection is
announced with a Conn object carrying the connection id (the delivery
handle) and a send function. The protocol driver observes these events to
maintain its delivery handles and its routing table.
*/
package transport

import "errors"

/*
Transport lifecycle events
*/
const (
	EventConnected    = "transport.connected"
	EventDisconnected = "transport.disconnected"
)

/*
Transport related error types
*/
var (
	ErrNotConnected = errors.New("Transport is not connected")
	ErrClosed       = errors.New("Transport connection closed")
)

/*
MessageHandler is called for every received frame together with the id of
the connection which delivered it.
*/
type MessageHandler func(connID string, frame string)

/*
Conn is the delivery handle of a single transport connection. It is the
event source of connection lifecycle events.
*/
type Conn struct {
	ID   string                   // Connection id
	Send func(frame string) error // Send function of the connection
}

/*
Client is a transport which dials out to a single remote peer.
*/
type Client interface {

	/*
	   Connect connects to a given address.
	*/
	Connect(address string) error

	/*
	   Disconnect closes the connection.
	*/
	Disconnect() error

	/*
	   IsConnected checks if the transport is currently connected.
	*/
	IsConnected() bool

	/*
	   Send sends a frame to the remote peer.
	*/
	Send(frame string) error

	/*
	   SetMessageHandler sets the handler for received frames.
	*/
	SetMessageHandler(handler MessageHandler)
}

/*
Server is a transport which accepts connections from many remote peers.
*/
type Server interface {

	/*
	   Start starts accepting connections.
	*/
	Start() error

	/*
	   Stop stops the server and closes all connections.
	*/
	Stop() error

	/*
		Broadcast sends a frame to all connected clients except an optional
		excluded connection.
	*/
	Broadcast(frame string, exclude string)

	/*
	   SendTo sends a frame to a single connected client.
	*/
	SendTo(connID string, frame string) error

	/*
	   ConnectedClients returns the connection ids of all connected clients.
	*/
	ConnectedClients() []string

	/*
	   SetMessageHandler sets the handler for received frames.
	*/
	SetMessageHandler(handler MessageHandler)
}
