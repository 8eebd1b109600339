/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wire

import (
	"encoding/json"
	"fmt"

	"devt.de/krotik/common/cryptutil"
	"devt.de/krotik/mesh/graph/data"
)

/*
MaxFrameSize is the maximum accepted size of an inbound frame.
*/
const MaxFrameSize = 10 * 1024 * 1024

/*
Keys of a wire message
*/
const (
	MessageID      = "#"     // Fresh random id of the message
	MessageReplyTo = "@"     // Id of the message being answered
	MessageGet     = "get"   // Lex of a GET request
	MessagePut     = "put"   // Graph of a PUT request
	MessageErr     = "err"   // Error string of a reply
	MessageHello   = "hello" // Handshake payload
	HelloPub       = "pub"   // Stable peer id within a handshake payload
)

/*
Message is a single wire message. The wire encodes messages as JSON.
*/
type Message map[string]interface{}

/*
NewMessageID returns a fresh random message id.
*/
func NewMessageID() string {
	return fmt.Sprintf("%x", cryptutil.GenerateUUID())
}

/*
NewMessage creates a new message with a fresh id.
*/
func NewMessage() Message {
	return Message{MessageID: NewMessageID()}
}

/*
ID returns the id of this message.
*/
func (m Message) ID() string {
	id, _ := m[MessageID].(string)
	return id
}

/*
ReplyTo returns the id of the message this message answers.
*/
func (m Message) ReplyTo() string {
	id, _ := m[MessageReplyTo].(string)
	return id
}

/*
GetLex returns the lex specification of a GET message.
*/
func (m Message) GetLex() map[string]interface{} {
	lex, _ := m[MessageGet].(map[string]interface{})
	return lex
}

/*
PutGraph returns the graph of a PUT message.
*/
func (m Message) PutGraph() data.Graph {
	put, ok := m[MessagePut].(map[string]interface{})
	if !ok {
		return nil
	}

	graph := make(data.Graph)

	for soul, node := range put {
		if nodeMap, ok := node.(map[string]interface{}); ok {
			graph[soul] = data.Node(nodeMap)
		}
	}

	return graph
}

/*
SetPutGraph sets the graph of a PUT message.
*/
func (m Message) SetPutGraph(graph data.Graph) {
	put := make(map[string]interface{})

	for soul, node := range graph {
		put[soul] = map[string]interface{}(node)
	}

	m[MessagePut] = put
}

/*
HelloID returns the stable peer id of a handshake message.
*/
func (m Message) HelloID() string {
	if hello, ok := m[MessageHello].(map[string]interface{}); ok {
		if pub, ok := hello[HelloPub].(string); ok {
			return pub
		}
	}

	return ""
}

/*
Err returns the error string of a reply message.
*/
func (m Message) Err() string {
	errString, _ := m[MessageErr].(string)
	return errString
}

/*
Encode encodes this message into a frame.
*/
func (m Message) Encode() string {
	frame, err := json.Marshal(m)
	if err != nil {

		// Wire messages are built from JSON compatible values only

		return fmt.Sprintf(`{"%v":"%v","%v":"%v"}`, MessageID, m.ID(),
			MessageErr, "Could not encode message")
	}

	return string(frame)
}

/*
ParseMessage parses a frame into a message.
*/
func ParseMessage(frame string) (Message, error) {
	var m Message

	if err := json.Unmarshal([]byte(frame), &m); err != nil {
		return nil, err
	}

	return m, nil
}
