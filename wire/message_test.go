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
	"testing"

	"devt.de/krotik/mesh/graph/data"
)

func TestMessageBasics(t *testing.T) {

	m := NewMessage()

	if m.ID() == "" || len(m.ID()) != 32 {
		t.Error("Unexpected message id:", m.ID())
		return
	}

	if NewMessage().ID() == m.ID() {
		t.Error("Message ids must be fresh")
		return
	}

	m[MessageReplyTo] = "other"
	m[MessageGet] = map[string]interface{}{"#": "mark", ".": "name"}

	if m.ReplyTo() != "other" {
		t.Error("Unexpected reply to:", m.ReplyTo())
		return
	}

	if lex := m.GetLex(); lex["#"] != "mark" {
		t.Error("Unexpected lex:", lex)
		return
	}

	// A message without the optional parts yields zero values

	if NewMessage().ReplyTo() != "" || NewMessage().GetLex() != nil ||
		NewMessage().PutGraph() != nil || NewMessage().HelloID() != "" ||
		NewMessage().Err() != "" {
		t.Error("Unexpected zero values")
		return
	}
}

func TestMessageRoundTrip(t *testing.T) {

	node := data.NewNode("mark")
	node["name"] = "Mark"
	node.SetState("name", 1)
	node["friend"] = data.NewRelation("amber")
	node.SetState("friend", 2)

	m := NewMessage()
	m.SetPutGraph(data.Graph{"mark": node})
	m[MessageHello] = map[string]interface{}{HelloPub: "peer1"}

	parsed, err := ParseMessage(m.Encode())
	if err != nil {
		t.Error(err)
		return
	}

	if parsed.ID() != m.ID() {
		t.Error("Unexpected id:", parsed.ID())
		return
	}

	if parsed.HelloID() != "peer1" {
		t.Error("Unexpected hello id:", parsed.HelloID())
		return
	}

	graph := parsed.PutGraph()

	if graph == nil || graph["mark"].Soul() != "mark" {
		t.Error("Unexpected graph:", graph)
		return
	}

	if graph["mark"]["name"] != "Mark" {
		t.Error("Unexpected value:", graph["mark"]["name"])
		return
	}

	if state, ok := graph["mark"].State("friend"); !ok || state != 2 {
		t.Error("Unexpected state:", state, ok)
		return
	}

	if soul, ok := data.RelationSoul(graph["mark"]["friend"]); !ok || soul != "amber" {
		t.Error("Unexpected relation:", soul, ok)
		return
	}

	// Malformed frames are an error

	if _, err := ParseMessage("{not json"); err == nil {
		t.Error("Malformed frame should be an error")
		return
	}
}
