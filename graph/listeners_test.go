/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"fmt"
	"testing"

	"devt.de/krotik/mesh/graph/data"
)

func TestListeners(t *testing.T) {

	ls := NewListeners()

	if ls.HasSoul("mark") {
		t.Error("Empty registry should have no souls")
		return
	}

	var fired []string

	record := func(tag string) Listener {
		return func(event ListenerEvent) {
			fired = append(fired, fmt.Sprintf("%v:%v.%v=%v", tag, event.Soul,
				event.Field, event.Value))
		}
	}

	allLex, _ := data.NewLex(map[string]interface{}{"#": "mark"})
	nameLex, _ := data.NewLex(map[string]interface{}{"#": "mark", ".": "name"})
	otherLex, _ := data.NewLex(map[string]interface{}{"#": "amber"})

	id1 := ls.Add(allLex, record("all"))
	id2 := ls.Add(nameLex, record("name"))
	ls.Add(otherLex, record("other"))

	if !ls.HasSoul("mark") || !ls.HasSoul("amber") || ls.HasSoul("eve") {
		t.Error("Unexpected soul registry state")
		return
	}

	if souls := ls.Souls(); len(souls) != 2 {
		t.Error("Unexpected souls:", souls)
		return
	}

	// Only matching subscriptions fire

	ls.Fire([]ListenerEvent{
		{"mark", "name", "Mark", 1},
		{"mark", "age", float64(23), 2},
		{"eve", "name", "Eve", 3},
	})

	if fmt.Sprint(fired) != "[all:mark.name=Mark name:mark.name=Mark all:mark.age=23]" {
		t.Error("Unexpected fired events:", fired)
		return
	}

	// A removed subscription no longer fires

	ls.Remove(id2)
	fired = nil

	ls.Fire([]ListenerEvent{{"mark", "name", "Bob", 4}})

	if fmt.Sprint(fired) != "[all:mark.name=Bob]" {
		t.Error("Unexpected fired events:", fired)
		return
	}

	ls.Remove(id1)

	if ls.HasSoul("mark") {
		t.Error("Soul without subscriptions should be dropped")
		return
	}

	// Clearing a soul removes all its subscriptions

	ls.Clear("amber")

	if ls.HasSoul("amber") {
		t.Error("Cleared soul should have no subscriptions")
		return
	}

	// A callback may modify the registry while firing

	var id4 uint64
	lex, _ := data.NewLex(map[string]interface{}{"#": "self"})

	id4 = ls.Add(lex, func(event ListenerEvent) {
		ls.Remove(id4)
	})

	ls.Fire([]ListenerEvent{{"self", "x", nil, 1}})

	if ls.HasSoul("self") {
		t.Error("Callback should have removed its own subscription")
		return
	}
}
