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
	"sync"

	"devt.de/krotik/mesh/graph/data"
)

/*
Listener is a callback which receives accepted field changes.
*/
type Listener func(event ListenerEvent)

/*
subscription is a single registered listener with its field filter.
*/
type subscription struct {
	id  uint64     // Handle for removal
	lex *data.Lex  // Field filter of the subscription
	cb  Listener   // Registered callback
}

/*
Listeners is a per-soul, per-field callback registry. Callbacks fire only
for fields which were actually accepted by a merge. The registry also
answers whether a soul has any subscription at all which makes the owning
peer willing to store inbound writes for that soul.
*/
type Listeners struct {
	subs   map[string][]*subscription // Subscriptions keyed by soul
	nextID uint64                     // Next subscription handle
	mutex  *sync.Mutex                // Mutex for subscription state
}

/*
NewListeners creates a new listener registry.
*/
func NewListeners() *Listeners {
	return &Listeners{make(map[string][]*subscription), 1, &sync.Mutex{}}
}

/*
Add registers a callback under the soul of a given lex and returns a handle
which can be used to remove it again.
*/
func (ls *Listeners) Add(lex *data.Lex, cb Listener) uint64 {
	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	id := ls.nextID
	ls.nextID++

	ls.subs[lex.Soul] = append(ls.subs[lex.Soul], &subscription{id, lex, cb})

	return id
}

/*
Remove removes a single subscription by its handle.
*/
func (ls *Listeners) Remove(id uint64) {
	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	for soul, subs := range ls.subs {
		for i, sub := range subs {
			if sub.id == id {
				ls.subs[soul] = append(subs[:i], subs[i+1:]...)

				if len(ls.subs[soul]) == 0 {
					delete(ls.subs, soul)
				}

				return
			}
		}
	}
}

/*
Clear removes all subscriptions of a given soul.
*/
func (ls *Listeners) Clear(soul string) {
	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	delete(ls.subs, soul)
}

/*
HasSoul checks if any subscription is registered for a given soul.
*/
func (ls *Listeners) HasSoul(soul string) bool {
	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	return len(ls.subs[soul]) > 0
}

/*
Souls returns all souls with at least one subscription.
*/
func (ls *Listeners) Souls() []string {
	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	var ret []string
	for soul := range ls.subs {
		ret = append(ret, soul)
	}

	return ret
}

/*
Fire delivers a list of accepted changes to all matching subscriptions. The
callbacks run outside of the registry lock so they may modify the registry.
*/
func (ls *Listeners) Fire(events []ListenerEvent) {

	for _, event := range events {

		ls.mutex.Lock()

		var cbs []Listener

		for _, sub := range ls.subs[event.Soul] {
			if sub.lex.MatchField(event.Field) {
				cbs = append(cbs, sub.cb)
			}
		}

		ls.mutex.Unlock()

		for _, cb := range cbs {
			cb(event)
		}
	}
}
