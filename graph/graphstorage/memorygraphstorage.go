/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graphstorage

import (
	"sync"

	"devt.de/krotik/mesh/graph/data"
)

/*
MemoryGraphStorage data structure
*/
type MemoryGraphStorage struct {
	name  string        // Name of the graph storage
	graph data.Graph    // Stored graph data
	mutex *sync.RWMutex // Mutex to protect the graph
}

/*
NewMemoryGraphStorage creates a new MemoryGraphStorage instance.
*/
func NewMemoryGraphStorage(name string) Storage {
	return &MemoryGraphStorage{name, make(data.Graph), &sync.RWMutex{}}
}

/*
Name returns the name of the MemoryGraphStorage instance.
*/
func (mgs *MemoryGraphStorage) Name() string {
	return mgs.name
}

/*
Get assembles the node selected by a given lex from memory.
*/
func (mgs *MemoryGraphStorage) Get(lex *data.Lex, secure bool) (data.Graph, error) {
	mgs.mutex.RLock()
	defer mgs.mutex.RUnlock()

	stored, ok := mgs.graph[lex.Soul]
	if !ok {
		return nil, nil
	}

	_, isUserSoul := data.UserSoulPub(lex.Soul)

	var node data.Node

	for _, field := range stored.Fields() {

		if !lex.MatchField(field) {
			continue
		}

		sig, hasSig := stored.Signature(field)

		if secure && isUserSoul && !hasSig {
			continue
		}

		if node == nil {
			node = data.NewNode(lex.Soul)
		}

		node[field] = stored[field]
		if state, ok := stored.State(field); ok {
			node.SetState(field, state)
		}
		if hasSig {
			node.SetSignature(field, sig)
		}
	}

	if node == nil {
		return nil, nil
	}

	return data.Graph{lex.Soul: node.Copy()}, nil
}

/*
Put writes every field and its state of every node in a given graph to
memory.
*/
func (mgs *MemoryGraphStorage) Put(graph data.Graph) error {
	mgs.mutex.Lock()
	defer mgs.mutex.Unlock()

	for soul, node := range graph {

		stored, ok := mgs.graph[soul]
		if !ok {
			stored = data.NewNode(soul)
			mgs.graph[soul] = stored
		}

		for _, field := range node.Fields() {
			stored[field] = node[field]

			if state, ok := node.State(field); ok {
				stored.SetState(field, state)
			}
			if sig, ok := node.Signature(field); ok {
				stored.SetSignature(field, sig)
			}
		}
	}

	return nil
}

/*
FlushAll is a noop for memory storage.
*/
func (mgs *MemoryGraphStorage) FlushAll() error {
	return nil
}

/*
Close closes the graph storage.
*/
func (mgs *MemoryGraphStorage) Close() error {
	return nil
}
