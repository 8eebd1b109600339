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
Package graphstorage contains storage objects for mesh graph data.

There are two main storage objects: DiskGraphStorage which provides disk
storage backed by packed radix files and MemoryGraphStorage which provides
memory-only storage.

Each field of a node is stored under the key <soul> ENQ <field>. The field's
state is stored alongside the value. Signatures of user-owned souls are
stored under <soul> ENQ <field> ENQ "s".
*/
package graphstorage

import (
	"strings"
	"time"

	"devt.de/krotik/common/lockutil"
	"devt.de/krotik/mesh/graph/data"
	"devt.de/krotik/mesh/graph/util"
	"devt.de/krotik/mesh/radisk"
)

/*
LockfileSuffix is the suffix of the lockfile which guards a store directory.
The lockfile is a sibling of the directory since the directory itself may
only contain packed store files.
*/
var LockfileSuffix = ".lck"

/*
keySep is the separator between the soul, field and suffix parts of a
storage key.
*/
const keySep = string(rune(radisk.KeySeparator))

/*
sigSuffix is the key suffix under which field signatures are stored.
*/
const sigSuffix = keySep + "s"

/*
DiskGraphStorage data structure
*/
type DiskGraphStorage struct {
	name     string           // Name of the graph storage
	rd       *radisk.Radisk   // Underlying radisk store
	lockfile *lockutil.LockFile // Lockfile which guards the store directory
}

/*
NewDiskGraphStorage creates a new DiskGraphStorage instance. Zero values for
size, batch and writeInterval select the radisk defaults.
*/
func NewDiskGraphStorage(name string, size int, batch int,
	writeInterval time.Duration, cache bool) (Storage, error) {

	rd, err := radisk.New(name, size, batch, writeInterval, cache)
	if err != nil {
		return nil, &util.GraphError{Type: util.ErrOpening, Detail: err.Error()}
	}

	lockfile := lockutil.NewLockFile(name+LockfileSuffix,
		time.Duration(2)*time.Second)

	if err := lockfile.Start(); err != nil {
		return nil, &util.GraphError{Type: util.ErrOpening, Detail: err.Error()}
	}

	return &DiskGraphStorage{name, rd, lockfile}, nil
}

/*
Name returns the name of the DiskGraphStorage instance.
*/
func (dgs *DiskGraphStorage) Name() string {
	return dgs.name
}

/*
Get assembles the node selected by a given lex from the radisk store.
*/
func (dgs *DiskGraphStorage) Get(lex *data.Lex, secure bool) (data.Graph, error) {
	var node data.Node

	_, isUserSoul := data.UserSoulPub(lex.Soul)

	sigs := make(map[string]string)

	prefix := lex.Soul + keySep

	err := dgs.rd.Prefix(prefix,
		func(key string, val interface{}, state float64) bool {

			rest := key[len(prefix):]

			if strings.HasSuffix(rest, sigSuffix) {

				// Signature records accompany their field record

				if sig, ok := val.(string); ok {
					sigs[rest[:len(rest)-len(sigSuffix)]] = sig
				}

				return true
			}

			if strings.Contains(rest, keySep) || !lex.MatchField(rest) {
				return true
			}

			if node == nil {
				node = data.NewNode(lex.Soul)
			}

			node[rest] = val
			node.SetState(rest, state)

			return true
		})

	if err != nil {
		return nil, &util.GraphError{Type: util.ErrReading, Detail: err.Error()}
	}

	if node == nil {
		return nil, nil
	}

	for field, sig := range sigs {
		if _, ok := node[field]; ok {
			node.SetSignature(field, sig)
		}
	}

	if secure && isUserSoul {

		// Do not serve unverifiable user-owned fields

		for _, field := range node.Fields() {
			if _, ok := node.Signature(field); !ok {
				delete(node, field)
				delete(node.States(), field)
			}
		}

		if len(node.Fields()) == 0 {
			return nil, nil
		}
	}

	return data.Graph{lex.Soul: node}, nil
}

/*
Put writes every field and its state of every node in a given graph to the
radisk store.
*/
func (dgs *DiskGraphStorage) Put(graph data.Graph) error {

	for soul, node := range graph {

		for _, field := range node.Fields() {
			state, _ := node.State(field)

			if err := dgs.rd.Write(soul+keySep+field, node[field], state); err != nil {
				return &util.GraphError{Type: util.ErrWriting, Detail: err.Error()}
			}

			if sig, ok := node.Signature(field); ok {
				if err := dgs.rd.Write(soul+keySep+field+sigSuffix, sig, state); err != nil {
					return &util.GraphError{Type: util.ErrWriting, Detail: err.Error()}
				}
			}
		}
	}

	return nil
}

/*
FlushAll writes all pending changes to disk.
*/
func (dgs *DiskGraphStorage) FlushAll() error {
	if err := dgs.rd.Flush(); err != nil {
		return &util.GraphError{Type: util.ErrFlushing, Detail: err.Error()}
	}

	return nil
}

/*
Close closes the graph storage.
*/
func (dgs *DiskGraphStorage) Close() error {

	if dgs.lockfile != nil {
		dgs.lockfile.Finish()
		dgs.lockfile = nil
	}

	if err := dgs.rd.Close(); err != nil {
		return &util.GraphError{Type: util.ErrClosing, Detail: err.Error()}
	}

	return nil
}
