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

import "devt.de/krotik/mesh/graph/data"

/*
Storage interface models the storage backend for a mesh instance.
*/
type Storage interface {

	/*
	   Name returns the name of the storage instance.
	*/
	Name() string

	/*
		Get assembles the node (or field subset) selected by a given lex from
		the storage and returns it in graph form. A nil graph is returned if
		the storage holds nothing for the requested soul. If secure is set
		then fields of user-owned souls without a stored signature are
		omitted.
	*/
	Get(lex *data.Lex, secure bool) (data.Graph, error)

	/*
		Put writes every field and its state of every node in a given graph
		to the storage. Writes may be batched by the storage.
	*/
	Put(graph data.Graph) error

	/*
	   FlushAll writes all pending changes to the storage.
	*/
	FlushAll() error

	/*
		Close closes the storage.
	*/
	Close() error
}
