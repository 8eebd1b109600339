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
	"devt.de/krotik/mesh/graph/data"
	"devt.de/krotik/mesh/graph/util"
)

/*
Query runs a lex query against the in-memory graph and returns the matching
subgraph. Nil is returned if the graph lacks the requested soul or field.
With fast set the subgraph is returned even if only partial data is present.
*/
func Query(lex *data.Lex, graph data.Graph, fast bool) (data.Graph, error) {

	if lex == nil || graph == nil {
		return nil, &util.GraphError{
			Type:   util.ErrInvalidData,
			Detail: "Query requires a lex and a graph",
		}
	}

	node, ok := graph[lex.Soul]
	if !ok {
		return nil, nil
	}

	res := data.NewNode(lex.Soul)
	matched := false

	for _, field := range node.Fields() {

		if !lex.MatchField(field) {
			continue
		}

		matched = true

		res[field] = node[field]
		if state, ok := node.State(field); ok {
			res.SetState(field, state)
		}
		if sig, ok := node.Signature(field); ok {
			res.SetSignature(field, sig)
		}
	}

	if !matched && !fast {
		return nil, nil
	}

	return data.Graph{lex.Soul: res.Copy()}, nil
}
