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
	"sort"
	"time"

	"devt.de/krotik/mesh/graph/data"
	"devt.de/krotik/mesh/graph/util"
)

/*
timeNowMs returns the current wall clock in milliseconds. It can be
overwritten by unit tests.
*/
var timeNowMs = func() float64 {
	return float64(time.Now().UnixNano() / int64(time.Millisecond))
}

/*
SignatureVerifier verifies a signature over the encoded value of a field
under a given public key.
*/
type SignatureVerifier func(pub string, encodedValue string, sig string) bool

/*
ListenerEvent describes a single accepted field change.
*/
type ListenerEvent struct {
	Soul  string      // Soul of the changed node
	Field string      // Changed field
	Value interface{} // Accepted value
	State float64     // State of the accepted value
}

/*
MixResult is the outcome of merging a change into a graph.
*/
type MixResult struct {
	Now       data.Graph      // Accepted subgraph (to be persisted)
	Defer     data.Graph      // Future-dated fields to be retried later
	Wait      time.Duration   // Delay until the first deferred field is due
	Listeners []ListenerEvent // Accepted changes to fire after persistence
}

/*
Merge applies the pairwise conflict resolution rule to a single field. It
returns true if the incoming value should be accepted. Incoming historical
states are rejected. On equal states deeply equal values are no change and
different values are resolved by the lexically larger string encoding.
*/
func Merge(incomingState float64, currentState float64,
	incomingVal interface{}, currentVal interface{}) (bool, error) {

	if incomingState > currentState {
		return true, nil
	}

	if incomingState < currentState {
		return false, nil
	}

	if data.ValueEquals(incomingVal, currentVal) {
		return false, nil
	}

	incomingEnc, err := data.EncodeValue(incomingVal)
	if err != nil {
		return false, err
	}

	currentEnc, err := data.EncodeValue(currentVal)
	if err != nil {
		return false, err
	}

	return incomingEnc > currentEnc, nil
}

/*
Mix merges a change into a graph. Accepted fields are applied to the graph
and returned for persistence, future-dated fields within the defer window
are returned for a later retry and listener events are collected for all
accepted changes. If secure is set then only user-owned and alias souls are
writable and every accepted field of a user-owned soul must carry a
verifiable signature. After the merge the graph is size-bounded by evicting the souls
with the smallest maximum state.
*/
func Mix(change data.Graph, graph data.Graph, secure bool,
	verifier SignatureVerifier) (*MixResult, error) {

	if change == nil || graph == nil {
		return nil, &util.GraphError{
			Type:   util.ErrInvalidData,
			Detail: "Mix requires a change and a graph",
		}
	}

	now := timeNowMs()

	res := &MixResult{Now: make(data.Graph), Defer: make(data.Graph)}

	// Souls are processed in a deterministic order so independent peers
	// produce identical results for identical changes

	var souls []string
	for soul := range change {
		souls = append(souls, soul)
	}
	sort.Strings(souls)

	for _, soul := range souls {
		node := change[soul]

		// Nodes without metadata are skipped

		if node.Meta() == nil || node.Soul() != soul {
			continue
		}

		pub, isUserSoul := data.UserSoulPub(soul)
		_, isAliasSoul := data.AliasSoulName(soul)

		if secure && !isUserSoul && !isAliasSoul {

			// In secure mode only user-owned and alias souls are writable

			continue
		}

		if isUserSoul {

			// Reject the whole soul if it tries to claim a foreign identity

			if nodePub, ok := node["pub"].(string); ok && nodePub != pub {
				continue
			}
		}

		for _, field := range node.Fields() {
			val := node[field]

			incomingState, hasState := node.State(field)
			if !hasState {
				continue
			}

			if isUserSoul {

				// Only fields with a verifiable signature advance to the merge

				if !verifyField(node, pub, field, val, secure, verifier) {
					continue
				}
			}

			if isAliasSoul {

				// Every field of an alias soul must reference itself

				if target, ok := data.RelationSoul(val); !ok || target != field {
					continue
				}
			}

			if incomingState > now+DeferWindow {

				// Too far in the future - dropped entirely

				continue
			}

			if incomingState > now {

				// Future-dated but within the window - deferred

				stageField(res.Defer, soul, node, field, val, incomingState)

				wait := time.Duration(incomingState-now) * time.Millisecond
				if res.Wait == 0 || wait < res.Wait {
					res.Wait = wait
				}

				continue
			}

			currentState := float64(0)
			var currentVal interface{}

			if currentNode, ok := graph[soul]; ok {
				currentState, _ = currentNode.State(field)
				currentVal = currentNode[field]
			}

			accept, err := Merge(incomingState, currentState, val, currentVal)
			if err != nil {
				return nil, &util.GraphError{Type: util.ErrEncoding, Detail: err.Error()}
			}

			if !accept {
				continue
			}

			stageField(res.Now, soul, node, field, val, incomingState)

			graphNode, ok := graph[soul]
			if !ok {
				graphNode = data.NewNode(soul)
				graph[soul] = graphNode
			}

			graphNode[field] = val
			graphNode.SetState(field, incomingState)
			if sig, ok := node.Signature(field); ok {
				graphNode.SetSignature(field, sig)
			}

			res.Listeners = append(res.Listeners, ListenerEvent{soul, field, val, incomingState})
		}
	}

	boundGraph(graph)

	return res, nil
}

/*
verifyField checks the signature requirement for a single field of a
user-owned soul.
*/
func verifyField(node data.Node, pub string, field string, val interface{},
	secure bool, verifier SignatureVerifier) bool {

	sig, hasSig := node.Signature(field)

	if !hasSig {
		return false
	}

	if verifier == nil {

		// Without a wired verifier a present signature cannot be checked -
		// it is accepted as-is in insecure mode and rejected in secure mode

		return !secure
	}

	enc, err := data.EncodeValue(val)
	if err != nil {
		return false
	}

	return verifier(pub, enc, sig)
}

/*
stageField stages a single field of a node into a result graph.
*/
func stageField(target data.Graph, soul string, node data.Node, field string,
	val interface{}, state float64) {

	targetNode, ok := target[soul]
	if !ok {
		targetNode = data.NewNode(soul)
		target[soul] = targetNode
	}

	targetNode[field] = val
	targetNode.SetState(field, state)

	if sig, ok := node.Signature(field); ok {
		targetNode.SetSignature(field, sig)
	}
}

/*
boundGraph evicts the souls with the smallest maximum state until the graph
is within the size bound. Evicted souls are only removed from memory, not
from the storage.
*/
func boundGraph(graph data.Graph) {

	if len(graph) <= MaxGraphSize {
		return
	}

	type soulState struct {
		soul  string
		state float64
	}

	states := make([]soulState, 0, len(graph))

	for soul, node := range graph {
		states = append(states, soulState{soul, node.MaxState()})
	}

	sort.Slice(states, func(i, j int) bool {
		if states[i].state == states[j].state {
			return states[i].soul < states[j].soul
		}
		return states[i].state < states[j].state
	})

	for _, s := range states {
		if len(graph) <= MaxGraphSize {
			break
		}

		delete(graph, s.soul)
	}
}
