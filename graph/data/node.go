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
Package data contains the data model of the mesh graph.

Nodes are items stored in the graph. A node is a mapping from field names to
scalar values or relations. Each node carries a metadata record under the
field "_" which holds the node's soul (its globally unique id), a per-field
state map (logical clocks) and an optional per-field signature map. The node
representation is a plain string map so nodes round-trip through the JSON
wire format without loss.
*/
package data

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

/*
MetaKey is the field which holds the metadata record of a node
*/
const MetaKey = "_"

/*
SoulKey is the metadata key which holds the soul of a node. It is also the
single key of a relation value.
*/
const SoulKey = "#"

/*
StateKey is the metadata key which holds the per-field state map of a node
*/
const StateKey = ">"

/*
SigKey is the metadata key which holds the per-field signature map of a node
*/
const SigKey = "s"

/*
Node is a mapping from field names to scalar values or relations plus the
metadata record.
*/
type Node map[string]interface{}

/*
Graph is a mapping from souls to nodes.
*/
type Graph map[string]Node

/*
NewNode creates a new empty node for a given soul.
*/
func NewNode(soul string) Node {
	return Node{
		MetaKey: map[string]interface{}{
			SoulKey:  soul,
			StateKey: map[string]interface{}{},
		},
	}
}

/*
Soul returns the soul of this node or an empty string if the node has no
valid metadata record.
*/
func (n Node) Soul() string {
	if meta := n.Meta(); meta != nil {
		if soul, ok := meta[SoulKey].(string); ok {
			return soul
		}
	}

	return ""
}

/*
Meta returns the metadata record of this node or nil if it is missing.
*/
func (n Node) Meta() map[string]interface{} {
	meta, _ := n[MetaKey].(map[string]interface{})
	return meta
}

/*
States returns the per-field state map of this node. The map is created on
demand if the node has a metadata record.
*/
func (n Node) States() map[string]interface{} {
	meta := n.Meta()

	if meta == nil {
		return nil
	}

	states, ok := meta[StateKey].(map[string]interface{})
	if !ok {
		states = make(map[string]interface{})
		meta[StateKey] = states
	}

	return states
}

/*
State returns the state of a given field.
*/
func (n Node) State(field string) (float64, bool) {
	if states := n.States(); states != nil {
		if state, ok := states[field].(float64); ok {
			return state, true
		}
	}

	return 0, false
}

/*
SetState sets the state of a given field.
*/
func (n Node) SetState(field string, state float64) {
	if states := n.States(); states != nil {
		states[field] = state
	}
}

/*
Signatures returns the per-field signature map of this node or nil if the
node carries no signatures.
*/
func (n Node) Signatures() map[string]interface{} {
	if meta := n.Meta(); meta != nil {
		sigs, _ := meta[SigKey].(map[string]interface{})
		return sigs
	}

	return nil
}

/*
Signature returns the signature of a given field.
*/
func (n Node) Signature(field string) (string, bool) {
	if sigs := n.Signatures(); sigs != nil {
		if sig, ok := sigs[field].(string); ok {
			return sig, true
		}
	}

	return "", false
}

/*
SetSignature sets the signature of a given field.
*/
func (n Node) SetSignature(field string, sig string) {
	meta := n.Meta()

	if meta == nil {
		return
	}

	sigs, ok := meta[SigKey].(map[string]interface{})
	if !ok {
		sigs = make(map[string]interface{})
		meta[SigKey] = sigs
	}

	sigs[field] = sig
}

/*
Fields returns all data fields of this node in ascending order. The metadata
record is not included.
*/
func (n Node) Fields() []string {
	var ret []string

	for field := range n {
		if field != MetaKey {
			ret = append(ret, field)
		}
	}

	sort.Strings(ret)

	return ret
}

/*
MaxState returns the highest state recorded in the state map of this node.
*/
func (n Node) MaxState() float64 {
	var max float64

	for _, state := range n.States() {
		if s, ok := state.(float64); ok && s > max {
			max = s
		}
	}

	return max
}

/*
Copy returns a copy of this node. Value objects (relations) are copied,
scalar values are shared.
*/
func (n Node) Copy() Node {
	ret := NewNode(n.Soul())

	states := ret.States()
	for field, state := range n.States() {
		states[field] = state
	}

	if sigs := n.Signatures(); sigs != nil {
		for field, sig := range sigs {
			if s, ok := sig.(string); ok {
				ret.SetSignature(field, s)
			}
		}
	}

	for _, field := range n.Fields() {
		if soul, ok := RelationSoul(n[field]); ok {
			ret[field] = NewRelation(soul)
		} else {
			ret[field] = n[field]
		}
	}

	return ret
}

/*
String returns a string representation of this node.
*/
func (n Node) String() string {
	buf := &bytes.Buffer{}

	buf.WriteString(fmt.Sprintf("Node %v", n.Soul()))

	for _, field := range n.Fields() {
		state, _ := n.State(field)
		buf.WriteString(fmt.Sprintf("\n  %v: %v (%v)", field, n[field], state))
	}

	return buf.String()
}

/*
NewRelation creates a new relation value pointing to a given soul.
*/
func NewRelation(soul string) map[string]interface{} {
	return map[string]interface{}{SoulKey: soul}
}

/*
RelationSoul checks if a given value is a relation and returns the soul it
points to.
*/
func RelationSoul(val interface{}) (string, bool) {
	if rel, ok := val.(map[string]interface{}); ok && len(rel) == 1 {
		if soul, ok := rel[SoulKey].(string); ok {
			return soul, true
		}
	}

	return "", false
}

/*
UserSoulPub checks if a given soul is a user-owned soul of the form ~<pub>
and returns the public key.
*/
func UserSoulPub(soul string) (string, bool) {
	if strings.HasPrefix(soul, "~") && !strings.HasPrefix(soul, "~@") && len(soul) > 1 {
		return soul[1:], true
	}

	return "", false
}

/*
AliasSoulName checks if a given soul is an alias soul of the form ~@<alias>
and returns the alias.
*/
func AliasSoulName(soul string) (string, bool) {
	if strings.HasPrefix(soul, "~@") && len(soul) > 2 {
		return soul[2:], true
	}

	return "", false
}
