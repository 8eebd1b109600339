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
Package dbfunc contains mesh related ECAL stdlib functions.
*/
package dbfunc

import (
	"fmt"
	"time"

	"devt.de/krotik/ecal/parser"
	"devt.de/krotik/ecal/scope"
	"devt.de/krotik/mesh/graph"
	"devt.de/krotik/mesh/graph/data"
	"devt.de/krotik/mesh/wire"
)

/*
PutFunc writes fields of a node into the mesh graph.
*/
type PutFunc struct {
	W *wire.Wire
}

/*
Run executes the ECAL function.
*/
func (f *PutFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{},
	tid uint64, args []interface{}) (interface{}, error) {
	var err error

	if arglen := len(args); arglen != 2 && arglen != 3 {
		err = fmt.Errorf("Function requires 2 or 3 parameters: soul, fields" +
			" map and optionally a state")
	}

	if err == nil {
		soul := fmt.Sprint(args[0])
		fieldMap, ok := args[1].(map[interface{}]interface{})

		// Check parameters

		if !ok {
			err = fmt.Errorf("Second parameter must be a map")
		}

		state := float64(time.Now().UnixNano() / int64(time.Millisecond))

		if err == nil && len(args) > 2 {
			if state, ok = args[2].(float64); !ok {
				err = fmt.Errorf("Third parameter must be a number")
			}
		}

		// Write the node

		if err == nil {
			node := data.NewNode(soul)

			for field, val := range fieldMap {
				name := fmt.Sprint(field)

				node[name] = scope.ConvertECALToJSONObject(val)
				node.SetState(name, state)
			}

			err = f.W.Put(data.Graph{soul: node}, nil)
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *PutFunc) DocString() (string, error) {
	return "Writes fields of a node into the mesh graph.", nil
}

/*
GetFunc reads a node (or a single field) from the mesh graph.
*/
type GetFunc struct {
	W *wire.Wire
}

/*
Run executes the ECAL function.
*/
func (f *GetFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{},
	tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}
	var err error

	if arglen := len(args); arglen != 1 && arglen != 2 {
		err = fmt.Errorf("Function requires 1 or 2 parameters: soul and" +
			" optionally a field")
	}

	if err == nil {
		lexSpec := map[string]interface{}{data.SoulKey: fmt.Sprint(args[0])}

		if len(args) > 1 {
			lexSpec[data.LexFieldKey] = fmt.Sprint(args[1])
		}

		resChan := make(chan data.Graph, 2)

		err = f.W.Get(lexSpec, func(r data.Graph, cbErr error) {
			if cbErr == nil {
				resChan <- r
			} else {
				resChan <- nil
			}
		}, 0)

		if err == nil {
			select {
			case r := <-resChan:
				if r != nil {
					ret := make(map[string]interface{})

					for soul, node := range r {
						ret[soul] = map[string]interface{}(node)
					}

					res = scope.ConvertJSONToECALObject(ret)
				}

			case <-time.After(5 * time.Second):
				err = fmt.Errorf("Get request timed out")
			}
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *GetFunc) DocString() (string, error) {
	return "Reads a node or a single field from the mesh graph.", nil
}

/*
SubscribeFunc subscribes this peer to a soul so inbound writes for it are
stored and forwarded as events.
*/
type SubscribeFunc struct {
	W *wire.Wire
}

/*
Run executes the ECAL function.
*/
func (f *SubscribeFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{},
	tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}
	var err error

	if len(args) != 1 {
		err = fmt.Errorf("Function requires 1 parameter: soul")
	}

	if err == nil {
		lexSpec := map[string]interface{}{data.SoulKey: fmt.Sprint(args[0])}

		var id uint64

		if id, err = f.W.On(lexSpec, func(event graph.ListenerEvent) {}, true); err == nil {
			res = float64(id)
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *SubscribeFunc) DocString() (string, error) {
	return "Subscribes this peer to a soul of the mesh graph.", nil
}

/*
PeersFunc returns the ids of all known peers.
*/
type PeersFunc struct {
	W *wire.Wire
}

/*
Run executes the ECAL function.
*/
func (f *PeersFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{},
	tid uint64, args []interface{}) (interface{}, error) {

	var peers []interface{}

	for _, id := range f.W.FingerTable().PeerIDs() {
		peers = append(peers, id)
	}

	return scope.ConvertJSONToECALObject(peers), nil
}

/*
DocString returns a descriptive string.
*/
func (f *PeersFunc) DocString() (string, error) {
	return "Returns the ids of all known peers.", nil
}
