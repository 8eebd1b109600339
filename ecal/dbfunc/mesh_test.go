/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dbfunc

import (
	"testing"
	"time"

	"devt.de/krotik/common/flowutil"
	"devt.de/krotik/mesh/graph/graphstorage"
	"devt.de/krotik/mesh/wire"
)

func TestPutGetFunc(t *testing.T) {

	w := wire.NewWire("peer1", graphstorage.NewMemoryGraphStorage("test"),
		flowutil.NewEventPump(), &wire.Config{Wait: 50 * time.Millisecond})
	w.Start()
	defer w.Shutdown()

	put := &PutFunc{W: w}
	get := &GetFunc{W: w}

	if _, err := put.Run("", nil, nil, 0, []interface{}{"mark"}); err == nil {
		t.Error("Missing fields map should be an error")
		return
	}

	if _, err := put.Run("", nil, nil, 0, []interface{}{"mark", "no map"}); err == nil {
		t.Error("Invalid fields map should be an error")
		return
	}

	if _, err := put.Run("", nil, nil, 0, []interface{}{"mark",
		map[interface{}]interface{}{"name": "Mark"}, float64(1)}); err != nil {
		t.Error(err)
		return
	}

	res, err := get.Run("", nil, nil, 0, []interface{}{"mark", "name"})
	if err != nil {
		t.Error(err)
		return
	}

	resMap, ok := res.(map[interface{}]interface{})
	if !ok {
		t.Error("Unexpected result type:", res)
		return
	}

	nodeMap, ok := resMap["mark"].(map[interface{}]interface{})
	if !ok || nodeMap["name"] != "Mark" {
		t.Error("Unexpected result:", resMap)
		return
	}

	if _, err := get.Run("", nil, nil, 0, []interface{}{}); err == nil {
		t.Error("Missing soul should be an error")
		return
	}

	// Subscribing marks the soul as stored

	sub := &SubscribeFunc{W: w}

	if res, err := sub.Run("", nil, nil, 0, []interface{}{"amber"}); err != nil || res == nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	// Peer listing works without connections

	peers := &PeersFunc{W: w}

	if _, err := peers.Run("", nil, nil, 0, nil); err != nil {
		t.Error("Unexpected result:", err)
		return
	}
}
