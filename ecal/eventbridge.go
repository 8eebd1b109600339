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
Package ecal contains the scripting integration of mesh. Accepted graph
changes are forwarded as events to an ECAL interpreter and ECAL scripts can
read and write the mesh graph through registered database functions.
*/
package ecal

import (
	"fmt"

	"devt.de/krotik/ecal/engine"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/mesh/graph"
)

/*
EventPutKind is the ECAL event kind of an accepted graph change.

State: soul, field, value, state
*/
const EventPutKind = "db.mesh.put"

/*
EventBridge forwards all accepted graph changes of a wire instance to ECAL.
*/
type EventBridge struct {
	Processor engine.Processor
	Logger    util.Logger
}

/*
HandleChange handles a single accepted change.
*/
func (eb *EventBridge) HandleChange(event graph.ListenerEvent) {

	eventName := fmt.Sprintf("Mesh: %v", EventPutKind)
	eventKind := []string{"db", "mesh", "put"}

	// Construct an event which can be used to check if any rule will trigger.
	// This is to avoid the relative costly state construction below for events
	// which would not trigger any rules.

	triggerCheckEvent := engine.NewEvent(eventName, eventKind, nil)

	if !eb.Processor.IsTriggering(triggerCheckEvent) {
		return
	}

	state := map[interface{}]interface{}{
		"soul":  event.Soul,
		"field": event.Field,
		"value": event.Value,
		"state": event.State,
	}

	ecalEvent := engine.NewEvent(eventName, eventKind, state)

	if _, err := eb.Processor.AddEventAndWait(ecalEvent, nil); err != nil {
		eb.Logger.LogDebug(fmt.Sprintf(
			"Mesh event %v was handled by ECAL and returned: %v", EventPutKind, err))
	}
}
