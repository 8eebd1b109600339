/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wire

import (
	"fmt"
	"testing"
	"time"
)

func TestDupTracking(t *testing.T) {

	d := NewDup(0)

	if d.Check("m1") {
		t.Error("Unknown id should not be seen")
		return
	}

	if res := d.Track("m1"); res != "m1" {
		t.Error("Unexpected result:", res)
		return
	}

	if !d.Check("m1") {
		t.Error("Tracked id should be seen")
		return
	}

	d.Track("m1")

	if s := d.Size(); s != 1 {
		t.Error("Re-tracking must not grow the set:", s)
		return
	}
}

func TestDupExpiry(t *testing.T) {

	d := NewDup(20 * time.Millisecond)

	d.Track("m1")
	d.Track("m2")

	// The coalesced sweep removes entries older than the maximum age

	time.Sleep(60 * time.Millisecond)

	if s := d.Size(); s != 0 {
		t.Error("Aged entries should be swept:", s)
		return
	}

	if d.Check("m1") {
		t.Error("Aged id should not be seen")
		return
	}
}

func TestDupSizeBound(t *testing.T) {

	d := NewDup(0)

	for i := 0; i < DefaultDupMaxEntries; i++ {
		d.Track(fmt.Sprintf("m%v", i))
	}

	if s := d.Size(); s != DefaultDupMaxEntries {
		t.Error("Unexpected size:", s)
		return
	}

	// Pushing over the cap evicts an old entry instead of growing

	d.Track("overflow")

	if s := d.Size(); s != DefaultDupMaxEntries {
		t.Error("Cap should be enforced:", s)
		return
	}

	if !d.Check("overflow") {
		t.Error("New id should be tracked")
		return
	}
}
