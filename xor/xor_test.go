/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package xor

import (
	"fmt"
	"testing"
)

func TestIDBasics(t *testing.T) {

	id1 := NewID("peer1")
	id2 := NewID("peer2")

	if !id1.Equals(NewID("peer1")) {
		t.Error("Hashing must be stable")
		return
	}

	if id1.Equals(id2) {
		t.Error("Different ids must hash differently")
		return
	}

	// Distance to self is zero, distance is symmetric

	var zero ID

	if !id1.Distance(id1).Equals(zero) {
		t.Error("Distance to self should be zero")
		return
	}

	if !id1.Distance(id2).Equals(id2.Distance(id1)) {
		t.Error("Distance should be symmetric")
		return
	}

	if len(id1.String()) != 64 {
		t.Error("Unexpected string form:", id1.String())
		return
	}
}

func TestLeadingZeros(t *testing.T) {

	var id ID

	if res := LeadingZeros(id); res != IDLength*8-1 {
		t.Error("Unexpected result for zero id:", res)
		return
	}

	id[0] = 0x80

	if res := LeadingZeros(id); res != 0 {
		t.Error("Unexpected result:", res)
		return
	}

	id[0] = 0x01

	if res := LeadingZeros(id); res != 7 {
		t.Error("Unexpected result:", res)
		return
	}

	id[0] = 0x00
	id[2] = 0x10

	if res := LeadingZeros(id); res != 19 {
		t.Error("Unexpected result:", res)
		return
	}
}

func TestFingerTable(t *testing.T) {

	ft := NewFingerTable("self")

	if ft.SelfID() != "self" {
		t.Error("Unexpected self id:", ft.SelfID())
		return
	}

	// Adding self is rejected

	if err := ft.AddPeer(NewPeer("self", "conn0")); err != ErrSelfPeer {
		t.Error("Unexpected result:", err)
		return
	}

	for i := 1; i <= 4; i++ {
		if err := ft.AddPeer(NewPeer(fmt.Sprintf("peer%v", i),
			fmt.Sprintf("conn%v", i))); err != nil {
			t.Error(err)
			return
		}
	}

	if c := ft.Count(); c != 4 {
		t.Error("Unexpected count:", c)
		return
	}

	if ids := fmt.Sprint(ft.PeerIDs()); ids != "[peer1 peer2 peer3 peer4]" {
		t.Error("Unexpected peer ids:", ids)
		return
	}

	// Re-adding an existing peer replaces the old entry

	if err := ft.AddPeer(NewPeer("peer1", "conn1b")); err != nil {
		t.Error(err)
		return
	}

	if c := ft.Count(); c != 4 {
		t.Error("Unexpected count after re-add:", c)
		return
	}

	if p := ft.GetPeer("peer1"); p == nil || p.ConnID != "conn1b" {
		t.Error("Unexpected peer:", p)
		return
	}

	// Unknown peers yield nil

	if p := ft.GetPeer("unknown"); p != nil {
		t.Error("Unexpected peer:", p)
		return
	}

	// Removing a peer drops it from the table

	ft.RemovePeer("peer2")

	if c := ft.Count(); c != 3 || ft.GetPeer("peer2") != nil {
		t.Error("Unexpected state after removal:", c)
		return
	}
}

func TestFindClosestPeers(t *testing.T) {

	ft := NewFingerTable("self")

	for i := 1; i <= 20; i++ {
		ft.AddPeer(NewPeer(fmt.Sprintf("peer%v", i), fmt.Sprintf("conn%v", i)))
	}

	target := "some-soul"
	targetHash := NewID(target)

	res := ft.FindClosestPeers(target, 4)

	if len(res) != 4 {
		t.Error("Unexpected result size:", len(res))
		return
	}

	// P9: the returned peers are sorted by ascending XOR distance and every
	// returned peer is at least as close as every peer which was not returned

	for i := 1; i < len(res); i++ {
		if res[i].Hash.Distance(targetHash).Less(res[i-1].Hash.Distance(targetHash)) {
			t.Error("Result is not sorted by distance")
			return
		}
	}

	maxReturned := res[len(res)-1].Hash.Distance(targetHash)

	returned := make(map[string]bool)
	for _, p := range res {
		returned[p.ID] = true
	}

	for _, id := range ft.PeerIDs() {
		if returned[id] {
			continue
		}

		if ft.GetPeer(id).Hash.Distance(targetHash).Less(maxReturned) {
			t.Error("A closer peer was not returned:", id)
			return
		}
	}

	// Asking for more peers than known returns all of them

	if res := ft.FindClosestPeers(target, 100); len(res) != 20 {
		t.Error("Unexpected result size:", len(res))
		return
	}

	// The default k is used for invalid values

	if res := ft.FindClosestPeers(target, 0); len(res) != DefaultClosestPeers {
		t.Error("Unexpected result size:", len(res))
		return
	}
}

func TestBucketCapacity(t *testing.T) {

	ft := NewFingerTable("self")

	// Fill a single bucket beyond its capacity - peers are crafted so they
	// all land in the same bucket by brute force search

	var sameBucket []string
	selfHash := NewID("self")

	index := -1

	for i := 0; len(sameBucket) <= BucketSize; i++ {
		id := fmt.Sprintf("candidate%v", i)

		peerIndex := LeadingZeros(selfHash.Distance(NewID(id)))

		if index == -1 {
			index = peerIndex
		}

		if peerIndex == index {
			sameBucket = append(sameBucket, id)
		}
	}

	for i, id := range sameBucket {
		err := ft.AddPeer(NewPeer(id, fmt.Sprintf("conn%v", i)))

		if i < BucketSize && err != nil {
			t.Error("Unexpected error:", err)
			return
		}

		// The peer which overflows the bucket is rejected

		if i == BucketSize && err != ErrBucketFull {
			t.Error("Unexpected result:", err)
			return
		}
	}

	if c := ft.Count(); c != BucketSize {
		t.Error("Unexpected count:", c)
		return
	}
}
