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
	"container/list"
	"errors"
	"sort"
	"sync"
)

/*
BucketSize is the maximum number of peers per k-bucket.
*/
const BucketSize = 20

/*
DefaultClosestPeers is the default number of next-hop peers returned for a
target.
*/
const DefaultClosestPeers = 6

/*
Finger table related error types
*/
var (
	ErrSelfPeer   = errors.New("Cannot add self to the finger table")
	ErrBucketFull = errors.New("Bucket is full")
)

/*
Peer is a single known peer of the overlay.
*/
type Peer struct {
	ID     string // Stable peer id (public key from the handshake)
	Hash   ID     // SHA-256 of the peer id
	ConnID string // Transport connection id (delivery handle)
}

/*
NewPeer creates a new peer entry.
*/
func NewPeer(id string, connID string) *Peer {
	return &Peer{id, NewID(id), connID}
}

/*
FingerTable is a map of bucket index to an ordered list of peers. Buckets
prefer long-lived connections: a new peer is rejected when its bucket is
full.
*/
type FingerTable struct {
	self    ID                    // Hashed id of the owning peer
	selfID  string                // Raw id of the owning peer
	buckets map[int]*list.List    // Buckets keyed by distance bucket index
	peers   map[string]*list.Element // Global peer map for direct lookup
	mutex   *sync.RWMutex         // Mutex to protect table state
}

/*
NewFingerTable creates a new finger table for a given own peer id.
*/
func NewFingerTable(selfID string) *FingerTable {
	return &FingerTable{NewID(selfID), selfID, make(map[int]*list.List),
		make(map[string]*list.Element), &sync.RWMutex{}}
}

/*
SelfID returns the own peer id of this finger table.
*/
func (ft *FingerTable) SelfID() string {
	return ft.selfID
}

/*
AddPeer adds a peer to its bucket. Adding self is rejected. Re-adding an
existing peer removes the old entry first. If the bucket is full the new
peer is rejected to preserve long-lived connections.
*/
func (ft *FingerTable) AddPeer(peer *Peer) error {
	ft.mutex.Lock()
	defer ft.mutex.Unlock()

	if peer.ID == ft.selfID {
		return ErrSelfPeer
	}

	if elem, ok := ft.peers[peer.ID]; ok {
		ft.removeElement(peer.ID, elem)
	}

	index := LeadingZeros(ft.self.Distance(peer.Hash))

	bucket, ok := ft.buckets[index]
	if !ok {
		bucket = list.New()
		ft.buckets[index] = bucket
	}

	if bucket.Len() >= BucketSize {
		return ErrBucketFull
	}

	ft.peers[peer.ID] = bucket.PushFront(peer)

	return nil
}

/*
RemovePeer removes a peer from the table. Empty buckets are dropped.
*/
func (ft *FingerTable) RemovePeer(id string) {
	ft.mutex.Lock()
	defer ft.mutex.Unlock()

	if elem, ok := ft.peers[id]; ok {
		ft.removeElement(id, elem)
	}
}

/*
removeElement removes a peer element from its bucket. It is assumed that the
mutex is held.
*/
func (ft *FingerTable) removeElement(id string, elem *list.Element) {
	peer := elem.Value.(*Peer)
	index := LeadingZeros(ft.self.Distance(peer.Hash))

	if bucket, ok := ft.buckets[index]; ok {
		bucket.Remove(elem)

		if bucket.Len() == 0 {
			delete(ft.buckets, index)
		}
	}

	delete(ft.peers, id)
}

/*
GetPeer looks up a peer by its id.
*/
func (ft *FingerTable) GetPeer(id string) *Peer {
	ft.mutex.RLock()
	defer ft.mutex.RUnlock()

	if elem, ok := ft.peers[id]; ok {
		return elem.Value.(*Peer)
	}

	return nil
}

/*
PeerIDs returns the ids of all known peers in ascending order.
*/
func (ft *FingerTable) PeerIDs() []string {
	ft.mutex.RLock()
	defer ft.mutex.RUnlock()

	var ret []string
	for id := range ft.peers {
		ret = append(ret, id)
	}

	sort.Strings(ret)

	return ret
}

/*
Count returns the number of known peers.
*/
func (ft *FingerTable) Count() int {
	ft.mutex.RLock()
	defer ft.mutex.RUnlock()

	return len(ft.peers)
}

/*
FindClosestPeers returns up to k peers sorted by ascending XOR distance to
the SHA-256 hash of a given target.
*/
func (ft *FingerTable) FindClosestPeers(target string, k int) []*Peer {
	ft.mutex.RLock()
	defer ft.mutex.RUnlock()

	if k <= 0 {
		k = DefaultClosestPeers
	}

	targetHash := NewID(target)

	candidates := make([]*Peer, 0, len(ft.peers))
	for _, elem := range ft.peers {
		candidates = append(candidates, elem.Value.(*Peer))
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Hash.Distance(targetHash).
			Less(candidates[j].Hash.Distance(targetHash))
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	return candidates
}
