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
Package xor contains the overlay routing layer of mesh. Peer ids and souls
are hashed with SHA-256 and compared by XOR distance. A Kademlia-style
finger table of k-buckets selects the next hops toward a target soul. The
finger table is only used for next-hop selection - storage responsibility is
independent of the keyspace.
*/
package xor

import (
	"crypto/sha256"
	"encoding/hex"

	"devt.de/krotik/common/bitutil"
)

/*
IDLength is the number of bytes of a hashed id.
*/
const IDLength = sha256.Size

/*
ID is a hashed peer or soul id.
*/
type ID [IDLength]byte

/*
NewID hashes a given peer id or soul into an ID.
*/
func NewID(s string) ID {
	return sha256.Sum256([]byte(s))
}

/*
Distance returns the XOR distance between two ids.
*/
func (id ID) Distance(other ID) ID {
	var ret ID

	for i := 0; i < IDLength; i++ {
		ret[i] = id[i] ^ other[i]
	}

	return ret
}

/*
Less compares two ids byte-wise (used for distance ordering).
*/
func (id ID) Less(other ID) bool {
	for i := 0; i < IDLength; i++ {
		if id[i] < other[i] {
			return true
		}
		if id[i] > other[i] {
			return false
		}
	}

	return false
}

/*
Equals checks two ids for equality.
*/
func (id ID) Equals(other ID) bool {
	return bitutil.CompareByteArray(id[:], other[:])
}

/*
LeadingZeros returns the number of leading zero bits of an id. For a
distance this is the bucket index (0..255).
*/
func LeadingZeros(id ID) int {
	for i := 0; i < IDLength; i++ {
		if id[i] != 0 {
			ret := i * 8

			for mask := byte(0x80); mask != 0 && id[i]&mask == 0; mask >>= 1 {
				ret++
			}

			return ret
		}
	}

	return IDLength*8 - 1
}

/*
String hex-encodes the id.
*/
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}
