/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package radix

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

func TestTreeSetGet(t *testing.T) {

	tree := NewTree()

	if _, ok := tree.Get("missing"); ok {
		t.Error("Empty tree should not contain keys")
		return
	}

	// Build up a tree which requires edge splitting in both directions

	tree.Set("romane", 1)
	tree.Set("romanus", 2)
	tree.Set("romulus", 3)
	tree.Set("rubens", 4)
	tree.Set("ruber", 5)
	tree.Set("rubicon", 6)
	tree.Set("rubicundus", 7)

	// A strict prefix of an existing key becomes a record on an inner node

	tree.Set("rub", 8)

	// An existing key extended by a suffix nests below the record node

	tree.Set("romanesque", 9)

	if s := tree.Size(); s != 9 {
		t.Error("Unexpected size:", s)
		return
	}

	for key, val := range map[string]int{
		"romane": 1, "romanus": 2, "romulus": 3, "rubens": 4, "ruber": 5,
		"rubicon": 6, "rubicundus": 7, "rub": 8, "romanesque": 9,
	} {
		if res, ok := tree.Get(key); !ok || res != val {
			t.Error("Unexpected lookup:", key, res, ok)
			return
		}
	}

	// Inner structural nodes must not be returned as records

	if _, ok := tree.Get("rom"); ok {
		t.Error("Structural node should not be a record")
		return
	}

	if _, ok := tree.Get("romanes"); ok {
		t.Error("Partial key should not be a record")
		return
	}

	// Replacing a value must not grow the tree

	tree.Set("rub", 88)

	if res, _ := tree.Get("rub"); res != 88 || tree.Size() != 9 {
		t.Error("Unexpected replace result:", res, tree.Size())
		return
	}
}

func TestTreeOrderedTraversal(t *testing.T) {

	tree := NewTree()

	// Insert keys in random order and expect ascending byte order on traversal

	keys := []string{"a", "ab", "abc", "abd", "b", "ba", "x", "xylophone", "!bang", "~tilde"}

	perm := rand.Perm(len(keys))
	for _, i := range perm {
		tree.Set(keys[i], i)
	}

	var res []string
	tree.Map(func(key string, val interface{}) bool {
		res = append(res, key)
		return true
	})

	sorted := append([]string{}, keys...)
	sort.Strings(sorted)

	if fmt.Sprint(res) != fmt.Sprint(sorted) {
		t.Error("Unexpected traversal order:", res)
		return
	}

	// Early exit sentinel stops the traversal

	res = nil
	tree.Map(func(key string, val interface{}) bool {
		res = append(res, key)
		return len(res) < 3
	})

	if fmt.Sprint(res) != fmt.Sprint(sorted[:3]) {
		t.Error("Unexpected early exit result:", res)
		return
	}
}

func TestTreePrefixAndRange(t *testing.T) {

	tree := NewTree()

	for i, key := range []string{"alpha", "beta", "betamax", "betty", "gamma", "delta"} {
		tree.Set(key, i)
	}

	collect := func(run func(fn func(string, interface{}) bool)) []string {
		var res []string
		run(func(key string, val interface{}) bool {
			res = append(res, key)
			return true
		})
		return res
	}

	res := collect(func(fn func(string, interface{}) bool) { tree.Prefix("beta", fn) })

	if fmt.Sprint(res) != "[beta betamax]" {
		t.Error("Unexpected prefix result:", res)
		return
	}

	res = collect(func(fn func(string, interface{}) bool) { tree.Prefix("zz", fn) })

	if len(res) != 0 {
		t.Error("Unexpected prefix result:", res)
		return
	}

	// Range endpoints are inclusive on both sides

	res = collect(func(fn func(string, interface{}) bool) { tree.Range("beta", "delta", fn) })

	if fmt.Sprint(res) != "[beta betamax betty delta]" {
		t.Error("Unexpected range result:", res)
		return
	}

	res = collect(func(fn func(string, interface{}) bool) { tree.Range("a", "az", fn) })

	if fmt.Sprint(res) != "[alpha]" {
		t.Error("Unexpected range result:", res)
		return
	}
}

func TestTreeEmptyKeyAndTombstone(t *testing.T) {

	tree := NewTree()

	tree.Set("", "root")

	if res, ok := tree.Get(""); !ok || res != "root" {
		t.Error("Unexpected empty key result:", res, ok)
		return
	}

	// A nil value is a valid record (tombstone)

	tree.Set("gone", nil)

	if res, ok := tree.Get("gone"); !ok || res != nil {
		t.Error("Unexpected tombstone result:", res, ok)
		return
	}

	if s := tree.Size(); s != 2 {
		t.Error("Unexpected size:", s)
		return
	}

	if tree.String() != `:root
gone:<nil>
` {
		t.Error("Unexpected string representation:", tree.String())
		return
	}
}
