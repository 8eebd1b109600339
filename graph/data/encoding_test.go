/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package data

import "testing"

func TestEncodeValue(t *testing.T) {

	for _, test := range []struct {
		val interface{}
		enc string
	}{
		{nil, ""},
		{true, "+"},
		{false, "-"},
		{float64(42), "+42"},
		{float64(-0.5), "+-0.5"},
		{"hello", `"hello`},
		{NewRelation("amber"), "#amber"},
	} {
		enc, err := EncodeValue(test.val)

		if err != nil || enc != test.enc {
			t.Error("Unexpected encoding:", test.val, enc, err)
			return
		}

		dec, err := DecodeValue(enc)

		if err != nil || !ValueEquals(dec, test.val) {
			t.Error("Unexpected decoding:", enc, dec, err)
			return
		}
	}

	// Complex objects which are not relations are encoding errors

	if _, err := EncodeValue(map[string]interface{}{"a": 1, "b": 2}); err != ErrNotEncodable {
		t.Error("Unexpected result:", err)
		return
	}

	if _, err := EncodeValue([]interface{}{1, 2}); err != ErrNotEncodable {
		t.Error("Unexpected result:", err)
		return
	}

	if _, err := DecodeValue("!bogus"); err != ErrNotEncodable {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestValueEquals(t *testing.T) {

	if !ValueEquals(NewRelation("a"), NewRelation("a")) {
		t.Error("Equal relations should compare equal")
		return
	}

	if ValueEquals(NewRelation("a"), NewRelation("b")) {
		t.Error("Different relations should not compare equal")
		return
	}

	if ValueEquals(NewRelation("a"), "a") {
		t.Error("Relation and scalar should not compare equal")
		return
	}

	if ValueEquals("a", NewRelation("a")) {
		t.Error("Scalar and relation should not compare equal")
		return
	}

	if !ValueEquals(nil, nil) || ValueEquals(nil, false) {
		t.Error("Unexpected null comparison")
		return
	}
}

func TestTieBreakOrdering(t *testing.T) {

	// The lexically larger encoding must win a state tie deterministically

	enc1, _ := EncodeValue("alpha")
	enc2, _ := EncodeValue("beta")

	if !(enc2 > enc1) {
		t.Error("Unexpected ordering:", enc1, enc2)
		return
	}
}
