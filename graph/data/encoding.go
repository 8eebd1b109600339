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

import (
	"errors"
	"strconv"
)

/*
Value literal prefixes. The same encoding is used for the deterministic
conflict tie-break and for value tokens in store files.
*/
const (
	LiteralString   = '"'
	LiteralNumber   = '+'
	LiteralFalse    = '-'
	LiteralRelation = '#'
)

/*
ErrNotEncodable is returned when a value is not a scalar, a relation or null.
*/
var ErrNotEncodable = errors.New("Value is not a scalar, a relation or null")

/*
EncodeValue encodes a scalar value or relation into its string form. Null
encodes to the empty string. The encoding is unique per value so the
lexical order of two encodings is a deterministic tie-break between values.
*/
func EncodeValue(val interface{}) (string, error) {
	var ret string
	var err error

	switch v := val.(type) {

	case nil:
		ret = ""

	case bool:
		ret = string(LiteralFalse)
		if v {
			ret = string(LiteralNumber)
		}

	case float64:
		ret = string(LiteralNumber) + strconv.FormatFloat(v, 'g', -1, 64)

	case int:
		ret = string(LiteralNumber) + strconv.FormatFloat(float64(v), 'g', -1, 64)

	case int64:
		ret = string(LiteralNumber) + strconv.FormatFloat(float64(v), 'g', -1, 64)

	case string:
		ret = string(LiteralString) + v

	default:
		if soul, ok := RelationSoul(val); ok {
			ret = string(LiteralRelation) + soul
		} else {
			err = ErrNotEncodable
		}
	}

	return ret, err
}

/*
DecodeValue decodes a value from its string form. The empty string decodes
to null.
*/
func DecodeValue(enc string) (interface{}, error) {
	var ret interface{}
	var err error

	if enc == "" {
		return nil, nil
	}

	switch enc[0] {

	case LiteralString:
		ret = enc[1:]

	case LiteralNumber:
		if len(enc) == 1 {
			ret = true
		} else {
			ret, err = strconv.ParseFloat(enc[1:], 64)
		}

	case LiteralFalse:
		ret = false

	case LiteralRelation:
		ret = NewRelation(enc[1:])

	default:
		err = ErrNotEncodable
	}

	return ret, err
}

/*
ValueEquals checks if two values are deeply equal.
*/
func ValueEquals(val1 interface{}, val2 interface{}) bool {
	if soul1, ok := RelationSoul(val1); ok {
		soul2, ok := RelationSoul(val2)
		return ok && soul1 == soul2
	}

	if _, ok := RelationSoul(val2); ok {
		return false
	}

	return val1 == val2
}
