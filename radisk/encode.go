/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package radisk

import (
	"bytes"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"devt.de/krotik/common/pools"
	"devt.de/krotik/mesh/graph/data"
	"devt.de/krotik/mesh/radix"
)

/*
In-band markers of the packed file format. Each record line holds the depth
of the entry below the file's root (the number of leading key bytes shared
with the preceding record), the remaining key segment, a value literal and
the entry's state.
*/
const (
	markerToken  = 0x1F                   // Starts a record and its depth token
	markerGroup  = radix.GroupMarker      // Ends the depth token, starts the key segment
	markerRecord = radix.RecordMarker     // Separates key segment and value literal
	markerState  = 0x03                   // Separates value literal and state
	markerEnd    = 0x0A                   // Terminates a record
)

/*
ErrCorrupted is returned when a store file cannot be parsed.
*/
var ErrCorrupted = errors.New("Could not parse store file")

/*
entry is a single stored value and its state.
*/
type entry struct {
	val   interface{} // Stored value (nil is a tombstone)
	state float64     // Logical clock of the value
}

/*
byteBufferPool is a pool of byte buffers used for file encoding.
*/
var byteBufferPool = pools.NewByteBufferPool()

/*
encodeRecords encodes all records of a given radix tree into value tokens of
the packed file format. The keys and tokens are returned in ascending key
order so the caller can slice them into size-capped files. The key prefix
compression (the depth token) is applied per file by encodeLine since a
record may only reference the record preceding it in the same file.
*/
func encodeRecords(tree *radix.Tree) ([]string, []string, error) {
	var keys, tokens []string
	var err error

	tree.Map(func(key string, val interface{}) bool {
		var enc string

		e, ok := val.(*entry)
		if !ok {
			err = ErrCorrupted
			return false
		}

		if enc, err = data.EncodeValue(e.val); err != nil {
			return false
		}

		// The value literal is escaped so values containing marker bytes
		// cannot break the record framing

		keys = append(keys, key)
		tokens = append(tokens, url.PathEscape(enc)+string(rune(markerState))+
			strconv.FormatFloat(e.state, 'g', -1, 64))

		return true
	})

	return keys, tokens, err
}

/*
encodeLine encodes a single record line given the key of the preceding
record in the same file.
*/
func encodeLine(prev string, key string, token string) string {
	depth := commonDepth(prev, key)

	buf := byteBufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		byteBufferPool.Put(buf)
	}()

	buf.Reset()
	buf.WriteByte(markerToken)
	buf.WriteString(strconv.Itoa(depth))
	buf.WriteByte(markerGroup)
	buf.WriteString(key[depth:])
	buf.WriteByte(markerRecord)
	buf.WriteString(token)
	buf.WriteByte(markerEnd)

	return buf.String()
}

/*
parseFile parses the content of a packed store file into a radix tree.
*/
func parseFile(content []byte) (*radix.Tree, error) {
	tree := radix.NewTree()

	prev := ""

	for len(content) > 0 {

		if content[0] != markerToken {
			return nil, ErrCorrupted
		}
		content = content[1:]

		groupPos := bytes.IndexByte(content, markerGroup)
		if groupPos < 0 {
			return nil, ErrCorrupted
		}

		depth, err := strconv.Atoi(string(content[:groupPos]))
		if err != nil || depth < 0 || depth > len(prev) {
			return nil, ErrCorrupted
		}
		content = content[groupPos+1:]

		recordPos := bytes.IndexByte(content, markerRecord)
		if recordPos < 0 {
			return nil, ErrCorrupted
		}

		key := prev[:depth] + string(content[:recordPos])
		content = content[recordPos+1:]

		statePos := bytes.IndexByte(content, markerState)
		endPos := bytes.IndexByte(content, markerEnd)
		if statePos < 0 || endPos < 0 || statePos > endPos {
			return nil, ErrCorrupted
		}

		enc, err := url.PathUnescape(string(content[:statePos]))
		if err != nil {
			return nil, ErrCorrupted
		}

		val, err := data.DecodeValue(enc)
		if err != nil {
			return nil, ErrCorrupted
		}

		state, err := strconv.ParseFloat(string(content[statePos+1:endPos]), 64)
		if err != nil {
			return nil, ErrCorrupted
		}

		tree.Set(key, &entry{val, state})

		prev = key
		content = content[endPos+1:]
	}

	return tree, nil
}

/*
commonDepth returns the number of leading bytes shared by two keys.
*/
func commonDepth(s1 string, s2 string) int {
	l := len(s1)
	if len(s2) < l {
		l = len(s2)
	}

	i := 0
	for i < l && s1[i] == s2[i] {
		i++
	}

	return i
}

/*
checkKey checks that a given key can be stored in the packed file format.
*/
func checkKey(key string) bool {
	return strings.IndexFunc(key, func(r rune) bool {
		return r < 0x20 && r != KeySeparator
	}) < 0
}
