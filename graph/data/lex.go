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
	"fmt"
	"strings"
)

/*
Recognized lex query shapes
*/
const (
	LexAll    = iota // Query all fields of a node
	LexExact         // Query a single field
	LexPrefix        // Query all fields with a given prefix
	LexRange         // Query all fields within an inclusive range
)

/*
Field selector keys in a lex specification
*/
const (
	LexFieldKey  = "."
	LexPrefixKey = "*"
	LexUpperKey  = "<"
	LexLowerKey  = ">"
)

/*
ErrInvalidLex is returned for an ill-formed lex specification.
*/
var ErrInvalidLex = errors.New("Invalid lex specification")

/*
Lex is a query specification selecting a node and a field, a field prefix or
an inclusive field range.
*/
type Lex struct {
	Soul   string // Soul of the queried node
	Kind   int    // One of the recognized query shapes
	Field  string // Field for exact queries
	Prefix string // Prefix for prefix queries
	Lower  string // Lower bound (inclusive) for range queries
	Upper  string // Upper bound (inclusive) for range queries
}

/*
NewLex parses a lex specification of the form
{"#": soul, ".": field | {"*": prefix} | {"<": upper, ">": lower}}.
Numeric field selectors are normalized to strings.
*/
func NewLex(spec map[string]interface{}) (*Lex, error) {

	if spec == nil {
		return nil, ErrInvalidLex
	}

	soul, ok := spec[SoulKey].(string)
	if !ok || soul == "" {
		return nil, ErrInvalidLex
	}

	ret := &Lex{Soul: soul, Kind: LexAll}

	sel, ok := spec[LexFieldKey]
	if !ok || sel == nil {
		return ret, nil
	}

	switch s := sel.(type) {

	case string:
		ret.Kind = LexExact
		ret.Field = s

	case map[string]interface{}:

		if prefix, ok := s[LexPrefixKey]; ok {
			ret.Kind = LexPrefix
			ret.Prefix = fmt.Sprint(prefix)

		} else {
			_, hasUpper := s[LexUpperKey]
			_, hasLower := s[LexLowerKey]

			if !hasUpper && !hasLower {
				return nil, ErrInvalidLex
			}

			ret.Kind = LexRange
			if hasLower {
				ret.Lower = fmt.Sprint(s[LexLowerKey])
			}
			if hasUpper {
				ret.Upper = fmt.Sprint(s[LexUpperKey])
			} else {
				ret.Upper = string(rune(0xFF))
			}
		}

	default:

		// Numeric and other scalar field selectors are normalized to strings

		ret.Kind = LexExact
		ret.Field = fmt.Sprint(sel)
	}

	return ret, nil
}

/*
MatchField checks if a given field is selected by this lex.
*/
func (l *Lex) MatchField(field string) bool {
	switch l.Kind {

	case LexExact:
		return field == l.Field

	case LexPrefix:
		return strings.HasPrefix(field, l.Prefix)

	case LexRange:
		return field >= l.Lower && field <= l.Upper
	}

	return true
}

/*
Spec returns the wire form of this lex.
*/
func (l *Lex) Spec() map[string]interface{} {
	ret := map[string]interface{}{SoulKey: l.Soul}

	switch l.Kind {

	case LexExact:
		ret[LexFieldKey] = l.Field

	case LexPrefix:
		ret[LexFieldKey] = map[string]interface{}{LexPrefixKey: l.Prefix}

	case LexRange:
		ret[LexFieldKey] = map[string]interface{}{
			LexLowerKey: l.Lower,
			LexUpperKey: l.Upper,
		}
	}

	return ret
}

/*
String returns a string representation of this lex.
*/
func (l *Lex) String() string {
	switch l.Kind {

	case LexExact:
		return fmt.Sprintf("Lex %v.%v", l.Soul, l.Field)

	case LexPrefix:
		return fmt.Sprintf("Lex %v.%v*", l.Soul, l.Prefix)

	case LexRange:
		return fmt.Sprintf("Lex %v.[%v..%v]", l.Soul, l.Lower, l.Upper)
	}

	return fmt.Sprintf("Lex %v", l.Soul)
}
