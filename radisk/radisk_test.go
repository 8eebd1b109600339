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
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/mesh/graph/data"
)

const RadiskTestDBDir1 = "radisktest1"
const RadiskTestDBDir2 = "radisktest2"
const RadiskTestDBDir3 = "radisktest3"

var DBDIRS = []string{RadiskTestDBDir1, RadiskTestDBDir2, RadiskTestDBDir3}

func TestMain(m *testing.M) {
	flag.Parse()

	for _, dbdir := range DBDIRS {
		if res, _ := fileutil.PathExists(dbdir); res {
			if err := os.RemoveAll(dbdir); err != nil {
				fmt.Print("Could not remove test directory:", err.Error())
			}
		}
	}

	res := m.Run()

	for _, dbdir := range DBDIRS {
		if res, _ := fileutil.PathExists(dbdir); res {
			if err := os.RemoveAll(dbdir); err != nil {
				fmt.Print("Could not remove test directory:", err.Error())
			}
		}
	}

	os.Exit(res)
}

func TestRadiskRoundTrip(t *testing.T) {

	rd, err := New(RadiskTestDBDir1, 0, 0, 0, true)
	if err != nil {
		t.Error(err)
		return
	}

	writes := map[string]interface{}{
		"mark\x05name":    "Mark",
		"mark\x05age":     float64(23),
		"mark\x05admin":   true,
		"mark\x05retired": false,
		"mark\x05friend":  data.NewRelation("amber"),
		"amber\x05name":   "Amber",
	}

	i := 1.0
	for key, val := range writes {
		if err := rd.Write(key, val, i); err != nil {
			t.Error(err)
			return
		}
		i++
	}

	// A nil value is a tombstone and must survive the round trip

	if err := rd.Write("mark\x05gone", nil, 99); err != nil {
		t.Error(err)
		return
	}

	if err := rd.Flush(); err != nil {
		t.Error(err)
		return
	}

	// The first file of a store directory is always called !

	if res, _ := fileutil.PathExists(filepath.Join(RadiskTestDBDir1, FirstFile)); !res {
		t.Error("First store file is missing")
		return
	}

	for key, val := range writes {
		res, _, ok, err := rd.Read(key)

		if err != nil || !ok || !data.ValueEquals(res, val) {
			t.Error("Unexpected read result:", key, res, ok, err)
			return
		}
	}

	if res, state, ok, err := rd.Read("mark\x05gone"); err != nil || !ok || res != nil || state != 99 {
		t.Error("Unexpected tombstone result:", res, state, ok, err)
		return
	}

	if _, _, ok, err := rd.Read("mark\x05unknown"); ok || err != nil {
		t.Error("Unknown key should not be found:", ok, err)
		return
	}

	// A full range query enumerates exactly the written keys in ascending order

	var keys []string

	err = rd.Query("", string(rune(0xFF)), func(key string, val interface{}, state float64) bool {
		keys = append(keys, key)
		return true
	})

	if err != nil {
		t.Error(err)
		return
	}

	var expected []string
	for key := range writes {
		expected = append(expected, key)
	}
	expected = append(expected, "mark\x05gone")
	sort.Strings(expected)

	if fmt.Sprint(keys) != fmt.Sprint(expected) {
		t.Error("Unexpected enumeration:", keys)
		return
	}

	// Keys with control characters are rejected

	if err := rd.Write("bad\x03key", "x", 1); err != ErrCorrupted {
		t.Error("Unexpected result:", err)
		return
	}

	if err := rd.Close(); err != nil {
		t.Error(err)
		return
	}
}

func TestRadiskFileCap(t *testing.T) {

	// Use a tiny file cap so slicing happens quickly

	rd, err := New(RadiskTestDBDir2, 100, 0, 0, false)
	if err != nil {
		t.Error(err)
		return
	}

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("soul%02d\x05field", i)

		if err := rd.Write(key, fmt.Sprintf("value%02d", i), float64(i)); err != nil {
			t.Error(err)
			return
		}
	}

	if err := rd.Flush(); err != nil {
		t.Error(err)
		return
	}

	// No file on disk may exceed the cap and all values must still be readable

	infos, _ := ioutil.ReadDir(RadiskTestDBDir2)

	if len(infos) < 2 {
		t.Error("Expected the store to be sliced into multiple files:", len(infos))
		return
	}

	for _, info := range infos {
		if info.Size() > 100 {
			t.Error("File exceeds the size cap:", info.Name(), info.Size())
			return
		}
	}

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("soul%02d\x05field", i)

		res, state, ok, err := rd.Read(key)

		if err != nil || !ok || res != fmt.Sprintf("value%02d", i) || state != float64(i) {
			t.Error("Unexpected read result:", key, res, state, ok, err)
			return
		}
	}

	// A single oversize value stays inline in its file

	big := make([]byte, 200)
	for i := range big {
		big[i] = 'x'
	}

	if err := rd.Write("soul00\x05big", string(big), 100); err != nil {
		t.Error(err)
		return
	}

	if err := rd.Flush(); err != nil {
		t.Error(err)
		return
	}

	if res, _, ok, err := rd.Read("soul00\x05big"); err != nil || !ok || res != string(big) {
		t.Error("Unexpected read result:", ok, err)
		return
	}

	rd.Close()
}

func TestRadiskTimerFlush(t *testing.T) {

	rd, err := New(RadiskTestDBDir3, 0, 0, 5*time.Millisecond, false)
	if err != nil {
		t.Error(err)
		return
	}

	if err := rd.Write("soul\x05field", "value", 1); err != nil {
		t.Error(err)
		return
	}

	// Wait for the idle timer to write the batch

	time.Sleep(50 * time.Millisecond)

	if res, _ := fileutil.PathExists(filepath.Join(RadiskTestDBDir3, FirstFile)); !res {
		t.Error("Timer flush did not write the store file")
		return
	}

	if rd.LastFlushError != nil {
		t.Error(rd.LastFlushError)
		return
	}

	rd.Close()
}

func TestRadiskCorruptFile(t *testing.T) {

	if _, err := parseFile([]byte("not a store file")); err != ErrCorrupted {
		t.Error("Unexpected result:", err)
		return
	}

	if _, err := parseFile([]byte{markerToken, '9', '9', markerGroup, 'a',
		markerRecord, markerState, '1', markerEnd}); err != ErrCorrupted {
		t.Error("Depth beyond the previous key should be an error:", err)
		return
	}
}
