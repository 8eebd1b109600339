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
Package radisk contains the persistent storage layer of mesh. Radisk maps a
logical key/value space onto a set of packed files in a directory. Writes
are staged into an in-memory radix tree and flushed in batches after an idle
interval or once the staged data exceeds a byte threshold. Files are capped
at a configurable size; a file which would grow beyond the cap is sliced
into several files each named by the smallest key it contains. The first
file of a directory is always named "!".
*/
package radisk

import (
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"devt.de/krotik/common/datautil"
	"devt.de/krotik/mesh/radix"
)

/*
KeySeparator separates the soul part from the field part of a storage key.
*/
const KeySeparator = 0x05

/*
FirstFile is the name of the first file of a store directory.
*/
const FirstFile = "!"

/*
DefaultFileSize is the default maximum file size in bytes.
*/
const DefaultFileSize = 1048576

/*
DefaultBatchSize is the default staged byte threshold which forces an early flush.
*/
const DefaultBatchSize = 262144

/*
DefaultWriteInterval is the default idle interval between flushes.
*/
const DefaultWriteInterval = time.Millisecond

/*
DefaultCacheSize is the maximum number of decoded files kept in memory when
caching is enabled.
*/
const DefaultCacheSize = 100

/*
Radisk is a persistent key/value store over packed radix files.
*/
type Radisk struct {
	dir           string             // Directory holding the packed files
	size          int                // Maximum file size in bytes
	batch         int                // Staged byte threshold forcing an early flush
	writeInterval time.Duration      // Idle interval between flushes
	staged        *radix.Tree        // Staged writes which have not been flushed
	stagedBytes   int                // Encoded size estimate of the staged writes
	timer         *time.Timer        // Pending flush timer
	cache         *datautil.MapCache // Decoded file cache (nil if disabled)
	mutex         *sync.Mutex        // Mutex for staged writes and flushes

	LastFlushError error // Error of the last timer-driven flush
}

/*
New creates a new Radisk store in a given directory. Zero values for size,
batch and writeInterval select the defaults.
*/
func New(dir string, size int, batch int, writeInterval time.Duration,
	cache bool) (*Radisk, error) {

	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, err
	}

	if size <= 0 {
		size = DefaultFileSize
	}
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	if writeInterval <= 0 {
		writeInterval = DefaultWriteInterval
	}

	var mc *datautil.MapCache
	if cache {
		mc = datautil.NewMapCache(DefaultCacheSize, 0)
	}

	return &Radisk{dir, size, batch, writeInterval, radix.NewTree(), 0,
		nil, mc, &sync.Mutex{}, nil}, nil
}

/*
Write stages a value and its state under a given key. The write is persisted
with the next batch flush. A nil value is a tombstone.
*/
func (rd *Radisk) Write(key string, val interface{}, state float64) error {

	if !checkKey(key) {
		return ErrCorrupted
	}

	rd.mutex.Lock()
	defer rd.mutex.Unlock()

	rd.staged.Set(key, &entry{val, state})
	rd.stagedBytes += len(key) + 32

	if rd.stagedBytes >= rd.batch {
		return rd.flush()
	}

	// Extend the idle timer - flush coalescing is enforced by this single
	// pending timer

	if rd.timer != nil {
		rd.timer.Stop()
	}

	rd.timer = time.AfterFunc(rd.writeInterval, func() {
		rd.mutex.Lock()
		defer rd.mutex.Unlock()

		rd.LastFlushError = rd.flush()
	})

	return nil
}

/*
Read returns the value and state stored under a given key.
*/
func (rd *Radisk) Read(key string) (interface{}, float64, bool, error) {
	var found *entry

	err := rd.Query(key, key, func(k string, val interface{}, state float64) bool {
		found = &entry{val, state}
		return false
	})

	if err != nil || found == nil {
		return nil, 0, false, err
	}

	return found.val, found.state, true, nil
}

/*
Query calls a given function for every stored entry whose key is within a
given inclusive range, in ascending key order. Staged writes are flushed
before reading.
*/
func (rd *Radisk) Query(lower string, upper string,
	fn func(key string, val interface{}, state float64) bool) error {

	rd.mutex.Lock()
	defer rd.mutex.Unlock()

	if err := rd.flush(); err != nil {
		return err
	}

	files, err := rd.fileIndex()
	if err != nil {
		return err
	}

	for i, f := range files {

		// Skip files whose key range cannot intersect the query range

		if i+1 < len(files) && files[i+1].key <= lower {
			continue
		}
		if f.key > upper {
			break
		}

		tree, err := rd.fileTree(f.name)
		if err != nil {
			return err
		}

		stop := false

		tree.Range(lower, upper, func(key string, val interface{}) bool {
			e := val.(*entry)
			if !fn(key, e.val, e.state) {
				stop = true
				return false
			}
			return true
		})

		if stop {
			break
		}
	}

	return nil
}

/*
Prefix calls a given function for every stored entry whose key starts with a
given prefix, in ascending key order. Staged writes are flushed before
reading.
*/
func (rd *Radisk) Prefix(prefix string,
	fn func(key string, val interface{}, state float64) bool) error {

	rd.mutex.Lock()
	defer rd.mutex.Unlock()

	if err := rd.flush(); err != nil {
		return err
	}

	files, err := rd.fileIndex()
	if err != nil {
		return err
	}

	for i, f := range files {

		// Skip files whose key range cannot contain prefixed keys

		if i+1 < len(files) && files[i+1].key <= prefix {
			continue
		}
		if f.key > prefix && !strings.HasPrefix(f.key, prefix) {
			break
		}

		tree, err := rd.fileTree(f.name)
		if err != nil {
			return err
		}

		stop := false

		tree.Prefix(prefix, func(key string, val interface{}) bool {
			e := val.(*entry)
			if !fn(key, e.val, e.state) {
				stop = true
				return false
			}
			return true
		})

		if stop {
			break
		}
	}

	return nil
}

/*
Flush writes all staged entries to disk.
*/
func (rd *Radisk) Flush() error {
	rd.mutex.Lock()
	defer rd.mutex.Unlock()

	return rd.flush()
}

/*
Close flushes all staged entries and stops the flush timer.
*/
func (rd *Radisk) Close() error {
	rd.mutex.Lock()
	defer rd.mutex.Unlock()

	if rd.timer != nil {
		rd.timer.Stop()
		rd.timer = nil
	}

	return rd.flush()
}

/*
storeFile is an entry of the ordered file index of a store directory.
*/
type storeFile struct {
	name string // Name of the file on disk
	key  string // Smallest key stored in the file ("" for the first file)
}

/*
fileIndex returns the ordered file index of the store directory. The file
whose key is the greatest key not larger than a target key is the candidate
file for that key.
*/
func (rd *Radisk) fileIndex() ([]storeFile, error) {
	infos, err := ioutil.ReadDir(rd.dir)
	if err != nil {
		return nil, err
	}

	var files []storeFile

	for _, info := range infos {
		if info.IsDir() {
			continue
		}

		name := info.Name()

		if name == FirstFile {
			files = append(files, storeFile{name, ""})
			continue
		}

		if key, err := url.PathUnescape(name); err == nil {
			files = append(files, storeFile{name, key})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].key < files[j].key
	})

	return files, nil
}

/*
fileTree returns the parsed radix tree of a given store file.
*/
func (rd *Radisk) fileTree(name string) (*radix.Tree, error) {

	if rd.cache != nil {
		if tree, ok := rd.cache.Get(name); ok {
			return tree.(*radix.Tree), nil
		}
	}

	content, err := ioutil.ReadFile(filepath.Join(rd.dir, name))
	if err != nil {
		return nil, err
	}

	tree, err := parseFile(content)
	if err != nil {
		return nil, err
	}

	if rd.cache != nil {
		rd.cache.Put(name, tree)
	}

	return tree, nil
}

/*
flush merges all staged entries into their candidate files and slices files
which exceed the size cap. It is assumed that the mutex is held.
*/
func (rd *Radisk) flush() error {

	if rd.staged.Size() == 0 {
		return nil
	}

	if rd.timer != nil {
		rd.timer.Stop()
		rd.timer = nil
	}

	files, err := rd.fileIndex()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		files = []storeFile{{FirstFile, ""}}

		if err := ioutil.WriteFile(filepath.Join(rd.dir, FirstFile),
			nil, 0660); err != nil {
			return err
		}
	}

	// Group the staged entries by their candidate file

	targets := make(map[string]*radix.Tree)

	rd.staged.Map(func(key string, val interface{}) bool {
		name := files[candidateIndex(files, key)].name

		tree, ok := targets[name]
		if !ok {
			tree = radix.NewTree()
			targets[name] = tree
		}

		tree.Set(key, val)

		return true
	})

	// Merge each affected file and write it back, sliced if necessary

	for name, stagedTree := range targets {

		tree, err := rd.fileTree(name)
		if err != nil {
			return err
		}

		stagedTree.Map(func(key string, val interface{}) bool {
			tree.Set(key, val)
			return true
		})

		if err = rd.writeSliced(name, tree); err != nil {
			return err
		}
	}

	rd.staged = radix.NewTree()
	rd.stagedBytes = 0

	return nil
}

/*
writeSliced writes a merged file tree back to disk. If the encoded tree
exceeds the size cap it is sliced into several files at record boundaries,
each named by the smallest key it contains. A single record larger than the
cap stays inline in its file.
*/
func (rd *Radisk) writeSliced(name string, tree *radix.Tree) error {

	keys, tokens, err := encodeRecords(tree)
	if err != nil {
		return err
	}

	if rd.cache != nil {
		rd.cache.Remove(name)
	}

	var slice []string
	sliceStart := 0
	first := true

	writeSlice := func(end int) error {
		sliceName := name

		if !first {
			sliceName = url.PathEscape(keys[sliceStart])
		}
		first = false

		content := []byte{}
		for _, line := range slice {
			content = append(content, line...)
		}

		sliceStart = end
		slice = nil

		return ioutil.WriteFile(filepath.Join(rd.dir, sliceName), content, 0660)
	}

	sliceBytes := 0
	prev := ""

	for i, token := range tokens {

		line := encodeLine(prev, keys[i], token)

		if sliceBytes > 0 && sliceBytes+len(line) > rd.size {
			if err := writeSlice(i); err != nil {
				return err
			}

			// The first record of a new slice carries its full key

			line = encodeLine("", keys[i], token)
			sliceBytes = 0
		}

		slice = append(slice, line)
		sliceBytes += len(line)
		prev = keys[i]
	}

	return writeSlice(len(tokens))
}

/*
candidateIndex returns the index of the candidate file for a given key.
*/
func candidateIndex(files []storeFile, key string) int {
	idx := sort.Search(len(files), func(i int) bool {
		return files[i].key > key
	})

	if idx > 0 {
		idx--
	}

	return idx
}
