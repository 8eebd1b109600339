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
Package server contains the code for the Mesh server.
*/
package server

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"devt.de/krotik/common/cryptutil"
	"devt.de/krotik/common/datautil"
	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/common/flowutil"
	"devt.de/krotik/common/lockutil"
	"devt.de/krotik/common/timeutil"
	"devt.de/krotik/mesh/config"
	"devt.de/krotik/mesh/ecal"
	"devt.de/krotik/mesh/graph/graphstorage"
	"devt.de/krotik/mesh/transport"
	"devt.de/krotik/mesh/wire"
)

/*
Using custom consolelogger type so we can test log.Fatal calls with unit tests. Overwrite
these if the server should not call os.Exit on a fatal error.
*/
type consolelogger func(v ...interface{})

var fatal = consolelogger(log.Fatal)
var print = consolelogger(log.Print)

/*
Base path for all files (used by unit tests)
*/
var basepath = ""

/*
EventLog is a ring buffer of recent transport events.
*/
var EventLog = datautil.NewRingBuffer(100)

/*
StartServer runs the Mesh server. The server uses config.Config for all its
configuration parameters.
*/
func StartServer() {
	StartServerWithSingleOp(nil)
}

/*
StartServerWithSingleOp runs the Mesh server. If the singleOperation function
is not nil then the server executes the function and exits if the function
returns true.
*/
func StartServerWithSingleOp(singleOperation func(*wire.Wire) bool) {
	var err error
	var gs graphstorage.Storage

	print(fmt.Sprintf("Mesh %v", config.ProductVersion))

	// Ensure we have a configuration - use the default configuration if nothing was set

	if config.Config == nil {
		config.LoadDefaultConfig()
	}

	// Create graph storage

	if config.Bool(config.MemoryOnlyStorage) {

		print("Starting memory only datastore")

		gs = graphstorage.NewMemoryGraphStorage(config.MemoryOnlyStorage)

	} else {

		loc := filepath.Join(basepath, config.Str(config.LocationDatastore))

		print("Starting datastore in ", loc)

		gs, err = graphstorage.NewDiskGraphStorage(loc,
			int(config.Int(config.FileSizeBytes)),
			int(config.Int(config.BatchSizeBytes)),
			time.Duration(config.Int(config.WriteIntervalMilliseconds))*time.Millisecond,
			config.Bool(config.EnableStoreCache))

		if err != nil {
			fatal(err)
			return
		}
	}

	// Create the wire instance - the peer id is fresh for every start and
	// announced to other peers with the handshake

	peerID := fmt.Sprintf("%x", cryptutil.GenerateUUID())

	pump := flowutil.NewEventPump()

	w := wire.NewWire(peerID, gs, pump, &wire.Config{
		Secure:           config.Bool(config.EnableSecureMode),
		Wait:             time.Duration(config.Int(config.GetTimeoutMilliseconds)) * time.Millisecond,
		DedupMaxAge:      time.Duration(config.Int(config.DedupMaxAgeMilliseconds)) * time.Millisecond,
		MaxQueueLength:   int(config.Int(config.MaxQueueLength)),
		RateLimitCleanup: true,
	})

	print("Creating wire instance with id ", peerID)

	w.Start()

	defer func() {

		print("Closing datastore")

		w.Shutdown()

		if err := gs.Close(); err != nil {
			fatal(err)
			return
		}

		os.RemoveAll(filepath.Join(basepath, config.Str(config.LockFile)))
	}()

	// Log transport events

	logEvent := func(event string, eventSource interface{}) {
		if conn, ok := eventSource.(*transport.Conn); ok {
			EventLog.Log(timeutil.MakeTimestamp(), " ", event, " ", conn.ID)
		}
	}
	pump.AddObserver(transport.EventConnected, nil, logEvent)
	pump.AddObserver(transport.EventDisconnected, nil, logEvent)

	// Handle single operation - these are operations which work on the wire
	// instance and then exit.

	if singleOperation != nil && singleOperation(w) {
		return
	}

	// Start the server transport

	addr := config.Str(config.Host) + ":" + config.Str(config.Port)

	ws := transport.NewWSServer(addr, pump)
	ws.SetMessageHandler(w.Receive)

	if err := ws.Start(); err != nil {
		fatal("Failed to start websocket server:", err)
		return
	}

	defer ws.Stop()

	print("Serving websockets on ", addr, transport.WSEndpoint)

	// Connect upstream peers

	for _, peerAddr := range config.StrList(config.Peers) {

		client := transport.NewWSClient(pump)
		client.SetMessageHandler(w.Receive)

		if err := client.Connect(peerAddr); err != nil {
			print("Could not connect to peer ", peerAddr, ": ", err)
		} else {
			print("Connected to peer ", peerAddr)
		}
	}

	// Start the ECAL scripting interpreter

	if config.Bool(config.EnableECALScripts) {

		scriptFolder := filepath.Join(basepath, config.Str(config.ECALScriptFolder))

		print("Loading ECAL scripts in ", scriptFolder)

		ensurePath(scriptFolder)

		si := ecal.NewScriptingInterpreter(scriptFolder, w)

		if err := si.Run(); err != nil {
			fatal("Failed to start ECAL scripts:", err)
			return
		}
	}

	// Create a lockfile so the server can be shut down

	lf := lockutil.NewLockFile(filepath.Join(basepath,
		config.Str(config.LockFile)), time.Duration(2)*time.Second)

	lf.Start()

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {

		// Check if the lockfile watcher is running and
		// call shutdown once it has finished

		for lf.WatcherRunning() {
			time.Sleep(time.Duration(1) * time.Second)
		}

		print("Lockfile was modified")

		wg.Done()
	}()

	print("Waiting for shutdown")
	wg.Wait()

	print("Shutting down")
}

/*
ensurePath ensures that a given relative path exists.
*/
func ensurePath(path string) {
	if res, _ := fileutil.PathExists(path); !res {
		if err := os.Mkdir(path, 0770); err != nil {
			fatal("Could not create directory:", err.Error())
			return
		}
	}
}
