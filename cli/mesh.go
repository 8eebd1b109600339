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
Mesh is a peer-to-peer, offline-first graph database.

Features:

- Globally addressed key/value graph which is synchronized across many peers.

- Last-writer-wins conflict resolution with per-field logical clocks.

- Subscription-driven replication over websockets.

- Packed radix file storage with size-capped files.
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/mesh/config"
	"devt.de/krotik/mesh/server"
)

/*
Main entry point for Mesh.
*/
func main() {
	var err error

	// Initialize the default command line parser

	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)

	// Define default usage message

	flag.Usage = func() {

		// Print usage for tool selection

		fmt.Println(fmt.Sprintf("Usage of %s [options]", os.Args[0]))
		fmt.Println()
		flag.CommandLine.PrintDefaults()
	}

	configFile := flag.String("conf", config.DefaultConfigFile, "Configuration file")
	showHelp := flag.Bool("help", false, "Show this help message")

	flag.Parse()

	if *showHelp {
		flag.Usage()
		return
	}

	fmt.Println(fmt.Sprintf("Mesh %v", config.ProductVersion))

	// Load configuration - it is created with the default options if it
	// does not exist

	if ok, _ := fileutil.PathExists(*configFile); ok {
		fmt.Println(fmt.Sprintf("Using config: %s", *configFile))
	} else {
		fmt.Println(fmt.Sprintf("Creating config: %s", *configFile))
	}

	if err = config.LoadConfigFile(*configFile); err != nil {
		fmt.Println(fmt.Sprintf("Error: %v", err))
		return
	}

	server.StartServer()
}
