/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package config

import (
	"fmt"
	"strconv"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/fileutil"
)

// Global variables
// ================

/*
ProductVersion is the current version of Mesh
*/
const ProductVersion = "1.0.0"

/*
DefaultConfigFile is the default config file which will be used to configure Mesh
*/
var DefaultConfigFile = "mesh.config.json"

/*
Known configuration options for Mesh
*/
const (
	MemoryOnlyStorage         = "MemoryOnlyStorage"
	LocationDatastore         = "LocationDatastore"
	FileSizeBytes             = "FileSizeBytes"
	BatchSizeBytes            = "BatchSizeBytes"
	WriteIntervalMilliseconds = "WriteIntervalMilliseconds"
	EnableStoreCache          = "EnableStoreCache"
	DedupMaxAgeMilliseconds   = "DedupMaxAgeMilliseconds"
	MaxQueueLength            = "MaxQueueLength"
	EnableSecureMode          = "EnableSecureMode"
	GetTimeoutMilliseconds    = "GetTimeoutMilliseconds"
	Port                      = "Port"
	Host                      = "Host"
	Peers                     = "Peers"
	LockFile                  = "LockFile"
	EnableECALScripts         = "EnableECALScripts"
	ECALScriptFolder          = "ECALScriptFolder"
	ECALEntryScript           = "ECALEntryScript"
	ECALLogFile               = "ECALLogFile"
	ECALLogLevel              = "ECALLogLevel"
	ECALWorkerCount           = "ECALWorkerCount"
)

/*
DefaultConfig is the defaut configuration
*/
var DefaultConfig = map[string]interface{}{
	MemoryOnlyStorage:         false,
	LocationDatastore:         "store",
	FileSizeBytes:             "1048576",
	BatchSizeBytes:            "262144",
	WriteIntervalMilliseconds: "1",
	EnableStoreCache:          false,
	DedupMaxAgeMilliseconds:   "9000",
	MaxQueueLength:            "1000",
	EnableSecureMode:          false,
	GetTimeoutMilliseconds:    "100",
	Host:                      "localhost",
	Port:                      "8765",
	Peers:                     []interface{}{},
	LockFile:                  "mesh.lck",
	EnableECALScripts:         false,
	ECALScriptFolder:          "scripts",
	ECALEntryScript:           "main.ecal",
	ECALLogFile:               "",
	ECALLogLevel:              "info",
	ECALWorkerCount:           1,
}

/*
Config is the actual config which is used
*/
var Config map[string]interface{}

/*
LoadConfigFile loads a given config file. If the config file does not exist it is
created with the default options.
*/
func LoadConfigFile(configfile string) error {
	var err error

	Config, err = fileutil.LoadConfig(configfile, DefaultConfig)

	return err
}

/*
LoadDefaultConfig loads the default configuration.
*/
func LoadDefaultConfig() {
	data := make(map[string]interface{})
	for k, v := range DefaultConfig {
		data[k] = v
	}

	Config = data
}

// Helper functions
// ================

/*
Str reads a config value as a string value.
*/
func Str(key string) string {
	return fmt.Sprint(Config[key])
}

/*
Int reads a config value as an int value.
*/
func Int(key string) int64 {
	ret, err := strconv.ParseInt(fmt.Sprint(Config[key]), 10, 64)

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}

/*
Bool reads a config value as a boolean value.
*/
func Bool(key string) bool {
	ret, err := strconv.ParseBool(fmt.Sprint(Config[key]))

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}

/*
StrList reads a config value as a list of strings.
*/
func StrList(key string) []string {
	var ret []string

	if entries, ok := Config[key].([]interface{}); ok {
		for _, e := range entries {
			ret = append(ret, fmt.Sprint(e))
		}
	}

	return ret
}
