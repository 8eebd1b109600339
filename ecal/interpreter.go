/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package ecal

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/ecal/cli/tool"
	ecalconfig "devt.de/krotik/ecal/config"
	"devt.de/krotik/ecal/stdlib"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/mesh/config"
	"devt.de/krotik/mesh/ecal/dbfunc"
	"devt.de/krotik/mesh/wire"
)

/*
ScriptingInterpreter models an ECAL script interpreter instance.
*/
type ScriptingInterpreter struct {
	W           *wire.Wire           // Wire instance for the interpreter
	Interpreter *tool.CLIInterpreter // ECAL Interpreter object

	Dir       string // Root dir for interpreter
	EntryFile string // Entry file for the program
	LogLevel  string // Log level string (Debug, Info, Error)
	LogFile   string // Logfile (blank for stdout)
}

/*
NewScriptingInterpreter returns a new ECAL scripting interpreter.
*/
func NewScriptingInterpreter(scriptFolder string, w *wire.Wire) *ScriptingInterpreter {
	return &ScriptingInterpreter{
		W:         w,
		Dir:       scriptFolder,
		EntryFile: filepath.Join(scriptFolder, config.Str(config.ECALEntryScript)),
		LogLevel:  config.Str(config.ECALLogLevel),
		LogFile:   config.Str(config.ECALLogFile),
	}
}

/*
dummyEntryFile is a small valid ECAL which does not do anything. It is used
as the default entry file if no entry file exists.
*/
const dummyEntryFile = `0 # Write your ECAL code here
`

/*
Run runs the ECAL scripting interpreter.

After this function completes:
- EntryScript in config and all related scripts in the interpreter root dir have been executed
- ECAL Interpreter object is fully initialized
- ECAL's event processor has been started
- Accepted graph changes are being forwarded to ECAL
*/
func (si *ScriptingInterpreter) Run() error {
	var err error

	// Ensure we have a dummy entry point

	if ok, _ := fileutil.PathExists(si.EntryFile); !ok {
		err = ioutil.WriteFile(si.EntryFile, []byte(dummyEntryFile), 0600)
	}

	if err == nil {
		i := tool.NewCLIInterpreter()
		si.Interpreter = i

		// Set worker count in ecal config

		ecalconfig.Config[ecalconfig.WorkerCount] = config.Config[config.ECALWorkerCount]

		i.Dir = &si.Dir
		i.LogFile = &si.LogFile
		i.LogLevel = &si.LogLevel

		i.EntryFile = si.EntryFile
		i.LoadPlugins = true

		i.CreateRuntimeProvider("mesh-runtime")

		// Adding functions

		AddMeshStdlibFunctions(si.W)

		if err == nil {
			err = i.Interpret(false)

			// Accepted graph changes are now forwarded to ECAL via the
			// eventbridge

			si.W.SetChangeHandler((&EventBridge{
				Processor: i.RuntimeProvider.Processor,
				Logger:    i.RuntimeProvider.Logger,
			}).HandleChange)
		}
	}

	// Include a traceback if possible

	if ss, ok := err.(util.TraceableRuntimeError); ok {
		err = fmt.Errorf("%v\n  %v", err.Error(), strings.Join(ss.GetTraceString(), "\n  "))
	}

	return err
}

/*
AddMeshStdlibFunctions adds mesh related ECAL stdlib functions.
*/
func AddMeshStdlibFunctions(w *wire.Wire) {
	stdlib.AddStdlibPkg("db", "Mesh related functions")

	stdlib.AddStdlibFunc("db", "put", &dbfunc.PutFunc{W: w})
	stdlib.AddStdlibFunc("db", "get", &dbfunc.GetFunc{W: w})
	stdlib.AddStdlibFunc("db", "subscribe", &dbfunc.SubscribeFunc{W: w})
	stdlib.AddStdlibFunc("db", "peers", &dbfunc.PeersFunc{W: w})
}
