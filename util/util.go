/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package util has a few logging utilities.
package util

import (
	"io"
	stdlog "log"
	"os"

	"github.com/charmbracelet/log"
)

// Logging is a clumsy switch that affects what Logf does.
//
// If Logging is true, then Logf writes to Logger at Info level.
var Logging = false

// Logger is the logger everything here uses.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "sutra",
})

// SetOutput redirects Logger.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetVerbose turns on Logging and debug-level output.
func SetVerbose(verbose bool) {
	Logging = verbose
	if verbose {
		Logger.SetLevel(log.DebugLevel)
	} else {
		Logger.SetLevel(log.InfoLevel)
	}
}

// Logf is a silly utility function that logs if Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	Logger.Infof(format, args...)
}

// Debug logs a message with key/value pairs at debug level if
// Logging is true.
func Debug(msg string, keyvals ...interface{}) {
	if !Logging {
		return
	}
	Logger.Debug(msg, keyvals...)
}

// Warn always logs.
func Warn(msg string, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Info always logs.
func Info(msg string, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Error always logs.
func Error(msg string, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// StandardLog adapts Logger for libraries that want a standard
// library logger.  Everything written to it is logged at the given
// level.
func StandardLog(prefix string, level log.Level) *stdlog.Logger {
	return Logger.WithPrefix(prefix).StandardLog(log.StandardLogOptions{
		ForceLevel: level,
	})
}
