/* Copyright 2019 Comcast Cable Communications Management, LLC
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


package sio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
)

// JS renders its argument as JSON or as '%#v'.
func JS(x interface{}) string {
	if x == nil {
		return "null"
	}
	js, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(js)
}

// Short truncates s to n bytes (plus "...").
func Short(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var shell = regexp.MustCompile(`<<(.*?)>>`)

// ShellExpand replaces each '<<cmd>>' in the line with the output of
// running cmd with bash.  Use at your own risk, of course!
func ShellExpand(line string) (string, error) {
	var failed error
	expanded := shell.ReplaceAllStringFunc(line, func(s string) string {
		if failed != nil {
			return s
		}
		sh := shell.FindStringSubmatch(s)[1]
		var out bytes.Buffer
		cmd := exec.Command("bash", "-c", sh)
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			failed = fmt.Errorf("shell error %s on %s", err, sh)
			return s
		}
		return out.String()
	})
	return expanded, failed
}
