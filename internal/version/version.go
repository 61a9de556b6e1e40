/*
 * Copyright 2026 The Kanso Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package version provides the version information of Kanso.
package version

import "fmt"

// At build time, the versions is replaced with the current version using the -X linker flag
var (
	// Version is the main version number that is being run at the moment.
	Version = "0.1.0"

	// GitCommit is the commit the executable was built from.
	GitCommit string

	// BuildDate is the date the executable was built.
	BuildDate string
)

// String returns a one-line description of the running build.
func String() string {
	commit := GitCommit
	if commit == "" {
		commit = "unknown"
	}
	date := BuildDate
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("Kanso %s (commit %s, built %s)", Version, commit, date)
}
