// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package ingest

import "errors"

// Connector failures are classified at the connector boundary. All of them
// abort a single connector invocation; none of them abort the run.
var (
	// ErrFetch covers network errors, timeouts, and non-success status codes
	// from an external endpoint.
	ErrFetch = errors.New("fetch failed")

	// ErrParse covers an unparseable payload at the whole-response level.
	ErrParse = errors.New("parse failed")

	// ErrPersist covers a failed transaction commit; the connector's batch is
	// rolled back as a unit.
	ErrPersist = errors.New("persist failed")

	// ErrNotFound is returned by Store lookups when no row matches.
	ErrNotFound = errors.New("not found")
)
