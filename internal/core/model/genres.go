// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"encoding/json"
	"log/slog"
	"sort"
)

// ParseNameMap deserializes one of the corpus's serialized mapping columns
// (genres, languages, countries) into a key-to-display-name map. The corpus
// stores these as JSON objects, e.g.
//
//	{"/m/02kdv5l": "Action", "/m/03q4nz": "Adventure"}
//
// The parser is strict: anything that is not a JSON object of strings is an
// error. It never executes or interprets the text in any other way.
func ParseNameMap(raw string) (map[string]string, error) {
	out := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveNames turns a raw serialized mapping cell into a sorted slice of
// display names. A null cell yields an empty slice. A malformed cell also
// yields an empty slice: the failure is logged for diagnostics but never
// propagated, so one bad row cannot poison a load or a lookup.
func ResolveNames(column string, raw *string) []string {
	if raw == nil {
		return []string{}
	}
	m, err := ParseNameMap(*raw)
	if err != nil {
		slog.Warn("failed to parse serialized name mapping",
			"column", column,
			"error", err)
		return []string{}
	}
	names := make([]string, 0, len(m))
	for _, v := range m {
		names = append(names, v)
	}
	// Map iteration order is randomized; sort so repeated loads and lookups
	// return identical output.
	sort.Strings(names)
	return names
}
