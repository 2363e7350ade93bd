/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package version

import (
	"strings"
	"testing"
)

func TestVersionStringNonEmpty(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
}

func TestVersionStringIncludesLdflags(t *testing.T) {
	oldC, oldD := Commit, BuildDate
	defer func() { Commit, BuildDate = oldC, oldD }()
	Commit, BuildDate = "abc1234", "2025-01-02"
	s := String()
	if !strings.Contains(s, Version) || !strings.Contains(s, "(abc1234)") || !strings.HasSuffix(s, "built 2025-01-02") {
		t.Fatalf("unexpected version string: %q", s)
	}
}
