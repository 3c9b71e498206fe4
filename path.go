// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memfs

import "strings"

// NormalizePath converts a caller-supplied path to the canonical
// internal form: backslashes become slashes, empty input means the
// root, "." segments vanish, ".." segments collapse against the
// preceding one, and the result is always an absolute POSIX-style
// string starting with "/". A ".." that would walk above the root
// fails with *InvalidArgumentError. This is the sole key used for
// node lookup; callers never see or compare unnormalized paths.
func NormalizePath(path string) (string, error) {
	path = strings.ReplaceAll(path, "\\", "/")

	var out []string
	depth := 0
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			depth--
			if depth < 0 {
				return "", NewInvalidArgumentError("path traverses above root: " + path)
			}
			out = out[:len(out)-1]
		default:
			depth++
			out = append(out, seg)
		}
	}

	return "/" + strings.Join(out, "/"), nil
}
