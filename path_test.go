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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePathEmptyIsRoot(t *testing.T) {
	p, err := NormalizePath("")
	require.NoError(t, err)
	assert.Equal(t, "/", p)
}

func TestNormalizePathBackslashesBecomeSlashes(t *testing.T) {
	p, err := NormalizePath(`a\b\c`)
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", p)
}

func TestNormalizePathCollapsesDotAndDotDot(t *testing.T) {
	p, err := NormalizePath("/a/./b/../c")
	require.NoError(t, err)
	assert.Equal(t, "/a/c", p)
}

func TestNormalizePathCollapsesRedundantSeparators(t *testing.T) {
	p, err := NormalizePath("//a///b//")
	require.NoError(t, err)
	assert.Equal(t, "/a/b", p)
}

func TestNormalizePathAboveRootFails(t *testing.T) {
	_, err := NormalizePath("/a/../../b")
	require.Error(t, err)
	var invalid *InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}

func TestNormalizePathDotDotAtRootFails(t *testing.T) {
	_, err := NormalizePath("..")
	require.Error(t, err)
	var invalid *InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}
