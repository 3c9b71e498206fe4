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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleWriteOnReadOnlyFails(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	writeFile(t, fsys, "/f", []byte("x"))

	f, err := fsys.Open("/f", ModeRead, 0, nil)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("y"))
	require.Error(t, err)
	var unsupported *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
}

func TestHandleReadOnWriteOnlyFails(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	f, err := fsys.Open("/f", ModeWrite, 0, nil)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Read(-1)
	require.Error(t, err)
	var unsupported *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
}

func TestHandleOperationsAfterCloseFail(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	f, err := fsys.Open("/f", ModeWrite, 0, nil)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close()) // idempotent

	_, err = f.Write([]byte("x"))
	require.Error(t, err)

	_, err = f.Seek(0, SeekSet)
	require.Error(t, err)

	err = f.Truncate(0)
	require.Error(t, err)
}

func TestHandleSeekSetNegativeFails(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	writeFile(t, fsys, "/f", []byte("hello"))

	f, err := fsys.Open("/f", ModeReadWrite, 0, nil)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Seek(-1, SeekSet)
	require.Error(t, err)
	var invalid *InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}

func TestHandleSeekEndPositiveOffsetFails(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	writeFile(t, fsys, "/f", []byte("hello"))

	f, err := fsys.Open("/f", ModeReadWrite, 0, nil)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Seek(1, SeekEnd)
	require.Error(t, err)
	var invalid *InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}

func TestHandleSeekEndNegativeOffsetOK(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	writeFile(t, fsys, "/f", []byte("hello"))

	f, err := fsys.Open("/f", ModeReadWrite, 0, nil)
	require.NoError(t, err)
	defer f.Close()

	pos, err := f.Seek(-2, SeekEnd)
	require.NoError(t, err)
	assert.EqualValues(t, 3, pos)
}

func TestHandleSeekCurNegativeResultFails(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	writeFile(t, fsys, "/f", []byte("hello"))

	f, err := fsys.Open("/f", ModeReadWrite, 0, nil)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Seek(-1, SeekCur)
	require.Error(t, err)
	var invalid *InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}

func TestHandleAppendIgnoresPriorSeek(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	writeFile(t, fsys, "/f", []byte("hello"))

	f, err := fsys.Open("/f", ModeAppend, 0, nil)
	require.NoError(t, err)
	_, err = f.Seek(0, SeekSet)
	require.NoError(t, err)
	n, err := f.Write([]byte("!"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, f.Close())

	assert.Equal(t, []byte("hello!"), readFile(t, fsys, "/f"))
}

func TestHandleReadClampsAtEOF(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	writeFile(t, fsys, "/f", []byte("hi"))

	f, err := fsys.Open("/f", ModeRead, 0, nil)
	require.NoError(t, err)
	defer f.Close()

	data, err := f.Read(100)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), data)

	data, err = f.Read(100)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestHandleTellTracksCursor(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	writeFile(t, fsys, "/f", []byte("hello"))

	f, err := fsys.Open("/f", ModeRead, 0, nil)
	require.NoError(t, err)
	defer f.Close()

	assert.EqualValues(t, 0, f.Tell())
	_, err = f.Read(3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, f.Tell())
}

func TestHandleTruncateGrowZeroFills(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	writeFile(t, fsys, "/f", []byte("hi"))

	f, err := fsys.Open("/f", ModeReadWrite, 0, nil)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(5))
	require.NoError(t, f.Close())

	assert.Equal(t, []byte{'h', 'i', 0, 0, 0}, readFile(t, fsys, "/f"))
}

func TestHandlePreallocateOnOpen(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	f, err := fsys.Open("/f", ModeWrite, 10, nil)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	size, err := fsys.GetSize("/f")
	require.NoError(t, err)
	assert.EqualValues(t, 10, size)
}

func TestHandleZeroTimeoutWouldBlockWhenContended(t *testing.T) {
	fsys := newTestFilesystem(t, 0)
	writeFile(t, fsys, "/f", []byte("x"))

	writer, err := fsys.Open("/f", ModeReadWrite, 0, nil)
	require.NoError(t, err)
	defer writer.Close()

	zero := time.Duration(0)
	_, err = fsys.Open("/f", ModeRead, 0, &zero)
	require.Error(t, err)
	var wb *WouldBlockError
	require.ErrorAs(t, err, &wb)
}
