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

package storage

import (
	"testing"

	"github.com/jacobsa/memfs/internal/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomAccessWriteAndRead(t *testing.T) {
	mgr := quota.NewManager(0)
	r := NewRandomAccess(mgr)

	_, err := r.WriteAt(0, []byte("hello"))
	require.NoError(t, err)

	got, err := r.ReadAt(0, -1)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.EqualValues(t, 5, r.Size())
	assert.EqualValues(t, 5, r.QuotaUsage())
}

func TestRandomAccessWriteGapZeroFills(t *testing.T) {
	mgr := quota.NewManager(0)
	r := NewRandomAccess(mgr)

	_, err := r.WriteAt(5, []byte("x"))
	require.NoError(t, err)

	got, err := r.ReadAt(0, -1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 'x'}, got)
}

func TestRandomAccessOverwriteInPlaceDoesNotReReserve(t *testing.T) {
	mgr := quota.NewManager(10)
	r := NewRandomAccess(mgr)

	_, err := r.WriteAt(0, []byte("hello"))
	require.NoError(t, err)

	_, err = r.WriteAt(0, []byte("H"))
	require.NoError(t, err)

	got, err := r.ReadAt(0, -1)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(got))
}

func TestRandomAccessReadPastEndReturnsNil(t *testing.T) {
	mgr := quota.NewManager(0)
	r := NewRandomAccess(mgr)

	_, err := r.WriteAt(0, []byte("hi"))
	require.NoError(t, err)

	got, err := r.ReadAt(10, -1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRandomAccessNegativeOffsetRejected(t *testing.T) {
	mgr := quota.NewManager(0)
	r := NewRandomAccess(mgr)

	_, err := r.WriteAt(-1, []byte("x"))
	require.Error(t, err)
	var offsetErr *OffsetError
	require.ErrorAs(t, err, &offsetErr)

	_, err = r.ReadAt(-1, -1)
	require.Error(t, err)
	require.ErrorAs(t, err, &offsetErr)
}

func TestRandomAccessQuotaExceeded(t *testing.T) {
	mgr := quota.NewManager(3)
	r := NewRandomAccess(mgr)

	_, err := r.WriteAt(0, []byte("hello"))
	require.Error(t, err)
	var exceeded *quota.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.EqualValues(t, 0, r.Size())
}

func TestRandomAccessBulkLoadBypassesQuota(t *testing.T) {
	mgr := quota.NewManager(1)
	r := NewRandomAccess(mgr)

	require.NoError(t, r.BulkLoad([]byte("much more than one byte")))
	assert.EqualValues(t, len("much more than one byte"), r.Size())

	_, used, _ := mgr.Snapshot()
	assert.EqualValues(t, 0, used)
}

func TestRandomAccessTruncateGrow(t *testing.T) {
	mgr := quota.NewManager(0)
	r := NewRandomAccess(mgr)

	_, err := r.WriteAt(0, []byte("ab"))
	require.NoError(t, err)
	require.NoError(t, r.Truncate(5))

	got, err := r.ReadAt(0, -1)
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 0, 0, 0}, got)
}

func TestRandomAccessTruncateShrinkReleasesMemory(t *testing.T) {
	mgr := quota.NewManager(0)
	r := NewRandomAccess(mgr)

	big := make([]byte, 1000)
	_, err := r.WriteAt(0, big)
	require.NoError(t, err)

	require.NoError(t, r.Truncate(10))
	assert.EqualValues(t, 10, r.Size())
	assert.Equal(t, 10, cap(r.buf))

	_, used, _ := mgr.Snapshot()
	assert.EqualValues(t, 10, used)
}

func TestRandomAccessTruncateShrinkAboveQuarterKeepsSlice(t *testing.T) {
	mgr := quota.NewManager(0)
	r := NewRandomAccess(mgr)

	_, err := r.WriteAt(0, make([]byte, 100))
	require.NoError(t, err)

	require.NoError(t, r.Truncate(50))
	assert.EqualValues(t, 50, r.Size())
	assert.Equal(t, 100, cap(r.buf))
}

func TestRandomAccessTruncateToZero(t *testing.T) {
	mgr := quota.NewManager(0)
	r := NewRandomAccess(mgr)

	_, err := r.WriteAt(0, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, r.Truncate(0))

	assert.EqualValues(t, 0, r.Size())
	assert.Nil(t, r.buf)
}
