// Copyright 2025 Google LLC
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

package rwlock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroTimeout() *time.Duration {
	d := time.Duration(0)
	return &d
}

func shortTimeout() *time.Duration {
	d := 20 * time.Millisecond
	return &d
}

func TestMultipleReadersAllowed(t *testing.T) {
	l := New()
	require.NoError(t, l.AcquireRead(nil))
	require.NoError(t, l.AcquireRead(nil))
	assert.True(t, l.IsLocked())
	l.ReleaseRead()
	assert.True(t, l.IsLocked())
	l.ReleaseRead()
	assert.False(t, l.IsLocked())
}

func TestWriterExcludesReaders(t *testing.T) {
	l := New()
	require.NoError(t, l.AcquireWrite(nil))

	err := l.AcquireRead(zeroTimeout())
	require.Error(t, err)
	var wb *WouldBlockError
	require.ErrorAs(t, err, &wb)
	assert.True(t, wb.Write)

	l.ReleaseWrite()
	require.NoError(t, l.AcquireRead(zeroTimeout()))
}

func TestReaderExcludesWriter(t *testing.T) {
	l := New()
	require.NoError(t, l.AcquireRead(nil))

	err := l.AcquireWrite(zeroTimeout())
	require.Error(t, err)

	l.ReleaseRead()
	require.NoError(t, l.AcquireWrite(zeroTimeout()))
}

func TestTimeoutExpires(t *testing.T) {
	l := New()
	require.NoError(t, l.AcquireWrite(nil))

	start := time.Now()
	err := l.AcquireRead(shortTimeout())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.GreaterOrEqual(t, elapsed, 15*time.Millisecond)
}

func TestIsLockedSnapshot(t *testing.T) {
	l := New()
	assert.False(t, l.IsLocked())
	require.NoError(t, l.AcquireWrite(nil))
	assert.True(t, l.IsLocked())
	l.ReleaseWrite()
	assert.False(t, l.IsLocked())
}
