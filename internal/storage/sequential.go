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
	"sort"

	"github.com/jacobsa/memfs/internal/quota"
)

// Sequential is an append-optimized backend: an ordered run of
// immutable byte chunks plus a prefix-sum index of their cumulative end
// offsets, giving O(log N) random reads without ever rewriting a chunk
// in place. A write at any offset other than the current end signals
// promotion to RandomAccess.
type Sequential struct {
	mgr            *quota.Manager
	overhead       int64
	hardLimit      int64
	allowPromotion bool

	chunks     [][]byte
	cumulative []int64
	size       int64
}

// NewSequential returns an empty Sequential backend. hardLimit <= 0
// means DefaultPromotionHardLimit.
func NewSequential(mgr *quota.Manager, overhead int64, hardLimit int64, allowPromotion bool) *Sequential {
	if hardLimit <= 0 {
		hardLimit = DefaultPromotionHardLimit
	}
	return &Sequential{
		mgr:            mgr,
		overhead:       overhead,
		hardLimit:      hardLimit,
		allowPromotion: allowPromotion,
	}
}

// CheckInvariants panics if size != cumulative[last] or the chunk and
// cumulative slices have diverged in length.
func (s *Sequential) CheckInvariants() {
	if len(s.chunks) != len(s.cumulative) {
		panic("Sequential: len(chunks) != len(cumulative)")
	}
	if len(s.cumulative) > 0 && s.cumulative[len(s.cumulative)-1] != s.size {
		panic("Sequential: size does not match last cumulative entry")
	}
}

// Size returns the current content length.
func (s *Sequential) Size() int64 {
	return s.size
}

// QuotaUsage is the content size plus the per-chunk overhead for every
// chunk currently held.
func (s *Sequential) QuotaUsage() int64 {
	return s.size + int64(len(s.chunks))*s.overhead
}

// ChunkCount returns the number of chunks currently held. Stats()
// sums this across every Sequential-backed file; a promoted file
// reports zero because it no longer has a Sequential backend.
func (s *Sequential) ChunkCount() int64 {
	return int64(len(s.chunks))
}

// chunkAt returns the index of the chunk containing byte offset off,
// found via binary search over the cumulative prefix sums.
func (s *Sequential) chunkAt(off int64) int {
	return sort.Search(len(s.cumulative), func(i int) bool {
		return s.cumulative[i] > off
	})
}

// ReadAt returns up to size bytes from offset. A negative size returns
// the suffix from offset to the end of the content.
func (s *Sequential) ReadAt(offset int64, size int64) ([]byte, error) {
	if offset < 0 {
		return nil, &OffsetError{Offset: offset}
	}
	if offset >= s.size {
		return nil, nil
	}

	want := size
	if want < 0 {
		want = s.size - offset
	}

	out := make([]byte, 0, want)
	idx := s.chunkAt(offset)
	pos := offset

	for idx < len(s.chunks) && int64(len(out)) < want {
		chunkStart := s.cumulative[idx] - int64(len(s.chunks[idx]))
		chunk := s.chunks[idx]
		start := pos - chunkStart
		end := int64(len(chunk))
		if remaining := want - int64(len(out)); end-start > remaining {
			end = start + remaining
		}
		out = append(out, chunk[start:end]...)
		pos = chunkStart + end
		idx++
	}

	return out, nil
}

// WriteAt appends data when offset equals the current size. A write at
// any other offset promotes this file to a RandomAccess backend: the
// existing chunks are concatenated into a fresh buffer, the buffer's
// byte count is reserved up front (temporarily doubling the accounted
// footprint for this file), the chunk overhead is released since the
// random-access backend has none, and the original write is forwarded
// to the new backend. The caller adopts WriteResult.Replacement and
// releases WriteResult.ReplacedFootprint once it has done so.
func (s *Sequential) WriteAt(offset int64, data []byte) (WriteResult, error) {
	if offset != s.size {
		return s.promoteAndWrite(offset, data)
	}

	if len(data) == 0 {
		return WriteResult{Written: 0}, nil
	}

	delta := int64(len(data)) + s.overhead
	r, err := s.mgr.Reserve(delta)
	if err != nil {
		return WriteResult{}, err
	}

	chunk := append([]byte(nil), data...)
	s.chunks = append(s.chunks, chunk)
	s.size += int64(len(data))
	s.cumulative = append(s.cumulative, s.size)
	r.Commit()

	return WriteResult{Written: len(data)}, nil
}

func (s *Sequential) promoteAndWrite(offset int64, data []byte) (WriteResult, error) {
	if !s.allowPromotion {
		return WriteResult{}, &UnsupportedOperationError{
			Reason: "non-tail write on a sequential file with promotion disabled",
		}
	}
	if s.size > s.hardLimit {
		return WriteResult{}, &UnsupportedOperationError{
			Reason: "file exceeds the promotion hard limit",
		}
	}

	r, err := s.mgr.Reserve(s.size)
	if err != nil {
		return WriteResult{}, err
	}

	buf := make([]byte, s.size)
	pos := int64(0)
	for _, c := range s.chunks {
		copy(buf[pos:], c)
		pos += int64(len(c))
	}

	replacement := &RandomAccess{mgr: s.mgr, buf: buf}

	writeResult, err := replacement.WriteAt(offset, data)
	if err != nil {
		// Nothing has been handed to the caller: give back the
		// copy's reservation and leave this backend in place.
		r.Release()
		return WriteResult{}, err
	}
	r.Commit()

	// Release the overhead the old representation was charging; the
	// size portion stays double-counted until the caller adopts the
	// replacement and releases ReplacedFootprint.
	s.mgr.Release(int64(len(s.chunks)) * s.overhead)

	return WriteResult{
		Written:           writeResult.Written,
		Replacement:       replacement,
		ReplacedFootprint: s.size,
	}, nil
}

// BulkLoad replaces the content with a single chunk holding a copy of
// data (or no chunks at all for empty data), bypassing the quota
// manager entirely.
func (s *Sequential) BulkLoad(data []byte) error {
	if len(data) == 0 {
		s.chunks = nil
		s.cumulative = nil
		s.size = 0
		return nil
	}

	chunk := append([]byte(nil), data...)
	s.chunks = [][]byte{chunk}
	s.cumulative = []int64{int64(len(chunk))}
	s.size = int64(len(chunk))
	return nil
}

// Truncate resizes the content. Shrinking concatenates the remaining
// chunks into one (or clears them for size 0) and releases the byte and
// chunk-overhead delta. Growth delegates to WriteAt's zero-fill tail
// append, since growth is always an append at the current size.
func (s *Sequential) Truncate(size int64) error {
	if size == s.size {
		return nil
	}

	if size > s.size {
		_, err := s.WriteAt(s.size, make([]byte, size-s.size))
		return err
	}

	oldChunkCount := int64(len(s.chunks))
	oldSize := s.size

	if size == 0 {
		s.chunks = nil
		s.cumulative = nil
		s.size = 0
	} else {
		kept, err := s.ReadAt(0, size)
		if err != nil {
			return err
		}
		s.chunks = [][]byte{kept}
		s.cumulative = []int64{size}
		s.size = size
	}

	byteDelta := oldSize - size
	overheadDelta := (oldChunkCount - int64(len(s.chunks))) * s.overhead
	s.mgr.Release(byteDelta + overheadDelta)

	return nil
}
