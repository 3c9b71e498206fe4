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

import "github.com/jacobsa/memfs/internal/quota"

// RandomAccess is a contiguous, growable byte buffer supporting
// arbitrary-offset writes with zero-fill of any gap. It carries no
// per-chunk bookkeeping overhead, unlike Sequential.
type RandomAccess struct {
	mgr *quota.Manager
	buf []byte
}

// NewRandomAccess returns an empty RandomAccess backend.
func NewRandomAccess(mgr *quota.Manager) *RandomAccess {
	return &RandomAccess{mgr: mgr}
}

// CheckInvariants is a no-op: a single buffer has no internal structure
// to violate.
func (r *RandomAccess) CheckInvariants() {}

// Size returns the current buffer length.
func (r *RandomAccess) Size() int64 {
	return int64(len(r.buf))
}

// QuotaUsage equals Size: no management overhead.
func (r *RandomAccess) QuotaUsage() int64 {
	return int64(len(r.buf))
}

// ReadAt returns up to size bytes from offset. A negative size returns
// the suffix from offset to the end of the buffer.
func (r *RandomAccess) ReadAt(offset int64, size int64) ([]byte, error) {
	if offset < 0 {
		return nil, &OffsetError{Offset: offset}
	}
	if offset >= int64(len(r.buf)) {
		return nil, nil
	}

	end := int64(len(r.buf))
	if size >= 0 && offset+size < end {
		end = offset + size
	}

	out := make([]byte, end-offset)
	copy(out, r.buf[offset:end])
	return out, nil
}

// WriteAt writes data at offset, zero-filling any gap between the
// current length and offset and reserving quota only for the net new
// bytes the buffer must grow by. An in-place overwrite never reserves.
func (r *RandomAccess) WriteAt(offset int64, data []byte) (WriteResult, error) {
	if offset < 0 {
		return WriteResult{}, &OffsetError{Offset: offset}
	}

	end := offset + int64(len(data))
	if end > int64(len(r.buf)) {
		delta := end - int64(len(r.buf))
		res, err := r.mgr.Reserve(delta)
		if err != nil {
			return WriteResult{}, err
		}

		grown := make([]byte, end)
		copy(grown, r.buf)
		r.buf = grown
		res.Commit()
	}

	copy(r.buf[offset:end], data)
	return WriteResult{Written: len(data)}, nil
}

// BulkLoad replaces the buffer with a copy of data, bypassing the
// quota manager entirely.
func (r *RandomAccess) BulkLoad(data []byte) error {
	r.buf = append([]byte(nil), data...)
	return nil
}

// Truncate resizes the buffer to size bytes. Growth zero-fills and
// quota-checks the delta. Shrinking releases the delta from quota and,
// when the new size is at most 25% of the prior length, reallocates to
// a minimally sized buffer so the host allocator actually reclaims the
// memory rather than merely shortening the slice's length.
func (r *RandomAccess) Truncate(size int64) error {
	cur := int64(len(r.buf))
	if size == cur {
		return nil
	}

	if size > cur {
		delta := size - cur
		res, err := r.mgr.Reserve(delta)
		if err != nil {
			return err
		}
		grown := make([]byte, size)
		copy(grown, r.buf)
		r.buf = grown
		res.Commit()
		return nil
	}

	r.mgr.Release(cur - size)

	if size == 0 {
		r.buf = nil
		return nil
	}

	if size <= cur/4 {
		shrunk := make([]byte, size)
		copy(shrunk, r.buf[:size])
		r.buf = shrunk
	} else {
		r.buf = r.buf[:size]
	}

	return nil
}
