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

// Package storage implements the two mutable-content backends owned by
// a file node: Sequential (append-optimized, chunked) and RandomAccess
// (a single contiguous growable buffer), with a one-way promotion path
// from the former to the latter triggered by a non-tail write.
package storage

import (
	"fmt"
	"unsafe"
)

// Backend is the capability set every file node's storage implements.
// Directory and file nodes are a tagged union (see package inode); the
// two storage backends are a second, smaller tagged union dispatched
// through this interface rather than embedding.
type Backend interface {
	// ReadAt returns up to size bytes starting at offset. A negative
	// size returns the suffix from offset to the end of the content.
	ReadAt(offset int64, size int64) ([]byte, error)

	// WriteAt writes data at offset. It may return a non-nil
	// WriteResult.Replacement when the backend elects to replace
	// itself (the promotion path); the caller must then swap the
	// owning node's storage reference to the replacement and release
	// WriteResult.ReplacedFootprint bytes from the quota manager.
	WriteAt(offset int64, data []byte) (WriteResult, error)

	// Truncate resizes the content to size bytes, zero-filling on
	// growth and releasing quota on shrink.
	Truncate(size int64) error

	// Size returns the current content length in bytes.
	Size() int64

	// QuotaUsage returns the number of bytes this backend currently
	// charges against the quota ledger, which may exceed Size() to
	// account for management overhead (see Sequential).
	QuotaUsage() int64

	// CheckInvariants panics if the backend's internal invariants do
	// not hold. Intended for use in tests and debug builds.
	CheckInvariants()

	// BulkLoad replaces the entire content with data without touching
	// the quota manager. Callers (ImportTree, CopyTree) compute a
	// batch's total quota delta up front and apply it themselves via
	// Manager.ForceReserve once the whole batch succeeds.
	BulkLoad(data []byte) error
}

// WriteResult is the outcome of a WriteAt call.
type WriteResult struct {
	// Written is the number of bytes actually written (always
	// len(data) for these backends barring an error).
	Written int

	// Replacement is non-nil when WriteAt triggered promotion: the
	// caller must adopt this backend in place of the one WriteAt was
	// called on.
	Replacement Backend

	// ReplacedFootprint is the quota (in bytes) still attributable to
	// the old backend after WriteAt has already released what it
	// could internally; the caller releases this once it has adopted
	// Replacement.
	ReplacedFootprint int64
}

// OffsetError is returned for an offset outside the range a backend's
// operation supports (e.g. a non-append write to a Sequential backend
// with promotion disabled is reported as UnsupportedOperation instead,
// but a structurally invalid negative offset uses this type).
type OffsetError struct {
	Offset int64
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("invalid offset %d", e.Offset)
}

// UnsupportedOperationError is returned when a backend cannot service a
// request: a non-tail write on a Sequential backend without promotion,
// or a promotion attempt above the hard limit.
type UnsupportedOperationError struct {
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	return "unsupported operation: " + e.Reason
}

// DefaultPromotionHardLimit is the advisory byte ceiling above which a
// Sequential backend refuses non-tail writes (and instead of promoting,
// fails with UnsupportedOperationError), absent an override.
const DefaultPromotionHardLimit = 512 * 1024 * 1024

// sliceHeaderSize is the size of a Go slice header, used as the base
// unit for chunk-overhead calibration below.
var sliceHeaderSize = int64(unsafe.Sizeof([]byte{}))

// CalibrateChunkOverhead returns a conservative estimate, in bytes, of
// the bookkeeping cost of one chunk slot in a Sequential backend: a
// slice header, inflated by a safety factor (x1.5, +32). Over-estimation is preferred to under-estimation,
// so quota accounting never under-charges a heavily-chunked file.
func CalibrateChunkOverhead() int64 {
	return int64(float64(sliceHeaderSize)*1.5) + 32
}
