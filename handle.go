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
	"github.com/jacobsa/memfs/internal/inode"
	"github.com/jacobsa/memfs/internal/logger"
)

// Mode is one of the five binary open modes. Text-like modes are not
// represented; a caller wanting text semantics wraps a File itself.
type Mode int

const (
	// ModeRead ("rb") opens an existing file for reading only.
	ModeRead Mode = iota
	// ModeWrite ("wb") creates or truncates, for writing only.
	ModeWrite
	// ModeAppend ("ab") creates if missing; every write seeks to end.
	ModeAppend
	// ModeReadWrite ("r+b") opens an existing file, cursor at 0.
	ModeReadWrite
	// ModeExclusive ("xb") creates only if the target is missing.
	ModeExclusive
)

// Seek whence values, matching SEEK_SET / SEEK_CUR / SEEK_END.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// File is a mode-parameterized stream over a file node's storage: the
// handle layer described in the namespace design. It holds the
// node's read or write lock for its entire lifetime and keeps the
// owning Filesystem alive by reference; the node never references the
// handle back, so there is no cycle.
type File struct {
	fsys   *Filesystem
	node   *inode.Node
	mode   Mode
	cursor int64
	closed bool
}

func newFileHandle(fsys *Filesystem, n *inode.Node, mode Mode, cursor int64) *File {
	return &File{fsys: fsys, node: n, mode: mode, cursor: cursor}
}

func (f *File) readable() bool {
	return f.mode == ModeRead || f.mode == ModeReadWrite
}

func (f *File) writable() bool {
	return f.mode != ModeRead
}

// Read returns up to size bytes from the cursor, clamped to the end
// of the file; it returns an empty slice at EOF. A negative size
// reads to EOF.
func (f *File) Read(size int64) ([]byte, error) {
	if f.closed {
		return nil, NewUnsupportedOperationError("read on closed handle")
	}
	if !f.readable() {
		return nil, NewUnsupportedOperationError("read on a handle not opened for reading")
	}

	data, err := f.node.File.Storage.ReadAt(f.cursor, size)
	if err != nil {
		return nil, translateStorageError(err)
	}
	f.cursor += int64(len(data))
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Write writes data at the cursor (or, in append mode, at the
// current end of file regardless of any prior seek) and advances the
// cursor by the number of bytes written.
func (f *File) Write(data []byte) (int, error) {
	if f.closed {
		return 0, NewUnsupportedOperationError("write on closed handle")
	}
	if !f.writable() {
		return 0, NewUnsupportedOperationError("write on a handle not opened for writing")
	}

	if f.mode == ModeAppend {
		f.cursor = f.node.File.Storage.Size()
	}

	n, err := f.fsys.writeAtNode(f.node, f.cursor, data)
	if err != nil {
		return 0, err
	}
	f.cursor += int64(n)
	return n, nil
}

// Seek repositions the cursor. whence must be one of SeekSet/SeekCur/
// SeekEnd. A negative offset for SeekSet, a positive offset for
// SeekEnd (seeking past EOF is unsupported — see preallocate on
// Open), or any resulting negative cursor is invalid-argument.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, NewUnsupportedOperationError("seek on closed handle")
	}

	var target int64
	switch whence {
	case SeekSet:
		if offset < 0 {
			return 0, NewInvalidArgumentError("negative offset for SEEK_SET")
		}
		target = offset
	case SeekCur:
		target = f.cursor + offset
	case SeekEnd:
		if offset > 0 {
			return 0, NewInvalidArgumentError("positive offset for SEEK_END is unsupported")
		}
		target = f.node.File.Storage.Size() + offset
	default:
		return 0, NewInvalidArgumentError("invalid whence")
	}

	if target < 0 {
		return 0, NewInvalidArgumentError("seek would produce a negative cursor")
	}

	f.cursor = target
	return f.cursor, nil
}

// Tell returns the current cursor position.
func (f *File) Tell() int64 {
	return f.cursor
}

// Truncate resizes the underlying file's content.
func (f *File) Truncate(size int64) error {
	if f.closed {
		return NewUnsupportedOperationError("truncate on closed handle")
	}
	if !f.writable() {
		return NewUnsupportedOperationError("truncate on a handle not opened for writing")
	}

	if err := f.node.File.Storage.Truncate(size); err != nil {
		return translateStorageError(err)
	}
	f.node.File.Generation++
	f.node.File.ModifiedAt = f.fsys.clock.Now()
	return nil
}

// Close releases the held lock. It is idempotent; calling it more
// than once is a no-op. After Close, Read, Write, Seek and Truncate
// fail; Tell still returns the last cursor position.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.mode == ModeRead {
		f.node.File.Lock.ReleaseRead()
	} else {
		f.node.File.Lock.ReleaseWrite()
	}
	return nil
}

// preallocate zero-fills the file up to size bytes through the node's
// storage, reserving quota exactly as a normal append write would.
// The fill is a tail write, so it never triggers promotion.
func (f *File) preallocate(size int64) error {
	if err := f.fsys.preallocate(f.node, size); err != nil {
		logger.Warnf("preallocate failed: %v", err)
		return err
	}
	return nil
}
