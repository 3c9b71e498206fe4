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

// Package memfs implements an in-process, POSIX-flavored virtual
// filesystem backed entirely by process memory, with a hard byte
// quota enforced before any allocation. There is no backing object
// store and no kernel mount: everything lives in the node table and
// the two storage backends in package storage.
package memfs

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jacobsa/memfs/internal/inode"
	"github.com/jacobsa/memfs/internal/logger"
	"github.com/jacobsa/memfs/internal/quota"
	"github.com/jacobsa/memfs/internal/rwlock"
	"github.com/jacobsa/memfs/internal/storage"
	"github.com/jacobsa/memfs/internal/timeutil"
)

// Filesystem is one independent namespace: its own node table, quota
// ledger, and instance id. Two Filesystem values in the same process
// share nothing.
type Filesystem struct {
	cfg        Config
	table      *inode.Table
	quota      *quota.Manager
	clock      timeutil.Clock
	instanceID uuid.UUID
}

// NewFilesystem constructs an empty Filesystem (just the root
// directory) per cfg.
func NewFilesystem(cfg Config) (*Filesystem, error) {
	return &Filesystem{
		cfg:        cfg,
		table:      inode.NewTable(),
		quota:      quota.NewManager(cfg.MaxQuotaBytes),
		clock:      cfg.resolveClock(),
		instanceID: uuid.New(),
	}, nil
}

// Stat is the snapshot returned by Stat.
type Stat struct {
	Size       int64
	CreatedAt  time.Time
	ModifiedAt time.Time
	Generation int64
	IsDir      bool
}

// Stats is the filesystem-wide snapshot returned by Stats.
type Stats struct {
	UsedBytes                int64
	QuotaBytes               int64
	FreeBytes                int64
	FileCount                int64
	DirCount                 int64
	ChunkCount               int64
	OverheadPerChunkEstimate int64
	InstanceID               uuid.UUID
}

// translateStorageError maps an error from the storage or quota
// packages onto the root error taxonomy.
func translateStorageError(err error) error {
	var exceeded *quota.ExceededError
	if errors.As(err, &exceeded) {
		return translateQuotaError(err)
	}
	var nodeLimit *quota.NodeLimitError
	if errors.As(err, &nodeLimit) {
		return translateQuotaError(err)
	}
	var unsupported *storage.UnsupportedOperationError
	if errors.As(err, &unsupported) {
		return NewUnsupportedOperationError(unsupported.Reason)
	}
	var offsetErr *storage.OffsetError
	if errors.As(err, &offsetErr) {
		return NewInvalidArgumentError(err.Error())
	}
	return err
}

// newFileNodeLocked allocates and inserts a fresh, unattached file
// node, failing with NodeLimitExceededError if cfg.MaxNodes would be
// exceeded.
func (fsys *Filesystem) newFileNodeLocked() (*inode.Node, error) {
	if err := fsys.checkNodeBudgetLocked(); err != nil {
		return nil, err
	}
	n := inode.NewFileNode(fsys.table.AllocateLocked(), newBackend(fsys.cfg, fsys.quota), fsys.clock.Now())
	fsys.table.InsertLocked(n)
	return n, nil
}

// newDirNodeLocked allocates and inserts a fresh, unattached
// directory node.
func (fsys *Filesystem) newDirNodeLocked() (*inode.Node, error) {
	if err := fsys.checkNodeBudgetLocked(); err != nil {
		return nil, err
	}
	n := inode.NewDirNode(fsys.table.AllocateLocked())
	fsys.table.InsertLocked(n)
	return n, nil
}

func (fsys *Filesystem) checkNodeBudgetLocked() error {
	if fsys.cfg.MaxNodes <= 0 {
		return nil
	}
	if int64(fsys.table.CountLocked()) >= fsys.cfg.MaxNodes {
		return &NodeLimitExceededError{Err: &quota.NodeLimitError{
			ExceededError: quota.ExceededError{Requested: 1, Available: 0},
		}}
	}
	return nil
}

// writeAtNode writes data at offset to n's storage, adopting any
// promotion replacement and releasing the superseded footprint, then
// bumps generation and modified time. The caller must already hold
// n's write lock.
func (fsys *Filesystem) writeAtNode(n *inode.Node, offset int64, data []byte) (int, error) {
	result, err := n.File.Storage.WriteAt(offset, data)
	if err != nil {
		return 0, translateStorageError(err)
	}
	if result.Replacement != nil {
		n.File.Storage = result.Replacement
		fsys.quota.Release(result.ReplacedFootprint)
		logger.Debugf("promoted file node %d to random-access storage", n.ID)
	}
	n.File.Generation++
	n.File.ModifiedAt = fsys.clock.Now()
	return result.Written, nil
}

// preallocate zero-fills n's storage up to size bytes by appending at
// its current tail — always a tail write, so it never triggers
// promotion by itself. The caller must hold n's write lock.
func (fsys *Filesystem) preallocate(n *inode.Node, size int64) error {
	cur := n.File.Storage.Size()
	if size <= cur {
		return nil
	}
	_, err := fsys.writeAtNode(n, cur, make([]byte, size-cur))
	return err
}

// checkSubtreeUnlockedLocked fails with WouldBlockError if any file
// node in n's subtree currently holds its lock — used by rename and
// RmTree, which forbid relocating or destroying anything with an open
// handle anywhere beneath it.
func (fsys *Filesystem) checkSubtreeUnlockedLocked(n *inode.Node, path string) error {
	for _, desc := range fsys.table.SubtreeLocked(n) {
		if desc.IsFile() && desc.File.Lock.IsLocked() {
			return &WouldBlockError{Path: path, Err: &rwlock.WouldBlockError{Write: true}}
		}
	}
	return nil
}

func sizeMetric(b storage.Backend) int64  { return b.Size() }
func quotaMetric(b storage.Backend) int64 { return b.QuotaUsage() }

// sumSubtreeLocked fans out concurrently across sibling subtrees to
// total metric over every file node reachable from n. Safe because
// each goroutine only reads nodes and writes to its own slot in sums;
// the structure lock, already held by the caller, rules out any
// concurrent mutation of the node table or its storage for the
// duration.
func (fsys *Filesystem) sumSubtreeLocked(n *inode.Node, metric func(storage.Backend) int64) int64 {
	if n.IsFile() {
		return metric(n.File.Storage)
	}

	children := make([]*inode.Node, 0, len(n.Dir.Children))
	for _, id := range n.Dir.Children {
		children = append(children, fsys.table.GetLocked(id))
	}

	sums := make([]int64, len(children))
	var g errgroup.Group
	for i, child := range children {
		i, child := i, child
		g.Go(func() error {
			sums[i] = fsys.sumSubtreeLocked(child, metric)
			return nil
		})
	}
	_ = g.Wait()

	var total int64
	for _, s := range sums {
		total += s
	}
	return total
}

// Open resolves path and returns a handle per mode's contract. The
// structure lock is held across path resolution and the file-lock
// acquisition below — an intentional trade-off that eliminates a
// resolve/open race at the cost of a structure-lock stall if another
// writer holds the target.
func (fsys *Filesystem) Open(path string, mode Mode, preallocateBytes int64, lockTimeout *time.Duration) (*File, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}

	fsys.table.Lock()

	n, resolveErr := fsys.table.ResolveLocked(path)
	notFound := resolveErr != nil
	var needsTruncate bool

	switch mode {
	case ModeRead, ModeReadWrite:
		if notFound {
			fsys.table.Unlock()
			return nil, NewNotFoundError(path)
		}
		if n.IsDir() {
			fsys.table.Unlock()
			return nil, NewIsADirectoryError(path)
		}

	case ModeExclusive:
		if !notFound {
			fsys.table.Unlock()
			if n.IsDir() {
				return nil, NewIsADirectoryError(path)
			}
			return nil, NewAlreadyExistsError(path)
		}
		if n, err = fsys.createFileLocked(path); err != nil {
			fsys.table.Unlock()
			return nil, err
		}

	case ModeWrite:
		if notFound {
			if n, err = fsys.createFileLocked(path); err != nil {
				fsys.table.Unlock()
				return nil, err
			}
		} else if n.IsDir() {
			fsys.table.Unlock()
			return nil, NewIsADirectoryError(path)
		} else {
			needsTruncate = true
		}

	case ModeAppend:
		if notFound {
			if n, err = fsys.createFileLocked(path); err != nil {
				fsys.table.Unlock()
				return nil, err
			}
		} else if n.IsDir() {
			fsys.table.Unlock()
			return nil, NewIsADirectoryError(path)
		}

	default:
		fsys.table.Unlock()
		return nil, NewInvalidArgumentError("unknown open mode")
	}

	file := n.File
	var lockErr error
	if mode == ModeRead {
		lockErr = file.Lock.AcquireRead(lockTimeout)
	} else {
		lockErr = file.Lock.AcquireWrite(lockTimeout)
	}
	fsys.table.Unlock()

	if lockErr != nil {
		return nil, NewWouldBlockError(path, lockErr)
	}

	if needsTruncate {
		if err := file.Storage.Truncate(0); err != nil {
			file.Lock.ReleaseWrite()
			return nil, translateStorageError(err)
		}
		file.Generation++
		file.ModifiedAt = fsys.clock.Now()
	}

	startCursor := int64(0)
	if mode == ModeAppend {
		startCursor = file.Storage.Size()
	}

	h := newFileHandle(fsys, n, mode, startCursor)

	if preallocateBytes > 0 {
		if err := h.preallocate(preallocateBytes); err != nil {
			h.Close()
			return nil, err
		}
	}

	return h, nil
}

// createFileLocked creates a new, empty file node at path, whose
// parent must already exist. The structure lock must be held.
func (fsys *Filesystem) createFileLocked(path string) (*inode.Node, error) {
	parent, name, err := fsys.table.ResolveParentLocked(path)
	if err != nil {
		return nil, NewNotFoundError(path)
	}
	if parent.IsFile() {
		return nil, NewNotFoundError(path)
	}

	n, err := fsys.newFileNodeLocked()
	if err != nil {
		return nil, err
	}
	parent.Dir.Children[name] = n.ID
	logger.Debugf("created file node %d at %s", n.ID, path)
	return n, nil
}

// Mkdir creates path and any missing ancestor directories. If path
// already exists as a directory, it succeeds when existOk is true and
// fails with AlreadyExistsError otherwise. Any path component that
// already exists as a file fails with AlreadyExistsError.
func (fsys *Filesystem) Mkdir(path string, existOk bool) error {
	path, err := NormalizePath(path)
	if err != nil {
		return err
	}
	if path == "/" {
		if existOk {
			return nil
		}
		return NewAlreadyExistsError(path)
	}

	fsys.table.Lock()
	defer fsys.table.Unlock()

	segs := strings.Split(strings.Trim(path, "/"), "/")
	cur := fsys.table.RootLocked()
	built := ""

	for i, seg := range segs {
		built += "/" + seg

		childID, ok := cur.Dir.Children[seg]
		if !ok {
			child, err := fsys.newDirNodeLocked()
			if err != nil {
				return err
			}
			cur.Dir.Children[seg] = child.ID
			cur = child
			continue
		}

		child := fsys.table.GetLocked(childID)
		if child.IsFile() {
			return NewAlreadyExistsError(built)
		}
		if i == len(segs)-1 && !existOk {
			return NewAlreadyExistsError(built)
		}
		cur = child
	}

	logger.Debugf("mkdir %s", path)
	return nil
}

// Rename relocates src to dst. dst (of any kind) must not already
// exist; dst's parent must exist. No handle may be open anywhere in
// src's subtree.
func (fsys *Filesystem) Rename(src, dst string) error {
	src, err := NormalizePath(src)
	if err != nil {
		return err
	}
	dst, err = NormalizePath(dst)
	if err != nil {
		return err
	}

	fsys.table.Lock()
	defer fsys.table.Unlock()

	srcNode, err := fsys.table.ResolveLocked(src)
	if err != nil {
		return NewNotFoundError(src)
	}
	if _, err := fsys.table.ResolveLocked(dst); err == nil {
		return NewAlreadyExistsError(dst)
	}

	dstParent, dstName, err := fsys.table.ResolveParentLocked(dst)
	if err != nil {
		return NewNotFoundError(dst)
	}

	if err := fsys.checkSubtreeUnlockedLocked(srcNode, src); err != nil {
		return err
	}

	srcParent, srcName, err := fsys.table.ResolveParentLocked(src)
	if err != nil {
		return NewNotFoundError(src)
	}

	delete(srcParent.Dir.Children, srcName)
	dstParent.Dir.Children[dstName] = srcNode.ID

	logger.Debugf("rename %s -> %s", src, dst)
	return nil
}

// Move is Rename except dst's missing ancestor directories are
// created automatically before the attach step.
func (fsys *Filesystem) Move(src, dst string) error {
	src, err := NormalizePath(src)
	if err != nil {
		return err
	}
	dst, err = NormalizePath(dst)
	if err != nil {
		return err
	}

	fsys.table.Lock()
	defer fsys.table.Unlock()

	srcNode, err := fsys.table.ResolveLocked(src)
	if err != nil {
		return NewNotFoundError(src)
	}
	if _, err := fsys.table.ResolveLocked(dst); err == nil {
		return NewAlreadyExistsError(dst)
	}

	if err := fsys.checkSubtreeUnlockedLocked(srcNode, src); err != nil {
		return err
	}

	dstParent, dstName, err := fsys.ensureParentDirsLocked(dst, nil)
	if err != nil {
		return err
	}

	srcParent, srcName, err := fsys.table.ResolveParentLocked(src)
	if err != nil {
		return NewNotFoundError(src)
	}

	delete(srcParent.Dir.Children, srcName)
	dstParent.Dir.Children[dstName] = srcNode.ID

	logger.Debugf("move %s -> %s", src, dst)
	return nil
}

// Remove deletes a file. It fails if path is missing, a directory, or
// has any lock held.
func (fsys *Filesystem) Remove(path string) error {
	path, err := NormalizePath(path)
	if err != nil {
		return err
	}

	fsys.table.Lock()
	defer fsys.table.Unlock()

	n, err := fsys.table.ResolveLocked(path)
	if err != nil {
		return NewNotFoundError(path)
	}
	if n.IsDir() {
		return NewIsADirectoryError(path)
	}
	if n.File.Lock.IsLocked() {
		return NewWouldBlockError(path, &rwlock.WouldBlockError{})
	}

	parent, name, err := fsys.table.ResolveParentLocked(path)
	if err != nil {
		return NewNotFoundError(path)
	}

	delete(parent.Dir.Children, name)
	fsys.table.DeleteLocked(n.ID)
	fsys.quota.Release(n.File.Storage.QuotaUsage())

	logger.Debugf("remove %s", path)
	return nil
}

// RmTree recursively removes path and everything beneath it. It fails
// if path is missing, not a directory, the root, or if any lock is
// held anywhere in the subtree.
func (fsys *Filesystem) RmTree(path string) error {
	path, err := NormalizePath(path)
	if err != nil {
		return err
	}
	if path == "/" {
		return NewInvalidArgumentError("cannot remove the root directory")
	}

	fsys.table.Lock()
	defer fsys.table.Unlock()

	n, err := fsys.table.ResolveLocked(path)
	if err != nil {
		return NewNotFoundError(path)
	}
	if n.IsFile() {
		return NewNotADirectoryError(path)
	}
	if err := fsys.checkSubtreeUnlockedLocked(n, path); err != nil {
		return err
	}

	total := fsys.sumSubtreeLocked(n, quotaMetric)

	parent, name, err := fsys.table.ResolveParentLocked(path)
	if err != nil {
		return NewNotFoundError(path)
	}
	delete(parent.Dir.Children, name)

	for _, desc := range fsys.table.SubtreeLocked(n) {
		fsys.table.DeleteLocked(desc.ID)
	}
	fsys.quota.Release(total)

	logger.Debugf("rmtree: %s (%d bytes released)", path, total)
	return nil
}

// Copy deep-copies a single file's bytes to a new path. It fails on a
// missing or directory src, an existing dst, or a missing dst parent.
func (fsys *Filesystem) Copy(src, dst string) error {
	src, err := NormalizePath(src)
	if err != nil {
		return err
	}
	dst, err = NormalizePath(dst)
	if err != nil {
		return err
	}

	fsys.table.Lock()
	defer fsys.table.Unlock()

	srcNode, err := fsys.table.ResolveLocked(src)
	if err != nil {
		return NewNotFoundError(src)
	}
	if srcNode.IsDir() {
		return NewIsADirectoryError(src)
	}
	if _, err := fsys.table.ResolveLocked(dst); err == nil {
		return NewAlreadyExistsError(dst)
	}

	dstParent, dstName, err := fsys.table.ResolveParentLocked(dst)
	if err != nil {
		return NewNotFoundError(dst)
	}

	data, err := srcNode.File.Storage.ReadAt(0, -1)
	if err != nil {
		return translateStorageError(err)
	}

	newNode, err := fsys.newFileNodeLocked()
	if err != nil {
		return err
	}

	if len(data) > 0 {
		if _, err := fsys.writeAtNode(newNode, 0, data); err != nil {
			fsys.table.DeleteLocked(newNode.ID)
			return err
		}
	}
	// A copy starts at generation 1 whether or not any bytes were
	// written, so an empty copy still shows up in a dirty export.
	newNode.File.Generation = 1

	dstParent.Dir.Children[dstName] = newNode.ID
	logger.Debugf("copy %s -> %s", src, dst)
	return nil
}

// copyPair links a duplicated (empty) destination file node back to
// the source node whose bytes still need to be copied into it.
type copyPair struct {
	src *inode.Node
	dst *inode.Node
}

// duplicateStructureLocked recursively creates a new subtree
// mirroring src's shape — fresh directory nodes for every directory,
// fresh empty file nodes for every file — without copying any file
// bytes yet.
func (fsys *Filesystem) duplicateStructureLocked(src *inode.Node) (*inode.Node, []copyPair, error) {
	if src.IsFile() {
		dst, err := fsys.newFileNodeLocked()
		if err != nil {
			return nil, nil, err
		}
		return dst, []copyPair{{src: src, dst: dst}}, nil
	}

	dst, err := fsys.newDirNodeLocked()
	if err != nil {
		return nil, nil, err
	}

	var pairs []copyPair
	for name, childID := range src.Dir.Children {
		child := fsys.table.GetLocked(childID)
		dstChild, childPairs, err := fsys.duplicateStructureLocked(child)
		if err != nil {
			// Unwind the partial duplicate so no unreachable
			// nodes are left in the table.
			fsys.discardSubtreeLocked(dst)
			return nil, nil, err
		}
		dst.Dir.Children[name] = dstChild.ID
		pairs = append(pairs, childPairs...)
	}

	return dst, pairs, nil
}

// discardSubtreeLocked removes every node in n's subtree from the
// table without touching quota (used on CopyTree's failure path,
// before any quota has been force-reserved for the duplicate).
func (fsys *Filesystem) discardSubtreeLocked(n *inode.Node) {
	for _, desc := range fsys.table.SubtreeLocked(n) {
		fsys.table.DeleteLocked(desc.ID)
	}
}

// CopyTree deep-copies an entire directory to a new path. The total
// source data size is snapshot-checked against free quota up front;
// the new subtree's structure is built and its file content copied
// concurrently, one goroutine per file; the final quota delta is
// force-reserved only once the whole copy has succeeded. Any failure
// leaves the original state untouched.
func (fsys *Filesystem) CopyTree(src, dst string) error {
	src, err := NormalizePath(src)
	if err != nil {
		return err
	}
	dst, err = NormalizePath(dst)
	if err != nil {
		return err
	}

	fsys.table.Lock()
	defer fsys.table.Unlock()

	srcNode, err := fsys.table.ResolveLocked(src)
	if err != nil {
		return NewNotFoundError(src)
	}
	if srcNode.IsFile() {
		return NewNotADirectoryError(src)
	}
	if _, err := fsys.table.ResolveLocked(dst); err == nil {
		return NewAlreadyExistsError(dst)
	}

	dstParent, dstName, err := fsys.table.ResolveParentLocked(dst)
	if err != nil {
		return NewNotFoundError(dst)
	}

	totalDataBytes := fsys.sumSubtreeLocked(srcNode, sizeMetric)
	if _, _, free := fsys.quota.Snapshot(); free >= 0 && totalDataBytes > free {
		return NewQuotaExceededError(&quota.ExceededError{Requested: totalDataBytes, Available: free})
	}

	newRoot, pairs, err := fsys.duplicateStructureLocked(srcNode)
	if err != nil {
		return err
	}

	g := new(errgroup.Group)
	for _, p := range pairs {
		p := p
		g.Go(func() error {
			data, err := p.src.File.Storage.ReadAt(0, -1)
			if err != nil {
				return translateStorageError(err)
			}
			return p.dst.File.Storage.BulkLoad(data)
		})
	}
	if err := g.Wait(); err != nil {
		fsys.discardSubtreeLocked(newRoot)
		return err
	}

	for _, p := range pairs {
		p.dst.File.Generation = 1
	}

	finalQuota := fsys.sumSubtreeLocked(newRoot, quotaMetric)
	if _, _, free := fsys.quota.Snapshot(); free >= 0 && finalQuota > free {
		fsys.discardSubtreeLocked(newRoot)
		return NewQuotaExceededError(&quota.ExceededError{Requested: finalQuota, Available: free})
	}
	fsys.quota.ForceReserve(finalQuota)

	dstParent.Dir.Children[dstName] = newRoot.ID
	logger.Debugf("copytree: %s -> %s (%d bytes)", src, dst, finalQuota)
	return nil
}

// ListDir returns the names of path's direct children, in unspecified
// order.
func (fsys *Filesystem) ListDir(path string) ([]string, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}

	fsys.table.Lock()
	defer fsys.table.Unlock()

	n, err := fsys.table.ResolveLocked(path)
	if err != nil {
		return nil, NewNotFoundError(path)
	}
	if n.IsFile() {
		return nil, NewNotADirectoryError(path)
	}

	names := make([]string, 0, len(n.Dir.Children))
	for name := range n.Dir.Children {
		names = append(names, name)
	}
	return names, nil
}

// Exists reports whether path resolves to any node.
func (fsys *Filesystem) Exists(path string) bool {
	path, err := NormalizePath(path)
	if err != nil {
		return false
	}
	fsys.table.Lock()
	defer fsys.table.Unlock()
	_, err = fsys.table.ResolveLocked(path)
	return err == nil
}

// IsDir reports whether path resolves to a directory node.
func (fsys *Filesystem) IsDir(path string) bool {
	path, err := NormalizePath(path)
	if err != nil {
		return false
	}
	fsys.table.Lock()
	defer fsys.table.Unlock()
	n, err := fsys.table.ResolveLocked(path)
	return err == nil && n.IsDir()
}

// IsFile reports whether path resolves to a file node.
func (fsys *Filesystem) IsFile(path string) bool {
	path, err := NormalizePath(path)
	if err != nil {
		return false
	}
	fsys.table.Lock()
	defer fsys.table.Unlock()
	n, err := fsys.table.ResolveLocked(path)
	return err == nil && n.IsFile()
}

// GetSize returns a file's content length. A directory path fails
// with IsADirectoryError.
func (fsys *Filesystem) GetSize(path string) (int64, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return 0, err
	}
	fsys.table.Lock()
	defer fsys.table.Unlock()

	n, err := fsys.table.ResolveLocked(path)
	if err != nil {
		return 0, NewNotFoundError(path)
	}
	if n.IsDir() {
		return 0, NewIsADirectoryError(path)
	}
	return n.File.Storage.Size(), nil
}

// Stat returns a snapshot of path's metadata. A directory path
// returns a Stat with IsDir true, zero size, and zeroed timestamps and
// generation, per this system's convention of returning a result
// rather than failing on a directory argument.
func (fsys *Filesystem) Stat(path string) (Stat, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return Stat{}, err
	}
	fsys.table.Lock()
	defer fsys.table.Unlock()

	n, err := fsys.table.ResolveLocked(path)
	if err != nil {
		return Stat{}, NewNotFoundError(path)
	}
	if n.IsDir() {
		return Stat{IsDir: true}, nil
	}

	return Stat{
		Size:       n.File.Storage.Size(),
		CreatedAt:  n.File.CreatedAt,
		ModifiedAt: n.File.ModifiedAt,
		Generation: n.File.Generation,
		IsDir:      false,
	}, nil
}

// Stats returns filesystem-wide counters. ChunkCount counts only
// chunks held by Sequential-backed files; promoted files contribute
// zero.
func (fsys *Filesystem) Stats() Stats {
	fsys.table.Lock()
	defer fsys.table.Unlock()

	maximum, used, free := fsys.quota.Snapshot()

	var fileCount, dirCount, chunkCount int64
	for _, n := range fsys.table.SubtreeLocked(fsys.table.RootLocked()) {
		if n.IsDir() {
			dirCount++
			continue
		}
		fileCount++
		if seq, ok := n.File.Storage.(*storage.Sequential); ok {
			chunkCount += seq.ChunkCount()
		}
	}

	return Stats{
		UsedBytes:                used,
		QuotaBytes:               maximum,
		FreeBytes:                free,
		FileCount:                fileCount,
		DirCount:                 dirCount,
		ChunkCount:               chunkCount,
		OverheadPerChunkEstimate: fsys.cfg.chunkOverhead(),
		InstanceID:               fsys.instanceID,
	}
}
