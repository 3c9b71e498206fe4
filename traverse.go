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
	"iter"
	"sort"
	"strings"

	"github.com/jacobsa/memfs/internal/inode"
	"github.com/jacobsa/memfs/internal/logger"
	"github.com/jacobsa/memfs/internal/quota"
	"github.com/jacobsa/memfs/internal/rwlock"
)

// WalkEntry is one directory level yielded by Walk.
type WalkEntry struct {
	Dir   string
	Dirs  []string
	Files []string
}

// joinPath appends name as a child of dir, which must already be a
// normalized absolute path.
func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// Walk returns a lazy pre-order iterator over path and everything
// beneath it, one directory level per yielded WalkEntry. Each level is
// snapshotted under the structure lock and the lock released before
// descending, matching the weak-consistency traversal contract: a
// directory deleted between levels is simply absent from the next
// snapshot rather than raising an error.
func (fsys *Filesystem) Walk(path string) (iter.Seq[WalkEntry], error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}

	fsys.table.Lock()
	n, err := fsys.table.ResolveLocked(path)
	if err != nil {
		fsys.table.Unlock()
		return nil, NewNotFoundError(path)
	}
	if n.IsFile() {
		fsys.table.Unlock()
		return nil, NewNotADirectoryError(path)
	}
	id := n.ID
	fsys.table.Unlock()

	return func(yield func(WalkEntry) bool) {
		fsys.walkLevel(path, id, yield)
	}, nil
}

// walkLevel yields one WalkEntry for the directory node id (if it
// still exists and is still a directory) and then recurses into its
// child directories, per the snapshot taken at this call. It returns
// false once the caller's yield has asked to stop.
func (fsys *Filesystem) walkLevel(path string, id inode.ID, yield func(WalkEntry) bool) bool {
	fsys.table.Lock()
	n := fsys.table.GetLocked(id)
	if n == nil || n.IsFile() {
		fsys.table.Unlock()
		return true
	}

	type child struct {
		name  string
		id    inode.ID
		isDir bool
	}
	children := make([]child, 0, len(n.Dir.Children))
	for name, cid := range n.Dir.Children {
		c := fsys.table.GetLocked(cid)
		if c == nil {
			continue
		}
		children = append(children, child{name: name, id: cid, isDir: c.IsDir()})
	}
	fsys.table.Unlock()

	var dirs, files []string
	for _, c := range children {
		if c.isDir {
			dirs = append(dirs, c.name)
		} else {
			files = append(files, c.name)
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	if !yield(WalkEntry{Dir: path, Dirs: dirs, Files: files}) {
		return false
	}

	for _, c := range children {
		if !c.isDir {
			continue
		}
		if !fsys.walkLevel(joinPath(path, c.name), c.id, yield) {
			return false
		}
	}
	return true
}

// matchClassEnd returns the index of the ']' closing the character
// class opened at pat[start] == '[', or -1 if pat has no closing
// bracket (in which case '[' is treated as a literal character).
func matchClassEnd(pat []rune, start int) int {
	for i := start + 1; i < len(pat); i++ {
		if pat[i] == ']' {
			return i
		}
	}
	return -1
}

// matchClass reports whether c is a member of the character class
// body (the text between '[' and ']', with any leading '!' already
// stripped by the caller): single characters and lo-hi ranges.
func matchClass(body []rune, c rune) bool {
	for i := 0; i < len(body); {
		if i+2 < len(body) && body[i+1] == '-' {
			if c >= body[i] && c <= body[i+2] {
				return true
			}
			i += 3
			continue
		}
		if body[i] == c {
			return true
		}
		i++
	}
	return false
}

// matchSegment reports whether name matches the single-path-segment
// glob pattern pat: '*' any run of characters, '?' any one character,
// '[set]'/'[!set]' a character class or its negation. There is no
// support for '/' within a segment pattern; '**' is handled one level
// up in globMatchLocked, not here.
func matchSegment(pat, name string) bool {
	return matchSegmentAt([]rune(pat), []rune(name), 0, 0)
}

func matchSegmentAt(pat, name []rune, pi, si int) bool {
	for pi < len(pat) {
		switch pat[pi] {
		case '*':
			for k := si; k <= len(name); k++ {
				if matchSegmentAt(pat, name, pi+1, k) {
					return true
				}
			}
			return false

		case '?':
			if si >= len(name) {
				return false
			}
			pi++
			si++

		case '[':
			end := matchClassEnd(pat, pi)
			if end < 0 {
				if si >= len(name) || name[si] != '[' {
					return false
				}
				pi++
				si++
				continue
			}
			if si >= len(name) {
				return false
			}
			neg := false
			body := pat[pi+1 : end]
			if len(body) > 0 && body[0] == '!' {
				neg = true
				body = body[1:]
			}
			if matchClass(body, name[si]) == neg {
				return false
			}
			pi = end + 1
			si++

		default:
			if si >= len(name) || name[si] != pat[pi] {
				return false
			}
			pi++
			si++
		}
	}
	return si == len(name)
}

// Glob returns every path matching pattern, sorted lexicographically.
// A pattern not beginning with '/' is anchored to root the same as
// one that does; '**' matches zero or more whole directory segments,
// '*' matches within a single segment, '?' matches one non-'/'
// character, and '[set]'/'[!set]' are character classes. Implemented
// as recursive descent over the node tree with the structure lock held
// for the whole traversal; unlike Walk, it does not release the lock
// between levels. path.Match is not used because it has no '**' and
// spells class negation '[^set]' rather than '[!set]'.
func (fsys *Filesystem) Glob(pattern string) ([]string, error) {
	segs := splitGlobSegments(pattern)

	fsys.table.Lock()
	defer fsys.table.Unlock()

	var matches []string
	fsys.globMatchLocked(fsys.table.RootLocked(), "", segs, &matches)
	sort.Strings(matches)
	return matches, nil
}

func splitGlobSegments(pattern string) []string {
	trimmed := strings.Trim(pattern, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func (fsys *Filesystem) globMatchLocked(n *inode.Node, path string, segs []string, out *[]string) {
	if len(segs) == 0 {
		if path == "" {
			path = "/"
		}
		*out = append(*out, path)
		return
	}
	if n.IsFile() {
		return
	}

	seg, rest := segs[0], segs[1:]

	if seg == "**" {
		fsys.globMatchLocked(n, path, rest, out)
		for name, id := range n.Dir.Children {
			child := fsys.table.GetLocked(id)
			if child != nil && child.IsDir() {
				fsys.globMatchLocked(child, joinPath(orRoot(path), name), segs, out)
			}
		}
		return
	}

	for name, id := range n.Dir.Children {
		if !matchSegment(seg, name) {
			continue
		}
		child := fsys.table.GetLocked(id)
		if child == nil {
			continue
		}
		fsys.globMatchLocked(child, joinPath(orRoot(path), name), rest, out)
	}
}

func orRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// collectFilePathsLocked gathers, in pre-order, the path of every
// file reachable from n (which is found at path), skipping files with
// Generation == 0 when onlyDirty is set.
func (fsys *Filesystem) collectFilePathsLocked(n *inode.Node, path string, onlyDirty bool, out *[]string) {
	if n.IsFile() {
		if onlyDirty && n.File.Generation == 0 {
			return
		}
		*out = append(*out, path)
		return
	}
	for name, id := range n.Dir.Children {
		child := fsys.table.GetLocked(id)
		if child == nil {
			continue
		}
		fsys.collectFilePathsLocked(child, joinPath(path, name), onlyDirty, out)
	}
}

// ExportTree eagerly materializes {path: bytes} for every file under
// prefix. If onlyDirty, only files with Generation > 0 are included.
func (fsys *Filesystem) ExportTree(prefix string, onlyDirty bool) (map[string][]byte, error) {
	prefix, err := NormalizePath(prefix)
	if err != nil {
		return nil, err
	}

	fsys.table.Lock()
	defer fsys.table.Unlock()

	n, err := fsys.table.ResolveLocked(prefix)
	if err != nil {
		return nil, NewNotFoundError(prefix)
	}

	var paths []string
	fsys.collectFilePathsLocked(n, prefix, onlyDirty, &paths)

	out := make(map[string][]byte, len(paths))
	for _, p := range paths {
		fn, err := fsys.table.ResolveLocked(p)
		if err != nil {
			continue
		}
		data, err := fn.File.Storage.ReadAt(0, -1)
		if err != nil {
			return nil, translateStorageError(err)
		}
		out[p] = data
	}
	return out, nil
}

// IterExportTree is the lazy counterpart of ExportTree: the key set is
// snapshotted once, under the structure lock, at call time; each
// file's bytes are then read lazily, one at a time, under that file's
// own read lock, at the moment the caller pulls the next value from
// the sequence. A path removed between the snapshot and its turn is
// silently skipped rather than raised as an error.
func (fsys *Filesystem) IterExportTree(prefix string, onlyDirty bool) (iter.Seq2[string, []byte], error) {
	prefix, err := NormalizePath(prefix)
	if err != nil {
		return nil, err
	}

	fsys.table.Lock()
	n, err := fsys.table.ResolveLocked(prefix)
	if err != nil {
		fsys.table.Unlock()
		return nil, NewNotFoundError(prefix)
	}
	var paths []string
	fsys.collectFilePathsLocked(n, prefix, onlyDirty, &paths)
	fsys.table.Unlock()

	return func(yield func(string, []byte) bool) {
		for _, p := range paths {
			fsys.table.Lock()
			fn, err := fsys.table.ResolveLocked(p)
			if err != nil || fn.IsDir() {
				fsys.table.Unlock()
				continue
			}
			lock := fn.File.Lock
			storageRef := fn.File
			fsys.table.Unlock()

			if err := lock.AcquireRead(nil); err != nil {
				continue
			}
			data, err := storageRef.Storage.ReadAt(0, -1)
			lock.ReleaseRead()
			if err != nil {
				continue
			}

			if !yield(p, data) {
				return
			}
		}
	}, nil
}

// ExportAsBytesIO deep-copies path's current bytes into a detached
// buffer the caller owns outside the quota ledger. The read happens
// under the file's read lock, acquired while the structure lock is
// still held (to rule out a concurrent delete of path), after which
// the structure lock is released before the copy itself runs.
func (fsys *Filesystem) ExportAsBytesIO(path string, maxSize int64) ([]byte, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}

	fsys.table.Lock()
	n, err := fsys.table.ResolveLocked(path)
	if err != nil {
		fsys.table.Unlock()
		return nil, NewNotFoundError(path)
	}
	if n.IsDir() {
		fsys.table.Unlock()
		return nil, NewIsADirectoryError(path)
	}
	if maxSize > 0 && n.File.Storage.Size() > maxSize {
		fsys.table.Unlock()
		return nil, NewInvalidArgumentError("file exceeds max_size")
	}

	file := n.File
	if err := file.Lock.AcquireRead(nil); err != nil {
		fsys.table.Unlock()
		return nil, NewWouldBlockError(path, err)
	}
	fsys.table.Unlock()
	defer file.Lock.ReleaseRead()

	data, err := file.Storage.ReadAt(0, -1)
	if err != nil {
		return nil, translateStorageError(err)
	}
	return data, nil
}

// createdDir records a directory auto-created while resolving a
// target path's ancestors, so a failed batch operation can remove
// exactly the directories it made and nothing the caller already had.
type createdDir struct {
	parent *inode.Node
	name   string
	node   *inode.Node
}

// ensureParentDirsLocked creates any missing ancestor directories of
// path, appending each one to created (if non-nil), and returns the
// immediate parent and the final path segment.
func (fsys *Filesystem) ensureParentDirsLocked(path string, created *[]createdDir) (*inode.Node, string, error) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	cur := fsys.table.RootLocked()

	for _, seg := range segs[:len(segs)-1] {
		childID, ok := cur.Dir.Children[seg]
		if !ok {
			child, err := fsys.newDirNodeLocked()
			if err != nil {
				return nil, "", err
			}
			cur.Dir.Children[seg] = child.ID
			if created != nil {
				*created = append(*created, createdDir{parent: cur, name: seg, node: child})
			}
			cur = child
			continue
		}
		child := fsys.table.GetLocked(childID)
		if child.IsFile() {
			return nil, "", NewAlreadyExistsError(path)
		}
		cur = child
	}

	return cur, segs[len(segs)-1], nil
}

// importRollback records what ImportTree did at one target path, so a
// failed batch can be undone exactly.
type importRollback struct {
	parent  *inode.Node
	name    string
	oldNode *inode.Node // nil if path did not previously name a file
}

// ImportTree replaces or inserts every entry in entries as an
// all-or-nothing batch: either every path ends up holding its new
// bytes, or the namespace and quota ledger are exactly as they were
// before the call. Validation and the quota-delta computation happen
// before the first mutation; a failure mid-batch restores the
// pre-call state before propagating.
func (fsys *Filesystem) ImportTree(entries map[string][]byte) error {
	normalized := make(map[string][]byte, len(entries))
	for p, data := range entries {
		np, err := NormalizePath(p)
		if err != nil {
			return err
		}
		normalized[np] = data
	}

	fsys.table.Lock()
	defer fsys.table.Unlock()

	existing := make(map[string]*inode.Node, len(normalized))
	for p := range normalized {
		n, err := fsys.table.ResolveLocked(p)
		if err != nil {
			continue
		}
		if n.IsDir() {
			return NewAlreadyExistsError(p)
		}
		if n.File.Lock.IsLocked() {
			return NewWouldBlockError(p, &rwlock.WouldBlockError{})
		}
		existing[p] = n
	}

	var oldQuota int64
	for _, n := range existing {
		oldQuota += n.File.Storage.QuotaUsage()
	}

	overhead := fsys.cfg.chunkOverhead()
	var newQuota int64
	for _, data := range normalized {
		if len(data) == 0 {
			continue
		}
		newQuota += int64(len(data)) + overhead
	}

	net := newQuota - oldQuota
	if net > 0 {
		if _, _, free := fsys.quota.Snapshot(); free >= 0 && net > free {
			return NewQuotaExceededError(&quota.ExceededError{Requested: net, Available: free})
		}
	}

	fsys.quota.Release(oldQuota)

	var createdDirs []createdDir
	var rollback []importRollback
	var newNodes []*inode.Node
	var failErr error

	for p, data := range normalized {
		parent, name, err := fsys.ensureParentDirsLocked(p, &createdDirs)
		if err != nil {
			failErr = err
			break
		}

		newNode, err := fsys.newFileNodeLocked()
		if err != nil {
			failErr = err
			break
		}
		if err := newNode.File.Storage.BulkLoad(data); err != nil {
			failErr = err
			break
		}
		newNode.File.Generation = 1
		newNodes = append(newNodes, newNode)

		rollback = append(rollback, importRollback{parent: parent, name: name, oldNode: existing[p]})

		if old, ok := existing[p]; ok {
			fsys.table.DeleteLocked(old.ID)
		}
		parent.Dir.Children[name] = newNode.ID
	}

	if failErr != nil {
		for _, r := range rollback {
			if r.oldNode != nil {
				fsys.table.InsertLocked(r.oldNode)
				r.parent.Dir.Children[r.name] = r.oldNode.ID
			} else {
				delete(r.parent.Dir.Children, r.name)
			}
		}
		for _, n := range newNodes {
			fsys.table.DeleteLocked(n.ID)
		}
		for i := len(createdDirs) - 1; i >= 0; i-- {
			d := createdDirs[i]
			delete(d.parent.Dir.Children, d.name)
			fsys.table.DeleteLocked(d.node.ID)
		}
		fsys.quota.ForceReserve(oldQuota)
		return failErr
	}

	// Charge what the new nodes actually use, which matches newQuota
	// for the chunked backend and omits its per-chunk overhead for the
	// contiguous one.
	var actualNew int64
	for _, n := range newNodes {
		actualNew += n.File.Storage.QuotaUsage()
	}
	fsys.quota.ForceReserve(actualNew)
	logger.Debugf("import: %d entries, net quota delta %d bytes", len(normalized), actualNew-oldQuota)
	return nil
}
