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

package inode

import (
	"strings"
	"sync"
)

// Table is the process-wide node table plus the structure lock that
// guards it and every directory's child map.
//
// The structure lock is logically reentrant: a single top-level
// Filesystem operation takes Lock/Unlock once and then calls into any
// number of helpers that assume the lock is already held. Rather than
// build an actual recursive mutex, which needs goroutine-id tracking
// to implement correctly, every method here that assumes the lock is
// held is named with a Locked suffix and calls other Locked methods
// directly. Only Lock/Unlock themselves touch the underlying
// sync.Mutex.
type Table struct {
	mu    sync.Mutex
	nodes map[ID]*Node
	next  ID
}

// NewTable returns a table containing only the empty root directory.
func NewTable() *Table {
	t := &Table{nodes: make(map[ID]*Node)}
	t.nodes[RootID] = NewDirNode(RootID)
	t.next = RootID + 1
	return t
}

// Lock acquires the structure lock.
func (t *Table) Lock() { t.mu.Lock() }

// Unlock releases the structure lock.
func (t *Table) Unlock() { t.mu.Unlock() }

// AllocateLocked returns a fresh, never-before-used node id.
func (t *Table) AllocateLocked() ID {
	id := t.next
	t.next++
	return id
}

// RootLocked returns the root directory node.
func (t *Table) RootLocked() *Node {
	return t.nodes[RootID]
}

// GetLocked returns the node with the given id, or nil.
func (t *Table) GetLocked(id ID) *Node {
	return t.nodes[id]
}

// InsertLocked adds n to the table, keyed by its own id.
func (t *Table) InsertLocked(n *Node) {
	t.nodes[n.ID] = n
}

// DeleteLocked removes the node with the given id from the table. It
// does not touch any parent's child map; callers detach first.
func (t *Table) DeleteLocked(id ID) {
	delete(t.nodes, id)
}

// CountLocked returns the total number of nodes in the table,
// including the root.
func (t *Table) CountLocked() int {
	return len(t.nodes)
}

// splitSegments splits a normalized absolute path ("/", "/a",
// "/a/b/c") into its non-empty segments. The root yields nil.
func splitSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// ResolveLocked walks path from the root through each directory's
// child map, returning the node found. Any missing segment, or any
// intermediate segment that names a file rather than a directory,
// fails with *NotFoundError.
func (t *Table) ResolveLocked(path string) (*Node, error) {
	segs := splitSegments(path)
	cur := t.RootLocked()

	for i, seg := range segs {
		if cur.Dir == nil {
			return nil, &NotFoundError{Path: path}
		}
		childID, ok := cur.Dir.Children[seg]
		if !ok {
			return nil, &NotFoundError{Path: path}
		}
		child := t.nodes[childID]
		if i < len(segs)-1 && child.Dir == nil {
			return nil, &NotFoundError{Path: path}
		}
		cur = child
	}

	return cur, nil
}

// ResolveParentLocked resolves every segment but the last, returning
// the parent directory node and the final segment name. It fails with
// *NotFoundError if path is the root (which has no parent) or if any
// ancestor segment is missing or is a file.
func (t *Table) ResolveParentLocked(path string) (parent *Node, name string, err error) {
	segs := splitSegments(path)
	if len(segs) == 0 {
		return nil, "", &NotFoundError{Path: path}
	}

	cur := t.RootLocked()
	for _, seg := range segs[:len(segs)-1] {
		if cur.Dir == nil {
			return nil, "", &NotFoundError{Path: path}
		}
		childID, ok := cur.Dir.Children[seg]
		if !ok {
			return nil, "", &NotFoundError{Path: path}
		}
		child := t.nodes[childID]
		if child.Dir == nil {
			return nil, "", &NotFoundError{Path: path}
		}
		cur = child
	}

	return cur, segs[len(segs)-1], nil
}

// SubtreeLocked returns every node reachable from n by a depth-first
// walk, including n itself. Order is unspecified beyond n appearing
// first. Used by RmTree, CopyTree, and Rename's held-lock check to
// enumerate a subtree without each caller re-implementing recursion.
func (t *Table) SubtreeLocked(n *Node) []*Node {
	out := []*Node{n}
	if n.Dir == nil {
		return out
	}
	for _, childID := range n.Dir.Children {
		out = append(out, t.SubtreeLocked(t.nodes[childID])...)
	}
	return out
}
