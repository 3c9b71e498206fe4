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

// Package inode owns the node graph: the process-wide table of
// directory and file nodes, indexed by id, and path resolution over
// it. Identity is the node id; a path is a derived view, so rename
// and move never touch more than two child-map entries.
package inode

import (
	"time"

	"github.com/jacobsa/memfs/internal/rwlock"
	"github.com/jacobsa/memfs/internal/storage"
)

// ID identifies a node in the table. The root directory is always ID
// 0. IDs are never reused within a table's lifetime.
type ID uint64

// RootID is the id of the root directory node.
const RootID ID = 0

// DirPayload is the data carried by a directory node: a mapping from
// child entry name to child node id. There is no parent pointer;
// detach/attach during rename always goes through the parent found by
// path resolution, keeping the id graph free of back-references.
//
// GUARDED_BY(Table.mu)
type DirPayload struct {
	Children map[string]ID
}

// FilePayload is the data carried by a file node.
//
// GUARDED_BY(Table.mu) for everything except Storage access through
// Lock, which is guarded by Lock itself once acquired.
type FilePayload struct {
	Storage    storage.Backend
	Lock       *rwlock.RWMutex
	Generation int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Node is a tagged union: exactly one of Dir or File is non-nil. Go
// has no sum type construct, so the union is expressed as a struct
// with mutually exclusive payload pointers rather than as a common
// base type with optional fields.
type Node struct {
	ID   ID
	Dir  *DirPayload
	File *FilePayload
}

// IsDir reports whether n is a directory node.
func (n *Node) IsDir() bool { return n.Dir != nil }

// IsFile reports whether n is a file node.
func (n *Node) IsFile() bool { return n.File != nil }

// NewDirNode returns an empty directory node with the given id.
func NewDirNode(id ID) *Node {
	return &Node{ID: id, Dir: &DirPayload{Children: make(map[string]ID)}}
}

// NewFileNode returns a file node wrapping backend, with generation 0
// and both timestamps set to now.
func NewFileNode(id ID, backend storage.Backend, now time.Time) *Node {
	return &Node{
		ID: id,
		File: &FilePayload{
			Storage:    backend,
			Lock:       rwlock.New(),
			Generation: 0,
			CreatedAt:  now,
			ModifiedAt: now,
		},
	}
}
