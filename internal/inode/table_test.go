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
	"testing"
	"time"

	"github.com/jacobsa/memfs/internal/quota"
	"github.com/jacobsa/memfs/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirHelper(t *Table, parent *Node, name string) *Node {
	n := NewDirNode(t.AllocateLocked())
	t.InsertLocked(n)
	parent.Dir.Children[name] = n.ID
	return n
}

func mkfileHelper(tbl *Table, parent *Node, name string) *Node {
	mgr := quota.NewManager(0)
	n := NewFileNode(tbl.AllocateLocked(), storage.NewRandomAccess(mgr), time.Unix(0, 0))
	tbl.InsertLocked(n)
	parent.Dir.Children[name] = n.ID
	return n
}

func TestNewTableHasOnlyRoot(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	defer tbl.Unlock()

	assert.Equal(t, 1, tbl.CountLocked())
	root := tbl.RootLocked()
	require.NotNil(t, root)
	assert.True(t, root.IsDir())
	assert.Empty(t, root.Dir.Children)
}

func TestResolveRoot(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	defer tbl.Unlock()

	n, err := tbl.ResolveLocked("/")
	require.NoError(t, err)
	assert.Equal(t, RootID, n.ID)
}

func TestResolveNestedPath(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	defer tbl.Unlock()

	a := mkdirHelper(tbl, tbl.RootLocked(), "a")
	b := mkdirHelper(tbl, a, "b")
	f := mkfileHelper(tbl, b, "c.txt")

	n, err := tbl.ResolveLocked("/a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, f.ID, n.ID)
}

func TestResolveMissingSegmentNotFound(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	defer tbl.Unlock()

	_, err := tbl.ResolveLocked("/nope")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestResolveThroughFileIsNotFound(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	defer tbl.Unlock()

	mkfileHelper(tbl, tbl.RootLocked(), "f")

	_, err := tbl.ResolveLocked("/f/g")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestResolveParentLocked(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	defer tbl.Unlock()

	a := mkdirHelper(tbl, tbl.RootLocked(), "a")

	parent, name, err := tbl.ResolveParentLocked("/a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, a.ID, parent.ID)
	assert.Equal(t, "b.txt", name)
}

func TestResolveParentOfRootFails(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	defer tbl.Unlock()

	_, _, err := tbl.ResolveParentLocked("/")
	require.Error(t, err)
}

func TestSubtreeLocked(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	defer tbl.Unlock()

	root := tbl.RootLocked()
	a := mkdirHelper(tbl, root, "a")
	mkfileHelper(tbl, a, "f1")
	mkfileHelper(tbl, a, "f2")

	nodes := tbl.SubtreeLocked(a)
	assert.Len(t, nodes, 3)
	assert.Equal(t, a.ID, nodes[0].ID)
}

func TestAllocateLockedNeverReusesIDs(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	defer tbl.Unlock()

	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := tbl.AllocateLocked()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
