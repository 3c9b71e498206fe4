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
	"github.com/jacobsa/memfs/internal/quota"
	"github.com/jacobsa/memfs/internal/storage"
	"github.com/jacobsa/memfs/internal/timeutil"
)

// StorageKind selects the backend new files are created with.
type StorageKind int

const (
	// StorageAuto starts new files as Sequential with promotion to
	// RandomAccess enabled on the first non-tail write.
	StorageAuto StorageKind = iota

	// StorageSequential starts new files as Sequential with promotion
	// disabled: a non-tail write always fails with
	// UnsupportedOperationError.
	StorageSequential

	// StorageRandomAccess starts new files directly as RandomAccess.
	StorageRandomAccess
)

// Config configures a Filesystem at construction: a flat struct of
// primitive fields passed once to the constructor.
type Config struct {
	// MaxQuotaBytes upper-bounds the sum of every file's
	// QuotaUsage(). Zero or negative means unlimited.
	MaxQuotaBytes int64

	// MaxNodes caps the total node count, directories included. Zero
	// or negative means unlimited.
	MaxNodes int64

	// DefaultStorage selects the backend new files are created with.
	DefaultStorage StorageKind

	// PromotionHardLimitBytes caps how large a Sequential file may
	// grow before a non-tail write is refused instead of promoted.
	// Zero or negative uses storage.DefaultPromotionHardLimit.
	PromotionHardLimitBytes int64

	// ChunkOverheadOverride forces a specific per-chunk accounting
	// constant instead of runtime calibration. Zero means calibrate
	// via storage.CalibrateChunkOverhead.
	ChunkOverheadOverride int64

	// Clock supplies the wall clock for node timestamps. Defaults to
	// timeutil.RealClock{}.
	Clock timeutil.Clock
}

func (c Config) chunkOverhead() int64 {
	if c.ChunkOverheadOverride > 0 {
		return c.ChunkOverheadOverride
	}
	return storage.CalibrateChunkOverhead()
}

func (c Config) resolveClock() timeutil.Clock {
	if c.Clock != nil {
		return c.Clock
	}
	return timeutil.RealClock{}
}

// newBackend returns the storage.Backend a freshly created file
// starts with, per cfg.DefaultStorage.
func newBackend(cfg Config, mgr *quota.Manager) storage.Backend {
	switch cfg.DefaultStorage {
	case StorageRandomAccess:
		return storage.NewRandomAccess(mgr)
	case StorageSequential:
		return storage.NewSequential(mgr, cfg.chunkOverhead(), cfg.PromotionHardLimitBytes, false)
	default:
		return storage.NewSequential(mgr, cfg.chunkOverhead(), cfg.PromotionHardLimitBytes, true)
	}
}
