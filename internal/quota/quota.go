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

// Package quota implements centralized admission control over a
// process-wide byte budget: every grower of memory must check in with
// a single ledger before it is allowed to grow, and failed growers
// leave the ledger untouched.
package quota

import (
	"fmt"
	"sync"
)

// ExceededError is returned when a reservation would push used above
// maximum. It carries the rejected request size and the amount that was
// actually available, for observability.
type ExceededError struct {
	Requested int64
	Available int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf(
		"quota exceeded: requested %d bytes, %d available",
		e.Requested, e.Available)
}

// NodeLimitError is a subtype of ExceededError signaled when the node
// count budget, not the byte budget, is exhausted.
type NodeLimitError struct {
	ExceededError
}

func (e *NodeLimitError) Error() string {
	return fmt.Sprintf("node limit exceeded: %s", e.ExceededError.Error())
}

// Unwrap exposes the embedded ExceededError so callers matching on the
// supertype also catch node-limit failures.
func (e *NodeLimitError) Unwrap() error {
	return &e.ExceededError
}

// Manager is the single ledger of bytes reserved across every file in a
// filesystem instance. Safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	maximum int64
	used    int64
}

// NewManager returns a Manager with the given byte budget. A maximum of
// zero or less means no budget: every reservation succeeds.
func NewManager(maximum int64) *Manager {
	return &Manager{maximum: maximum}
}

// unlimited reports whether this manager was configured with no cap.
func (m *Manager) unlimited() bool {
	return m.maximum <= 0
}

// Snapshot returns (maximum, used, free) atomically. free is -1 for
// an unlimited manager.
func (m *Manager) Snapshot() (maximum, used, free int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unlimited() {
		return m.maximum, m.used, -1
	}
	return m.maximum, m.used, m.maximum - m.used
}

// Reservation is a scoped, guaranteed-release acquisition of n bytes.
// Call Commit once the caller's allocation has actually happened;
// Release on the error path gives the bytes back. Exactly one of
// Commit/Release should be called, and each is safe to call at most
// once after the other.
type Reservation struct {
	m        *Manager
	n        int64
	resolved bool
}

// Reserve acquires n bytes from the ledger, failing fast with
// *ExceededError if the budget would be exceeded. n <= 0 is a no-op that
// returns a no-op reservation.
func (m *Manager) Reserve(n int64) (*Reservation, error) {
	if n <= 0 {
		return &Reservation{m: m, n: 0}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.unlimited() && n > m.maximum-m.used {
		return nil, &ExceededError{Requested: n, Available: m.maximum - m.used}
	}

	m.used += n
	return &Reservation{m: m, n: n}, nil
}

// Commit finalizes a reservation: the reserved bytes remain charged
// against the ledger permanently (the caller's allocation succeeded).
func (r *Reservation) Commit() {
	r.resolved = true
}

// Release gives back a reservation's bytes; call this on the failure
// path after Reserve succeeded but the caller's own operation then
// failed, so the ledger reflects reality.
func (r *Reservation) Release() {
	if r.resolved || r.n == 0 {
		r.resolved = true
		return
	}
	r.resolved = true
	r.m.release(r.n)
}

// Release subtracts n from used, clamped to zero.
func (m *Manager) Release(n int64) {
	if n <= 0 {
		return
	}
	m.release(n)
}

func (m *Manager) release(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used -= n
	if m.used < 0 {
		m.used = 0
	}
}

// ForceReserve unconditionally adds n to used. Callers must already hold
// whatever external lock serializes structural mutation (the structure
// lock, in the filesystem core) and must have verified via Snapshot that
// n fits in the remaining budget. This is used only by the batch tree
// operations, which compute a whole batch's delta up front and apply
// it once at the end of a successful batch.
func (m *Manager) ForceReserve(n int64) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used += n
}
