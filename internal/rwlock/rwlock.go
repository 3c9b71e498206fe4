// Copyright 2025 Google LLC
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

// Package rwlock implements the per-file readers-writer lock: multiple
// readers or at most one writer, with a bounded wait. It is a plain
// sync.Mutex/sync.Cond pair rather than golang.org/x/sync/semaphore.Weighted:
// that package's admission is FIFO-fair (its notifyWaiters queues so a
// waiting writer is never jumped by later readers), while this lock is
// deliberately non-fair. Writer starvation is possible under sustained
// read load; callers bound their waits with a timeout. A Cond.Broadcast
// wakes every waiter to race on rechecking the condition, which is what
// makes admission non-fair.
package rwlock

import (
	"sync"
	"time"
)

// WouldBlockError is returned when a lock acquisition times out or,
// for a zero timeout, finds the lock already held.
type WouldBlockError struct {
	Write bool
}

func (e *WouldBlockError) Error() string {
	if e.Write {
		return "would block: write lock held"
	}
	return "would block: lock held"
}

// RWMutex is a non-fair readers-writer lock with a bounded-wait
// acquisition API.
type RWMutex struct {
	mu         sync.Mutex
	cond       *sync.Cond
	readers    int
	writerHeld bool
}

// New returns an unlocked RWMutex.
func New() *RWMutex {
	l := &RWMutex{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// deadlineFor resolves timeout into (hasDeadline, deadline-time); a nil
// timeout means block indefinitely.
func deadlineFor(timeout *time.Duration) (bool, time.Time) {
	if timeout == nil {
		return false, time.Time{}
	}
	return true, time.Now().Add(*timeout)
}

// waitUntil blocks on l.cond while blocked() is true, honoring an
// optional deadline. It returns false if the deadline passed while the
// condition was still blocking. l.mu must be held by the caller.
func (l *RWMutex) waitUntil(hasDeadline bool, deadline time.Time, blocked func() bool) bool {
	if !hasDeadline {
		for blocked() {
			l.cond.Wait()
		}
		return true
	}

	for blocked() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}

		timer := time.AfterFunc(remaining, func() {
			l.mu.Lock()
			l.cond.Broadcast()
			l.mu.Unlock()
		})
		l.cond.Wait()
		timer.Stop()
	}
	return true
}

// AcquireRead blocks until no writer holds the lock, subject to
// timeout. timeout nil blocks indefinitely; *timeout <= 0 try-acquires
// without waiting; a positive *timeout sets a wall-clock deadline.
func (l *RWMutex) AcquireRead(timeout *time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if timeout != nil && *timeout <= 0 {
		if l.writerHeld {
			return &WouldBlockError{Write: true}
		}
		l.readers++
		return nil
	}

	hasDeadline, deadline := deadlineFor(timeout)
	if !l.waitUntil(hasDeadline, deadline, func() bool { return l.writerHeld }) {
		return &WouldBlockError{Write: true}
	}
	l.readers++
	return nil
}

// AcquireWrite blocks until no reader and no writer holds the lock,
// subject to the same timeout cases as AcquireRead.
func (l *RWMutex) AcquireWrite(timeout *time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	blocked := func() bool { return l.writerHeld || l.readers > 0 }

	if timeout != nil && *timeout <= 0 {
		if blocked() {
			return &WouldBlockError{Write: l.writerHeld}
		}
		l.writerHeld = true
		return nil
	}

	hasDeadline, deadline := deadlineFor(timeout)
	if !l.waitUntil(hasDeadline, deadline, blocked) {
		return &WouldBlockError{Write: l.writerHeld}
	}
	l.writerHeld = true
	return nil
}

// ReleaseRead drops one reader hold and wakes any waiters.
func (l *RWMutex) ReleaseRead() {
	l.mu.Lock()
	l.readers--
	l.mu.Unlock()
	l.cond.Broadcast()
}

// ReleaseWrite drops the writer hold and wakes any waiters.
func (l *RWMutex) ReleaseWrite() {
	l.mu.Lock()
	l.writerHeld = false
	l.mu.Unlock()
	l.cond.Broadcast()
}

// IsLocked reports whether any reader or the writer currently holds the
// lock. This is a point-in-time snapshot, not a guarantee.
func (l *RWMutex) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readers > 0 || l.writerHeld
}
