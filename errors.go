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
	"errors"
	"fmt"

	"github.com/jacobsa/memfs/internal/quota"
)

// NotFoundError is returned when a path does not resolve to any node.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// NewNotFoundError constructs a NotFoundError for path.
func NewNotFoundError(path string) *NotFoundError {
	return &NotFoundError{Path: path}
}

// AlreadyExistsError is returned when the target of a create, rename,
// or move already exists.
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("already exists: %s", e.Path)
}

// NewAlreadyExistsError constructs an AlreadyExistsError for path.
func NewAlreadyExistsError(path string) *AlreadyExistsError {
	return &AlreadyExistsError{Path: path}
}

// IsADirectoryError is returned when a file-only operation receives a
// directory path.
type IsADirectoryError struct {
	Path string
}

func (e *IsADirectoryError) Error() string {
	return fmt.Sprintf("is a directory: %s", e.Path)
}

// NewIsADirectoryError constructs an IsADirectoryError for path.
func NewIsADirectoryError(path string) *IsADirectoryError {
	return &IsADirectoryError{Path: path}
}

// NotADirectoryError is returned when a directory-only operation
// receives a file path, or when a path segment expected to be a
// directory names a file.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("not a directory: %s", e.Path)
}

// NewNotADirectoryError constructs a NotADirectoryError for path.
func NewNotADirectoryError(path string) *NotADirectoryError {
	return &NotADirectoryError{Path: path}
}

// InvalidArgumentError is returned for a malformed path, an illegal
// open mode, an illegal seek, or an export whose size exceeds a
// caller-supplied ceiling.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Reason)
}

// NewInvalidArgumentError constructs an InvalidArgumentError.
func NewInvalidArgumentError(reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Reason: reason}
}

// WouldBlockError is returned when a lock acquisition times out, or,
// for a zero lock timeout, would have to wait at all.
type WouldBlockError struct {
	Path string
	Err  error
}

func (e *WouldBlockError) Error() string {
	return fmt.Sprintf("would block on %s: %v", e.Path, e.Err)
}

func (e *WouldBlockError) Unwrap() error {
	return e.Err
}

// NewWouldBlockError constructs a WouldBlockError wrapping the
// rwlock-level error that triggered it.
func NewWouldBlockError(path string, err error) *WouldBlockError {
	return &WouldBlockError{Path: path, Err: err}
}

// QuotaExceededError is returned when a reservation would push used
// bytes above the configured maximum.
type QuotaExceededError struct {
	Err error
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %v", e.Err)
}

func (e *QuotaExceededError) Unwrap() error {
	return e.Err
}

// NewQuotaExceededError wraps a lower-level quota error.
func NewQuotaExceededError(err error) *QuotaExceededError {
	return &QuotaExceededError{Err: err}
}

// NodeLimitExceededError is a subtype of QuotaExceededError signaled
// when the node-count budget, not the byte budget, is exhausted.
type NodeLimitExceededError struct {
	Err error
}

func (e *NodeLimitExceededError) Error() string {
	return fmt.Sprintf("node limit exceeded: %v", e.Err)
}

// Unwrap exposes a QuotaExceededError wrapping the same cause, so
// callers matching on the supertype also catch node-limit failures.
func (e *NodeLimitExceededError) Unwrap() error {
	return &QuotaExceededError{Err: e.Err}
}

// NewNodeLimitExceededError wraps a lower-level node-limit error.
func NewNodeLimitExceededError(err error) *NodeLimitExceededError {
	return &NodeLimitExceededError{Err: err}
}

// UnsupportedOperationError is returned for a mode/capability
// mismatch — reading a write-only handle, a non-tail write on a
// sequential file with promotion disabled, promotion above the hard
// limit, or a read, write, seek or truncate on a closed handle.
type UnsupportedOperationError struct {
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation: %s", e.Reason)
}

// NewUnsupportedOperationError constructs an UnsupportedOperationError.
func NewUnsupportedOperationError(reason string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Reason: reason}
}

// translateQuotaError maps an error from the quota package onto the
// taxonomy above, preferring the more specific NodeLimitExceededError
// when applicable.
func translateQuotaError(err error) error {
	var nodeLimit *quota.NodeLimitError
	if errors.As(err, &nodeLimit) {
		return &NodeLimitExceededError{Err: err}
	}
	var exceeded *quota.ExceededError
	if errors.As(err, &exceeded) {
		return &QuotaExceededError{Err: err}
	}
	return err
}
