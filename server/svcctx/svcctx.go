// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package svcctx holds the long-lived service/root context of the application. Work that is not
// tied to an active HTTP request derives from it, and cancelling it starts the graceful shutdown.
package svcctx

import (
	"context"
	"sync"
)

var (
	mu     sync.RWMutex
	root   context.Context
	cancel context.CancelFunc
)

// New installs a cancelable child of parent as the root context and returns it. A nil parent
// means context.Background(). A previously installed root is cancelled.
func New(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancelFn := context.WithCancel(parent)

	mu.Lock()
	prevCancel := cancel
	root, cancel = ctx, cancelFn
	mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}

	return ctx, cancelFn
}

// Get returns the root context if available, otherwise context.Background().
func Get() context.Context {
	mu.RLock()
	defer mu.RUnlock()

	if root == nil {
		return context.Background()
	}

	return root
}

// Cancel cancels the root context. It is safe to call before New.
func Cancel() {
	mu.RLock()
	cancelFn := cancel
	mu.RUnlock()

	if cancelFn != nil {
		cancelFn()
	}
}
