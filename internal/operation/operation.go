// Copyright 2018 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package operation serializes the asynchronous auth flows. At most one
// operation runs at any time; the rest wait in FIFO order. An operation
// may suspend on network or surface I/O internally, but the queue only
// observes its completion.
package operation

import (
	"log"
	"sync/atomic"

	"github.com/google/uuid"
)

type task struct {
	name string
	id   string
	run  func()
	done chan struct{}
}

// Queue runs operations one at a time in submission order.
type Queue struct {
	tasks chan *task
	quit  chan struct{}
}

// NewQueue creates a queue and starts its runner.
func NewQueue() *Queue {
	q := &Queue{
		tasks: make(chan *task, 16),
		quit:  make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	for {
		select {
		case t := <-q.tasks:
			log.Printf("operation %s (%s) start", t.name, t.id)
			t.run()
			log.Printf("operation %s (%s) done", t.name, t.id)
			close(t.done)
		case <-q.quit:
			return
		}
	}
}

// Run enqueues fn and blocks the calling goroutine until the queue has
// executed it. fn runs exactly once; results travel through variables
// captured by the closure.
func (q *Queue) Run(name string, fn func()) {
	t := &task{
		name: name,
		id:   uuid.NewString(),
		run:  fn,
		done: make(chan struct{}),
	}
	q.tasks <- t
	<-t.done
}

// Close stops the runner. Operations already submitted but not yet
// started may never be executed, so Close is only safe once callers are
// done with the queue.
func (q *Queue) Close() {
	close(q.quit)
}

// Holder guards the single completion of a flow whose control branches
// into multiple callbacks. The first branch to Claim the holder wins the
// right to complete the flow; all later claims report false and the
// losing branches must return without touching the flow's result.
type Holder struct {
	claimed atomic.Bool
}

// Claim returns true exactly once across all branches.
func (h *Holder) Claim() bool {
	return h.claimed.CompareAndSwap(false, true)
}
