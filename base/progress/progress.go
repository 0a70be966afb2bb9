// Copyright 2023 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

type spanKeyType string

var spanKeyName = spanKeyType(uuid.New().String())

type Status string

const (
	StatusRunning  Status = "Running"
	StatusComplete Status = "Complete"
	StatusFailed   Status = "Failed"
)

// Tracer collects the root spans of long running jobs such as fitting and evaluation.
type Tracer struct {
	name  string
	spans sync.Map
}

func NewTracer(name string) *Tracer {
	return &Tracer{name: name}
}

// Start creates a root span.
func (t *Tracer) Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	span := newSpan(name, total)
	t.spans.Store(name, span)
	return context.WithValue(ctx, spanKeyName, span), span
}

// List reports root spans sorted by start time.
func (t *Tracer) List() []Progress {
	var progress []Progress
	t.spans.Range(func(_, value any) bool {
		p := value.(*Span).Progress()
		p.Tracer = t.name
		progress = append(progress, p)
		return true
	})
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].StartTime.Before(progress[j].StartTime)
	})
	return progress
}

// Span tracks the progress of a job. It is safe for concurrent use.
type Span struct {
	name     string
	total    int
	count    *atomic.Int64
	status   *atomic.String
	err      *atomic.Error
	start    time.Time
	finish   *atomic.Time
	parent   *Span
	children sync.Map
}

func newSpan(name string, total int) *Span {
	return &Span{
		name:   name,
		total:  total,
		count:  atomic.NewInt64(0),
		status: atomic.NewString(string(StatusRunning)),
		err:    atomic.NewError(nil),
		start:  time.Now(),
		finish: atomic.NewTime(time.Time{}),
	}
}

func (s *Span) Add(n int) {
	s.count.Add(int64(n))
}

func (s *Span) End() {
	s.count.Store(int64(s.total))
	if s.status.CompareAndSwap(string(StatusRunning), string(StatusComplete)) {
		s.finish.Store(time.Now())
	}
}

// Fail marks the span and its ancestors as failed.
func (s *Span) Fail(err error) {
	for span := s; span != nil; span = span.parent {
		span.err.Store(err)
		span.status.Store(string(StatusFailed))
		span.finish.Store(time.Now())
	}
}

func (s *Span) Count() int {
	return int(s.count.Load())
}

func (s *Span) Progress() Progress {
	p := Progress{
		Name:       s.name,
		Status:     Status(s.status.Load()),
		Count:      s.Count(),
		Total:      s.total,
		StartTime:  s.start,
		FinishTime: s.finish.Load(),
	}
	if err := s.err.Load(); err != nil {
		p.Error = err.Error()
	}
	s.children.Range(func(_, value any) bool {
		p.Children = append(p.Children, value.(*Span).Progress())
		return true
	})
	sort.Slice(p.Children, func(i, j int) bool {
		return p.Children[i].StartTime.Before(p.Children[j].StartTime)
	})
	return p
}

// Start creates a child of the span carried by ctx. The span is detached when ctx carries none.
func Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	childSpan := newSpan(name, total)
	if ctx == nil {
		ctx = context.Background()
	}
	if span, ok := ctx.Value(spanKeyName).(*Span); ok {
		childSpan.parent = span
		span.children.Store(name, childSpan)
	}
	return context.WithValue(ctx, spanKeyName, childSpan), childSpan
}

// Fail marks the span carried by ctx as failed.
func Fail(ctx context.Context, err error) {
	if span, ok := ctx.Value(spanKeyName).(*Span); ok {
		span.Fail(err)
	}
}

type Progress struct {
	Tracer     string
	Name       string
	Status     Status
	Error      string
	Count      int
	Total      int
	StartTime  time.Time
	FinishTime time.Time
	Children   []Progress
}
