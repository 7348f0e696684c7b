package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/pkgcompare/pkg/integrations/npm"
	"github.com/matzehuels/pkgcompare/pkg/notify"
)

type fakeSearcher struct {
	mu    sync.Mutex
	calls []string
	pages map[int]int // page -> number of names
	err   error
	block chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, q string, page int) (*npm.SearchPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf("%s#%d", q, page))
	err, block := f.err, f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	n := npm.PageSize
	if v, ok := f.pages[page]; ok {
		n = v
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s-%d-%d", q, page, i)
	}
	return &npm.SearchPage{Query: q, Page: page, Names: names}, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitCalls(t *testing.T, f *fakeSearcher, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.callCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d search calls", n)
		}
		time.Sleep(time.Millisecond)
	}
}

type recorder struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recorder) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func TestQueryReplacesAndMoreAppends(t *testing.T) {
	ctx := context.Background()
	f := &fakeSearcher{pages: map[int]int{2: 5}}
	s := New(f, nil, nil)

	if err := s.Query(ctx, "react"); err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	st := s.State()
	if len(st.Items) != 20 || st.Page != 1 || !st.HasMore {
		t.Fatalf("after page 1: %d items, page %d, hasMore %v", len(st.Items), st.Page, st.HasMore)
	}

	if err := s.More(ctx); err != nil {
		t.Fatalf("More() error: %v", err)
	}
	st = s.State()
	if len(st.Items) != 25 || st.Page != 2 {
		t.Fatalf("after page 2: %d items, page %d", len(st.Items), st.Page)
	}
	if st.Items[0] != "react-1-0" || st.Items[20] != "react-2-0" {
		t.Errorf("order not preserved: %v", st.Items[:1])
	}
	if st.HasMore {
		t.Error("HasMore should be false after a short page")
	}

	// Short last page: More is a no-op.
	if err := s.More(ctx); err != nil {
		t.Fatalf("More() error: %v", err)
	}
	if f.callCount() != 2 {
		t.Errorf("calls = %d, want 2", f.callCount())
	}

	// A new query replaces the list.
	if err := s.Query(ctx, "vue"); err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	st = s.State()
	if len(st.Items) != 20 || st.Items[0] != "vue-1-0" || st.Page != 1 {
		t.Errorf("new query did not replace list: %d items, first %q", len(st.Items), st.Items[0])
	}
}

func TestShortQueryClearsWithoutRequest(t *testing.T) {
	ctx := context.Background()
	f := &fakeSearcher{}
	s := New(f, nil, nil)

	if err := s.Query(ctx, "react"); err != nil {
		t.Fatal(err)
	}
	if err := s.Query(ctx, "re"); err != nil {
		t.Fatal(err)
	}
	st := s.State()
	if len(st.Items) != 0 || st.Page != 1 || st.HasMore {
		t.Errorf("short query state = %+v", st)
	}
	if err := s.More(ctx); err != nil {
		t.Fatal(err)
	}
	if f.callCount() != 1 {
		t.Errorf("calls = %d, want 1", f.callCount())
	}
}

func TestFailureLeavesStateAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := &fakeSearcher{}
	rec := &recorder{}
	s := New(f, rec, nil)

	if err := s.Query(ctx, "lodash"); err != nil {
		t.Fatal(err)
	}
	before := s.State()

	f.mu.Lock()
	f.err = errors.New("offline")
	f.mu.Unlock()

	if err := s.More(ctx); err == nil {
		t.Fatal("More() should return the search error")
	}
	after := s.State()
	if len(after.Items) != len(before.Items) || after.Page != before.Page || after.HasMore != before.HasMore {
		t.Errorf("state changed on failure: before %+v after %+v", before, after)
	}
	if after.Loading {
		t.Error("Loading should be false after failure")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.got) != 1 || rec.got[0].Message != FailureMessage {
		t.Fatalf("notifications = %+v", rec.got)
	}
	if rec.got[0].Level != notify.LevelError {
		t.Errorf("Level = %q", rec.got[0].Level)
	}
}

func TestMoreIsNoOpWhileLoading(t *testing.T) {
	ctx := context.Background()
	f := &fakeSearcher{}
	s := New(f, nil, nil)
	if err := s.Query(ctx, "lodash"); err != nil {
		t.Fatal(err)
	}

	block := make(chan struct{})
	f.mu.Lock()
	f.block = block
	f.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.More(ctx) }()

	// Wait until the first More is in flight.
	waitCalls(t, f, 2)
	if !s.State().Loading {
		t.Error("Loading should be true while a request is in flight")
	}
	if err := s.More(ctx); err != nil {
		t.Fatal(err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if f.callCount() != 2 {
		t.Errorf("calls = %d, want 2", f.callCount())
	}
	if s.State().Page != 2 {
		t.Errorf("Page = %d, want 2", s.State().Page)
	}
}

func TestStaleQueryIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := &fakeSearcher{block: make(chan struct{})}
	s := New(f, nil, nil)

	done := make(chan error, 1)
	go func() { done <- s.Query(ctx, "angular") }()
	waitCalls(t, f, 1)

	// The newer query supersedes the blocked one.
	f.mu.Lock()
	block := f.block
	f.block = nil
	f.mu.Unlock()
	if err := s.Query(ctx, "svelte"); err != nil {
		t.Fatal(err)
	}
	close(block)
	<-done

	st := s.State()
	if st.Query != "svelte" || st.Items[0] != "svelte-1-0" {
		t.Errorf("stale result overwrote newer query: %+v", st.Items[:1])
	}
}

func TestClear(t *testing.T) {
	s := New(&fakeSearcher{}, nil, nil)
	if err := s.Query(context.Background(), "lodash"); err != nil {
		t.Fatal(err)
	}
	s.Clear()
	st := s.State()
	if st.Query != "" || len(st.Items) != 0 || st.HasMore || st.Page != 1 {
		t.Errorf("Clear() state = %+v", st)
	}
}

func TestHighlights(t *testing.T) {
	items := []string{"lodash", "lodash.merge", "underscore"}
	got := Highlights("ldsh", items)

	if _, ok := got[0]; !ok {
		t.Error("lodash should match ldsh")
	}
	if _, ok := got[2]; ok {
		t.Error("underscore should not match ldsh")
	}
	if idx := got[0]; len(idx) != 4 || idx[0] != 0 {
		t.Errorf("matched indexes = %v", idx)
	}
	if len(Highlights("", items)) != 0 {
		t.Error("empty query should highlight nothing")
	}
}
