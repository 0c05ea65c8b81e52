package youtube

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakePageSource struct {
	pages [][]string
	calls []string
	err   error
	errAt int
}

func (f *fakePageSource) fetch(_ context.Context, pageToken string) ([]string, string, error) {
	f.calls = append(f.calls, pageToken)
	index := len(f.calls) - 1
	if f.err != nil && index == f.errAt {
		return nil, "", f.err
	}
	if index >= len(f.pages) {
		return nil, "", nil
	}
	next := ""
	if index+1 < len(f.pages) {
		next = fmt.Sprintf("page-%d", index+1)
	}
	return f.pages[index], next, nil
}

func makePage(prefix string, n int) []string {
	page := make([]string, n)
	for i := range page {
		page[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return page
}

func collect(t *testing.T, seq func(func(string, error) bool)) ([]string, error) {
	t.Helper()
	var out []string
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}

func TestPaginateStopsAtCapMidPage(t *testing.T) {
	source := &fakePageSource{pages: [][]string{makePage("p1", 100), makePage("p2", 100)}}

	got, err := collect(t, Paginate(context.Background(), 150, source.fetch))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 150 {
		t.Fatalf("expected 150 comments, got %d", len(got))
	}
	if len(source.calls) != 2 {
		t.Fatalf("expected exactly 2 page requests, got %d", len(source.calls))
	}
	if source.calls[0] != "" || source.calls[1] != "page-1" {
		t.Fatalf("unexpected page tokens: %v", source.calls)
	}
	if got[149] != "p2-49" {
		t.Fatalf("expected scanning to stop at p2-49, last item was %s", got[149])
	}
}

func TestPaginateStopsWhenCursorExhausted(t *testing.T) {
	source := &fakePageSource{pages: [][]string{makePage("p1", 3), makePage("p2", 2)}}

	got, err := collect(t, Paginate(context.Background(), 50, source.fetch))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 comments, got %d", len(got))
	}
	if len(source.calls) != 2 {
		t.Fatalf("expected 2 page requests, got %d", len(source.calls))
	}
}

func TestPaginateCapOnPageBoundaryDoesNotFetchNextPage(t *testing.T) {
	source := &fakePageSource{pages: [][]string{makePage("p1", 100), makePage("p2", 100)}}

	got, err := collect(t, Paginate(context.Background(), 100, source.fetch))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 100 || len(source.calls) != 1 {
		t.Fatalf("expected 100 comments from 1 request, got %d from %d", len(got), len(source.calls))
	}
}

func TestPaginateEmptyFirstPage(t *testing.T) {
	source := &fakePageSource{pages: [][]string{{}}}

	got, err := collect(t, Paginate(context.Background(), 50, source.fetch))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 0 || len(source.calls) != 1 {
		t.Fatalf("expected no comments from 1 request, got %d from %d", len(got), len(source.calls))
	}
}

func TestPaginateIsLazy(t *testing.T) {
	source := &fakePageSource{pages: [][]string{makePage("p1", 2), makePage("p2", 2)}}
	seq := Paginate(context.Background(), 10, source.fetch)

	if len(source.calls) != 0 {
		t.Fatalf("expected no requests before iteration, got %d", len(source.calls))
	}

	for range seq {
		break
	}
	if len(source.calls) != 1 {
		t.Fatalf("expected consumer break to stop paging after 1 request, got %d", len(source.calls))
	}
}

func TestPaginateYieldsFetchError(t *testing.T) {
	boom := errors.New("quota exceeded")
	source := &fakePageSource{pages: [][]string{makePage("p1", 2), makePage("p2", 2)}, err: boom, errAt: 1}

	got, err := collect(t, Paginate(context.Background(), 10, source.fetch))
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected items before the error to be yielded, got %d", len(got))
	}
}

func TestPaginateIsNotRestartable(t *testing.T) {
	source := &fakePageSource{pages: [][]string{makePage("p1", 2)}}
	seq := Paginate(context.Background(), 10, source.fetch)

	if _, err := collect(t, seq); err != nil {
		t.Fatalf("expected no error on first pass, got %v", err)
	}
	_, err := collect(t, seq)
	if !errors.Is(err, ErrSequenceConsumed) {
		t.Fatalf("expected ErrSequenceConsumed on second pass, got %v", err)
	}
	if len(source.calls) != 1 {
		t.Fatalf("expected second pass not to fetch, got %d requests", len(source.calls))
	}
}

func TestPaginateZeroLimitFetchesNothing(t *testing.T) {
	source := &fakePageSource{pages: [][]string{makePage("p1", 2)}}

	got, _ := collect(t, Paginate(context.Background(), 0, source.fetch))
	if len(got) != 0 || len(source.calls) != 0 {
		t.Fatalf("expected no fetch for zero limit")
	}
}
