package youtube

import (
	"context"
	"errors"
	"iter"
)

// ErrSequenceConsumed is yielded when a paged sequence is ranged over a second time.
var ErrSequenceConsumed = errors.New("paged sequence already consumed")

// PageFunc fetches one page. pageToken is empty for the first page; an empty
// nextPageToken means there are no further pages.
type PageFunc[T any] func(ctx context.Context, pageToken string) (items []T, nextPageToken string, err error)

// Paginate returns a lazy sequence of at most limit items drawn page by page
// from fetch. It stops as soon as limit items were yielded, even mid-page, or
// when a page carries no continuation token. Pages are only requested while
// the consumer keeps pulling. A fetch error is yielded once and ends the
// sequence. The sequence can be ranged over only once.
func Paginate[T any](ctx context.Context, limit int, fetch PageFunc[T]) iter.Seq2[T, error] {
	consumed := false
	return func(yield func(T, error) bool) {
		var zero T
		if consumed {
			yield(zero, ErrSequenceConsumed)
			return
		}
		consumed = true

		count := 0
		pageToken := ""
		for count < limit {
			items, next, err := fetch(ctx, pageToken)
			if err != nil {
				yield(zero, err)
				return
			}

			for _, item := range items {
				if !yield(item, nil) {
					return
				}
				count++
				if count >= limit {
					return
				}
			}

			if next == "" {
				return
			}
			pageToken = next
		}
	}
}

// Comments streams up to maxComments top-level comments of a video.
func (ys *YouTubeService) Comments(ctx context.Context, videoID string, maxComments int) iter.Seq2[string, error] {
	return Paginate(ctx, maxComments, func(ctx context.Context, pageToken string) ([]string, string, error) {
		return ys.fetchCommentPage(ctx, videoID, pageToken)
	})
}
