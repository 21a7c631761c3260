package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"twitter-insights/internal/insight"
	"twitter-insights/internal/model"

	"github.com/redis/go-redis/v9"
)

// PostStore reads per-account post timelines from redis. Each account has a
// sorted set of post ids scored by created_at, with the post JSON stored
// alongside. Ingestion happens externally; AddPost exists for seeding.
type PostStore struct {
	rdb *redis.Client
}

func NewPostStore(rdb *redis.Client) *PostStore {
	return &PostStore{rdb: rdb}
}

func timelineKey(handle string) string {
	return fmt.Sprintf("posts:timeline:%s", handle)
}

func postKey(handle, id string) string {
	return fmt.Sprintf("posts:item:%s:%s", handle, id)
}

func snapshottedKey(lineID, period string) string {
	return fmt.Sprintf("insights:snapshotted:%s:%s", lineID, period)
}

// AddPost stores a post and indexes it on the account timeline.
func (s *PostStore) AddPost(ctx context.Context, handle string, p model.Post) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, postKey(handle, p.ID), b, 0).Err(); err != nil {
		return err
	}
	z := redis.Z{Score: float64(p.CreatedAt.UnixNano()), Member: p.ID}
	return s.rdb.ZAdd(ctx, timelineKey(handle), z).Err()
}

// LoadWindow queries each account timeline for [w.Start, w.End), merges the
// results, applies the type filter, sorts descending by created_at, and
// paginates. The returned total counts matches before pagination. Accounts
// without a timeline contribute nothing; that is not an error.
func (s *PostStore) LoadWindow(ctx context.Context, handles []string, w insight.Window, filter model.PostType, skip, limit int) (int, []model.Post, error) {
	if len(handles) == 0 {
		return 0, nil, insight.ErrEmptyAccountSet
	}
	w = w.Resolved()
	var all []model.Post
	for _, handle := range handles {
		ids, err := s.rdb.ZRevRangeByScore(ctx, timelineKey(handle), &redis.ZRangeBy{
			Min: strconv.FormatInt(w.Start.UnixNano(), 10),
			Max: "(" + strconv.FormatInt(w.End.UnixNano(), 10),
		}).Result()
		if err != nil {
			return 0, nil, fmt.Errorf("query timeline %s: %w", handle, err)
		}
		for _, id := range ids {
			b, err := s.rdb.Get(ctx, postKey(handle, id)).Bytes()
			if err == redis.Nil {
				continue // index entry outlived the item
			}
			if err != nil {
				return 0, nil, fmt.Errorf("load post %s/%s: %w", handle, id, err)
			}
			var p model.Post
			if err := json.Unmarshal(b, &p); err != nil {
				return 0, nil, fmt.Errorf("decode post %s/%s: %w", handle, id, err)
			}
			if p.Username == "" {
				p.Username = handle
			}
			all = append(all, p)
		}
	}
	total, page := AssembleWindow(all, filter, skip, limit)
	return total, page, nil
}

// AssembleWindow is the pure tail of the loader: type filtering, descending
// chronological order, and pagination over an already-fetched collection.
func AssembleWindow(posts []model.Post, filter model.PostType, skip, limit int) (int, []model.Post) {
	filtered := make([]model.Post, 0, len(posts))
	seen := map[string]struct{}{}
	for _, p := range posts {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		if filter != "" && !p.Matches(filter) {
			continue
		}
		filtered = append(filtered, p)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].ID < filtered[j].ID
	})
	total := len(filtered)
	if skip > 0 {
		if skip >= len(filtered) {
			return total, []model.Post{}
		}
		filtered = filtered[skip:]
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return total, filtered
}

// IsSnapshotted reports whether the scheduled builder already produced a
// snapshot for the line in the given period.
func (s *PostStore) IsSnapshotted(ctx context.Context, lineID, period string) (bool, error) {
	_, err := s.rdb.Get(ctx, snapshottedKey(lineID, period)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkSnapshotted records that the period has been handled for the line.
func (s *PostStore) MarkSnapshotted(ctx context.Context, lineID, period string, d time.Duration) error {
	return s.rdb.Set(ctx, snapshottedKey(lineID, period), "1", d).Err()
}
