package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vidcompress/internal/logging"
	"vidcompress/internal/metrics"
)

// ErrNotFound is returned when a video does not exist.
var ErrNotFound = errors.New("video not found")

// Video is one uploaded video.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Hashtags     []string  `json:"hashtags"`
	Views        int64     `json:"views"`
	Likes        int64     `json:"likes"`
	OriginalSize int64     `json:"originalSize"`
	StoredSize   int64     `json:"storedSize"`
	Compressed   bool      `json:"compressed"`
	CreatedAt    time.Time `json:"createdAt"`
}

const videoColumns = `id, title, description, url, thumbnail_url, hashtags, views, likes,
	original_size, stored_size, compressed, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*Video, error) {
	var (
		v         Video
		hashtags  string
		createdAt int64
	)
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.URL, &v.ThumbnailURL, &hashtags,
		&v.Views, &v.Likes, &v.OriginalSize, &v.StoredSize, &v.Compressed, &createdAt)
	if err != nil {
		return nil, err
	}
	v.Hashtags = splitHashtags(hashtags)
	v.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &v, nil
}

func splitHashtags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// InsertVideo stores a new video. ID and CreatedAt must be set.
func (d *Database) InsertVideo(ctx context.Context, v *Video) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if v.ID == "" {
		return errors.New("video id is required")
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO videos (`+videoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.Title, v.Description, v.URL, v.ThumbnailURL, strings.Join(v.Hashtags, ","),
		v.Views, v.Likes, v.OriginalSize, v.StoredSize, v.Compressed, v.CreatedAt.UnixMilli())
	recordQuery("insert_video", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

// GetVideo retrieves a video by ID.
func (d *Database) GetVideo(ctx context.Context, id string) (*Video, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	v, err := scanVideo(d.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		recordQuery("get_video", start, nil)
		return nil, ErrNotFound
	}
	recordQuery("get_video", start, err)
	return v, err
}

// ListOptions controls ListVideos.
type ListOptions struct {
	// Query filters by a case-insensitive match on title or description.
	Query string
	// Hashtag filters by exact hashtag, without the leading '#'.
	Hashtag string
	Limit   int
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListVideos returns videos newest first.
func (d *Database) ListVideos(ctx context.Context, opts ListOptions) ([]*Video, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(opts.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if tag := strings.TrimSpace(opts.Hashtag); tag != "" {
		where = append(where, `(',' || hashtags || ',') LIKE ? ESCAPE '\'`)
		args = append(args, "%,"+escapeLike(strings.ToLower(tag))+",%")
	}

	query := `SELECT ` + videoColumns + ` FROM videos`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	op := "list_recent"
	if len(where) > 0 {
		op = "search_videos"
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		recordQuery(op, start, err)
		return nil, err
	}
	defer rows.Close()

	videos := []*Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			recordQuery(op, start, err)
			return nil, err
		}
		videos = append(videos, v)
	}
	err = rows.Err()
	recordQuery(op, start, err)
	return videos, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// IncrementViews adds one view and returns the new count.
func (d *Database) IncrementViews(ctx context.Context, id string) (int64, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var views int64
	err := d.db.QueryRowContext(ctx,
		`UPDATE videos SET views = views + 1 WHERE id = ? RETURNING views`, id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		recordQuery("increment_views", start, nil)
		return 0, ErrNotFound
	}
	recordQuery("increment_views", start, err)
	return views, err
}

// DeleteVideo removes a video and returns the deleted record.
func (d *Database) DeleteVideo(ctx context.Context, id string) (*Video, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	v, err := scanVideo(d.db.QueryRowContext(ctx,
		`DELETE FROM videos WHERE id = ? RETURNING `+videoColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		recordQuery("delete_video", start, nil)
		return nil, ErrNotFound
	}
	recordQuery("delete_video", start, err)
	return v, err
}

// CalculateStats computes library totals.
func (d *Database) CalculateStats(ctx context.Context) (Stats, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s Stats
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(stored_size), 0),
			COALESCE(SUM(original_size), 0),
			COALESCE(SUM(compressed), 0)
		FROM videos
	`).Scan(&s.TotalVideos, &s.StoredBytes, &s.OriginalBytes, &s.CompressedVideos)
	recordQuery("stats", start, err)
	return s, err
}

// Stats holds library totals.
type Stats struct {
	TotalVideos      int   `json:"totalVideos"`
	CompressedVideos int   `json:"compressedVideos"`
	StoredBytes      int64 `json:"storedBytes"`
	OriginalBytes    int64 `json:"originalBytes"`
}

// GetStats implements metrics.StatsProvider.
func (d *Database) GetStats() metrics.Stats {
	s, err := d.CalculateStats(context.Background())
	if err != nil {
		logging.Warn("failed to calculate library stats: %v", err)
		return metrics.Stats{}
	}
	return metrics.Stats{
		TotalVideos:   s.TotalVideos,
		StoredBytes:   s.StoredBytes,
		OriginalBytes: s.OriginalBytes,
	}
}
