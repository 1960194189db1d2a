package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"vidcompress/internal/asset"
	"vidcompress/internal/compress"
	"vidcompress/internal/database"
	"vidcompress/internal/logging"
	"vidcompress/internal/mediatypes"
	"vidcompress/internal/metrics"
	"vidcompress/internal/storage"
)

const (
	// MaxTitleLength is the longest accepted title, in characters.
	MaxTitleLength = 100
	// MaxDescriptionLength is the longest accepted description, in characters.
	MaxDescriptionLength = 5000
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid upload")

// Compressor is the part of compress.Compressor the service needs.
type Compressor interface {
	Run(ctx context.Context, a *asset.Asset, onProgress func(percent int)) compress.Outcome
}

// Library records uploaded videos.
type Library interface {
	InsertVideo(ctx context.Context, v *database.Video) error
}

// Request is one upload.
type Request struct {
	Video       *asset.Asset
	Thumbnail   *asset.Asset // optional
	Title       string
	Description string
	Hashtags    []string
	Compress    bool
}

// Result is a completed upload.
type Result struct {
	Video *database.Video `json:"video"`
	// Compression is nil when compression was not requested.
	Compression *Compression `json:"compression,omitempty"`
}

// Compression summarizes the compression step.
type Compression struct {
	Applied      bool    `json:"applied"`
	Reason       string  `json:"reason"`
	OriginalSize int64   `json:"originalSize"`
	OutputSize   int64   `json:"outputSize"`
	SavedPercent float64 `json:"savedPercent"`
	DurationMs   int64   `json:"durationMs"`
}

// Service runs uploads.
type Service struct {
	compressor Compressor
	store      storage.ObjectStore
	library    Library

	now   func() time.Time
	newID func() string
}

// NewService creates a Service.
func NewService(compressor Compressor, store storage.ObjectStore, library Library) *Service {
	return &Service{
		compressor: compressor,
		store:      store,
		library:    library,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// Validate checks and normalizes req in place.
func Validate(req *Request) error {
	if req.Video == nil || req.Video.Size() == 0 {
		return fmt.Errorf("%w: a video file is required", ErrInvalid)
	}
	if !isVideo(req.Video) {
		return fmt.Errorf("%w: %s is not a video file", ErrInvalid, req.Video.Name())
	}
	if req.Thumbnail != nil && !isImage(req.Thumbnail) {
		return fmt.Errorf("%w: %s is not an image file", ErrInvalid, req.Thumbnail.Name())
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if utf8.RuneCountInString(req.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalid, MaxTitleLength)
	}

	req.Description = strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(req.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalid, MaxDescriptionLength)
	}

	req.Hashtags = NormalizeHashtags(req.Hashtags)
	return nil
}

func isVideo(a *asset.Asset) bool {
	return strings.HasPrefix(a.ContentType(), "video/") || mediatypes.TypeOf(a.Name()) == mediatypes.FileTypeVideo
}

func isImage(a *asset.Asset) bool {
	return strings.HasPrefix(a.ContentType(), "image/") || mediatypes.TypeOf(a.Name()) == mediatypes.FileTypeImage
}

// Upload validates req, compresses the video if asked, stores the files and
// records the video. onProgress receives compression progress and may be nil.
func (s *Service) Upload(ctx context.Context, req Request, onProgress func(percent int)) (*Result, error) {
	if err := Validate(&req); err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	res, err := s.upload(ctx, req, onProgress)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		logging.Error("Upload of %q failed: %v", req.Title, err)
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	return res, nil
}

func (s *Service) upload(ctx context.Context, req Request, onProgress func(percent int)) (*Result, error) {
	res := &Result{}
	video := req.Video

	if req.Compress && s.compressor != nil {
		o := s.compressor.Run(ctx, video, onProgress)
		video = o.Output
		res.Compression = &Compression{
			Applied:      o.Succeeded,
			Reason:       o.Reason,
			OriginalSize: o.OriginalSize,
			OutputSize:   o.OutputSize,
			SavedPercent: o.Ratio(),
			DurationMs:   o.Duration.Milliseconds(),
		}
		if !o.Succeeded && o.Reason != compress.ReasonBelowThreshold {
			logging.Info("Uploading %s without compression (%s)", req.Video.Name(), o.Reason)
		}
	}

	id := s.newID()
	now := s.now()
	short := strings.ReplaceAll(id, "-", "")[:8]

	videoName := storage.ObjectName(now, short, video.Name())
	videoURL, err := s.store.Put(ctx, storage.BucketVideos, videoName, video.Reader())
	if err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}

	var thumbnailURL, thumbnailName string
	if req.Thumbnail != nil {
		thumbnailName = storage.ObjectName(now, short, req.Thumbnail.Name())
		thumbnailURL, err = s.store.Put(ctx, storage.BucketThumbnails, thumbnailName, req.Thumbnail.Reader())
		if err != nil {
			s.discard(storage.BucketVideos, videoName)
			return nil, fmt.Errorf("failed to upload thumbnail: %w", err)
		}
	}

	v := &database.Video{
		ID:           id,
		Title:        req.Title,
		Description:  req.Description,
		URL:          videoURL,
		ThumbnailURL: thumbnailURL,
		Hashtags:     req.Hashtags,
		OriginalSize: req.Video.Size(),
		StoredSize:   video.Size(),
		Compressed:   res.Compression != nil && res.Compression.Applied,
		CreatedAt:    now.UTC(),
	}

	if err := s.library.InsertVideo(ctx, v); err != nil {
		s.discard(storage.BucketVideos, videoName)
		if thumbnailName != "" {
			s.discard(storage.BucketThumbnails, thumbnailName)
		}
		return nil, fmt.Errorf("failed to create video record: %w", err)
	}

	logging.Info("Uploaded video %s %q (%s stored)", v.ID, v.Title, asset.FormatMiB(v.StoredSize))
	res.Video = v
	return res, nil
}

// discard removes an object written by a failed upload.
func (s *Service) discard(bucket, name string) {
	if err := s.store.Delete(context.Background(), bucket, name); err != nil {
		logging.Warn("failed to remove %s/%s after a failed upload: %v", bucket, name, err)
	}
}
