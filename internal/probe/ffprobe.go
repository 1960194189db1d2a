package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"vidcompress/internal/asset"
	"vidcompress/internal/logging"
	"vidcompress/internal/mediatypes"
)

// FFprobe reads metadata by running ffprobe against a staged copy of the asset.
type FFprobe struct {
	// Path is the ffprobe binary. Empty means "ffprobe" from $PATH.
	Path string
	// TempDir holds staged copies. Empty means os.TempDir().
	TempDir string
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
		Tags      struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideDataList []struct {
			Rotation float64 `json:"rotation"`
		} `json:"side_data_list"`
	} `json:"streams"`
}

// Name implements Prober.
func (p *FFprobe) Name() string { return "ffprobe" }

// Probe implements Prober.
func (p *FFprobe) Probe(ctx context.Context, a *asset.Asset) (Metadata, error) {
	staged, err := stage(p.TempDir, a)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrMetadataRead, err)
	}
	defer staged.Release()

	bin := p.Path
	if bin == "" {
		bin = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		staged.Path(),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Metadata{}, fmt.Errorf("%w: ffprobe error: %w - %s", ErrMetadataRead, err, stderr.String())
	}

	return parseFFprobe(stdout.Bytes())
}

func parseFFprobe(data []byte) (Metadata, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Metadata{}, fmt.Errorf("%w: failed to parse ffprobe output: %w", ErrMetadataRead, err)
	}

	var m Metadata
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		m.Width, m.Height = s.Width, s.Height
		rotation := 0
		if r, err := strconv.Atoi(s.Tags.Rotate); err == nil {
			rotation = r
		}
		for _, sd := range s.SideDataList {
			if sd.Rotation != 0 {
				rotation = int(math.Round(sd.Rotation))
			}
		}
		// Display size is what ffmpeg autorotates to.
		if rotation%180 != 0 && rotation%90 == 0 {
			m.Width, m.Height = m.Height, m.Width
		}
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil {
			m.Duration = d
		}
		break
	}

	// The container duration is authoritative when present.
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		m.Duration = d
	}

	return normalize(m)
}

// stagedFile is a temporary on-disk copy of an asset.
type stagedFile struct {
	path string
	once sync.Once
}

func stage(dir string, a *asset.Asset) (*stagedFile, error) {
	f, err := os.CreateTemp(dir, "probe-*"+mediatypes.Ext(a.Name()))
	if err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", a.Name(), err)
	}

	s := &stagedFile{path: f.Name()}

	_, writeErr := f.Write(a.Bytes())
	closeErr := f.Close()
	if writeErr != nil || closeErr != nil {
		s.Release()
		if writeErr != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", a.Name(), writeErr)
		}
		return nil, fmt.Errorf("failed to stage %s: %w", a.Name(), closeErr)
	}

	return s, nil
}

func (s *stagedFile) Path() string { return s.path }

// Release removes the staged file. Only the first call has any effect.
func (s *stagedFile) Release() {
	s.once.Do(func() {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			logging.Warn("failed to remove staged probe file %s: %v", s.path, err)
		}
	})
}
