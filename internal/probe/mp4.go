package probe

import (
	"context"
	"fmt"

	mp4 "github.com/abema/go-mp4"

	"vidcompress/internal/asset"
)

// MP4 reads metadata from ISO-BMFF containers (mp4, mov, m4v, 3gp) by
// walking only the moov header boxes.
type MP4 struct{}

// Name implements Prober.
func (MP4) Name() string { return "mp4" }

// Probe implements Prober.
func (MP4) Probe(ctx context.Context, a *asset.Asset) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrMetadataRead, err)
	}

	boxes, err := mp4.ExtractBoxesWithPayload(a.Reader(), nil, []mp4.BoxPath{
		{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()},
		{mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeTkhd()},
	})
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %s is not a readable mp4: %w", ErrMetadataRead, a.Name(), err)
	}

	var m Metadata
	for _, b := range boxes {
		switch box := b.Payload.(type) {
		case *mp4.Mvhd:
			m.Duration = mvhdSeconds(box)
		case *mp4.Tkhd:
			// Audio tracks carry zero dimensions; the first visual track wins.
			if m.Width == 0 && box.GetWidthInt() > 0 && box.GetHeightInt() > 0 {
				m.Width = int(box.GetWidthInt())
				m.Height = int(box.GetHeightInt())
				if quarterTurn(box.Matrix) {
					m.Width, m.Height = m.Height, m.Width
				}
			}
		}
	}

	return normalize(m)
}

// quarterTurn reports whether a tkhd display matrix rotates the picture by
// 90 or 270 degrees. The matrix is {a, b, u, c, d, v, x, y, w} in 16.16 fixed
// point; a quarter turn zeroes a and d.
func quarterTurn(matrix [9]int32) bool {
	return matrix[0] == 0 && matrix[4] == 0 && matrix[1] != 0 && matrix[3] != 0
}

func mvhdSeconds(box *mp4.Mvhd) float64 {
	if box.Timescale == 0 {
		return 0
	}
	duration := uint64(box.DurationV0)
	if box.GetVersion() == 1 {
		duration = box.DurationV1
	}
	return float64(duration) / float64(box.Timescale)
}
