package engine

import (
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var durationRe = regexp.MustCompile(`Duration: (\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// progressTracker turns ffmpeg's "-progress" key=value stream into a ratio in
// [0, 1]. The input duration comes from the "Duration:" banner on stderr,
// which may arrive after the first progress block; until then no ratio is
// reported.
type progressTracker struct {
	durationUs atomic.Int64
	emit       func(float64)
}

func newProgressTracker(emit func(float64)) *progressTracker {
	return &progressTracker{emit: emit}
}

// stderrLine inspects one stderr line for the input duration. Only the first
// Duration line counts; later ones describe other inputs or the output.
func (p *progressTracker) stderrLine(line string) {
	if p.durationUs.Load() > 0 {
		return
	}
	m := durationRe.FindStringSubmatch(line)
	if m == nil {
		return
	}
	hours, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	secs, _ := strconv.ParseFloat(m[3], 64)

	d := time.Duration(hours)*time.Hour +
		time.Duration(mins)*time.Minute +
		time.Duration(secs*float64(time.Second))
	p.durationUs.CompareAndSwap(0, d.Microseconds())
}

// progressLine handles one line of "-progress" output.
func (p *progressTracker) progressLine(line string) {
	if p.emit == nil {
		return
	}

	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return
	}

	switch key {
	// out_time_ms is in microseconds as well, despite its name.
	case "out_time_us", "out_time_ms":
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return
		}
		total := p.durationUs.Load()
		if total <= 0 {
			return
		}
		ratio := float64(us) / float64(total)
		if ratio > 1 {
			ratio = 1
		}
		p.emit(ratio)
	case "progress":
		if value == "end" {
			p.emit(1)
		}
	}
}
