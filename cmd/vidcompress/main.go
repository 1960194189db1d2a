package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"vidcompress/internal/asset"
	"vidcompress/internal/compress"
	"vidcompress/internal/engine"
	"vidcompress/internal/logging"
	"vidcompress/internal/plan"
	"vidcompress/internal/probe"

	"golang.org/x/term"
)

const (
	// Default bound on reading metadata
	defaultProbeTimeout = 15 * time.Second
	// Width of the terminal progress bar, in cells
	progressBarWidth = 30
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	// Library logs are noise on a terminal unless asked for.
	if os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "" {
		logging.SetLevel(logging.LevelWarn)
	}

	var ok bool
	switch command {
	case "info":
		ok = showInfo(os.Stdout, os.Args[2:])
	case "probe":
		ok = probeFile(ctx, os.Stdout, os.Args[2:])
	case "compress":
		ok = compressFile(ctx, os.Stdout, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		ok = true
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - input is sanitized via allowlist in sanitizeCommand
		printUsage()
	}

	if !ok {
		cancel()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("vidcompress - video compression")
	fmt.Println("")
	fmt.Println("Usage: vidcompress <command> [arguments]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  info <file|bytes>         - Estimate savings and time for a source size")
	fmt.Println("  probe <file>              - Show dimensions, duration and the encode plan")
	fmt.Println("  compress <file> [output]  - Compress a video to MP4")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Println("  FFMPEG_PATH        - ffmpeg binary to try before $PATH")
	fmt.Println("  FFPROBE_PATH       - ffprobe binary (default: ffprobe from $PATH)")
	fmt.Println("  FFMPEG_MIRRORS     - Comma-separated url#sha256 download fallbacks")
	fmt.Println("  MIN_COMPRESS_BYTES - Skip inputs smaller than this (default: 52428800)")
	fmt.Println("  EXEC_TIMEOUT       - Bound on a single encode (default: 30m)")
	fmt.Println("  LOG_LEVEL          - Library log level (default: warn)")
}

// showInfo prints the advisory estimate for a file or a raw byte count.
func showInfo(w io.Writer, args []string) bool {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: vidcompress info <file|bytes>")
		return false
	}

	size, err := sourceSize(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	info := plan.Info(size)
	fmt.Fprintf(w, "Size:             %s\n", asset.FormatMiB(size))
	fmt.Fprintf(w, "Should compress:  %v\n", info.ShouldCompress)
	fmt.Fprintf(w, "Estimated saving: %s\n", info.EstimatedSavings)
	fmt.Fprintf(w, "Estimated time:   %s\n", info.EstimatedTime)
	return true
}

// sourceSize accepts either a path or a non-negative byte count.
func sourceSize(arg string) (int64, error) {
	if st, err := os.Stat(arg); err == nil {
		if st.IsDir() {
			return 0, fmt.Errorf("%s is a directory", arg)
		}
		return st.Size(), nil
	}
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is neither a file nor a byte count", arg)
	}
	return n, nil
}

func newProber(scratch string) probe.Prober {
	return probe.WithTimeout(probe.Chain{
		probe.MP4{},
		&probe.FFprobe{Path: os.Getenv("FFPROBE_PATH"), TempDir: scratch},
	}, defaultProbeTimeout)
}

func probeFile(ctx context.Context, w io.Writer, args []string) bool {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: vidcompress probe <file>")
		return false
	}

	a, err := asset.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	md, err := newProber(os.TempDir()).Probe(ctx, a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	p := plan.Compute(a.Size(), md.Width, md.Height, md.Duration)
	printProbe(w, a, md, p)
	return true
}

func printProbe(w io.Writer, a *asset.Asset, md probe.Metadata, p plan.Plan) {
	fmt.Fprintf(w, "File:       %s (%s)\n", a.Name(), asset.FormatMiB(a.Size()))
	fmt.Fprintf(w, "Dimensions: %dx%d\n", md.Width, md.Height)
	fmt.Fprintf(w, "Duration:   %.1fs\n", md.Duration)
	fmt.Fprintf(w, "Bitrate:    %s (crf %d, preset %s)\n", p.TargetBitrate, p.CRF, p.Preset)
	if p.NeedsScale(md.Width, md.Height) {
		ow, oh := p.FitWithin(md.Width, md.Height)
		fmt.Fprintf(w, "Output:     %dx%d\n", ow, oh)
	} else {
		fmt.Fprintf(w, "Output:     %dx%d (unscaled)\n", md.Width, md.Height)
	}
}

// engineSources mirrors the server's lookup order.
func engineSources(cacheDir string) []engine.Source {
	var sources []engine.Source
	if path := os.Getenv("FFMPEG_PATH"); path != "" {
		sources = append(sources, engine.FileSource{Path: path})
	}
	sources = append(sources, engine.LookPathSource{})
	for _, m := range engine.ParseMirrors(os.Getenv("FFMPEG_MIRRORS"), cacheDir) {
		sources = append(sources, m)
	}
	return sources
}

func compressFile(ctx context.Context, w io.Writer, args []string) bool {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(os.Stderr, "Usage: vidcompress compress <file> [output]")
		return false
	}

	input := args[0]
	output := outputPath(input)
	if len(args) == 2 {
		output = args[1]
	}

	a, err := asset.Open(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}

	loader := engine.NewLoader(engine.LoaderOptions{
		Sources:    engineSources(filepath.Join(cacheDir, "vidcompress")),
		ScratchDir: os.TempDir(),
	})
	defer loader.Cleanup()

	opts := compress.Options{ExecTimeout: envDuration("EXEC_TIMEOUT")}
	if n, err := strconv.ParseInt(os.Getenv("MIN_COMPRESS_BYTES"), 10, 64); err == nil && n > 0 {
		opts.MinSize = n
	}
	c := compress.New(compress.FromLoader(loader), newProber(os.TempDir()), opts)

	bar := newProgressBar(w, term.IsTerminal(int(os.Stdout.Fd())))
	outcome := c.Run(ctx, a, bar.update)
	bar.done()

	printOutcome(w, outcome)

	if !outcome.Succeeded {
		if outcome.Reason == compress.ReasonEngineUnavailable {
			fmt.Fprintln(os.Stderr, engine.RemediationMessage)
		}
		return outcome.Reason == compress.ReasonBelowThreshold
	}

	if err := os.WriteFile(output, outcome.Output.Bytes(), 0o644); err != nil { //nolint:gosec // G306 - output is a user-facing media file
		fmt.Fprintf(os.Stderr, "Error: failed to write %s: %v\n", output, err)
		return false
	}
	fmt.Fprintf(w, "Wrote %s\n", output)
	return true
}

// outputPath places the result next to the input: clip.mov -> clip_compressed.mp4.
func outputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_compressed.mp4"
}

func envDuration(key string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

func printOutcome(w io.Writer, o compress.Outcome) {
	if o.Metadata != nil {
		fmt.Fprintf(w, "Source:  %dx%d, %.1fs\n", o.Metadata.Width, o.Metadata.Height, o.Metadata.Duration)
	}
	if o.Plan != nil {
		fmt.Fprintf(w, "Plan:    %s, crf %d, preset %s\n", o.Plan.TargetBitrate, o.Plan.CRF, o.Plan.Preset)
	}

	if !o.Succeeded {
		fmt.Fprintf(w, "Result:  not compressed (%s)\n", o.Reason)
		if o.Err != nil {
			fmt.Fprintf(w, "Detail:  %v\n", o.Err)
		}
		return
	}

	fmt.Fprintf(w, "Result:  %s -> %s (%.1f%% smaller) in %v\n",
		asset.FormatMiB(o.OriginalSize), asset.FormatMiB(o.OutputSize), o.Ratio(), o.Duration.Round(time.Millisecond))
}

// progressBar redraws in place on a terminal and otherwise prints a line
// each time a quarter mark is crossed.
type progressBar struct {
	w           io.Writer
	interactive bool
	last        int
}

func newProgressBar(w io.Writer, interactive bool) *progressBar {
	return &progressBar{w: w, interactive: interactive, last: -1}
}

func (b *progressBar) update(percent int) {
	if percent == b.last {
		return
	}
	// A fallback resets progress to zero; start a fresh line for it.
	if percent < b.last && b.interactive {
		fmt.Fprintln(b.w)
	}

	if b.interactive {
		fmt.Fprintf(b.w, "\r%s", renderBar(percent, progressBarWidth))
	} else if b.last < 0 || percent < b.last || percent/25 > b.last/25 {
		fmt.Fprintf(b.w, "Progress: %d%%\n", percent)
	}
	b.last = percent
}

func (b *progressBar) done() {
	if b.interactive && b.last >= 0 {
		fmt.Fprintln(b.w)
	}
}

func renderBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(" ", width-filled), percent)
}
