package engine

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeFFmpegScript answers -version like ffmpeg and otherwise copies the
// "-i" input to the last argument while printing progress output.
const fakeFFmpegScript = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version test-build Copyright (c) the FFmpeg developers"
  exit 0
fi
in=""
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-i" ]; then in="$a"; fi
  prev="$a"
  out="$a"
done
echo "  Duration: 00:00:10.00, start: 0.000000, bitrate: 1000 kb/s" >&2
sleep 0.1
echo "out_time_us=2500000"
echo "progress=continue"
echo "out_time_us=5000000"
echo "progress=continue"
if [ -n "$FAKE_FFMPEG_FAIL" ]; then
  echo "Conversion failed: $FAKE_FFMPEG_FAIL" >&2
  exit 1
fi
echo "progress=end"
cp "$in" "$out"
`

const notFFmpegScript = `#!/bin/sh
echo "definitely not an encoder"
`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("Failed to write script %s: %v", name, err)
	}
	return path
}

func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	return writeScript(t, t.TempDir(), "ffmpeg", fakeFFmpegScript)
}
