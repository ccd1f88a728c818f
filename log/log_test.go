package log

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

var (
	sampleInt      = 3
	sampleBytes    = []byte("123")
	sampleList     = []int64{10, 0, -10}
	sampleDuration = time.Second
	sampleTime     = time.Unix(12345678, 0)

	errSample = errors.New("some error")
)

func doLogs() {
	// Some sample logs from existing code.
	Infof("loaded %d verifying keys for shape %x", sampleInt, sampleBytes)
	Debugw("block proof generated", "height", 12, "role", "B")
	Errorf("cannot persist recursion state: %v", errSample)
	Warnw("various types",
		"list", sampleList,
		"duration", sampleDuration,
		"time", sampleTime,
	)
	Error(errSample)
}

func TestCheckInvalidChars(t *testing.T) {
	t.Cleanup(func() { panicOnInvalidChars = false })

	v := []byte{'h', 'e', 'l', 'l', 'o', 0xff, 'w', 'o', 'r', 'l', 'd'}
	panicOnInvalidChars = false
	Init("debug", "stderr", nil)
	Debugf("%s", v)
	// should not panic since env var is false. if it panics, test will fail

	// now enable panic and try again: should recover() and never reach t.Errorf()
	panicOnInvalidChars = true
	Init("debug", "stderr", nil)
	defer func() { recover() }()
	Debugf("%s", v)
	t.Errorf("Debugf(%s) should have panicked because of invalid char", v)
}

func BenchmarkLogger(b *testing.B) {
	logTestWriter = io.Discard // to not grow a buffer
	Init("debug", logTestWriterName, nil)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		doLogs()
	}
}

func TestErrorOutputOnlyWarnings(t *testing.T) {
	t.Cleanup(func() { Init(LogLevelError, "stderr", nil) })

	var errOut bytes.Buffer
	logTestWriter = io.Discard
	Init(LogLevelDebug, logTestWriterName, &errOut)
	if Level() != LogLevelDebug {
		t.Fatalf("unexpected level %q", Level())
	}
	Debugw("merger witness assembled", "height", 3)
	Warnw("backend resource error, retrying", "attempt", 1)
	if strings.Contains(errOut.String(), "merger witness assembled") {
		t.Errorf("debug line leaked into error output: %s", errOut.String())
	}
	if !strings.Contains(errOut.String(), "backend resource error") {
		t.Errorf("warning missing from error output: %s", errOut.String())
	}
}
