package chatstream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"byproduct-catalog/internal/apierror"
)

// chunkReader returns one predefined chunk per Read call and counts calls.
type chunkReader struct {
	chunks [][]byte
	reads  int
	err    error // returned once the chunks are exhausted, io.EOF when nil
}

func (r *chunkReader) Read(p []byte) (int, error) {
	r.reads++
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func chunksOf(parts ...string) *chunkReader {
	r := &chunkReader{}
	for _, p := range parts {
		r.chunks = append(r.chunks, []byte(p))
	}
	return r
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func collect(t *testing.T, d *Decoder) []Event {
	t.Helper()
	var events []Event
	for d.Next() {
		events = append(events, d.Event())
	}
	return events
}

func summarize(events []Event) (starts int, text string, completes int) {
	for _, ev := range events {
		switch ev.Kind {
		case EventStart:
			starts++
		case EventFragment:
			text += ev.Text
		case EventComplete:
			completes++
		}
	}
	return starts, text, completes
}

func TestDecoderAnyChunkBoundaries(t *testing.T) {
	full := `{"status":"start"}` + "\n" + `{"m":"Hel"}` + "\n" + `{"m":"lo"}` + "\n" + `{"status":"complete"}` + "\n"

	for i := 0; i <= len(full); i++ {
		for j := i; j <= len(full); j++ {
			d := NewDecoder(chunksOf(full[:i], full[i:j], full[j:]), quietLogger())
			events := collect(t, d)

			want := []Event{
				{Kind: EventStart},
				{Kind: EventFragment, Text: "Hel"},
				{Kind: EventFragment, Text: "lo"},
				{Kind: EventComplete},
			}
			if len(events) != len(want) {
				t.Fatalf("split %d/%d: got %+v", i, j, events)
			}
			for k := range want {
				if events[k] != want[k] {
					t.Fatalf("split %d/%d: event %d = %+v, want %+v", i, j, k, events[k], want[k])
				}
			}
			if d.Err() != nil || !d.Completed() {
				t.Fatalf("split %d/%d: err=%v completed=%v", i, j, d.Err(), d.Completed())
			}
		}
	}
}

func TestDecoderMultiByteAcrossChunks(t *testing.T) {
	full := []byte(`{"m":"米糠 bran"}` + "\n")
	// Split in the middle of the first three-byte rune.
	cut := strings.Index(string(full), "米") + 1
	r := &chunkReader{chunks: [][]byte{full[:cut], full[cut:]}}

	_, text, _ := summarize(collect(t, NewDecoder(r, quietLogger())))
	if text != "米糠 bran" {
		t.Fatalf("got %q", text)
	}
}

func TestDecoderSkipsMalformedLines(t *testing.T) {
	r := chunksOf(
		`{"m":"a"}`+"\n",
		`not json`+"\n",
		`{"m":`+"\n",
		`{"m":"b"}`+"\n",
	)
	_, text, _ := summarize(collect(t, NewDecoder(r, quietLogger())))
	if text != "ab" {
		t.Fatalf("got %q", text)
	}
}

func TestDecoderStopsAtComplete(t *testing.T) {
	r := chunksOf(
		`{"m":"done"}`+"\n"+`{"status":"complete"}`+"\n"+`{"m":"ignored"}`+"\n",
		`{"m":"never read"}`+"\n",
	)
	d := NewDecoder(r, quietLogger())
	_, text, completes := summarize(collect(t, d))

	if text != "done" || completes != 1 {
		t.Fatalf("text=%q completes=%d", text, completes)
	}
	if r.reads != 1 {
		t.Fatalf("expected reading to stop after complete, got %d reads", r.reads)
	}
}

func TestDecoderRepeatedStartAndCombinedLine(t *testing.T) {
	r := chunksOf(`{"status":"start"}` + "\n" + `{"status":"start","m":"x"}` + "\n")
	starts, text, completes := summarize(collect(t, NewDecoder(r, quietLogger())))
	if starts != 2 || text != "x" || completes != 0 {
		t.Fatalf("starts=%d text=%q completes=%d", starts, text, completes)
	}
}

func TestDecoderFinalUnterminatedLine(t *testing.T) {
	r := chunksOf(`{"m":"a"}`+"\n", `  {"m":"b"}  `)
	d := NewDecoder(r, quietLogger())
	_, text, _ := summarize(collect(t, d))
	if text != "ab" {
		t.Fatalf("got %q", text)
	}
	if d.Err() != nil || d.Completed() {
		t.Fatalf("a stream ending without complete is not an error: err=%v completed=%v", d.Err(), d.Completed())
	}
}

func TestDecoderTransportFailure(t *testing.T) {
	r := chunksOf(`{"m":"partial"}` + "\n" + `{"m":"cut`)
	r.err = errors.New("connection reset by peer")

	d := NewDecoder(r, quietLogger())
	_, text, _ := summarize(collect(t, d))
	if text != "partial" {
		t.Fatalf("events before the failure must be delivered, got %q", text)
	}
	if apierror.KindOf(d.Err()) != apierror.KindNetwork {
		t.Fatalf("expected network error, got %v", d.Err())
	}
}
