// Package chatstream reads the chat endpoint's answer stream.
//
// The response body is a sequence of newline-terminated JSON objects:
//
//	{"status":"start"}
//	{"m":"Hel"}
//	{"m":"lo"}
//	{"status":"complete"}
//
// A line may carry a status, a text fragment, or both. The Decoder turns the
// bytes into a lazy, finite sequence of Events; Conversation folds those
// events into a chat transcript.
package chatstream

import (
	"bytes"
	"io"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"byproduct-catalog/internal/apierror"
)

// EventKind tags an Event.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventFragment
	EventComplete
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventFragment:
		return "fragment"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Event is one decoded stream event. Text is set for fragments only.
type Event struct {
	Kind EventKind
	Text string
}

const (
	statusStart    = "start"
	statusComplete = "complete"

	readChunkSize = 4096
)

type wireLine struct {
	Status string `json:"status"`
	M      string `json:"m"`
}

// Decoder incrementally decodes a line-delimited JSON event stream. Use it
// like bufio.Scanner: call Next until it returns false, then check Err.
// A Decoder cannot be restarted and is not safe for concurrent use.
type Decoder struct {
	r     io.Reader
	log   logrus.FieldLogger
	chunk []byte
	carry []byte
	queue []Event
	cur   Event
	eof   bool
	done  bool
	err   error

	completed bool
}

// NewDecoder decodes events from r. Malformed lines are reported to log.
func NewDecoder(r io.Reader, log logrus.FieldLogger) *Decoder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Decoder{
		r:     r,
		log:   log,
		chunk: make([]byte, readChunkSize),
	}
}

// Next advances to the next event. It returns false once the stream has
// completed, ended, or failed.
func (d *Decoder) Next() bool {
	for {
		if len(d.queue) > 0 {
			d.cur = d.queue[0]
			d.queue = d.queue[1:]
			return true
		}
		if d.done {
			return false
		}
		if d.eof {
			// One last attempt at an unterminated final line.
			d.done = true
			d.parseLine(bytes.TrimSpace(d.carry))
			d.carry = nil
			continue
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.feed(d.chunk[:n])
		}
		switch {
		case err == io.EOF:
			d.eof = true
		case err != nil && !d.done:
			d.err = apierror.Network("chat stream", err)
			d.done = true
		}
	}
}

// Event returns the event produced by the last call to Next.
func (d *Decoder) Event() Event {
	return d.cur
}

// Err returns the terminal transport error, if any. A stream that ended
// without a complete status is not an error.
func (d *Decoder) Err() error {
	return d.err
}

// Completed reports whether a complete status has been decoded.
func (d *Decoder) Completed() bool {
	return d.completed
}

func (d *Decoder) feed(b []byte) {
	d.carry = append(d.carry, b...)
	for !d.done {
		i := bytes.IndexByte(d.carry, '\n')
		if i < 0 {
			return
		}
		line := d.carry[:i]
		d.carry = d.carry[i+1:]
		d.parseLine(bytes.TrimSpace(line))
	}
}

func (d *Decoder) parseLine(line []byte) {
	if len(line) == 0 {
		return
	}
	var w wireLine
	if err := sonic.Unmarshal(line, &w); err != nil {
		d.log.WithError(&apierror.DecodeError{Line: string(line), Err: err}).Warn("skipping malformed stream line")
		return
	}
	if w.Status == statusStart {
		d.queue = append(d.queue, Event{Kind: EventStart})
	}
	if w.M != "" {
		d.queue = append(d.queue, Event{Kind: EventFragment, Text: w.M})
	}
	if w.Status == statusComplete {
		d.queue = append(d.queue, Event{Kind: EventComplete})
		// Anything after complete is never read.
		d.completed = true
		d.done = true
		d.carry = nil
	}
}
