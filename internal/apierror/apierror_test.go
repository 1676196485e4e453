package apierror

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "network", err: Network("search", io.ErrUnexpectedEOF), want: KindNetwork},
		{name: "wrapped network", err: errors.Wrap(Network("search", io.EOF), "fetch"), want: KindNetwork},
		{name: "status", err: &HTTPStatusError{Op: "chat", StatusCode: 500}, want: KindHTTPStatus},
		{name: "decode", err: &DecodeError{Line: "{", Err: io.ErrUnexpectedEOF}, want: KindDecode},
		{name: "unknown", err: Unknown("search", errors.New("bad body")), want: KindUnknown},
		{name: "foreign", err: errors.New("boom"), want: KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckStatus(t *testing.T) {
	ok := &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(strings.NewReader(""))}
	if err := CheckStatus("get", ok); err != nil {
		t.Fatalf("2xx should pass, got %v", err)
	}

	long := strings.Repeat("x", 2*maxBodySnippet)
	bad := &http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(strings.NewReader(long))}
	err := CheckStatus("get", bad)
	code, isStatus := StatusCode(err)
	if !isStatus || code != http.StatusBadGateway {
		t.Fatalf("expected status error 502, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *HTTPStatusError, got %T", err)
	}
	if len(statusErr.Body) != maxBodySnippet {
		t.Fatalf("body snippet not bounded: %d", len(statusErr.Body))
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe("search", nil); got != "" {
		t.Fatalf("nil error should describe as empty, got %q", got)
	}
	got := Describe("search", &HTTPStatusError{Op: "search", StatusCode: 500})
	if got != "[search] API Error: 500 - Internal Server Error" {
		t.Fatalf("unexpected description %q", got)
	}
	got = Describe("search", Network("search", io.EOF))
	if !strings.Contains(got, "did not respond") {
		t.Fatalf("unexpected description %q", got)
	}
}
