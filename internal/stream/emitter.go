package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Emitter writes a chunked body to one client.
type Emitter interface {
	// Open sends the response headers announcing a chunked JSON body.
	Open() error
	// Emit writes one item as a single chunk and flushes it.
	Emit(raw json.RawMessage) error
	// Terminate ends the body with the zero-length chunk.
	Terminate() error
}

// httpEmitter relies on net/http's chunked transfer coding. Each item is
// written with a single Write followed by a Flush, so net/http frames it as
// exactly one chunk: "<hex len+1>\r\n<json>\n\r\n".
type httpEmitter struct {
	w   http.ResponseWriter
	rc  *http.ResponseController
	buf bytes.Buffer
}

func newHTTPEmitter(w http.ResponseWriter) *httpEmitter {
	return &httpEmitter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

func (e *httpEmitter) Open() error {
	h := e.w.Header()
	h.Set("Transfer-Encoding", "chunked")
	h.Set("Content-Type", "application/json; charset=utf-8")

	// Streams outlive the server's write timeout.
	if err := e.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("clear write deadline: %w", err)
	}

	e.w.WriteHeader(http.StatusOK)

	return e.rc.Flush()
}

func (e *httpEmitter) Emit(raw json.RawMessage) error {
	e.buf.Reset()

	if err := json.Compact(&e.buf, raw); err != nil {
		return fmt.Errorf("encode item: %w", err)
	}

	e.buf.WriteByte('\n')

	if _, err := e.w.Write(e.buf.Bytes()); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}

	if err := e.rc.Flush(); err != nil {
		return fmt.Errorf("flush chunk: %w", err)
	}

	chunksTotal.Inc()

	return nil
}

// Terminate flushes what is pending. net/http writes the terminal
// zero-length chunk once the handler returns.
func (e *httpEmitter) Terminate() error {
	return e.rc.Flush()
}
