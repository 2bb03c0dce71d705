package services

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// DemuxEngineLogs splits the engine's multiplexed log stream into stdout and
// stderr. Each frame carries an 8-byte header: stream type in byte 0
// (1=stdout, 2=stderr) and the big-endian payload size in bytes 4-8. A clean
// EOF between frames ends the stream without error.
func DemuxEngineLogs(dstOut, dstErr io.Writer, src io.Reader) error {
	r := bufio.NewReader(src)

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}

		streamType := header[0]
		size := binary.BigEndian.Uint32(header[4:8])
		if size == 0 {
			continue
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return err
		}

		var w io.Writer
		switch streamType {
		case 2:
			w = dstErr
		default:
			// Unknown stream types go to stdout rather than dropping data.
			w = dstOut
		}

		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write log payload: %w", err)
		}
	}
}

// PrefixWriter labels every output line with its service name so interleaved
// streams from several containers stay readable. Writers following different
// containers share mu to keep lines whole.
type PrefixWriter struct {
	dst    io.Writer
	prefix []byte
	mu     *sync.Mutex

	midline bool
}

// NewPrefixWriter builds a writer tagging lines as "name    | ", with the name
// padded to width characters.
func NewPrefixWriter(dst io.Writer, name string, width int, mu *sync.Mutex) *PrefixWriter {
	return &PrefixWriter{
		dst:    dst,
		prefix: []byte(fmt.Sprintf("%-*s | ", width, name)),
		mu:     mu,
	}
}

func (w *PrefixWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	written := 0
	for len(p) > 0 {
		if !w.midline {
			if _, err := w.dst.Write(w.prefix); err != nil {
				return written, err
			}
			w.midline = true
		}

		// A chunk without a newline stays mid-line for the next write.
		end := len(p)
		for i, c := range p {
			if c == '\n' {
				end = i + 1
				w.midline = false
				break
			}
		}

		n, err := w.dst.Write(p[:end])
		written += n
		if err != nil {
			return written, err
		}
		p = p[end:]
	}
	return written, nil
}
