package main

import (
	"bufio"
	"io"
	"sync"
)

// output serialises records written by concurrent streams.
type output struct {
	mu     sync.Mutex
	w      *bufio.Writer
	prefix bool
}

func newOutput(w io.Writer, prefix bool) *output {
	return &output{w: bufio.NewWriterSize(w, 64<<10), prefix: prefix}
}

// write emits one record, prefixed with its stream when several inputs
// share the output.
func (o *output) write(stream string, rec []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.prefix {
		if _, err := o.w.WriteString(stream); err != nil {
			return err
		}
		if err := o.w.WriteByte(':'); err != nil {
			return err
		}
	}
	if _, err := o.w.Write(rec); err != nil {
		return err
	}
	return o.w.WriteByte('\n')
}

func (o *output) flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w.Flush()
}
