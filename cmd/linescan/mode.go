package main

import (
	"bytes"
	"fmt"

	"github.com/SierraSoftworks/connor"

	"github.com/hupe1980/linescan"
	"github.com/hupe1980/linescan/codec"
)

// recordHandler processes the records of one stream.
type recordHandler interface {
	// handle receives a record that is valid only during the call. It
	// returns linescan.ErrStop to end the stream early.
	handle(rec []byte) error
	// matched returns the records the mode selected.
	matched() int64
}

func (a *app) newHandler(stream string) recordHandler {
	switch a.cfg.Mode {
	case modeGrep:
		return &grepHandler{stream: stream, out: a.out, match: []byte(a.cfg.Match)}
	case modeFilter:
		return &filterHandler{stream: stream, out: a.out, filter: a.filter, codec: a.set.codec}
	case modeHead:
		return &headHandler{stream: stream, out: a.out, limit: a.cfg.Head}
	default:
		return &countHandler{}
	}
}

type countHandler struct {
	n int64
}

func (h *countHandler) handle([]byte) error {
	h.n++
	return nil
}

func (h *countHandler) matched() int64 { return h.n }

type grepHandler struct {
	stream string
	out    *output
	match  []byte
	n      int64
}

func (h *grepHandler) handle(rec []byte) error {
	if !bytes.Contains(rec, h.match) {
		return nil
	}
	h.n++
	return h.out.write(h.stream, rec)
}

func (h *grepHandler) matched() int64 { return h.n }

type headHandler struct {
	stream string
	out    *output
	limit  int64
	n      int64
}

func (h *headHandler) handle(rec []byte) error {
	if err := h.out.write(h.stream, rec); err != nil {
		return err
	}
	h.n++
	if h.n >= h.limit {
		return linescan.ErrStop
	}
	return nil
}

func (h *headHandler) matched() int64 { return h.n }

// filterHandler selects JSON records matching a connor filter. Records
// that are not JSON objects are skipped.
type filterHandler struct {
	stream  string
	out     *output
	filter  map[string]any
	codec   codec.Codec
	n       int64
	invalid int64
}

func (h *filterHandler) handle(rec []byte) error {
	var doc map[string]any
	if err := h.codec.Unmarshal(rec, &doc); err != nil {
		h.invalid++
		return nil
	}
	ok, err := connor.Match(h.filter, doc)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if !ok {
		return nil
	}
	h.n++
	return h.out.write(h.stream, rec)
}

func (h *filterHandler) matched() int64 { return h.n }
