package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/linescan"
	"github.com/hupe1980/linescan/checkpoint"
	"github.com/hupe1980/linescan/codec"
)

type streamReport struct {
	Stream      string  `json:"stream"`
	Records     int64   `json:"records"`
	Matched     int64   `json:"matched"`
	Skipped     int64   `json:"skipped,omitempty"`
	Bytes       int64   `json:"bytes"`
	Offset      int64   `json:"offset"`
	Resumed     int64   `json:"resumed_from,omitempty"`
	Restarted   bool    `json:"restarted,omitempty"`
	Compression string  `json:"compression,omitempty"`
	Mapped      bool    `json:"mapped,omitempty"`
	Index       string  `json:"index,omitempty"`
	ElapsedSec  float64 `json:"elapsed_sec"`
	Error       string  `json:"error,omitempty"`
}

type runReport struct {
	RunID       string                     `json:"run_id"`
	Mode        string                     `json:"mode"`
	Started     time.Time                  `json:"started"`
	ElapsedSec  float64                    `json:"elapsed_sec"`
	Records     int64                      `json:"records"`
	Matched     int64                      `json:"matched"`
	Bytes       int64                      `json:"bytes"`
	Streams     []streamReport             `json:"streams"`
	Metrics     linescan.BasicMetricsStats `json:"metrics"`
	Checkpoints []checkpoint.Checkpoint    `json:"checkpoints,omitempty"` // mem:// dry runs only
}

func (r *runReport) finish(now time.Time, stats linescan.BasicMetricsStats) {
	r.ElapsedSec = now.Sub(r.Started).Seconds()
	r.Metrics = stats
	for _, s := range r.Streams {
		r.Records += s.Records
		r.Matched += s.Matched
		r.Bytes += s.Bytes
	}
}

func (r *runReport) writeJSON(w io.Writer, c codec.Codec) error {
	data, err := c.Marshal(r)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func (r *runReport) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tRECORDS\tMATCHED\tBYTES\tCOMPRESSION\tELAPSED\tERROR")
	for _, s := range r.Streams {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2fs\t%s\n",
			s.Stream,
			humanize.Comma(s.Records),
			humanize.Comma(s.Matched),
			humanize.IBytes(uint64(max(s.Bytes, 0))),
			s.Compression,
			s.ElapsedSec,
			s.Error,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "run %s: %s records, %s matched, %s in %.2fs, %.0f%% zero-copy, peak staging %s\n",
		r.RunID,
		humanize.Comma(r.Records),
		humanize.Comma(r.Matched),
		humanize.IBytes(uint64(max(r.Bytes, 0))),
		r.ElapsedSec,
		r.Metrics.ZeroCopyRatio*100,
		humanize.IBytes(uint64(max(r.Metrics.MaxCapacity, 0))),
	)
	return err
}
