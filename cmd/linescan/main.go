// Command linescan scans record streams from local files, stdin, S3 or
// MinIO: it counts records, greps them, filters JSON records, prints the
// first records of each stream or writes line indexes.
//
//	linescan -mode grep -match ERROR -inputs s3://logs/app.log.zst,/var/log/app.log
//
// Inputs are scanned in parallel. With -checkpoints set, each stream
// resumes where the previous run stopped.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulldump/goconfig"
)

var version = "dev"

func main() {
	c := Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("linescan", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, c, os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "linescan:", err)
		os.Exit(1)
	}
}

// run executes one scan and writes its report.
func run(ctx context.Context, c Config, stdin io.Reader, stdout, stderr io.Writer) error {
	a, err := newApp(ctx, c, stdin, stdout, stderr)
	if err != nil {
		return err
	}

	report, err := a.run(ctx)
	if rerr := writeReport(c, report, a, stdout, stderr); err == nil {
		err = rerr
	}
	return err
}

func writeReport(c Config, report *runReport, a *app, stdout, stderr io.Writer) error {
	var w io.Writer
	switch c.Report {
	case "none":
		return nil
	case "", "stderr":
		w = stderr
	case "stdout":
		w = stdout
	default:
		f, err := os.Create(c.Report)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if c.JSON {
		return report.writeJSON(w, a.set.codec)
	}
	return report.writeText(w)
}

func newLogHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}
