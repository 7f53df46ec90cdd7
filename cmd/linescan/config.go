package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/linescan/codec"
	"github.com/hupe1980/linescan/compress"
)

// Config is read from flags and environment by goconfig.
type Config struct {
	Mode            string      `usage:"count | grep | filter | head | index"`
	Inputs          string      `usage:"comma separated inputs: a path, - for stdin, s3://bucket/key or minio://bucket/key"`
	Match           string      `usage:"substring a record must contain in grep mode"`
	Filter          string      `usage:"JSON filter for JSON records in filter mode, e.g. {\"level\":\"error\"}"`
	Head            int64       `usage:"records per stream in head mode"`
	Output          string      `usage:"output file (default stdout); in index mode a directory, s3://bucket/prefix or minio://bucket/prefix"`
	Compression     string      `usage:"auto | none | gzip | zstd | lz4"`
	Terminator      string      `usage:"record terminator, one byte; escapes such as \\n or \\x00 are accepted"`
	ChunkSize       int         `usage:"read size for streamed inputs in bytes"`
	Rate            string      `usage:"read rate limit per second, e.g. 50MB (0 = unlimited)"`
	MemoryLimit     string      `usage:"staging memory limit, e.g. 256MiB (0 = unlimited)"`
	Workers         int         `usage:"inputs scanned in parallel"`
	Checkpoints     string      `usage:"checkpoint location: a directory, s3://bucket/prefix, minio://bucket/prefix, ddb://table or mem:// (empty = disabled)"`
	CheckpointEvery int64       `usage:"also save a checkpoint every n records (0 = end of stream only)"`
	Codec           string      `usage:"json | jsonv2"`
	JSON            bool        `usage:"print the run report as JSON"`
	Report          string      `usage:"where the run report goes: stderr, stdout, a file path or none"`
	LogLevel        string      `usage:"debug | info | warn | error"`
	S3              S3Config    `usage:"S3 inputs"`
	Minio           MinioConfig `usage:"MinIO inputs"`
	Version         bool        `usage:"show version and exit"`
}

// S3Config configures the S3 client. Credentials come from the default
// AWS chain.
type S3Config struct {
	Region   string `usage:"AWS region (default from environment)"`
	Endpoint string `usage:"custom endpoint, enables path-style addressing"`
}

// MinioConfig configures the MinIO client.
type MinioConfig struct {
	Endpoint  string `usage:"host:port"`
	AccessKey string `usage:"access key"`
	SecretKey string `usage:"secret key"`
	Region    string `usage:"region"`
	Secure    bool   `usage:"use TLS"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Mode:        "count",
		Compression: "auto",
		Terminator:  `\n`,
		ChunkSize:   64 << 10,
		Rate:        "0",
		MemoryLimit: "0",
		Workers:     4,
		Head:        10,
		Codec:       "jsonv2",
		LogLevel:    "warn",
		Report:      "stderr",
	}
}

const (
	modeCount  = "count"
	modeGrep   = "grep"
	modeFilter = "filter"
	modeHead   = "head"
	modeIndex  = "index"
)

// settings are the parsed and validated parts of a Config.
type settings struct {
	inputs      []string
	terminator  byte
	compression compress.Type
	autoDetect  bool
	rate        int64
	memoryLimit int64
	codec       codec.Codec
	logLevel    slog.Level
}

func (c Config) parse() (settings, error) {
	var s settings

	switch c.Mode {
	case modeCount, modeIndex:
	case modeGrep:
		if c.Match == "" {
			return s, errors.New("grep mode needs -match")
		}
	case modeFilter:
		if c.Filter == "" {
			return s, errors.New("filter mode needs -filter")
		}
	case modeHead:
		if c.Head <= 0 {
			return s, errors.New("head mode needs a positive -head")
		}
	default:
		return s, fmt.Errorf("unknown mode %q", c.Mode)
	}

	for _, in := range strings.Split(c.Inputs, ",") {
		if in = strings.TrimSpace(in); in != "" {
			s.inputs = append(s.inputs, in)
		}
	}
	if len(s.inputs) == 0 {
		return s, errors.New("no inputs")
	}

	term, err := strconv.Unquote(`"` + c.Terminator + `"`)
	if err != nil || len(term) != 1 {
		return s, fmt.Errorf("terminator %q is not a single byte", c.Terminator)
	}
	s.terminator = term[0]

	if c.Compression == "auto" {
		s.autoDetect = true
	} else if s.compression, err = compress.ParseType(c.Compression); err != nil {
		return s, err
	}

	if c.ChunkSize <= 0 {
		return s, errors.New("chunk size must be positive")
	}
	if c.Workers <= 0 {
		return s, errors.New("workers must be positive")
	}
	if c.CheckpointEvery < 0 {
		return s, errors.New("checkpoint interval must not be negative")
	}

	if s.rate, err = parseBytes(c.Rate); err != nil {
		return s, fmt.Errorf("rate: %w", err)
	}
	if s.memoryLimit, err = parseBytes(c.MemoryLimit); err != nil {
		return s, fmt.Errorf("memory limit: %w", err)
	}

	var ok bool
	if s.codec, ok = codec.ByName(c.Codec); !ok {
		return s, fmt.Errorf("unknown codec %q", c.Codec)
	}

	if err := s.logLevel.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return s, fmt.Errorf("log level: %w", err)
	}
	return s, nil
}

func parseBytes(v string) (int64, error) {
	if v == "" || v == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return 0, err
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("%s is too large", v)
	}
	return int64(n), nil
}
