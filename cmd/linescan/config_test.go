package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/linescan/compress"
)

func TestConfig_Parse(t *testing.T) {
	c := Default()
	c.Inputs = " a.log, ,s3://b/k "
	c.Terminator = `\x00`
	c.Rate = "10MB"
	c.MemoryLimit = "64MiB"
	c.LogLevel = "debug"

	s, err := c.parse()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.log", "s3://b/k"}, s.inputs)
	assert.Equal(t, byte(0), s.terminator)
	assert.True(t, s.autoDetect)
	assert.EqualValues(t, 10_000_000, s.rate)
	assert.EqualValues(t, 64<<20, s.memoryLimit)
	assert.Equal(t, "jsonv2", s.codec.Name())
	assert.Equal(t, slog.LevelDebug, s.logLevel)
}

func TestConfig_ParseCompression(t *testing.T) {
	c := Default()
	c.Inputs = "a.log"
	c.Compression = "zst"

	s, err := c.parse()
	require.NoError(t, err)
	assert.False(t, s.autoDetect)
	assert.Equal(t, compress.Zstd, s.compression)
}

func TestConfig_ParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"No inputs", func(c *Config) { c.Inputs = " , " }},
		{"Unknown mode", func(c *Config) { c.Mode = "sort" }},
		{"Grep without match", func(c *Config) { c.Mode = modeGrep }},
		{"Filter without filter", func(c *Config) { c.Mode = modeFilter }},
		{"Head without count", func(c *Config) { c.Mode = modeHead; c.Head = 0 }},
		{"Long terminator", func(c *Config) { c.Terminator = "ab" }},
		{"Multibyte terminator", func(c *Config) { c.Terminator = "€" }},
		{"Bad compression", func(c *Config) { c.Compression = "brotli" }},
		{"Zero chunk", func(c *Config) { c.ChunkSize = 0 }},
		{"Zero workers", func(c *Config) { c.Workers = 0 }},
		{"Negative checkpoint interval", func(c *Config) { c.CheckpointEvery = -1 }},
		{"Bad rate", func(c *Config) { c.Rate = "fast" }},
		{"Bad memory limit", func(c *Config) { c.MemoryLimit = "lots" }},
		{"Bad codec", func(c *Config) { c.Codec = "xml" }},
		{"Bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Inputs = "a.log"
			tt.modify(&c)

			_, err := c.parse()
			assert.Error(t, err)
		})
	}
}

func TestParseBytes(t *testing.T) {
	for in, want := range map[string]int64{"": 0, "0": 0, "1KiB": 1024, "2 MB": 2_000_000} {
		got, err := parseBytes(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
