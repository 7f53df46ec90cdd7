// Package compress wraps record streams in gzip, zstd or LZ4 framing.
//
// Inputs are recognised by their magic bytes first and by file extension
// second, so a renamed object still decodes:
//
//	r, typ, err := compress.Open(body, "s3://logs/app.log.zst")
//	if err != nil {
//		return err
//	}
//	defer r.Close()
package compress
