// Package linescan splits a stream delivered in arbitrarily sized chunks
// into terminator delimited records.
//
// A Scanner is fed one chunk per call and returns at most one record. When
// a record lies entirely inside the chunk the returned view points into
// the chunk itself; only records that straddle chunk boundaries are staged
// in an internal buffer. Consumed input is never scanned twice.
//
//	sc, err := linescan.NewScanner[byte]()
//	if err != nil { ... }
//	defer sc.Close()
//
//	for chunk := range chunks {
//	    for {
//	        res, err := sc.Next(chunk)
//	        if err != nil { ... }
//	        chunk = chunk[res.Advance():]
//	        if res.Status == linescan.StatusPartial {
//	            break // need the next chunk
//	        }
//	        handle(res.View)
//	    }
//	}
//	if res, ok := sc.Finish(); ok {
//	    handle(res.View) // final record without terminator
//	}
//
// Reader wraps that loop around an io.Reader, and ScanBlob scans a
// blobstore.Blob, mapping local files so that every record is zero-copy.
//
// Scanners accept bytes, UTF-16 code units and UTF-32 code points. The
// terminator search runs on vector lanes (see internal/simd).
//
// A Scanner is not safe for concurrent use. Independent scanners share
// nothing and may run in parallel.
package linescan
