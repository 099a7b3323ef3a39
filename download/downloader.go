// Package download is the minimal chunk-fetch helper: given a presigned
// chunk URL and headers, fetch the bytes and hand back a reader ready for
// the JSON or Arrow-IPC decoder, transparently undoing gzip compression
// when present. It does not retry, authenticate, or pool connections —
// that remains the caller's job.
package download

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
)

// ChunkLocation describes one result chunk's body: a presigned URL plus
// its expected uncompressed size and row count. FetchChunk uses only the
// URL.
type ChunkLocation struct {
	URL              string
	UncompressedSize int64
	RowCount         int64
}

// FetchChunk issues the GET for one chunk and returns its body ready for
// decoding. The caller must Close the returned ReadCloser.
func FetchChunk(ctx context.Context, client *http.Client, meta ChunkLocation, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("download: building request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: fetching chunk: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &FetchError{StatusCode: resp.StatusCode, URL: meta.URL, Body: body}
	}

	return unwrapCompression(resp.Body)
}

// unwrapCompression peeks the first two bytes for the gzip magic number
// and transparently wraps the body in a gzip.Reader when present.
func unwrapCompression(body io.ReadCloser) (io.ReadCloser, error) {
	buf := bufio.NewReader(body)
	magic, err := buf.Peek(2)
	if err != nil && err != io.EOF {
		body.Close()
		return nil, fmt.Errorf("download: peeking for gzip magic bytes: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(buf)
		if err != nil {
			body.Close()
			return nil, fmt.Errorf("download: creating gzip reader: %w", err)
		}
		return &gzipBody{gzip: gz, underlying: body}, nil
	}
	return &bufferedBody{reader: buf, underlying: body}, nil
}

// bufferedBody re-exposes the peeked bufio.Reader as a ReadCloser so the
// bytes consumed by Peek aren't lost, closing the original body on Close.
type bufferedBody struct {
	reader     *bufio.Reader
	underlying io.ReadCloser
}

func (b *bufferedBody) Read(p []byte) (int, error) { return b.reader.Read(p) }
func (b *bufferedBody) Close() error               { return b.underlying.Close() }

// gzipBody closes both the gzip.Reader and the underlying HTTP body.
type gzipBody struct {
	gzip       *gzip.Reader
	underlying io.ReadCloser
}

func (g *gzipBody) Read(p []byte) (int, error) { return g.gzip.Read(p) }

func (g *gzipBody) Close() error {
	gzErr := g.gzip.Close()
	bodyErr := g.underlying.Close()
	if gzErr != nil {
		return gzErr
	}
	return bodyErr
}

// FetchError reports a non-200 chunk fetch.
type FetchError struct {
	StatusCode int
	URL        string
	Body       []byte
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("download: chunk fetch returned HTTP %d for %s", e.StatusCode, e.URL)
}
