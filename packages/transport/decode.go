package transport

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
)

// decodeBody reads the whole response body, undoing any Content-Encoding we asked for.
func decodeBody(resp *http.Response) ([]byte, error) {
	// apparently, Body can be nil in some cases
	if resp.Body == nil {
		return nil, nil
	}

	body := &bytes.Buffer{}
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		if _, err := io.Copy(body, gz); err != nil {
			return nil, err
		}
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		if _, err := io.Copy(body, fl); err != nil {
			return nil, err
		}
	case "br":
		if _, err := io.Copy(body, brotli.NewReader(resp.Body)); err != nil {
			return nil, err
		}
	default:
		if _, err := io.Copy(body, resp.Body); err != nil {
			return nil, err
		}
		return body.Bytes(), nil
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return body.Bytes(), nil
}
