// Package upload converts user-selected files into embeddable data
// URLs so media can live inline in the content store.
package upload

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrTooLarge is returned when a file exceeds the configured limit.
var ErrTooLarge = fmt.Errorf("upload: file too large")

// DataURL reads the whole file and returns a data:<type>;base64,...
// string usable directly as an img or video src attribute. maxBytes of
// zero means no limit; inline media grows the stored value one-to-one,
// so deployments usually want one.
func DataURL(r io.Reader, contentType string, maxBytes int64) (string, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", ErrTooLarge
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	// Strip any charset or boundary parameters from the header value.
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
