package platform

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// decodeJSON drains and closes the response body after decoding so the
// connection can be reused.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)
	return json.NewDecoder(resp.Body).Decode(v)
}

// readBody reads and closes the response body, for error reporting paths.
func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return ""
	}
	return string(b)
}
