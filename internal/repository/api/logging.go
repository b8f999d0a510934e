package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

type loggingTransport struct {
	next http.RoundTripper
	now  func() time.Time
	emit func(string)
}

func newLoggingTransport(next http.RoundTripper) *loggingTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{
		next: next,
		now:  time.Now,
		emit: func(line string) { log.Println(line) },
	}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := t.now()
	res, err := t.next.RoundTrip(req)

	caller := "anonymous"
	if strings.TrimSpace(req.Header.Get("Authorization")) != "" {
		caller = "authenticated"
	}

	payload := struct {
		Time      string `json:"time"`
		Caller    string `json:"caller"`
		LatencyMS int64  `json:"latency_ms"`
		Request   struct {
			Method string `json:"method"`
			URI    string `json:"uri"`
		} `json:"request"`
		Response struct {
			Status int    `json:"status,omitempty"`
			Error  string `json:"error,omitempty"`
		} `json:"response"`
	}{
		Time:      start.Format(time.RFC3339),
		Caller:    caller,
		LatencyMS: t.now().Sub(start).Milliseconds(),
	}
	payload.Request.Method = req.Method
	payload.Request.URI = redactQuery(req)
	if res != nil {
		payload.Response.Status = res.StatusCode
	}
	if err != nil {
		payload.Response.Error = err.Error()
	}

	if buf, mErr := json.Marshal(payload); mErr == nil {
		t.emit(string(buf))
	}
	return res, err
}

// redactQuery drops token-like query parameters from the logged URI.
func redactQuery(req *http.Request) string {
	u := *req.URL
	q := u.Query()
	changed := false
	for key := range q {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "token") || strings.Contains(lower, "key") || strings.Contains(lower, "password") {
			q.Set(key, "redacted")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.RequestURI()
}
