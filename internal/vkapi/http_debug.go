package vkapi

import (
	"net/http"
	"net/http/httputil"
	"regexp"

	"github.com/rs/zerolog/log"
)

var tokenRe = regexp.MustCompile(`access_token=[^&\s]+`)

// debugTransport logs request and response dumps. Enabled with --debug.
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	url := redact(req.URL.String())
	if reqDump, err := httputil.DumpRequestOut(req, false); err == nil {
		log.Debug().Str("method", req.Method).Str("url", url).Str("request_dump", redact(string(reqDump))).Msg("HTTP request")
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		log.Debug().Err(err).Str("method", req.Method).Str("url", url).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", url).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

func redact(s string) string {
	return tokenRe.ReplaceAllString(s, "access_token=REDACTED")
}
