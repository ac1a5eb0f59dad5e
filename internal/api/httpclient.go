package api

import (
	"net"
	"net/http"
	"time"
)

// newHTTPClient creates the transport used for API calls. The judge can
// take several seconds to run a submission, so the overall timeout is generous.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   90 * time.Second,
		Transport: transport,
	}
}
