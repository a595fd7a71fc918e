package api

import (
	"net"
	"net/http"
	"time"
)

// DefaultHTTPClient is a shared HTTP client with connection pooling.
// Reusing a single client avoids creating new connections for each request,
// improving performance and reducing resource usage.
//
// There is no retry loop at this layer: the client surfaces typed errors
// and callers (the check-status poller in particular) own the retry policy.
var DefaultHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}
