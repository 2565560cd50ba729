package main

import "net/http"

// agentUID extracts the authenticated agent identity attached by the
// upstream signature-verification middleware (signature/signature-input/
// signature-agent headers). Verifying that signature is out of scope here;
// this server trusts whatever sits in front of it to have already done so
// and to forward the verified uid on this header.
func agentUID(r *http.Request) string {
	return r.Header.Get("X-Verified-Agent-Uid")
}

func clientIdentityHeaders(r *http.Request) (xForwardedFor, xRealIP string) {
	return r.Header.Get("X-Forwarded-For"), r.Header.Get("X-Real-Ip")
}
