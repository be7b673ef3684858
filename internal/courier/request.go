package courier

import (
	"net/http"
	"strings"
	"time"
)

// Header names consumed from inbound webhooks.
const (
	HeaderCourier           = "X-Courier"
	HeaderPostNordSignature = "X-PostNord-Signature"
	HeaderBringSignature    = "X-Bring-Signature"
	HeaderBringTimestamp    = "X-Bring-Timestamp"
	HeaderBudbeeSignature   = "X-Budbee-Signature"
	HeaderAuthorization     = "Authorization"
)

// Request is the transport-independent view of an inbound webhook. Body is
// the raw bytes exactly as received; signatures are computed over it.
type Request struct {
	Header     http.Header
	Body       []byte
	ReceivedAt time.Time
}

// NewRequest captures headers and an already-read body from an HTTP request.
func NewRequest(r *http.Request, body []byte, receivedAt time.Time) Request {
	return Request{Header: r.Header.Clone(), Body: body, ReceivedAt: receivedAt.UTC()}
}

func (r Request) header(name string) string {
	if r.Header == nil {
		return ""
	}
	return strings.TrimSpace(r.Header.Get(name))
}

func (r Request) userAgent() string {
	return r.header("User-Agent")
}
