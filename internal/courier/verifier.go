package courier

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/pkg/logger"
)

// DefaultReplayWindow is the maximum accepted clock distance for Bring's
// signed timestamp.
const DefaultReplayWindow = 300 * time.Second

// Secrets holds one shared secret or credential per courier. It is built
// once at startup from configuration and never mutated.
type Secrets struct {
	PostNord      string
	Bring         string
	Budbee        string
	DHLCredential string // "user:password" expected in HTTP Basic auth
}

// Verifier authenticates inbound webhooks. It fails closed: a missing
// secret, a missing header, or any internal error yields false.
type Verifier struct {
	secrets      Secrets
	replayWindow time.Duration
	now          func() time.Time
}

// NewVerifier creates a verifier. A non-positive replayWindow uses
// DefaultReplayWindow.
func NewVerifier(secrets Secrets, replayWindow time.Duration) *Verifier {
	if replayWindow <= 0 {
		replayWindow = DefaultReplayWindow
	}
	return &Verifier{secrets: secrets, replayWindow: replayWindow, now: time.Now}
}

// WithClock replaces the verifier's clock. Used by tests.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify reports whether req is an authentic webhook from code.
func (v *Verifier) Verify(code domain.CourierCode, req Request) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("signature verification panicked", "courier", code, "panic", r)
			ok = false
		}
	}()
	if v == nil {
		return false
	}
	p, found := For(code)
	if !found {
		return false
	}
	return p.verify(v, req)
}

// verifyPostNord checks hex(HMAC-SHA256(body, secret)).
func (v *Verifier) verifyPostNord(req Request) bool {
	return verifyHMAC(v.secrets.PostNord, req.Body, req.header(HeaderPostNordSignature))
}

// verifyBring checks hex(HMAC-SHA256(timestamp + "." + body, secret)) and
// rejects timestamps outside the replay window even when the MAC matches.
func (v *Verifier) verifyBring(req Request) bool {
	ts := req.header(HeaderBringTimestamp)
	if v.secrets.Bring == "" || ts == "" {
		return false
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	skew := v.now().Unix() - sec
	if math.Abs(float64(skew)) > v.replayWindow.Seconds() {
		logger.Warn("bring webhook outside replay window", "skew_seconds", skew)
		return false
	}
	msg := make([]byte, 0, len(ts)+1+len(req.Body))
	msg = append(msg, ts...)
	msg = append(msg, '.')
	msg = append(msg, req.Body...)
	return verifyHMAC(v.secrets.Bring, msg, req.header(HeaderBringSignature))
}

// verifyBudbee checks hex(SHA-256(body + secret)). This is Budbee's own
// scheme, not an HMAC.
func (v *Verifier) verifyBudbee(req Request) bool {
	secret := v.secrets.Budbee
	got, ok := decodeSignature(req.header(HeaderBudbeeSignature))
	if secret == "" || !ok {
		return false
	}
	h := sha256.New()
	h.Write(req.Body)
	h.Write([]byte(secret))
	return subtle.ConstantTimeCompare(got, h.Sum(nil)) == 1
}

// verifyDHL compares the Authorization header with the configured Basic
// credential.
func (v *Verifier) verifyDHL(req Request) bool {
	cred := v.secrets.DHLCredential
	got := req.header(HeaderAuthorization)
	if cred == "" || got == "" {
		return false
	}
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(cred))
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func verifyHMAC(secret string, msg []byte, header string) bool {
	got, ok := decodeSignature(header)
	if secret == "" || !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hmac.Equal(got, mac.Sum(nil))
}

// decodeSignature accepts a hex digest with an optional "sha256=" prefix.
func decodeSignature(header string) ([]byte, bool) {
	header = strings.ToLower(strings.TrimSpace(header))
	header = strings.TrimPrefix(header, "sha256=")
	if header == "" {
		return nil, false
	}
	b, err := hex.DecodeString(header)
	if err != nil || len(b) != sha256.Size {
		return nil, false
	}
	return b, true
}
