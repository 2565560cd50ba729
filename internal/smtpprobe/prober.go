// Package smtpprobe implements the mailbox-existence state machine: a
// single TCP session per target host walking banner → EHLO → opportunistic
// STARTTLS → EHLO → MAIL FROM → RCPT(real) → RCPT(random) → QUIT, with
// two-probe catch-all detection and a greylist retry.
package smtpprobe

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"time"

	"mailsentinel/internal/models"
	"mailsentinel/internal/serverbehavior"
)

// Prober runs mailbox-probe sessions against a configured pair of identity
// strings, bounded by a semaphore shared across all probes in a process.
type Prober struct {
	HeloHost string
	MailFrom string
	Timeout  time.Duration

	semaphore chan struct{}
	behavior  *serverbehavior.Tracker
}

func New(heloHost, mailFrom string, timeout time.Duration, concurrency int, behavior *serverbehavior.Tracker) *Prober {
	return &Prober{
		HeloHost:  heloHost,
		MailFrom:  mailFrom,
		Timeout:   timeout,
		semaphore: make(chan struct{}, concurrency),
		behavior:  behavior,
	}
}

// phrases that, in a 5xx response body, mean "this mailbox does not exist"
// rather than a policy/reputation rejection.
var noSuchUserPhrases = []string{
	"5.1.1", "user unknown", "no such user", "does not exist",
	"mailbox not found", "undeliverable", "recipient rejected",
	"invalid mailbox", "not a valid mailbox", "mailbox unavailable",
	"unrouteable address", "unknown user", "bad destination address",
}

// Probe walks the state machine against each of the first two MX hosts in
// order; the first non-error verdict wins. email is the real address under
// test; domain is used to build the high-entropy random probe address.
func (p *Prober) Probe(ctx context.Context, hosts []string, email, domain string) *models.SmtpVerdict {
	tried := hosts
	if len(tried) > 2 {
		tried = tried[:2]
	}

	var last *models.SmtpVerdict
	for _, host := range tried {
		v := p.probeHost(ctx, host, email, domain)
		last = v
		if v.Verdict != models.SmtpError {
			return v
		}
	}
	if last == nil {
		return &models.SmtpVerdict{Verdict: models.SmtpError}
	}
	return last
}

// probeHost records every terminal verdict it reaches (accepted, rejected,
// catch-all, greylisted, error) against host's rolling counters before
// returning, so SuspectedCatchAll's accept rate is computed over every probe
// attempted against the host, not just the ones that happened to succeed.
func (p *Prober) probeHost(ctx context.Context, host, email, domain string) (result *models.SmtpVerdict) {
	defer func() {
		if p.behavior == nil || result == nil {
			return
		}
		p.behavior.Record(host,
			result.Verdict == models.SmtpAccepted,
			result.Verdict == models.SmtpRejected,
			result.Verdict == models.SmtpCatchAll,
		)
	}()

	select {
	case p.semaphore <- struct{}{}:
	case <-ctx.Done():
		return &models.SmtpVerdict{Verdict: models.SmtpError, Host: host}
	}
	defer func() { <-p.semaphore }()

	sess, err := p.dial(ctx, host)
	if err != nil {
		return &models.SmtpVerdict{Verdict: models.SmtpError, Host: host}
	}
	defer sess.close()

	banner, err := sess.readBanner()
	if err != nil {
		return &models.SmtpVerdict{Verdict: models.SmtpError, Host: host}
	}

	caps, err := sess.ehlo(p.HeloHost)
	if err != nil {
		return &models.SmtpVerdict{Verdict: models.SmtpError, Host: host, BannerText: banner}
	}

	if hasCapability(caps, "STARTTLS") {
		if err := sess.startTLS(host); err == nil {
			if _, err := sess.ehlo(p.HeloHost); err != nil {
				return &models.SmtpVerdict{Verdict: models.SmtpError, Host: host, BannerText: banner}
			}
		}
		// STARTTLS refusal mid-session: fall through to plaintext MAIL on
		// the existing connection, per the design.
	}

	if err := sess.mailFrom(p.MailFrom); err != nil {
		return &models.SmtpVerdict{Verdict: models.SmtpError, Host: host, BannerText: banner}
	}

	realCode, realText, realLatency, err := sess.rcpt(email)
	if err != nil {
		return &models.SmtpVerdict{Verdict: models.SmtpError, Host: host, BannerText: banner}
	}

	if isGreylist(realCode) {
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return &models.SmtpVerdict{Verdict: models.SmtpGreylisted, Code: realCode, Host: host, BannerText: banner}
		}
		sess2, err := p.dial(ctx, host)
		if err == nil {
			defer sess2.close()
			if _, err := sess2.readBanner(); err == nil {
				if _, err := sess2.ehlo(p.HeloHost); err == nil {
					if err := sess2.mailFrom(p.MailFrom); err == nil {
						if code2, _, _, err := sess2.rcpt(email); err == nil && is2xx(code2) {
							realCode = code2
						}
					}
				}
			}
		}
		if !is2xx(realCode) {
			return &models.SmtpVerdict{Verdict: models.SmtpGreylisted, Code: realCode, Host: host, BannerText: banner}
		}
	}

	if is5xx(realCode) {
		if isNoSuchUserPhrase(realText) {
			return &models.SmtpVerdict{Verdict: models.SmtpRejected, Code: realCode, Host: host, BannerText: banner}
		}
		return &models.SmtpVerdict{Verdict: models.SmtpError, Code: realCode, Host: host, BannerText: banner}
	}

	if !is2xx(realCode) {
		return &models.SmtpVerdict{Verdict: models.SmtpError, Code: realCode, Host: host, BannerText: banner}
	}

	randomLocal := randomProbeLocal()
	randomCode, _, randomLatency, err := sess.rcpt(randomLocal + "@" + domain)

	verdict := &models.SmtpVerdict{
		Code:          realCode,
		Host:          host,
		BannerText:    banner,
		RealLatencyMs: realLatency.Milliseconds(),
		HasRandom:     err == nil,
		RandomLatMs:   randomLatency.Milliseconds(),
	}

	if err == nil && is2xx(randomCode) {
		verdict.Verdict = models.SmtpCatchAll
	} else {
		verdict.Verdict = models.SmtpAccepted
	}

	sess.quit()

	if p.behavior != nil && verdict.Verdict == models.SmtpAccepted && p.behavior.SuspectedCatchAll(host) {
		verdict.Verdict = models.SmtpCatchAll
	}

	return verdict
}

func randomProbeLocal() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "xvrf-nonexist"
	}
	return fmt.Sprintf("xvrf-%d-%s-nonexist", time.Now().UnixNano()%100000, hex.EncodeToString(b))
}

func hasCapability(caps []string, name string) bool {
	for _, c := range caps {
		if strings.EqualFold(strings.Fields(c)[0], name) {
			return true
		}
	}
	return false
}

func is2xx(code int) bool { return code >= 200 && code < 300 }
func is5xx(code int) bool { return code >= 500 && code < 600 }
func isGreylist(code int) bool {
	return code == 450 || code == 451 || code == 452
}

func isNoSuchUserPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range noSuchUserPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// session wraps one logical SMTP connection, swapping its underlying
// transport in place on STARTTLS so the line framer re-attaches cleanly.
type session struct {
	conn net.Conn
	tp   *textproto.Conn
}

func (p *Prober) dial(ctx context.Context, host string) (*session, error) {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", host+":25")
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", host, err)
	}
	deadline := time.Now().Add(p.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetDeadline(deadline)

	return &session{conn: conn, tp: textproto.NewConn(conn)}, nil
}

func (s *session) close() {
	s.tp.Close()
}

func (s *session) readBanner() (string, error) {
	_, msg, err := s.tp.ReadResponse(220)
	return msg, err
}

// ehlo sends EHLO and returns the capability lines (without the leading
// response code).
func (s *session) ehlo(heloHost string) ([]string, error) {
	id, err := s.tp.Cmd("EHLO %s", heloHost)
	if err != nil {
		return nil, err
	}
	s.tp.StartResponse(id)
	defer s.tp.EndResponse(id)

	code, msg, err := s.tp.ReadResponse(250)
	if err != nil {
		return nil, err
	}
	_ = code
	return strings.Split(msg, "\n"), nil
}

// startTLS issues STARTTLS and, on success, re-wraps the connection and the
// textproto framer around the upgraded socket.
func (s *session) startTLS(host string) error {
	id, err := s.tp.Cmd("STARTTLS")
	if err != nil {
		return err
	}
	s.tp.StartResponse(id)
	_, _, err = s.tp.ReadResponse(220)
	s.tp.EndResponse(id)
	if err != nil {
		return err
	}

	tlsConn := tls.Client(s.conn, &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: true, // probing, not sending; certificate validity is not a signal we need
	})
	if err := tlsConn.Handshake(); err != nil {
		return err
	}

	s.conn = tlsConn
	s.tp = textproto.NewConn(tlsConn)
	return nil
}

func (s *session) mailFrom(from string) error {
	id, err := s.tp.Cmd("MAIL FROM:<%s>", from)
	if err != nil {
		return err
	}
	s.tp.StartResponse(id)
	defer s.tp.EndResponse(id)
	_, _, err = s.tp.ReadResponse(250)
	return err
}

// rcpt issues RCPT TO and returns the response code, message text, and
// round-trip latency. A non-2xx response is reported via the returned code,
// not as an error — only a transport-level failure is an error here.
func (s *session) rcpt(target string) (code int, text string, latency time.Duration, err error) {
	start := time.Now()
	id, err := s.tp.Cmd("RCPT TO:<%s>", target)
	if err != nil {
		return 0, "", 0, err
	}
	s.tp.StartResponse(id)
	defer s.tp.EndResponse(id)

	code, text, rerr := s.tp.ReadCodeLine(0)
	latency = time.Since(start)
	if rerr != nil {
		if tpErr, ok := rerr.(*textproto.Error); ok {
			return tpErr.Code, tpErr.Msg, latency, nil
		}
		return 0, "", latency, rerr
	}
	return code, text, latency, nil
}

func (s *session) quit() {
	s.tp.Cmd("QUIT")
}
