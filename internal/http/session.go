package http

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ErrInvalidCookieFile is returned when a cookies.txt file cannot be parsed.
var ErrInvalidCookieFile = errors.New("invalid cookie file")

// Session attaches credentials to outgoing requests.
//
// The exporter never manages credentials itself. Callers decide which
// identity a request carries by passing a Session, typically cookies copied
// from a signed-in browser.
type Session interface {
	Apply(req *http.Request) error
}

// SessionFunc adapts a function to the Session interface.
type SessionFunc func(req *http.Request) error

// Apply calls f(req).
func (f SessionFunc) Apply(req *http.Request) error {
	return f(req)
}

// HeaderSession sets fixed headers on every request.
//
// Example:
//
//	s := HeaderSession{"Authorization": "Bearer ya29..."}
type HeaderSession map[string]string

// Apply sets each header on req, replacing existing values.
func (s HeaderSession) Apply(req *http.Request) error {
	for k, v := range s {
		req.Header.Set(k, v)
	}
	return nil
}

// CookieSession sends a set of cookies with every request.
type CookieSession struct {
	cookies []*http.Cookie
}

// NewCookieSession parses a Cookie header value such as "SID=abc; HSID=def".
//
// Malformed pairs are skipped.
func NewCookieSession(header string) *CookieSession {
	var cookies []*http.Cookie
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parsed, err := http.ParseCookie(pair)
		if err != nil {
			continue
		}
		cookies = append(cookies, parsed...)
	}
	return &CookieSession{cookies: cookies}
}

// Cookies returns the cookies sent by this session.
func (s *CookieSession) Cookies() []*http.Cookie {
	return s.cookies
}

// Apply adds the session cookies to req.
func (s *CookieSession) Apply(req *http.Request) error {
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	return nil
}

// LoadCookieFile reads cookies for domain from a Netscape cookies.txt file,
// the format written by most browser cookie-export extensions and curl.
//
// Only cookies whose domain matches domain (or a parent of it) are kept.
// Pass an empty domain to keep every cookie.
//
// Example:
//
//	session, err := LoadCookieFile("~/cookies.txt", "docs.google.com")
func LoadCookieFile(path, domain string) (*CookieSession, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseCookieFile(f, domain)
}

// ParseCookieFile parses Netscape cookies.txt content from r.
//
// Each non-comment line has seven tab-separated fields:
// domain, include-subdomains, path, secure, expiry, name, value.
// Lines prefixed with #HttpOnly_ are treated as regular cookie lines.
func ParseCookieFile(r io.Reader, domain string) (*CookieSession, error) {
	var cookies []*http.Cookie

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("%w: line %d has %d fields, want 7", ErrInvalidCookieFile, lineNum, len(fields))
		}

		if domain != "" && !domainMatches(fields[0], domain) {
			continue
		}

		cookies = append(cookies, &http.Cookie{
			Domain: fields[0],
			Path:   fields[2],
			Secure: strings.EqualFold(fields[3], "TRUE"),
			Name:   fields[5],
			Value:  fields[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &CookieSession{cookies: cookies}, nil
}

// domainMatches reports whether a cookie set for cookieDomain applies to host.
func domainMatches(cookieDomain, host string) bool {
	cookieDomain = strings.TrimPrefix(strings.ToLower(cookieDomain), ".")
	host = strings.ToLower(host)
	return host == cookieDomain || strings.HasSuffix(host, "."+cookieDomain)
}

// MultiSession applies several sessions in order.
type MultiSession []Session

// Apply applies every session, stopping at the first error.
func (m MultiSession) Apply(req *http.Request) error {
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Apply(req); err != nil {
			return err
		}
	}
	return nil
}
