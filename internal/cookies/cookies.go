// Package cookies reads browser cookies and writes Netscape cookie files for the download backends.
package cookies

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/parsing"
	"fetcharr/internal/utils/logging"

	"github.com/browserutils/kooky"
	// Use all browsers for Kooky:
	_ "github.com/browserutils/kooky/browser/all"
)

const netscapeHeader = "# Netscape HTTP Cookie File\n# https://curl.haxx.se/rfc/cookie_spec.html\n# This is a generated file! Do not edit.\n\n"

// readBrowserCookies is swapped out in tests.
var readBrowserCookies = func(ctx context.Context, domain string) ([]*kooky.Cookie, error) {
	return kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(domain))
}

// ExtensionCookie is a cookie as sent by the browser extension.
type ExtensionCookie struct {
	Name           string   `json:"name"`
	Value          string   `json:"value"`
	Domain         string   `json:"domain"`
	Path           string   `json:"path"`
	Secure         bool     `json:"secure"`
	HTTPOnly       bool     `json:"httpOnly"`
	ExpirationDate *float64 `json:"expirationDate,omitempty"`
}

// Manager caches browser cookies per base domain and owns the cookie file directory.
type Manager struct {
	mu      sync.RWMutex
	dir     string
	cookies map[string][]*http.Cookie
}

// NewManager initializes a new cookie manager writing files into dir.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:     dir,
		cookies: make(map[string][]*http.Cookie),
	}
}

// GetCookies retrieves browser cookies for a given URL.
func (cm *Manager) GetCookies(ctx context.Context, u string) ([]*http.Cookie, error) {
	baseURL, err := parsing.BaseDomain(u)
	if err != nil {
		return nil, fmt.Errorf("error extracting base domain in cookie grab: %w", err)
	}

	cm.mu.RLock()
	if cookies, ok := cm.cookies[baseURL]; ok {
		cm.mu.RUnlock()
		return cookies, nil
	}
	cm.mu.RUnlock()

	cookies := cm.loadCookiesForDomain(ctx, baseURL)

	cm.mu.Lock()
	cm.cookies[baseURL] = cookies
	cm.mu.Unlock()

	return cookies, nil
}

// loadCookiesForDomain loads the browser cookies associated with a particular domain.
func (cm *Manager) loadCookiesForDomain(ctx context.Context, domain string) []*http.Cookie {
	kookieCookies, err := readBrowserCookies(ctx, domain)
	if err != nil {
		logging.D(2, "Failed reading cookies: %v", err)
		return nil
	}

	if len(kookieCookies) > 0 {
		logging.I("Found %d cookies for %s", len(kookieCookies), domain)
		return convertToHTTPCookies(kookieCookies)
	}

	logging.D(1, "No cookies found for %s", domain)
	return nil
}

// Store saves extension cookies for domain and returns the written file path.
//
// Stored cookies take precedence over browser cookies already cached for the domain.
func (cm *Manager) Store(domain string, ext []ExtensionCookie) (string, error) {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return "", fmt.Errorf("cookie domain is empty")
	}
	base, err := parsing.BaseDomain("https://" + domain)
	if err != nil {
		base = domain
	}

	cookies := FromExtension(ext)

	cm.mu.Lock()
	cm.cookies[base] = MergeCookies(cookies, cm.cookies[base])
	cm.mu.Unlock()

	path := cm.filePath(base)
	if err := SaveFile(path, cookies, base); err != nil {
		return "", err
	}
	logging.I("Stored %d cookies for %s in %q", len(cookies), base, path)
	return path, nil
}

// FileFor returns a stored cookie file for the URL's domain, or "" when none exists.
func (cm *Manager) FileFor(rawURL string) string {
	base, err := parsing.BaseDomain(rawURL)
	if err != nil || cm.dir == "" {
		return ""
	}
	path := cm.filePath(base)
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		return ""
	}
	return path
}

// Resolve picks the cookie file for a request.
//
// An explicit file wins, then one stored from the extension. Browser cookies are exported
// only when the tool cannot read the browser store itself.
func (cm *Manager) Resolve(ctx context.Context, rawURL, explicit, browser string, toolReadsBrowser bool) string {
	if explicit != "" || cm == nil {
		return explicit
	}
	if f := cm.FileFor(rawURL); f != "" {
		return f
	}
	if browser == "" || toolReadsBrowser {
		return ""
	}

	f, err := cm.ExportBrowser(ctx, rawURL)
	if err != nil {
		logging.W("Could not export %s cookies for %q: %v", browser, rawURL, err)
		return ""
	}
	return f
}

// ExportBrowser writes the browser cookies for rawURL's domain to a Netscape file
// for tools that cannot read browser stores themselves.
func (cm *Manager) ExportBrowser(ctx context.Context, rawURL string) (string, error) {
	base, err := parsing.BaseDomain(rawURL)
	if err != nil {
		return "", fmt.Errorf("error extracting base domain for cookie export: %w", err)
	}
	cookies, err := cm.GetCookies(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if len(cookies) == 0 {
		return "", fmt.Errorf("no browser cookies found for %s", base)
	}

	path := filepath.Join(cm.dir, base+".browser.txt")
	if err := SaveFile(path, cookies, base); err != nil {
		return "", err
	}
	return path, nil
}

func (cm *Manager) filePath(base string) string {
	return filepath.Join(cm.dir, base+".txt")
}

// FromExtension converts extension cookies to http.Cookie format.
func FromExtension(ext []ExtensionCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(ext))
	for _, c := range ext {
		if c.Name == "" {
			continue
		}
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.ExpirationDate != nil {
			hc.Expires = time.Unix(int64(*c.ExpirationDate), 0)
		}
		out = append(out, hc)
	}
	return out
}

// convertToHTTPCookies converts kooky cookies to http.Cookie format.
func convertToHTTPCookies(kookyCookies []*kooky.Cookie) []*http.Cookie {
	httpCookies := make([]*http.Cookie, len(kookyCookies))
	for i, c := range kookyCookies {
		httpCookies[i] = &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Domain:  c.Domain,
			Secure:  c.Secure,
			Expires: c.Expires,
		}
	}
	return httpCookies
}

// SaveFile writes the cookies to path in Netscape format.
func SaveFile(path string, cookies []*http.Cookie, fallbackDomain string) error {
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies to write to %q", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), consts.PermsCookieDir); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, consts.PermsCookieFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.E("failed to close file %q due to error: %v", path, err)
		}
	}()

	logging.D(1, "Saving %d cookies to file %s...", len(cookies), path)
	return WriteNetscape(file, cookies, fallbackDomain)
}

// WriteNetscape writes the Netscape cookie file header and one line per cookie.
func WriteNetscape(w io.Writer, cookies []*http.Cookie, fallbackDomain string) error {
	if _, err := io.WriteString(w, netscapeHeader); err != nil {
		return err
	}

	for _, cookie := range cookies {
		domain := cookie.Domain
		if domain == "" {
			domain = fallbackDomain
		}
		if !strings.HasPrefix(domain, ".") {
			domain = "." + domain
		}

		secure := "FALSE"
		if cookie.Secure {
			secure = "TRUE"
		}

		path := cookie.Path
		if path == "" {
			path = "/"
		}

		expires := int64(0)
		if !cookie.Expires.IsZero() {
			expires = cookie.Expires.Unix()
		}

		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain, "TRUE", path, secure, expires, cookie.Name, cookie.Value); err != nil {
			return err
		}
	}
	return nil
}

// MergeCookies merges cookies so that primary cookies take precedence.
func MergeCookies(primary, secondary []*http.Cookie) []*http.Cookie {
	cookieMap := make(map[string]*http.Cookie, len(primary)+len(secondary))
	order := make([]string, 0, len(primary)+len(secondary))

	add := func(c *http.Cookie) {
		key := strings.TrimPrefix(c.Domain, ".") + "|" + c.Path + "|" + c.Name
		if _, ok := cookieMap[key]; !ok {
			order = append(order, key)
		}
		cookieMap[key] = c
	}
	for _, c := range secondary {
		add(c)
	}
	for _, c := range primary {
		add(c)
	}

	merged := make([]*http.Cookie, 0, len(order))
	for _, k := range order {
		merged = append(merged, cookieMap[k])
	}
	return merged
}
