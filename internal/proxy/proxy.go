// Package proxy resolves the effective proxy for downloader subprocesses.
package proxy

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/utils/logging"
)

// Modes.
const (
	ModeNone   = "none"
	ModeSystem = "system"
	ModeCustom = "custom"
)

// Sources.
const (
	SourceNone     = "none"
	SourceCustom   = "custom"
	SourceSystem   = "system"
	SourceDetected = "detected"
)

// Config is the user's proxy preference.
type Config struct {
	Mode      string `json:"mode"`
	CustomURL string `json:"customUrl"`
	Fallback  bool   `json:"fallback"`
}

// Resolved is the effective proxy.
type Resolved struct {
	URL         string `json:"url"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

// Strategy is one attempt in a fallback chain. An empty URL means a direct connection.
type Strategy struct {
	Name string
	URL  string
}

var validSchemes = [...]string{"http", "https", "socks4", "socks5", "socks"}

// Environment lookup and local port probing, swappable in tests.
var (
	lookupEnv = os.LookupEnv
	dialCheck = func(addr string, timeout time.Duration) bool {
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
)

var commonPorts = []struct {
	port   int
	scheme string
}{
	{7890, "http"}, {7891, "http"}, {8080, "http"}, {8118, "http"}, {3128, "http"},
	{1080, "socks5"}, {10809, "http"}, {10808, "socks5"}, {2080, "http"}, {2081, "socks5"},
	{9050, "socks5"}, {9150, "socks5"},
}

// Validate checks proxy URL syntax.
func Validate(raw string) error {
	if raw == "" {
		return errors.New("proxy URL is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid proxy URL %q: %w", raw, err)
	}

	valid := false
	for _, s := range validSchemes {
		if strings.EqualFold(u.Scheme, s) {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid proxy scheme %q, must be one of %v", u.Scheme, validSchemes)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("proxy URL %q must have a host", raw)
	}
	if u.Port() == "" {
		logging.W("Proxy URL %q has no port specified, using default port", raw)
	}
	return nil
}

// Resolve returns the effective proxy for cfg.
func Resolve(cfg Config) Resolved {
	switch strings.ToLower(cfg.Mode) {
	case ModeNone:
		logging.D(2, "Proxy mode: none")
		return none()

	case ModeCustom:
		if err := Validate(cfg.CustomURL); err != nil {
			logging.W("Custom proxy unusable (%v)", err)
			if cfg.Fallback {
				return DetectSystem()
			}
			return none()
		}
		return Resolved{
			URL:         cfg.CustomURL,
			Source:      SourceCustom,
			Description: "Custom proxy: " + cfg.CustomURL,
		}

	default:
		return DetectSystem()
	}
}

// DetectSystem checks proxy environment variables, then common localhost proxy ports.
func DetectSystem() Resolved {
	for _, pair := range [][2]string{
		{"HTTPS_PROXY", "https_proxy"},
		{"HTTP_PROXY", "http_proxy"},
		{"ALL_PROXY", "all_proxy"},
	} {
		for _, name := range pair {
			if v, ok := lookupEnv(name); ok && v != "" {
				logging.D(1, "Found proxy in environment variable %s: %s", name, v)
				return Resolved{
					URL:         v,
					Source:      SourceSystem,
					Description: "Environment variable: " + name,
				}
			}
		}
	}

	for _, p := range commonPorts {
		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(p.port))
		if dialCheck(addr, consts.ProxyDialTimeout) {
			u := p.scheme + "://" + addr
			logging.I("Found open local proxy port %d (%s)", p.port, p.scheme)
			return Resolved{
				URL:         u,
				Source:      SourceDetected,
				Description: fmt.Sprintf("Detected local proxy on port %d", p.port),
			}
		}
	}

	logging.D(2, "No system proxy detected")
	return none()
}

// Strategies returns the ordered proxy attempts for transfers that fall back on failure.
func Strategies(cfg Config) []Strategy {
	direct := Strategy{Name: "no proxy"}

	switch strings.ToLower(cfg.Mode) {
	case ModeNone:
		return []Strategy{direct}

	case ModeCustom:
		customOK := Validate(cfg.CustomURL) == nil
		if !cfg.Fallback {
			if customOK {
				return []Strategy{{Name: "custom proxy", URL: cfg.CustomURL}}
			}
			return []Strategy{direct}
		}

		out := make([]Strategy, 0, 3)
		if customOK {
			out = append(out, Strategy{Name: "custom proxy", URL: cfg.CustomURL})
		}
		if sys := DetectSystem(); sys.URL != "" && sys.URL != cfg.CustomURL {
			out = append(out, Strategy{Name: "system proxy", URL: sys.URL})
		}
		return append(out, direct)

	default:
		if sys := DetectSystem(); sys.URL != "" {
			return []Strategy{{Name: "system proxy", URL: sys.URL}, direct}
		}
		return []Strategy{direct}
	}
}

// Env returns HTTP_PROXY style environment entries for tools that only read the environment.
func Env(proxyURL string) []string {
	if proxyURL == "" {
		return nil
	}
	return []string{
		"HTTP_PROXY=" + proxyURL,
		"HTTPS_PROXY=" + proxyURL,
		"http_proxy=" + proxyURL,
		"https_proxy=" + proxyURL,
	}
}

func none() Resolved {
	return Resolved{Source: SourceNone, Description: "No proxy"}
}
