// Package errclass maps raw downloader and system error text onto a closed set of error kinds.
package errclass

import (
	"context"
	"errors"
	"strings"
)

// Kind is a closed error category.
type Kind string

const (
	KindNetwork            Kind = "network"
	KindProxy              Kind = "proxy"
	KindTimeout            Kind = "timeout"
	KindRateLimited        Kind = "rate-limited"
	KindAuthRequired       Kind = "auth-required"
	KindInvalidCookies     Kind = "invalid-cookies"
	KindAgeRestricted      Kind = "age-restricted"
	KindMembersOnly        Kind = "members-only"
	KindVideoPrivate       Kind = "video-private"
	KindGeoBlocked         Kind = "geo-blocked"
	KindVideoUnavailable   Kind = "video-unavailable"
	KindFormatUnavailable  Kind = "format-unavailable"
	KindUnsupportedSite    Kind = "unsupported-site"
	KindInvalidURL         Kind = "invalid-url"
	KindDiskFull           Kind = "disk-full"
	KindPermissionDenied   Kind = "permission-denied"
	KindFileNotFound       Kind = "file-not-found"
	KindDependencyMissing  Kind = "dependency-missing"
	KindDependencyOutdated Kind = "dependency-outdated"
	KindParseError         Kind = "parse-error"
	KindCancelled          Kind = "cancelled"
	KindUnknown            Kind = "unknown"
)

// Info is a classified error with its user-facing text.
type Info struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Retryable  bool   `json:"retryable"`
	Raw        string `json:"raw,omitempty"`

	err error
}

// Error implements error.
func (i *Info) Error() string {
	if i.Raw == "" || i.Raw == i.Message {
		return i.Message
	}
	return i.Message + ": " + i.Raw
}

// Unwrap returns the wrapped cause, if any.
func (i *Info) Unwrap() error {
	return i.err
}

// Is matches another *Info of the same kind.
func (i *Info) Is(target error) bool {
	t, ok := target.(*Info)
	return ok && t.Kind == i.Kind && t.Raw == ""
}

// Classify walks the ordered rule table against the lowercased message.
//
// The first matching rule wins.
func Classify(msg string) *Info {
	lower := strings.ToLower(msg)
	for _, r := range rules {
		for _, k := range r.keys {
			if strings.Contains(lower, k) {
				return New(r.kind, msg)
			}
		}
	}
	return New(KindUnknown, msg)
}

// New builds an Info of the given kind carrying the raw message.
func New(kind Kind, raw string) *Info {
	e, ok := catalog[kind]
	if !ok {
		kind = KindUnknown
		e = catalog[KindUnknown]
	}
	return &Info{
		Kind:       kind,
		Message:    e.message,
		Suggestion: e.suggestion,
		Retryable:  e.retryable,
		Raw:        strings.TrimSpace(raw),
	}
}

// Wrap classifies err, keeping it reachable through errors.Unwrap.
func Wrap(err error) *Info {
	if err == nil {
		return nil
	}

	var info *Info
	if errors.As(err, &info) {
		return info
	}

	switch {
	case errors.Is(err, context.Canceled):
		info = New(KindCancelled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		info = New(KindTimeout, err.Error())
	default:
		info = Classify(err.Error())
	}
	info.err = err
	return info
}

// KindOf returns the kind of err, classifying it if needed.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Wrap(err).Kind
}

// Sentinel values usable with errors.Is.
var (
	ErrTimeout    = &Info{Kind: KindTimeout}
	ErrCancelled  = &Info{Kind: KindCancelled}
	ErrParse      = &Info{Kind: KindParseError}
	ErrInvalidURL = &Info{Kind: KindInvalidURL}
)
