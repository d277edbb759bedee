package errclass

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  string
		want Kind
	}{
		{"bot check", "ERROR: [youtube] abc: Sign in to confirm you're not a bot", KindAuthRequired},
		{"age gate beats sign in", "Sign in to confirm your age. This video may be inappropriate for some users.", KindAgeRestricted},
		{"private", "ERROR: [youtube] abc: Private video. Sign in if you've been granted access", KindVideoPrivate},
		{"members", "Join this channel to get access to members-only content", KindMembersOnly},
		{"geo", "The uploader has not made this video available in your country", KindGeoBlocked},
		{"429", "ERROR: Unable to download webpage: HTTP Error 429: Too Many Requests", KindRateLimited},
		{"proxy before network", "Unable to connect to proxy: connection refused", KindProxy},
		{"timeout before network", "Unable to download webpage: The read operation timed out", KindTimeout},
		{"format", "ERROR: Requested format is not available. Use --list-formats", KindFormatUnavailable},
		{"unavailable", "ERROR: [youtube] abc: Video unavailable", KindVideoUnavailable},
		{"unsupported", "ERROR: Unsupported URL: https://example.com/", KindUnsupportedSite},
		{"invalid url", "ERROR: 'foo' is not a valid URL", KindInvalidURL},
		{"disk", "OSError: [Errno 28] No space left on device", KindDiskFull},
		{"perms", "PermissionError: [Errno 13] Permission denied: '/root/x'", KindPermissionDenied},
		{"missing binary", `exec: "yt-dlp": executable file not found in $PATH`, KindDependencyMissing},
		{"outdated", "nsig extraction failed: You may experience throttling", KindDependencyOutdated},
		{"cookies", "ERROR: could not copy Chrome cookie database", KindInvalidCookies},
		{"network", "dial tcp: lookup www.youtube.com: no such host", KindNetwork},
		{"parse", "invalid character '<' looking for beginning of value", KindParseError},
		{"missing file", "open /tmp/x.mp4: no such file or directory", KindFileNotFound},
		{"unknown", "something odd happened", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(tt.msg)
			if got.Kind != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.msg, got.Kind, tt.want)
			}
			if got.Message == "" {
				t.Errorf("Classify(%q) has empty message", tt.msg)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	if Wrap(nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}

	cancelled := Wrap(fmt.Errorf("waiting on yt-dlp: %w", context.Canceled))
	if cancelled.Kind != KindCancelled {
		t.Errorf("kind = %s, want cancelled", cancelled.Kind)
	}
	if !errors.Is(cancelled, context.Canceled) {
		t.Error("wrapped context.Canceled not reachable")
	}
	if !errors.Is(cancelled, ErrCancelled) {
		t.Error("errors.Is against sentinel failed")
	}

	deadline := Wrap(context.DeadlineExceeded)
	if deadline.Kind != KindTimeout || !deadline.Retryable {
		t.Errorf("deadline = %+v", deadline)
	}

	inner := New(KindDiskFull, "full")
	if got := Wrap(fmt.Errorf("outer: %w", inner)); got != inner {
		t.Error("Wrap should return an existing *Info unchanged")
	}
}

func TestEveryKindHasCatalogEntry(t *testing.T) {
	t.Parallel()

	kinds := Kinds()
	if len(kinds) < 20 {
		t.Errorf("only %d kinds", len(kinds))
	}
	for _, k := range append(kinds, KindCancelled) {
		if _, ok := catalog[k]; !ok {
			t.Errorf("kind %s missing from catalog", k)
		}
	}
}
