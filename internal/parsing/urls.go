// Package parsing holds URL, filename and date parsing helpers.
package parsing

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// YouTube URL templates for rebuilding entries from bare ids.
const (
	YouTubeVideoURL = "https://www.youtube.com/watch?v="
	YouTubeMusicURL = "https://music.youtube.com/watch?v="
)

// globalTrackingParams are stripped from every URL.
var globalTrackingParams = map[string]struct{}{
	"fbclid": {}, "gclid": {}, "dclid": {}, "msclkid": {}, "mc_eid": {}, "mc_cid": {},
	"igshid": {}, "igsh": {}, "ref_src": {}, "ref_url": {}, "yclid": {}, "_ga": {},
}

// platformTrackingParams are stripped only on matching hosts.
var platformTrackingParams = []struct {
	hosts  []string
	params []string
}{
	{
		hosts:  []string{"youtube.com", "youtu.be", "youtube-nocookie.com"},
		params: []string{"si", "feature", "pp", "ab_channel"},
	},
	{
		hosts: []string{"bilibili.com", "b23.tv"},
		params: []string{"spm_id_from", "vd_source", "from_spmid", "share_source", "share_medium",
			"share_plat", "share_session_id", "share_tag", "share_from", "unique_k", "bbid", "ts", "plat_id", "buvid"},
	},
	{
		hosts:  []string{"tiktok.com", "douyin.com"},
		params: []string{"is_from_webapp", "sender_device", "is_copy_url", "_r", "_t", "web_id", "previous_page", "u_code", "share_app_id"},
	},
	{
		hosts:  []string{"twitter.com", "x.com"},
		params: []string{"s", "t", "ref_src"},
	},
	{
		hosts:  []string{"instagram.com"},
		params: []string{"img_index", "utm_source"},
	},
	{
		hosts:  []string{"xiaohongshu.com", "xhslink.com"},
		params: []string{"xsec_source", "share_from_user_hidden", "app_platform", "app_version", "author_share", "shareRedId", "apptime", "share_id"},
	},
}

// CleanURL strips known tracking parameters while keeping the order of the rest.
//
// Only the query is rewritten, so applying CleanURL twice is a no-op.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	base, fragment, hasFragment := strings.Cut(raw, "#")
	base, query, hasQuery := strings.Cut(base, "?")
	if !hasQuery {
		return raw
	}

	strip := platformParams(u.Hostname())
	kept := make([]string, 0, strings.Count(query, "&")+1)
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if isTrackingParam(key, strip) {
			continue
		}
		kept = append(kept, pair)
	}

	out := base
	if len(kept) > 0 {
		out += "?" + strings.Join(kept, "&")
	}
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

func isTrackingParam(key string, platform map[string]struct{}) bool {
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "utm_") {
		return true
	}
	if _, ok := globalTrackingParams[lower]; ok {
		return true
	}
	_, ok := platform[key]
	return ok
}

func platformParams(host string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, p := range platformTrackingParams {
		if HostMatches(host, p.hosts...) {
			for _, k := range p.params {
				out[k] = struct{}{}
			}
		}
	}
	return out
}

// HostMatches reports whether host is one of domains or a subdomain of one.
func HostMatches(host string, domains ...string) bool {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	if host == "" {
		return false
	}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Hostname returns the lowercased hostname of raw, or "" if unparseable.
func Hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// BaseDomain returns the registrable domain (eTLD+1) for a URL.
func BaseDomain(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return publicsuffix.EffectiveTLDPlusOne(u.Hostname())
}

// IsYouTubeURL reports whether raw points at YouTube or YouTube Music.
func IsYouTubeURL(raw string) bool {
	return HostMatches(Hostname(raw), "youtube.com", "youtu.be", "youtube-nocookie.com")
}

// IsYouTubeMusicURL reports whether raw points at YouTube Music.
func IsYouTubeMusicURL(raw string) bool {
	return HostMatches(Hostname(raw), "music.youtube.com")
}

// VideoURLFromID rebuilds a watch URL from a bare video id.
func VideoURLFromID(id string, music bool) string {
	if music {
		return YouTubeMusicURL + id
	}
	return YouTubeVideoURL + id
}

// lastSegment returns the final path element of a URL path.
func lastSegment(p string) string {
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
