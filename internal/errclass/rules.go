package errclass

type rule struct {
	kind Kind
	keys []string
}

// rules are checked in order. Put narrow phrasings ahead of broad ones.
var rules = []rule{
	{KindCancelled, []string{"context canceled", "cancelled by user", "canceled by user", "download cancelled"}},
	{KindDependencyMissing, []string{"executable file not found", "yt-dlp not found", "lux not found",
		"aria2c not found", "ffmpeg not found", "ffprobe not found", "ffmpeg is not installed",
		"command not found", "is not recognized as an internal or external command"}},
	{KindDependencyOutdated, []string{"please update", "yt-dlp -u", "nsig extraction failed",
		"signature extraction failed", "unable to extract", "outdated version", "latest version"}},
	{KindInvalidCookies, []string{"cookies are no longer valid", "failed to decrypt", "could not copy chrome cookie database",
		"cookie database", "invalid cookies", "netscape format", "failed to load cookies", "unsupported browser"}},
	{KindAgeRestricted, []string{"age-restricted", "age restricted", "confirm your age", "inappropriate for some users"}},
	{KindMembersOnly, []string{"members-only", "members only", "join this channel", "requires payment", "premium members"}},
	{KindVideoPrivate, []string{"private video", "this video is private", "video is private"}},
	{KindAuthRequired, []string{"sign in to confirm", "login_required", "login required", "requires login",
		"not a bot", "not a robot", "authentication required", "use --cookies", "account cookies", "http error 401", "http error 403"}},
	{KindGeoBlocked, []string{"not available in your country", "geo restrict", "geo-restrict", "geoblock",
		"blocked in your country", "not made this video available in your country", "available in your region"}},
	{KindRateLimited, []string{"http error 429", "http 412", "too many requests", "rate limit", "rate-limit"}},
	{KindProxy, []string{"proxy", "socks", "tunnel connection failed", "http error 407"}},
	{KindTimeout, []string{"timed out", "timeout", "deadline exceeded"}},
	{KindDiskFull, []string{"no space left", "disk full", "not enough space", "errno 28"}},
	{KindPermissionDenied, []string{"permission denied", "access is denied", "operation not permitted", "errno 13", "read-only file system"}},
	{KindFormatUnavailable, []string{"requested format is not available", "requested format not available",
		"no video formats found", "format not available"}},
	{KindVideoUnavailable, []string{"video unavailable", "this video is unavailable", "has been removed",
		"no longer available", "http error 404", "404 not found", "does not exist", "has been terminated",
		"content isn't available", "content is not available"}},
	{KindUnsupportedSite, []string{"unsupported url", "no extractor", "is not supported", "unsupported site"}},
	{KindInvalidURL, []string{"is not a valid url", "invalid url", "malformed url", "missing scheme", "invalid uri"}},
	{KindFileNotFound, []string{"no such file or directory", "file not found", "cannot find the file", "errno 2"}},
	{KindNetwork, []string{"network", "connection refused", "connection reset", "unable to download webpage",
		"name or service not known", "temporary failure in name resolution", "getaddrinfo", "no route to host",
		"ssl", "certificate", "eof occurred", "connection aborted", "remote end closed", "failed to resolve",
		"http error 5", "no such host", "i/o timeout", "request error"}},
	{KindParseError, []string{"invalid json", "unmarshal", "failed to parse", "parse error", "invalid character",
		"unexpected end of json", "cannot decode"}},
}

type entry struct {
	message    string
	suggestion string
	retryable  bool
}

var catalog = map[Kind]entry{
	KindNetwork:            {"Network error", "Check your internet connection and try again.", true},
	KindProxy:              {"Proxy error", "Check the proxy settings or switch proxy mode to none.", true},
	KindTimeout:            {"The operation timed out", "Try again; the site may be slow.", true},
	KindRateLimited:        {"Too many requests", "Wait a few minutes before trying again, or use cookies.", true},
	KindAuthRequired:       {"Sign-in required", "Use cookies from a browser where you are logged in.", false},
	KindInvalidCookies:     {"Cookies could not be used", "Close the browser or export a fresh cookies file.", false},
	KindAgeRestricted:      {"Age-restricted content", "Use cookies from an age-verified account.", false},
	KindMembersOnly:        {"Members-only content", "Use cookies from an account with access.", false},
	KindVideoPrivate:       {"This video is private", "", false},
	KindGeoBlocked:         {"Not available in your region", "Try a proxy in a supported region.", false},
	KindVideoUnavailable:   {"Video unavailable", "", false},
	KindFormatUnavailable:  {"Requested format is not available", "Pick another quality or format.", false},
	KindUnsupportedSite:    {"Unsupported site", "", false},
	KindInvalidURL:         {"Invalid URL", "Check the link and try again.", false},
	KindDiskFull:           {"Not enough disk space", "Free some space or change the output folder.", false},
	KindPermissionDenied:   {"Permission denied", "Choose an output folder you can write to.", false},
	KindFileNotFound:       {"File not found", "", false},
	KindDependencyMissing:  {"A required tool is missing", "Install yt-dlp, ffmpeg, aria2c or lux.", false},
	KindDependencyOutdated: {"A required tool is outdated", "Update yt-dlp to the latest version.", false},
	KindParseError:         {"Could not read the response", "", true},
	KindCancelled:          {"Download cancelled", "", false},
	KindUnknown:            {"Unknown error", "", true},
}

// Kinds lists every kind in rule order followed by unknown.
func Kinds() []Kind {
	out := make([]Kind, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.kind)
	}
	return append(out, KindUnknown)
}
