package consts

// Permissions for files and directories Fetcharr creates.
const (
	PermsGenericDir  = 0o755
	PermsDownloadDir = 0o755
	PermsLogFile     = 0o644

	PermsHomeProgDir = 0o700
	PermsCookieDir   = 0o750
	PermsCookieFile  = 0o600
)
