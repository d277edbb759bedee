package consts

// Tables
const (
	DBHistory   = "history"
	DBDownloads = "downloads"
)

// History
const (
	QHistID          = "id"
	QHistURL         = "url"
	QHistTitle       = "title"
	QHistAuthor      = "author"
	QHistThumbnail   = "thumbnail"
	QHistDuration    = "duration"
	QHistFilePath    = "file_path"
	QHistFileSize    = "file_size"
	QHistBackend     = "backend"
	QHistCompletedAt = "completed_at"
)

// Downloads
const (
	QDLID        = "id"
	QDLURL       = "url"
	QDLStatus    = "status"
	QDLPct       = "percentage"
	QDLError     = "error_message"
	QDLFilePath  = "file_path"
	QDLBackend   = "backend"
	QDLCreatedAt = "created_at"
	QDLUpdatedAt = "updated_at"
)
