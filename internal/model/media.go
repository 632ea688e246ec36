package model

// MediaReference is a platform file id resolved to a short-lived download URL.
type MediaReference struct {
	FileID string
	URL    string
}

// TranscodeResult describes a finished upload on the media service.
type TranscodeResult struct {
	PlaybackURL string
	PublicID    string
}

// TranscodeJob is the unit of work handed from the router to a dispatcher.
// Struct tags keep the JSON form stable because the redis dispatcher stores it.
type TranscodeJob struct {
	RequestID string `json:"request_id"`
	UpdateID  int    `json:"update_id"`
	ChatID    int64  `json:"chat_id"`
	FileID    string `json:"file_id"`
}
