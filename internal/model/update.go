// Package model contains the transient shapes passed between the relay's
// components. None of them is persisted.
package model

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Attachment is a file carried by a message: a native video or a document.
type Attachment struct {
	FileID   string `json:"file_id"`
	MimeType string `json:"mime_type,omitempty"`
}

// IsVideo reports whether the declared mime type is a video/* type.
func (a *Attachment) IsVideo() bool {
	return a != nil && strings.HasPrefix(strings.ToLower(a.MimeType), "video/")
}

// Update is one inbound chat event reduced to what the router looks at.
type Update struct {
	UpdateID int
	ChatID   int64
	Text     string
	Caption  string
	Video    *Attachment
	Document *Attachment
}

// FromTelegram converts a Bot API update. ok is false when the update has no
// message or the message has no chat, i.e. nothing can be replied to.
func FromTelegram(u tgbotapi.Update) (Update, bool) {
	m := u.Message
	if m == nil || m.Chat == nil {
		return Update{}, false
	}
	out := Update{
		UpdateID: u.UpdateID,
		ChatID:   m.Chat.ID,
		Text:     m.Text,
		Caption:  m.Caption,
	}
	if m.Video != nil {
		out.Video = &Attachment{FileID: m.Video.FileID, MimeType: m.Video.MimeType}
	}
	if m.Document != nil {
		out.Document = &Attachment{FileID: m.Document.FileID, MimeType: m.Document.MimeType}
	}
	return out, true
}

// VideoFile returns the attachment to transcode. A native video wins over a
// document; a document only counts when its mime type is video/*.
func (u Update) VideoFile() (*Attachment, bool) {
	if u.Video != nil {
		return u.Video, true
	}
	if u.Document.IsVideo() {
		return u.Document, true
	}
	return nil, false
}
