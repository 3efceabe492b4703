package models

import (
	"time"

	"github.com/google/uuid"
)

// Notice types pushed over the user's websocket channel.
const (
	NoticeSessionPaused   = "session.paused"
	NoticeSessionResumed  = "session.resumed"
	NoticeLessonCompleted = "lesson.completed"
	NoticeModuleFulfilled = "module.fulfilled"
	NoticeSyncResult      = "sync.result"
	NoticeAlert           = "alert"
)

type Notice struct {
	Type     string      `json:"type"`
	LessonID uuid.UUID   `json:"lesson_id"`
	Reason   string      `json:"reason,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
	At       time.Time   `json:"at"`
}
