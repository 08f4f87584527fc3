package testutil

import (
	"sync"

	"gestor-go/internal/gestor"
)

// Notice is one notification captured by RecordingNotifier.
type Notice struct {
	Level   gestor.NoticeLevel
	Message string
}

// RecordingNotifier keeps every notification. Safe for concurrent use.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Notify(level gestor.NoticeLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Level: level, Message: message})
}

// Notices returns a copy of the captured notifications.
func (n *RecordingNotifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

// Count returns how many notifications of the given level were captured.
func (n *RecordingNotifier) Count(level gestor.NoticeLevel) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, notice := range n.notices {
		if notice.Level == level {
			c++
		}
	}
	return c
}
