package sse

import (
	"sync"

	"finance-advisor/api/logger"

	"go.uber.org/zap"
)

// ClientStream is one subscriber's buffered event feed.
type ClientStream struct {
	Messages chan string
}

var (
	mu      sync.RWMutex
	streams = make(map[string]map[*ClientStream]struct{})
)

// Subscribe registers a progress listener for userID. The caller must
// Unsubscribe when the connection closes.
func Subscribe(userID string) *ClientStream {
	stream := &ClientStream{Messages: make(chan string, 16)}

	mu.Lock()
	defer mu.Unlock()
	if streams[userID] == nil {
		streams[userID] = make(map[*ClientStream]struct{})
	}
	streams[userID][stream] = struct{}{}
	return stream
}

func Unsubscribe(userID string, stream *ClientStream) {
	mu.Lock()
	defer mu.Unlock()
	if subs, ok := streams[userID]; ok {
		delete(subs, stream)
		if len(subs) == 0 {
			delete(streams, userID)
		}
	}
}

// SendToUser fans one serialized event out to every subscriber of userID.
// Slow subscribers drop events rather than block the pipeline.
func SendToUser(userID string, payload string) {
	mu.RLock()
	defer mu.RUnlock()

	subs, ok := streams[userID]
	if !ok {
		return
	}
	for stream := range subs {
		select {
		case stream.Messages <- payload:
		default:
			logger.Get().Warn("dropping progress event for slow subscriber",
				zap.String("user_id", userID))
		}
	}
}
