package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// StreamManager fans finished trial records out to SSE subscribers, per session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
	dropped     int
}

// NewStreamManager creates an empty manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			subs := sm.subscribers[sessionID]
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		})
	}
}

// Broadcast sends msg to every subscriber of sessionID. Slow subscribers lose the message.
func (sm *StreamManager) Broadcast(sessionID, msg string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.dropped++
		}
	}
}

// Publish broadcasts a finished record. It matches runner.WithOnFinish.
func (sm *StreamManager) Publish(rec *domain.TrialRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	sm.Broadcast(rec.SessionID, string(data))
}

// Dropped returns how many messages slow subscribers missed.
func (sm *StreamManager) Dropped() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.dropped
}

// SubscribeEvents handles GET /sessions/{sessionID}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: subscribed", "session", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: trial\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
