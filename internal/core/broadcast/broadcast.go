// Package broadcast fans violation and status events out to dashboard
// observers, one topic per exam. Delivery is best-effort: a slow observer
// loses its oldest messages, a dead one is dropped, publication never
// blocks on either.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ixugo/goddd/pkg/conc"
)

type EventType string

const (
	EventNewViolation   EventType = "new_violation"
	EventStudentsUpdate EventType = "students_update"
	EventExamStarted    EventType = "exam_started"
	EventSnapshot       EventType = "snapshot"
)

// Message 推送给观察者的 JSON 消息
type Message struct {
	Type      EventType `json:"type"`
	ExamID    string    `json:"exam_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

const observerQueueSize = 16

// Observer one subscriber's bounded outbound queue.
type Observer struct {
	// ID identifies the connection in logs
	ID     string
	C      <-chan []byte
	ch     chan []byte
	hub    *Hub
	examID string
	once   sync.Once
}

// Close detaches the observer from its topic. Safe to call twice.
func (o *Observer) Close() {
	o.once.Do(func() {
		o.hub.unsubscribe(o.examID, o)
	})
}

type topic struct {
	mu        sync.Mutex
	observers map[*Observer]struct{}
}

// Hub 按考试分组的事件分发器
type Hub struct {
	topics conc.Map[string, *topic]
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers an observer for one exam's events.
func (h *Hub) Subscribe(examID string) *Observer {
	t, _ := h.topics.LoadOrStore(examID, &topic{observers: make(map[*Observer]struct{})})
	ch := make(chan []byte, observerQueueSize)
	obs := &Observer{ID: uuid.NewString(), C: ch, ch: ch, hub: h, examID: examID}
	t.mu.Lock()
	t.observers[obs] = struct{}{}
	t.mu.Unlock()
	return obs
}

func (h *Hub) unsubscribe(examID string, obs *Observer) {
	t, ok := h.topics.Load(examID)
	if !ok {
		return
	}
	t.mu.Lock()
	delete(t.observers, obs)
	t.mu.Unlock()
	close(obs.ch)
}

// ObserverCount 当前考试的订阅者数量
func (h *Hub) ObserverCount(examID string) int {
	t, ok := h.topics.Load(examID)
	if !ok {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.observers)
}

// Publish delivers the event to every observer of the exam. Under
// backpressure the observer's oldest queued message is discarded first.
func (h *Hub) Publish(examID string, typ EventType, data any) {
	t, ok := h.topics.Load(examID)
	if !ok {
		return
	}

	b, err := json.Marshal(Message{
		Type:      typ,
		ExamID:    examID,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		slog.Error("marshal broadcast message", "type", typ, "err", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for obs := range t.observers {
		select {
		case obs.ch <- b:
		default:
			// full queue: drop oldest, then retry once
			select {
			case <-obs.ch:
			default:
			}
			select {
			case obs.ch <- b:
			default:
			}
		}
	}
}

// SnapshotSource produces one exam's full dashboard state.
type SnapshotSource interface {
	Snapshot(examID string, now time.Time) any
}

// StartSnapshots 定时向每个有订阅者的考试推送全量快照，
// 迟到的观察者无需回放历史即可对齐状态
func (h *Hub) StartSnapshots(ctx context.Context, interval time.Duration, src SnapshotSource) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.topics.Range(func(examID string, t *topic) bool {
				t.mu.Lock()
				n := len(t.observers)
				t.mu.Unlock()
				if n == 0 {
					return true
				}
				h.Publish(examID, EventSnapshot, src.Snapshot(examID, now))
				return true
			})
		}
	}
}
