package realtime

import (
	"context"

	"github.com/firstindallas/backend/internal/syncjobs"
)

// Events pushed to the admin room.
const (
	EventSubmissionsChanged = "submissions_changed"
	EventTaskUpdate         = "task_update"
)

// Notifier publishes dashboard events to the admin room.
type Notifier struct {
	hub *Hub
}

// NewNotifier creates a notifier on hub.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// SubmissionsChanged refreshes the pending review badge.
func (n *Notifier) SubmissionsChanged(ctx context.Context, pendingCount int) error {
	return n.hub.Publish(ctx, RoomAdmin, EventSubmissionsChanged, map[string]int{"pending_count": pendingCount})
}

// TaskUpdated reports sync task progress.
func (n *Notifier) TaskUpdated(ctx context.Context, v syncjobs.TaskView) error {
	return n.hub.Publish(ctx, RoomAdmin, EventTaskUpdate, v)
}
