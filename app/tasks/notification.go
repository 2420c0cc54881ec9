package tasks

// NotificationQueue is the queue hub announcements travel through between
// the notify and deliver tasks.
const NotificationQueue = "hub-notifications"

// Notification is the queued payload announcing a fresh render to a hub.
type Notification struct {
	Feed    string `json:"feed"`
	FeedURL string `json:"feed_url"`
	Hub     string `json:"hub"`
}
