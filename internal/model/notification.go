package model

type EventRef struct {
	ID    int64  `json:"id"`
	Title string `json:"titre"`
}

type Notification struct {
	ID      int64     `json:"id" validate:"required"`
	Title   string    `json:"titre"`
	Message string    `json:"message"`
	Event   *EventRef `json:"evenement"`
	SentAt  string    `json:"date_envoi"`
	Read    bool      `json:"est_lu"`
	ReadAt  *string   `json:"date_lu"`
}

// Broadcast is the admin payload for sending a notification.
type Broadcast struct {
	Title   string `json:"titre" validate:"required,max=255"`
	Message string `json:"message" validate:"required"`
	EventID *int64 `json:"evenement_id,omitempty"`
}

type BroadcastResult struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	Notification *Notification `json:"notification"`
	Count        int           `json:"count"`
}

type UnreadCount struct {
	Count int `json:"count"`
}
