package remote

// Message is a row in the shared message store.
type Message struct {
	ID              int64  `json:"id,omitempty"`
	SenderID        string `json:"sender_id"`
	ReceiverID      string `json:"receiver_id"`
	MessageType     string `json:"message_type,omitempty"`
	Title           string `json:"title,omitempty"`
	Content         string `json:"content,omitempty"`
	TaskTitle       string `json:"task_title,omitempty"`
	CompletionNotes string `json:"completion_notes,omitempty"`
	IsRead          bool   `json:"is_read"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// Task is a row in the shared task store. Deadline and CreatedAt are kept as
// the store's wall-clock strings ("2006-01-02T15:04:05"); callers parse them
// when they need instants.
type Task struct {
	ID          int64  `json:"id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Category    string `json:"category,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	Completed   bool   `json:"completed"`
	Status      string `json:"status,omitempty"`
	IsDailyTodo bool   `json:"is_daily_todo,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// WallClock is the timestamp layout the task store uses for deadlines and
// creation times. It carries no zone; values are interpreted in local time.
const WallClock = "2006-01-02T15:04:05"
