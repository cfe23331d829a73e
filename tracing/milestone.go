package tracing

// Milestone represents a point in time where a task is blocked
type Milestone struct {
	ID       string  `json:"id"`
	TaskID   string  `json:"task_id"`
	What     string  `json:"what"`
	Location string  `json:"location"`
	Time     float64 `json:"time"`
}
