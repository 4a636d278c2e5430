package usage

// CounterType identifies a rolling usage counter for Free-tier quota checks.
type CounterType string

const (
	// CounterWorkouts counts workouts within the current calendar week.
	CounterWorkouts CounterType = "workouts"
	// CounterAIChats counts AI chat messages within the current day.
	CounterAIChats CounterType = "ai_chats"
)

// Valid reports whether the counter type is known.
func (c CounterType) Valid() bool {
	return c == CounterWorkouts || c == CounterAIChats
}

// Unlimited indicates no limit for a counter (-1 for SQL compatibility).
const Unlimited int64 = -1

// Result is the outcome of a limit check.
type Result struct {
	CounterType CounterType `json:"counter_type"`
	WithinLimit bool        `json:"within_limit"`
	Used        int64       `json:"used"`
	Limit       int64       `json:"limit"`
}
