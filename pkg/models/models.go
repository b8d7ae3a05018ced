package models

// Default values applied to a customer record when the login response omits
// the corresponding optional fields.
const (
	DefaultSessionSeconds int64 = 3 * 60 * 60
	DefaultRank                 = "Bronze"
	DefaultStreak               = 0
)

// Customer represents the authenticated identity and its live state as the
// UI reads it. Balance is in the smallest currency unit; TimeRemaining is in
// seconds and only ever grows through a top-up.
type Customer struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	Balance       int64  `json:"balance"`
	TimeRemaining int64  `json:"time_remaining"`
	Rank          string `json:"rank"`
	Streak        int    `json:"streak"`
}

// TopUpTransaction is the server-side record carried inside a top-up push.
type TopUpTransaction struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}
