package interview

import (
	"sort"
	"time"
)

// Session is a persisted interview-prep record.
type Session struct {
	ID          string           `json:"_id"`
	Role        string           `json:"role"`
	Experience  string           `json:"experience"`
	Topics      []string         `json:"topicsToFocus"`
	Description string           `json:"description"`
	Questions   []QuestionAnswer `json:"questions"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// QuestionAnswer is a generated pair owned by exactly one Session.
type QuestionAnswer struct {
	ID        string    `json:"_id"`
	SessionID string    `json:"session"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	IsPinned  bool      `json:"isPinned"`
	CreatedAt time.Time `json:"createdAt"`
}

// SortQuestions orders questions pinned first, then by creation time.
func SortQuestions(qs []QuestionAnswer) {
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].IsPinned != qs[j].IsPinned {
			return qs[i].IsPinned
		}
		return qs[i].CreatedAt.Before(qs[j].CreatedAt)
	})
}

// Clone returns a deep copy that callers may mutate freely.
func (s Session) Clone() Session {
	out := s
	out.Topics = append([]string(nil), s.Topics...)
	out.Questions = append([]QuestionAnswer(nil), s.Questions...)
	return out
}
