package model

import "time"

// Attempt はユーザーによるクイズの受験を表す。
// EndTime = StartTime + クイズのCompletionTime。
// 同一 (user, quiz) で進行中の受験は常に高々1つ。
type Attempt struct {
	ID        string
	QuizID    string
	UserID    string
	StartTime time.Time
	EndTime   time.Time
	Result    int
}

// IsOngoing は受験が指定時刻の時点で進行中かどうかを返す。
// 進行中 = StartTime <= now <= EndTime。
func (a *Attempt) IsOngoing(now time.Time) bool {
	return !now.Before(a.StartTime) && !now.After(a.EndTime)
}

// AttemptAnswer は受験中の設問に対する回答を表す。
// open_answer設問の場合はTextに回答文字列、
// 選択式設問の場合はAnswerIDsに選択した選択肢のIDが格納される。
type AttemptAnswer struct {
	AttemptID  string
	QuestionID string
	AnswerIDs  []string
	Text       string
	IsCorrect  bool
	AnsweredAt time.Time
}
