package model

import (
	"fmt"
	"time"
)

// QuestionType は設問の回答形式を表す閉じた列挙型。
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionOpenAnswer     QuestionType = "open_answer"
)

// ParseQuestionType は文字列をQuestionTypeに変換する。未知の値はエラーを返す。
func ParseQuestionType(s string) (QuestionType, error) {
	switch QuestionType(s) {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionOpenAnswer:
		return QuestionType(s), nil
	default:
		return "", fmt.Errorf("unknown question type: %q", s)
	}
}

// Quiz は企業が所有するクイズを表す。
// 受験資格はTagsで制限され、回答はStartsAt〜EndsAtの期間内のみ可能。
type Quiz struct {
	ID                    string
	CompanyID             string
	Title                 string
	Description           string
	CompletionTimeMinutes int
	MaxAttemptsCount      int
	StartsAt              time.Time
	EndsAt                time.Time
	Questions             []Question
	TagIDs                []string
	CreatedAt             time.Time
}

// CompletionTime は1回の受験に与えられる制限時間を返す。
func (q *Quiz) CompletionTime() time.Duration {
	return time.Duration(q.CompletionTimeMinutes) * time.Minute
}

// Question はクイズ内の設問を表す。
type Question struct {
	ID      string
	QuizID  string
	Title   string
	Type    QuestionType
	Answers []Answer
}

// HasAnswer は指定IDの選択肢が設問に含まれるかどうかを返す。
func (q *Question) HasAnswer(answerID string) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}

// Answer は設問の選択肢を表す。open_answer設問の場合は正答テキストを保持する。
type Answer struct {
	ID         string
	QuestionID string
	Title      string
	IsCorrect  bool
}

// Tag は企業内でユーザーとクイズを結びつけるラベルを表す。
type Tag struct {
	ID          string
	CompanyID   string
	Title       string
	Description string
}
