// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// Auth0経由でのみ登録されたユーザー（Auth0Registered=true）のPasswordHashには
// ログインに使用できないランダムなプレースホルダーのハッシュが格納される。
type User struct {
	ID              string
	Email           string
	Name            string
	PhoneNumber     string
	PasswordHash    string
	Auth0Registered bool
	AverageScore    float64
	RegisteredAt    time.Time
	UpdatedAt       time.Time
}

// UserCompany はユーザーが所属する企業とその企業内でのロールを表す。
// プロフィール表示用の読み取り専用ビュー。
type UserCompany struct {
	CompanyID string
	Title     string
	Role      Role
}
