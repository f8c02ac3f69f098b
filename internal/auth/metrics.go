package auth

// Metrics は認証イベントの記録先。未設定の場合は何も記録しない。
type Metrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordFederatedVerification(success bool)
}
