package repository

import (
	"errors"

	"github.com/lib/pq"
)

// IsUniqueViolation はPostgreSQLの一意制約違反（SQLSTATE 23505）かどうかを返す。
// 呼び出し側はこれを競合（409）や「作成済みなので再取得」への分岐に使用する。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
