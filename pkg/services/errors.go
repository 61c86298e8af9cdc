package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInputShape リクエストの必須項目が欠けている・型が不正な場合のエラー（4xx相当、再試行しない）
	ErrInputShape = errors.New("invalid input")

	// ErrCollaboratorUnavailable ナラティブ生成の外部サービスが利用できない場合のエラー。
	// 呼び出し元には返さず、常に代替文で置き換える。
	ErrCollaboratorUnavailable = errors.New("narrative collaborator unavailable")
)

// inputShapeError ErrInputShape をラップしたエラーを生成
func inputShapeError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInputShape, fmt.Sprintf(format, args...))
}
