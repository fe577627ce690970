// Package repository はgormによる永続化層を提供する。
//
// データ層のエラーは閉じた種別（model.AppError）へ変換してから返す。
// 上位層・エラーノーマライザがエラー文字列を検査することはない。
package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// translateWriteError は書き込み系操作のgormエラーをAppErrorへ変換する。
// fieldsには一意制約違反時にユーザーへ返すフィールド単位のメッセージを渡す。
// 接続はTranslateErrorを有効にして開かれている前提（database.Open参照）。
func translateWriteError(err error, op string, fields ...string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.NewDuplicateError(fields...)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return model.NewValidationError("referenced record does not exist")
	}
	return fmt.Errorf("%s: %w", op, err)
}
