package api

import (
	"errors"
	"net/http"

	"mokomoko.app/cli/internal/auth"
	"mokomoko.app/cli/internal/cache"
	"mokomoko.app/cli/internal/core/domain"
	"mokomoko.app/cli/internal/httpx"
)

// ErrNotOwner is returned when the acting user tries to edit or delete a post
// they do not own. The server enforces this too; the client check only exists
// to fail fast with a clear message.
var ErrNotOwner = errors.New("自分の投稿のみ編集・削除できます")

// ErrorMessage converts any failure from a service operation into the
// human-readable message shown to the user. Nothing is fatal; every operation
// can simply be retried.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}

	var aerr *auth.AuthError
	if errors.As(err, &aerr) {
		return aerr.Error()
	}

	if errors.Is(err, ErrNotOwner) {
		return ErrNotOwner.Error()
	}
	if errors.Is(err, cache.ErrUnauthenticated) {
		return "ログインが必要です"
	}

	var rerr *httpx.RequestError
	if errors.As(err, &rerr) {
		switch rerr.Kind {
		case httpx.KindTimeout:
			return "通信がタイムアウトしました。もう一度お試しください"
		case httpx.KindConnectionRefused:
			return "サーバーに接続できません"
		case httpx.KindNetwork:
			return "ネットワークエラーが発生しました。接続を確認してください"
		}
		switch {
		case rerr.Status == http.StatusNotFound:
			return "お探しのデータが見つかりませんでした"
		case rerr.Status == http.StatusForbidden:
			return "この操作を行う権限がありません"
		case rerr.Status >= http.StatusInternalServerError:
			return "サーバーエラーが発生しました。時間をおいてお試しください"
		default:
			return "エラーが発生しました。もう一度お試しください"
		}
	}

	return err.Error()
}
