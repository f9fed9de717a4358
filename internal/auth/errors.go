package auth

import "strings"

// Code is the stable classification of an identity provider failure.
// Provider-specific error strings are mapped onto these once, at the adapter
// boundary, so nothing above this package ever sees a raw provider code.
type Code string

const (
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeUserNotFound       Code = "user_not_found"
	CodeTooManyRequests    Code = "too_many_requests"
	CodeEmailInUse         Code = "email_in_use"
	CodeWeakPassword       Code = "weak_password"
	CodeNotAuthenticated   Code = "not_authenticated"
	CodeNetwork            Code = "network"
	CodeUnknown            Code = "unknown"
)

// messages holds the user-facing text per code, matching the wording shown in
// the app.
var messages = map[Code]string{
	CodeInvalidCredentials: "メールアドレスまたはパスワードが間違っています",
	CodeUserNotFound:       "このメールアドレスのユーザーが見つかりません",
	CodeTooManyRequests:    "試行回数が多すぎます。しばらくしてから再度お試しください",
	CodeEmailInUse:         "このメールアドレスは既に使用されています",
	CodeWeakPassword:       "パスワードは6文字以上で入力してください",
	CodeNotAuthenticated:   "ログインしていません",
	CodeNetwork:            "ネットワークエラーが発生しました。接続を確認してください",
	CodeUnknown:            "認証エラーが発生しました",
}

// AuthError is an identity provider failure with a stable code and a
// user-facing message. ProviderCode keeps the raw code for debugging.
type AuthError struct {
	Code         Code
	ProviderCode string
}

func (e *AuthError) Error() string {
	if msg, ok := messages[e.Code]; ok {
		return msg
	}
	return messages[CodeUnknown]
}

// NewAuthError builds an AuthError directly from a code.
func NewAuthError(code Code) *AuthError {
	return &AuthError{Code: code}
}

// mapProviderCode translates a provider error string into a Code. Both the
// REST style (EMAIL_NOT_FOUND) and the SDK style (auth/user-not-found) occur
// in the wild.
func mapProviderCode(raw string) Code {
	code := strings.TrimPrefix(raw, "auth/")

	// Some provider responses append detail after a colon, e.g.
	// "TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account ...".
	if i := strings.IndexAny(code, " :"); i >= 0 {
		code = code[:i]
	}

	switch code {
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND", "user-not-found":
		return CodeUserNotFound
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "wrong-password", "invalid-credential":
		return CodeInvalidCredentials
	case "TOO_MANY_ATTEMPTS_TRY_LATER", "too-many-requests":
		return CodeTooManyRequests
	case "EMAIL_EXISTS", "email-already-in-use":
		return CodeEmailInUse
	case "WEAK_PASSWORD", "weak-password":
		return CodeWeakPassword
	case "network-request-failed":
		return CodeNetwork
	default:
		return CodeUnknown
	}
}

// providerError builds an AuthError from a raw provider code.
func providerError(raw string) *AuthError {
	return &AuthError{Code: mapProviderCode(raw), ProviderCode: raw}
}
