package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapProviderCode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Code
	}{
		{"rest user not found", "EMAIL_NOT_FOUND", CodeUserNotFound},
		{"sdk user not found", "user-not-found", CodeUserNotFound},
		{"sdk prefixed user not found", "auth/user-not-found", CodeUserNotFound},
		{"rest invalid password", "INVALID_PASSWORD", CodeInvalidCredentials},
		{"rest invalid login", "INVALID_LOGIN_CREDENTIALS", CodeInvalidCredentials},
		{"sdk wrong password", "auth/wrong-password", CodeInvalidCredentials},
		{"rest too many attempts", "TOO_MANY_ATTEMPTS_TRY_LATER", CodeTooManyRequests},
		{"rest too many attempts with detail", "TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled", CodeTooManyRequests},
		{"rest email exists", "EMAIL_EXISTS", CodeEmailInUse},
		{"sdk email in use", "auth/email-already-in-use", CodeEmailInUse},
		{"rest weak password", "WEAK_PASSWORD : Password should be at least 6 characters", CodeWeakPassword},
		{"sdk network", "auth/network-request-failed", CodeNetwork},
		{"unknown code", "SOMETHING_ELSE", CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapProviderCode(tt.raw))
		})
	}
}

func TestAuthError_LocalizedMessages(t *testing.T) {
	// The exact wording shown in the app must survive the mapping.
	err := providerError("user-not-found")
	assert.Equal(t, "このメールアドレスのユーザーが見つかりません", err.Error())

	err = providerError("EMAIL_EXISTS")
	assert.Equal(t, "このメールアドレスは既に使用されています", err.Error())

	err = NewAuthError(CodeNotAuthenticated)
	assert.Equal(t, "ログインしていません", err.Error())

	// Unmapped codes fall back to the generic message.
	err = providerError("TOTALLY_NEW_CODE")
	assert.Equal(t, "認証エラーが発生しました", err.Error())
	assert.Equal(t, "TOTALLY_NEW_CODE", err.ProviderCode)
}
