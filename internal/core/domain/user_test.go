package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileDraftValidate(t *testing.T) {
	tests := []struct {
		name      string
		draft     ProfileDraft
		wantField string
	}{
		{
			name:  "valid draft",
			draft: ProfileDraft{Nickname: "ふわこ", Bio: "毛布が好きです", SelectedIcon: "sheep"},
		},
		{
			name:  "bio may be empty",
			draft: ProfileDraft{Nickname: "ふわこ"},
		},
		{
			name:      "nickname required",
			draft:     ProfileDraft{Bio: "毛布が好きです"},
			wantField: "nickname",
		},
		{
			name:      "nickname too long",
			draft:     ProfileDraft{Nickname: strings.Repeat("も", 21)},
			wantField: "nickname",
		},
		{
			name:  "nickname at limit",
			draft: ProfileDraft{Nickname: strings.Repeat("も", 20)},
		},
		{
			name:      "bio too long",
			draft:     ProfileDraft{Nickname: "ふわこ", Bio: strings.Repeat("長", 201)},
			wantField: "bio",
		},
		{
			name:  "bio at limit",
			draft: ProfileDraft{Nickname: "ふわこ", Bio: strings.Repeat("長", 200)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.draft.Validate()
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantField, verr.Field)
		})
	}
}
