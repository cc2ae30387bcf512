package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid - lowercase",
			username: "nadia",
			wantErr:  false,
		},
		{
			name:     "valid - uppercase",
			username: "NADIA",
			wantErr:  false,
		},
		{
			name:     "valid - mixed case",
			username: "NadiaPetrova",
			wantErr:  false,
		},
		{
			name:     "valid - with underscore",
			username: "vault_owner",
			wantErr:  false,
		},
		{
			name:     "valid - with numbers",
			username: "nadia42",
			wantErr:  false,
		},
		{
			name:     "valid - all numbers",
			username: "42424242",
			wantErr:  false,
		},
		{
			name:     "valid - min length",
			username: strings.Repeat("n", MinUsernameLen),
			wantErr:  false,
		},
		{
			name:     "valid - max length",
			username: strings.Repeat("n", MaxUsernameLen),
			wantErr:  false,
		},
		{
			name:     "invalid - empty",
			username: "",
			wantErr:  true,
			errMsg:   "username cannot be empty",
		},
		{
			name:     "invalid - below min length",
			username: strings.Repeat("n", MinUsernameLen-1),
			wantErr:  true,
			errMsg:   "must be at least 3 characters",
		},
		{
			name:     "invalid - above max length",
			username: strings.Repeat("n", MaxUsernameLen+1),
			wantErr:  true,
			errMsg:   "must not exceed 32 characters",
		},
		{
			name:     "invalid - dot",
			username: "nadia.petrova",
			wantErr:  true,
			errMsg:   "can only contain letters",
		},
		{
			name:     "invalid - dash",
			username: "nadia-petrova",
			wantErr:  true,
			errMsg:   "can only contain letters",
		},
		{
			name:     "invalid - space",
			username: "nadia petrova",
			wantErr:  true,
			errMsg:   "can only contain letters",
		},
		{
			name:     "invalid - email-like",
			username: "nadia@vault",
			wantErr:  true,
			errMsg:   "can only contain letters",
		},
		{
			name:     "invalid - punctuation",
			username: "nadia?!",
			wantErr:  true,
			errMsg:   "can only contain letters",
		},
		{
			name:     "invalid - cyrillic",
			username: "надежда",
			wantErr:  true,
			errMsg:   "can only contain letters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid - exactly 12 chars",
			password: "orange-kayak",
			wantErr:  false,
		},
		{
			name:     "valid - passphrase",
			password: "correct_horse_battery_staple",
			wantErr:  false,
		},
		{
			name:     "valid - with special chars",
			password: "V@ult+K33per!",
			wantErr:  false,
		},
		{
			name:     "valid - unicode",
			password: "ключ-от-сейфа",
			wantErr:  false,
		},
		{
			name:     "invalid - empty",
			password: "",
			wantErr:  true,
			errMsg:   "password cannot be empty",
		},
		{
			name:     "invalid - 11 chars",
			password: "orange-kaya",
			wantErr:  true,
			errMsg:   "must be at least 12 characters",
		},
		{
			name:     "invalid - single char",
			password: "k",
			wantErr:  true,
			errMsg:   "must be at least 12 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
