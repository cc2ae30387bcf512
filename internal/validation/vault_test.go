package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateVaultName(t *testing.T) {
	tests := []struct {
		name      string
		vaultName string
		wantErr   bool
		errMsg    string
	}{
		{
			name:      "valid name",
			vaultName: "Personal",
			wantErr:   false,
		},
		{
			name:      "valid name - with spaces inside",
			vaultName: "Work accounts",
			wantErr:   false,
		},
		{
			name:      "valid name - exactly 64 chars",
			vaultName: strings.Repeat("a", 64),
			wantErr:   false,
		},
		{
			name:      "invalid - empty",
			vaultName: "",
			wantErr:   true,
			errMsg:    "cannot be empty",
		},
		{
			name:      "invalid - whitespace only",
			vaultName: "   ",
			wantErr:   true,
			errMsg:    "cannot be empty",
		},
		{
			name:      "invalid - too long (65 chars)",
			vaultName: strings.Repeat("a", 65),
			wantErr:   true,
			errMsg:    "must not exceed 64 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVaultName(tt.vaultName)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateAliasParts(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		suffix  string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid parts",
			prefix:  "shopping",
			suffix:  ".quiet@simplelogin.com",
			wantErr: false,
		},
		{
			name:    "valid - prefix with dots and digits",
			prefix:  "news.2024",
			suffix:  "@aliasvault.dev",
			wantErr: false,
		},
		{
			name:    "invalid - empty prefix",
			prefix:  "",
			suffix:  "@aliasvault.dev",
			wantErr: true,
			errMsg:  "prefix cannot be empty",
		},
		{
			name:    "invalid - prefix too long",
			prefix:  strings.Repeat("a", 65),
			suffix:  "@aliasvault.dev",
			wantErr: true,
			errMsg:  "must not exceed 64 characters",
		},
		{
			name:    "invalid - prefix with @",
			prefix:  "user@host",
			suffix:  "@aliasvault.dev",
			wantErr: true,
			errMsg:  "cannot contain spaces or @",
		},
		{
			name:    "invalid - prefix with space",
			prefix:  "my alias",
			suffix:  "@aliasvault.dev",
			wantErr: true,
			errMsg:  "cannot contain spaces or @",
		},
		{
			name:    "invalid - empty suffix",
			prefix:  "shopping",
			suffix:  "",
			wantErr: true,
			errMsg:  "suffix cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAliasParts(tt.prefix, tt.suffix)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
