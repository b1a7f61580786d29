package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
		severity Severity
	}{
		{"config code", ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{"io code", ErrCodeFileNotFound, CategoryIO, SeverityError},
		{"storage write is warning", ErrCodeStorageWrite, CategoryStorage, SeverityWarning},
		{"corrupt record is warning", ErrCodeRecordCorrupt, CategoryStorage, SeverityWarning},
		{"vault missing is fatal", ErrCodeVaultNotFound, CategoryIO, SeverityFatal},
		{"validation code", ErrCodeInvalidQuery, CategoryValidation, SeverityError},
		{"internal code", ErrCodeInternal, CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := Wrap(ErrCodeStorageWrite, cause)

	require.NotNil(t, err)
	assert.Equal(t, "disk on fire", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCodeRecordCorrupt, "bad blob", nil))

	assert.True(t, stderrors.Is(err, New(ErrCodeRecordCorrupt, "", nil)))
	assert.False(t, stderrors.Is(err, New(ErrCodeStorageWrite, "", nil)))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(StorageError("save failed", nil)))
	assert.False(t, IsRetryable(ConfigError("bad yaml", nil)))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := New(ErrCodeInvalidPath, "path not canonical", nil).
		WithDetail("path", "Notes\\a.md").
		WithSuggestion("use forward slashes")

	assert.Equal(t, "Notes\\a.md", err.Details["path"])
	assert.Equal(t, "use forward slashes", err.Suggestion)
	assert.Equal(t, "[ERR_403_INVALID_PATH] path not canonical", err.Error())
}
