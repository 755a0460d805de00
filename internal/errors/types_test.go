package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryErrorError(t *testing.T) {
	err := NewParseError("packages.json", "invalid document", fmt.Errorf("yaml: line 3: mapping values are not allowed"))
	err.WithLocation("packages.json", 3, 7)

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_METADATA_PARSE]")
	assert.Contains(t, msg, "packages.json:3:7")
	assert.Contains(t, msg, "invalid document")
	assert.Contains(t, msg, "mapping values are not allowed")
}

func TestRegistryErrorIs(t *testing.T) {
	notFound := NewNotFoundError("packages.json", fs.ErrNotExist)
	parse := NewParseError("packages.json", "bad", nil)

	assert.True(t, errors.Is(notFound, ErrMetadataNotFound))
	assert.False(t, errors.Is(notFound, ErrMetadataParse))
	assert.True(t, errors.Is(parse, ErrMetadataParse))
	assert.True(t, errors.Is(notFound, fs.ErrNotExist), "cause must stay reachable")

	wrapped := fmt.Errorf("loading catalog: %w", parse)
	assert.True(t, IsParseError(wrapped))
	assert.False(t, IsNotFound(wrapped))
}

func TestExitCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"not found", NewNotFoundError("x", nil), ExitNotFound},
		{"parse", fmt.Errorf("wrap: %w", NewParseError("x", "bad", nil)), ExitParseError},
		{"config", NewConfigError("bad workers", nil), ExitConfig},
		{"verdict", ErrValidationFailed, ExitFailed},
		{"other", errors.New("boom"), ExitFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}
