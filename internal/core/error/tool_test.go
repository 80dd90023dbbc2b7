package errx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfClassifiedError(t *testing.T) {
	err := NewToolError("weather", CodeTimeout, errors.New("deadline"))

	code, ok := CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, CodeTimeout, code)
	assert.True(t, IsCode(err, CodeTimeout))
	assert.False(t, IsCode(err, CodeNotFound))
}

func TestCodeOfWrappedError(t *testing.T) {
	err := fmt.Errorf("turn failed: %w", NewToolError("retrieval", CodeNoMatch, nil))

	assert.True(t, IsCode(err, CodeNoMatch))
}

func TestCodeOfPlainError(t *testing.T) {
	_, ok := CodeOf(errors.New("boom"))
	assert.False(t, ok)
	assert.False(t, IsCode(nil, CodeTimeout))
}

func TestToolErrorMessage(t *testing.T) {
	err := NewToolError("weather", CodeProviderError, errors.New("status 500"))
	assert.Equal(t, "weather: provider_error: status 500", err.Error())

	bare := NewToolError("weather", CodeNotFound, nil)
	assert.Equal(t, "weather: not_found", bare.Error())
}
