package errors

import (
	stderrors "errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseErrorMessage(t *testing.T) {
	err := New(SyntaxErrorCode, "bad annotation")
	assert.Equal(t, "bad annotation", err.Error())

	err.WithLocation(SourceLocation{File: "animal.go", Line: 12})
	assert.Equal(t, "animal.go:12: bad annotation", err.Error())
	assert.Equal(t, SyntaxErrorCode, err.ErrorCode())
}

func TestWrapKeepsCause(t *testing.T) {
	err := WrapFileSystemError("scan", "/missing", os.ErrNotExist)

	assert.True(t, stderrors.Is(err, os.ErrNotExist))
	assert.Equal(t, FileSystemErrorCode, CodeOf(err))
	assert.Equal(t, "/missing", err.Context()["path"])
	assert.Contains(t, err.Error(), "failed to scan '/missing'")
}

func TestMultipleErrors(t *testing.T) {
	var m MultipleErrors
	assert.Nil(t, m.ErrorOrNil())

	first := RegistrationError("middleware", "auth", "not registered")
	m.Add(first)
	m.Add(nil)
	assert.Same(t, first, m.ErrorOrNil())

	m.Add(ConfigurationError("mode", "unknown mode"))
	err := m.ErrorOrNil()
	assert.Contains(t, err.Error(), "multiple errors (2 total)")

	var be *BaseError
	assert.True(t, stderrors.As(err, &be))
	assert.Equal(t, RegistrationErrorCode, be.ErrorCode())
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "DiscoveryError", DiscoveryErrorCode.String())
	assert.Equal(t, "UnknownError", ErrorCode(99).String())
	assert.Equal(t, UnknownErrorCode, CodeOf(stderrors.New("plain")))
}

func TestCodeOfSearchesCollections(t *testing.T) {
	var m MultipleErrors
	m.Add(stderrors.New("plain"))
	m.Add(DiscoveryError("UserController", SourceLocation{File: "user.go", Line: 3, Column: 6}, "type not registered"))

	assert.Equal(t, DiscoveryErrorCode, CodeOf(m.ErrorOrNil()))
	assert.Contains(t, m.Error(), "2. user.go:3:6: controller 'UserController': type not registered")
}

func TestSourceLocationString(t *testing.T) {
	assert.Equal(t, "unknown location", SourceLocation{}.String())
	assert.Equal(t, "a.go", SourceLocation{File: "a.go"}.String())
	assert.Equal(t, "a.go:4", SourceLocation{File: "a.go", Line: 4}.String())
}
