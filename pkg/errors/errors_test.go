package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessageIncludesInternal(t *testing.T) {
	base := New("TEST", "something broke", http.StatusBadGateway)
	wrapped := base.WithInternal(errors.New("dial timeout"))

	require.Equal(t, "something broke: dial timeout", wrapped.Error())
	require.Equal(t, "something broke", base.Error())
}

func TestWithInternalDoesNotMutateOriginal(t *testing.T) {
	wrapped := ErrNotFound.WithInternal(errors.New("row missing"))

	require.Nil(t, ErrNotFound.Internal)
	require.NotNil(t, wrapped.Internal)
	require.Equal(t, ErrNotFound.Code, wrapped.Code)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := FromError(fmt.Errorf("load payment: %w", ErrNotFound))
	require.Equal(t, ErrNotFound.Code, appErr.Code)

	generic := FromError(errors.New("boom"))
	require.Equal(t, ErrInternalServer.Code, generic.Code)
	require.EqualError(t, generic.Unwrap(), "boom")
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	appErr := Wrap(cause, "invoice store unavailable")

	require.True(t, errors.Is(appErr, cause))
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
}
