package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPError_UnwrapTaxonomy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrAuth},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadGateway, ErrNetwork},
		{http.StatusInternalServerError, ErrNetwork},
	}
	for _, c := range cases {
		err := fmt.Errorf("wrap: %w", &HTTPError{Status: c.status, Method: "GET", Path: "/x"})
		require.ErrorIs(t, err, c.want, "status %d", c.status)
	}

	bad := &HTTPError{Status: http.StatusBadRequest, Method: "POST", Path: "/Images"}
	require.False(t, errors.Is(bad, ErrAuth))
	require.False(t, errors.Is(bad, ErrNetwork))
}

func TestIsUnauthorized(t *testing.T) {
	t.Parallel()
	require.True(t, IsUnauthorized(fmt.Errorf("x: %w", &HTTPError{Status: 401})))
	require.False(t, IsUnauthorized(&HTTPError{Status: 403}))
	require.False(t, IsUnauthorized(errors.New("boom")))
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	err := errors.Join(Invalid("email", "Invalid email"), Invalid("password", "Password is required"))
	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "email", ve.Field)
	require.Equal(t, "email: Invalid email", ve.Error())
}

func TestUserMessage(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Wrong password", UserMessage(&HTTPError{Status: 400, Message: "Wrong password"}, "fallback"))
	require.Equal(t, "Enter a name", UserMessage(Invalid("name", "Enter a name"), "fallback"))
	require.Equal(t, "fallback", UserMessage(errors.New("x"), "fallback"))
}
