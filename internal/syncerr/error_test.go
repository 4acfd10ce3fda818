package syncerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfUnwrapsThroughLayers(t *testing.T) {
	base := Wrap(CodeIMAPAuthFailed, "server rejected credentials", errors.New("NO LOGIN failed"))
	wrapped := fmt.Errorf("sync failed: %w", base)

	assert.Equal(t, CodeIMAPAuthFailed, CodeOf(wrapped))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
	assert.ErrorIs(t, wrapped, base.Err)
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeIMAPAuthFailed, http.StatusUnauthorized},
		{CodePOP3AuthFailed, http.StatusUnauthorized},
		{CodeAppPasswordRequired, http.StatusUnauthorized},
		{CodeSyncInProgress, http.StatusConflict},
		{CodeInvalidHostname, http.StatusBadRequest},
		{CodeMissingCredentials, http.StatusBadRequest},
		{CodeFetchFailed, http.StatusInternalServerError},
		{CodeConnectionTimeout, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(New(tc.code, "x")), "code %s", tc.code)
	}

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("unclassified")))
}

func TestReasonTag(t *testing.T) {
	err := New(CodeMailboxNotFound, "INBOX could not be selected").WithReason(ReasonMailboxMissing)
	assert.Equal(t, ReasonMailboxMissing, err.Reason)
	assert.Contains(t, err.Error(), "MAILBOX_NOT_FOUND")
}
