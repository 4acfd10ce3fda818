package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omnidesk/mailsync/internal/probe"
)

func TestDeepTestUnknownAccountAnswers404(t *testing.T) {
	db := newTestDB(t)
	h := &TestHandler{db: db, prober: probe.New(), logger: discard()}

	req := httptest.NewRequest(http.MethodPost, "/api/deep-test", strings.NewReader(`{"account_id": 999}`))
	rec := httptest.NewRecorder()
	h.HandleDeepTest(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "account not found")
}
