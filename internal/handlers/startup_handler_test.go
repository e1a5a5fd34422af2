package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartupStatus_PersistFailuresKeepReady(t *testing.T) {
	s := NewStartupStatus(StepDatabase, StepVocabulary)

	get := func() (int, startupView) {
		rec := httptest.NewRecorder()
		s.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		var v startupView
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
		return rec.Code, v
	}

	s.MarkReady()
	s.RecordPersistFailure()
	s.RecordPersistFailure()

	code, v := get()
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, v.Ready)
	assert.Equal(t, 2, v.PersistFailures)
}
