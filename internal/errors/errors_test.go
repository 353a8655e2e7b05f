package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCodeOfWrappedAppError(t *testing.T) {
	base := ExternalServiceError("ranking", stderrors.New("timeout"))
	wrapped := Wrap(base, "evaluation failed")

	assert.Equal(t, CodeExternalService, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "evaluation failed")
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Equal(t, CodeInternalError, GetCode(Wrap(stderrors.New("boom"), "ctx")))
}

func TestGetCodeSeesThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", Busy("turn in flight"))
	assert.Equal(t, CodeBusy, GetCode(err))
	assert.True(t, HasCode(err, CodeBusy))
	assert.False(t, HasCode(nil, CodeBusy))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		InvalidInput("x"):                          http.StatusBadRequest,
		NotFound("session"):                        http.StatusNotFound,
		Busy("x"):                                  http.StatusConflict,
		InvalidStage("x"):                          http.StatusConflict,
		ExternalServiceError("x", stderrors.New("")): http.StatusBadGateway,
		stderrors.New("plain"):                     http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

func TestDatabaseErrorKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := DatabaseError("insert llm_usage", cause)

	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}
