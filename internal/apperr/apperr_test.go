package apperr_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ecosnap/ecosnap-server/internal/apperr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind   apperr.Kind
		status int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindMissingInput, http.StatusBadRequest},
		{apperr.KindMalformedOutput, http.StatusBadRequest},
		{apperr.KindInvalidCategory, http.StatusBadRequest},
		{apperr.KindProvider, http.StatusUnauthorized},
		{apperr.KindRateLimited, http.StatusTooManyRequests},
		{apperr.KindQuotaExhausted, http.StatusPaymentRequired},
		{apperr.KindUpstream, http.StatusBadGateway},
		{apperr.KindMissingCredential, http.StatusInternalServerError},
		{apperr.KindUnknown, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			require.Equal(t, tc.status, tc.kind.HTTPStatus())
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		err := apperr.New(apperr.KindRateLimited, "slow down")
		require.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	})

	t.Run("wrapped", func(t *testing.T) {
		err := apperr.New(apperr.KindInvalidCategory, "no such category")
		wrapped := errors.Wrap(err, "[Classify]")
		require.Equal(t, apperr.KindInvalidCategory, apperr.KindOf(wrapped))
		require.True(t, apperr.IsKind(wrapped, apperr.KindInvalidCategory))
	})

	t.Run("unclassified", func(t *testing.T) {
		require.Equal(t, apperr.KindUnknown, apperr.KindOf(fmt.Errorf("boom")))
	})
}

func TestMessageOf(t *testing.T) {
	t.Run("structured keeps message without cause", func(t *testing.T) {
		err := apperr.Wrap(fmt.Errorf("tcp dial refused"), apperr.KindUpstream, "model request failed with status 503")
		require.Equal(t, "model request failed with status 503", apperr.MessageOf(err))
		require.Contains(t, err.Error(), "tcp dial refused")
	})

	t.Run("unclassified is generic", func(t *testing.T) {
		require.Equal(t, "internal server error", apperr.MessageOf(fmt.Errorf("secret detail")))
	})
}
