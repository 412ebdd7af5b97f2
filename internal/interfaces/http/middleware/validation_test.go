package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/settlement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindOpenSession(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req dto.OpenSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body)))
	return rec
}

func TestValidation(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		rec := bindOpenSession(t, `{"application_type":"CUSTOMER_PAYMENT","limit_amount":"100"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("reports json field names", func(t *testing.T) {
		rec := bindOpenSession(t, `{"application_type":"REFUND","counterparty_id":"abc","limit_amount":"-5"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

		fields := make(map[string]string)
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Must be one of: CUSTOMER_PAYMENT VENDOR_PAYMENT VENDOR_CREDIT", fields["application_type"])
		assert.Equal(t, "Invalid UUID format", fields["counterparty_id"])
		assert.Equal(t, "Must be greater than or equal to 0", fields["limit_amount"])
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := bindOpenSession(t, `{"application_type":`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), dto.ErrCodeInvalidJSON)
	})
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(errors.New("boom"), "req-1")
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}
