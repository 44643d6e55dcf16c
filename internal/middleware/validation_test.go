package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "smutrack/internal/errors"
)

type trackBody struct {
	SMU         string `json:"smu" validate:"required,waybill"`
	Origin      string `json:"origin" validate:"required,iata"`
	Transit     string `json:"transit,omitempty" validate:"omitempty,iata"`
	Destination string `json:"destination" validate:"required,iata"`
	Koli        int    `json:"koli" validate:"gte=0"`
}

func TestDecodeAndValidate(t *testing.T) {
	v := NewValidator(discardLogger())

	tests := []struct {
		name       string
		body       string
		wantCode   string
		wantStatus int
		wantFields []string
	}{
		{
			name: "valid",
			body: `{"smu":"126-12345678","origin":"cgk","destination":"DPS","koli":3}`,
		},
		{
			name:       "invalid json",
			body:       `{"smu":`,
			wantCode:   "INVALID_JSON",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty body",
			body:       ``,
			wantCode:   "INVALID_REQUEST",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "field errors use json names",
			body:       `{"smu":"12612345678","origin":"CGKX","transit":"S1","koli":-1}`,
			wantCode:   "VALIDATION_FAILED",
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"smu", "origin", "transit", "destination", "koli"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(tt.body))

			var got trackBody
			err := v.DecodeAndValidate(req, &got)

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "126-12345678", got.SMU)
				assert.Equal(t, 3, got.Koli)
				return
			}

			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)

			if len(tt.wantFields) > 0 {
				details, ok := apiErr.Details.(apierrors.ValidationErrors)
				require.True(t, ok)
				var fields []string
				for _, fe := range details.Errors {
					fields = append(fields, fe.Field)
				}
				assert.ElementsMatch(t, tt.wantFields, fields)
			}
		})
	}
}

func TestDecodeAndValidateBodyTooLarge(t *testing.T) {
	v := NewValidator(discardLogger())
	v.maxBodySize = 16

	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{"smu":"126-12345678"}`))
	err := v.DecodeAndValidate(req, &trackBody{})

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apiErr.StatusCode)
}

func TestValidationMessages(t *testing.T) {
	v := NewValidator(discardLogger())

	err := v.ValidateStruct(&trackBody{SMU: "abc", Origin: "CGK", Destination: "DPS"})

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	details := apiErr.Details.(apierrors.ValidationErrors)
	require.Len(t, details.Errors, 1)
	assert.Equal(t, "smu must look like 126-12345678", details.Errors[0].Message)
}
