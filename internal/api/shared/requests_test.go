package shared

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasksphere/shareme-api/internal/domain"
)

type sampleRequest struct {
	Name  string `json:"name"  validate:"required,min=2,max=10"`
	Email string `json:"email" validate:"required,email"`
	Kind  string `json:"kind"  validate:"omitempty,oneof=a b"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid json", `{"name":"test","email":"a@b.co"}`, false},
		{"trailing comma", `{"name":"test",}`, true},
		{"empty body", "", true},
		{"unknown field", `{"name":"test","admin":true}`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.body))

			var target sampleRequest
			err := DecodeJSON(req, &target)

			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "test", target.Name)
		})
	}
}

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})

	var target sampleRequest
	assert.Error(t, DecodeJSON(req, &target))
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        sampleRequest
		wantFields map[string]string
	}{
		{
			name: "valid",
			req:  sampleRequest{Name: "test", Email: "a@b.co", Kind: "a"},
		},
		{
			name: "every failure is reported",
			req:  sampleRequest{Name: "x", Email: "nope", Kind: "c"},
			wantFields: map[string]string{
				"name":  "must be at least 2 characters",
				"email": "must be a valid email address",
				"kind":  "must be one of: a b",
			},
		},
		{
			name:       "missing fields",
			req:        sampleRequest{},
			wantFields: map[string]string{"name": "is required", "email": "is required"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(&tc.req)
			if tc.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tc.wantFields, domain.ValidationFields(err))
		})
	}
}
