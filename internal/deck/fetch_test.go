package deck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionValidate(t *testing.T) {
	cases := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{
			name: "valid",
			def: Definition{
				Calls:     [][]string{{"I drink to ", "."}},
				Responses: responseList{"forget"},
			},
		},
		{
			name:    "no calls",
			def:     Definition{Responses: responseList{"forget"}},
			wantErr: true,
		},
		{
			name:    "no responses",
			def:     Definition{Calls: [][]string{{"a", "b"}}},
			wantErr: true,
		},
		{
			name: "call without blanks",
			def: Definition{
				Calls:     [][]string{{"just a sentence"}},
				Responses: responseList{"forget"},
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefinitionArities(t *testing.T) {
	def := Definition{Calls: [][]string{
		{"one ", " blank."},
		{"two ", " and ", " blanks."},
	}}
	assert.Equal(t, []int{1, 2}, def.Arities())
}

func TestFetchAcceptsBothResponseShapes(t *testing.T) {
	flat := `{"calls": [["a ", " b"]], "responses": ["x", "y"]}`
	nested := `{"calls": [["a ", " b"]], "responses": [["x"], ["y"]]}`

	for name, body := range map[string]string{"flat": flat, "nested": nested} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte(body))
				}))
			defer srv.Close()

			def, err := Fetch(context.Background(), srv.Client(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, responseList{"x", "y"}, def.Responses)
			assert.Equal(t, []int{1}, def.Arities())
		})
	}
}

func TestFetchRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"not json": `oops`,
		"empty":    `{"calls": [], "responses": []}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte(body))
				}))
			defer srv.Close()

			_, err := Fetch(context.Background(), srv.Client(), srv.URL)
			assert.Error(t, err)
		})
	}
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
}
