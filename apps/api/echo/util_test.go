package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/empoderar/core/user"
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type gqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"extensions"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// gqlTest describes a GraphQL call and either the data or the error code it must produce.
type gqlTest struct {
	name       string
	token      string
	query      string
	vars       map[string]interface{}
	wantData   string
	wantCode   string
	wantFields []string
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	token, err := tokens.IssueToken(usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// execGQL posts a GraphQL query and decodes the response; the HTTP status must be 200.
func execGQL(t *testing.T, token, query string, vars map[string]interface{}, headers ...string) gqlResponse {
	t.Helper()

	body := marchallObj(t, map[string]interface{}{"query": query, "variables": vars})
	req, rec := newAuthRequest(http.MethodPost, "/graphql", token, body)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// decodeData executes the query and unmarshals its data into dst, failing on any GraphQL error.
func decodeData(t *testing.T, token, query string, vars map[string]interface{}, dst interface{}) {
	t.Helper()

	resp := execGQL(t, token, query, vars)
	require.Empty(t, resp.Errors, "unexpected errors: %+v", resp.Errors)
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func runGQLTests(t *testing.T, tests []gqlTest) {
	t.Helper()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp := execGQL(t, tt.token, tt.query, tt.vars)
			checkGQL(t, tt, resp)
		})
	}
}

func checkGQL(t *testing.T, tt gqlTest, resp gqlResponse) {
	t.Helper()

	if tt.wantCode != "" {
		require.NotEmpty(t, resp.Errors, "want error %s; data = %s", tt.wantCode, string(resp.Data))
		gotErr := resp.Errors[0]
		if gotErr.Extensions.Code != tt.wantCode {
			t.Errorf("failed! code = %v (%q); wantCode %v", gotErr.Extensions.Code, gotErr.Message, tt.wantCode)
		}
		for _, fld := range tt.wantFields {
			if _, ok := gotErr.Extensions.Fields[fld]; !ok {
				t.Errorf("failed! fields = %v; want field %q", gotErr.Extensions.Fields, fld)
			}
		}
		return
	}

	require.Empty(t, resp.Errors, "unexpected errors: %+v", resp.Errors)
	if tt.wantData != "" {
		ok, err := jsonBytesEqual(resp.Data, []byte(tt.wantData))
		if err != nil {
			t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
		}
		if !ok {
			t.Errorf("failed! data = %v; wantData %v", string(resp.Data), tt.wantData)
		}
	}
}

func strPtr(s string) *string { return &s }
