package echoapi_test

import (
	"net/http"
	"testing"
)

func TestServer(t *testing.T) {
	tests := []httpTest{
		{
			name:     "health",
			method:   http.MethodGet,
			path:     "/health",
			wantCode: http.StatusOK,
			wantData: []byte(`{"status":"ok","build":"test"}`),
		},
		{
			name:     "unknown route",
			method:   http.MethodGet,
			path:     "/api/users",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Not Found"}),
		},
		{
			name:     "missing query",
			method:   http.MethodPost,
			path:     "/graphql",
			body:     []byte(`{"query":""}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "missing query"}),
		},
		{
			name:     "empty body",
			method:   http.MethodPost,
			path:     "/graphql",
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "missing query"}),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestServer_Home(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("home failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	want := "Welcome to Empoderar API! Send your GraphQL queries to POST /graphql"
	if got := rec.Body.String(); got != want {
		t.Errorf("home failed! body = %q; want %q", got, want)
	}
}

func TestServer_InvalidJSON(t *testing.T) {
	req, rec := newRequest(http.MethodPost, "/graphql", []byte(`{"query":`))
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid json failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
	}
}

func TestServer_QuerySyntaxError(t *testing.T) {
	resp := execGQL(t, "", `{ me `, nil)
	if len(resp.Errors) == 0 {
		t.Fatal("syntax error failed! want errors")
	}
	if code := resp.Errors[0].Extensions.Code; code != "" {
		t.Errorf("syntax error failed! code = %q; want none", code)
	}
}
