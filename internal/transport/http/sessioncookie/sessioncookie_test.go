package sessioncookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	_, ok := Read(nil)
	assert.False(t, ok)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	_, ok = Read(req)
	assert.False(t, ok)

	req.AddCookie(&http.Cookie{Name: Name, Value: "  tok-1  "})
	value, ok := Read(req)
	require.True(t, ok)
	assert.Equal(t, "tok-1", value)
}

func TestRead_BlankValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.AddCookie(&http.Cookie{Name: Name, Value: " "})
	_, ok := Read(req)
	assert.False(t, ok)
}

func parseSetCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	cookies := (&http.Response{Header: http.Header{"Set-Cookie": {rr.Header().Get("Set-Cookie")}}}).Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestWrite_Attributes(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://app.example.test", nil)
	rr := httptest.NewRecorder()
	Write(rr, req, "tok-1", false)

	c := parseSetCookie(t, rr)
	assert.Equal(t, Name, c.Name)
	assert.Equal(t, "tok-1", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 30*24*60*60, c.MaxAge)
}

func TestWrite_SecureFlag(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		forwarded   string
		forceSecure bool
		want        bool
	}{
		{"plain http", "http://app.example.test", "", false, false},
		{"tls", "https://app.example.test", "", false, true},
		{"forwarded https", "http://app.example.test", "https", false, true},
		{"production forces secure", "http://app.example.test", "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			rr := httptest.NewRecorder()
			Write(rr, req, "tok", tt.forceSecure)
			assert.Equal(t, tt.want, parseSetCookie(t, rr).Secure)
		})
	}
}

func TestClear(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://app.example.test", nil)
	rr := httptest.NewRecorder()
	Clear(rr, req, false)

	c := parseSetCookie(t, rr)
	assert.Equal(t, Name, c.Name)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)
	assert.True(t, c.HttpOnly)
}
