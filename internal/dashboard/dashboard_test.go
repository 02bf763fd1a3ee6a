package dashboard

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func serve(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	NewHandler(5*time.Second).Register(router)

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSpinner(t *testing.T) {
	t.Run("closed by default", func(t *testing.T) {
		w := serve(t, http.MethodGet, SpinnerPath, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

		body := w.Body.String()
		assert.Contains(t, body, ">spinner</button>")
		assert.NotContains(t, body, "Please wait")
		assert.NotContains(t, body, "http-equiv=\"refresh\"")
	})

	t.Run("button opens modal that closes itself", func(t *testing.T) {
		w := serve(t, http.MethodPost, SpinnerPath, url.Values{"spin": {"1"}})
		assert.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Contains(t, body, "<h2>Please wait</h2>")
		assert.Contains(t, body, "max-width: 500px")
		assert.Contains(t, body, "잠시만 기다려주세요...")
		assert.Contains(t, body, "이 작업은 몇 분 정도 걸릴 수 있습니다.")
		assert.Contains(t, body, `content="5;url=/demo/spinner"`)
	})
}

func TestTextOnClick(t *testing.T) {
	t.Run("styled as text", func(t *testing.T) {
		w := serve(t, http.MethodGet, TextOnClickPath, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Contains(t, body, `kind="primary"`)
		assert.Contains(t, body, "background: none !important;")
		assert.Contains(t, body, ">Click me</button>")
		assert.NotContains(t, body, "<p>Clicked</p>")
	})

	t.Run("click is reported", func(t *testing.T) {
		w := serve(t, http.MethodPost, TextOnClickPath, url.Values{"testBtn": {"1"}})
		assert.Contains(t, w.Body.String(), "<p>Clicked</p>")
	})

	t.Run("other methods rejected", func(t *testing.T) {
		w := serve(t, http.MethodDelete, TextOnClickPath, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
