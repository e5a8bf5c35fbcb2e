package respond

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAttachmentSetsDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resp := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(resp)
	c.Request = httptest.NewRequest(http.MethodPost, "/export", nil)

	Attachment(c, "tools.csv", "text/csv; charset=utf-8", []byte("name\n"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if cd := resp.Header().Get("Content-Disposition"); cd != `attachment; filename=tools.csv` {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if resp.Body.String() != "name\n" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resp := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(resp)
	c.Request = httptest.NewRequest(http.MethodGet, "/missing", nil)

	Error(c, http.StatusNotFound, "not_found", "route not found", nil)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != `{"error":{"code":"not_found","message":"route not found"}}` {
		t.Fatalf("unexpected body %s", got)
	}
	if !c.IsAborted() {
		t.Fatalf("expected context to be aborted")
	}
}
