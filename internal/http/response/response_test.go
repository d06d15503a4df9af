package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-9")

	Error(c, CodeUnprocessable, "bad input")

	var resp struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != CodeUnprocessable || resp.Msg != "bad input" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if resp.Data["request_id"] != "req-9" {
		t.Fatalf("request id missing: %+v", resp.Data)
	}
}

func TestFromErrorUnwrapsAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	wrapped := fmt.Errorf("outer: %w", WrapError(CodeConflict, "busy", errors.New("inner")))
	FromError(c, wrapped)

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != CodeConflict || resp.Msg != "busy" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}
