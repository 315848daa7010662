package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
)

type fakeStorage struct {
	uploaded map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func newMultipartUpload(t *testing.T, filename, contentType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %q: %v", key, err)
		}
	}
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadAsset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStorage()
	h := NewAssetHandler(store, "")

	body, contentType := newMultipartUpload(t, "resume.pdf", "application/pdf", []byte("%PDF-1.4"), map[string]string{
		"uploaderId": "user_1",
		"kind":       "resume",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assets/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Upload(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if len(store.uploaded) != 1 {
		t.Fatalf("expected 1 uploaded object got %d", len(store.uploaded))
	}
	for key := range store.uploaded {
		if !strings.HasPrefix(key, "user-assets/user_1/resume/") {
			t.Fatalf("object key not namespaced by uploader: %q", key)
		}
	}
}

func TestUploadAsset_RejectsContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStorage()
	h := NewAssetHandler(store, "")

	body, contentType := newMultipartUpload(t, "evil.exe", "application/octet-stream", []byte("MZ"), map[string]string{
		"uploaderId": "user_1",
		"kind":       "resume",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assets/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Upload(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if len(store.uploaded) != 0 {
		t.Fatalf("rejected upload must not hit storage")
	}
}

func TestUploadAsset_FormFieldCannotImpersonate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStorage()
	h := NewAssetHandler(store, "")

	body, contentType := newMultipartUpload(t, "resume.pdf", "application/pdf", []byte("%PDF-1.4"), map[string]string{
		"uploaderId": "user_B",
		"kind":       "resume",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assets/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("clerkUserID", "user_A")

	h.Upload(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
	if len(store.uploaded) != 0 {
		t.Fatalf("impersonated upload must not hit storage")
	}
}

func TestUploadAsset_UsesAuthenticatedIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStorage()
	h := NewAssetHandler(store, "")

	body, contentType := newMultipartUpload(t, "resume.pdf", "application/pdf", []byte("%PDF-1.4"), map[string]string{
		"kind": "resume",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assets/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("clerkUserID", "user_A")

	h.Upload(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	for key := range store.uploaded {
		if !strings.HasPrefix(key, "user-assets/user_A/resume/") {
			t.Fatalf("object key must use the token identity: %q", key)
		}
	}
}

func TestGetAssetURL_CrossUserForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAssetHandler(newFakeStorage(), "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/api/assets/view?key=user-assets/user_B/resume/secret.pdf", nil)
	c.Set("clerkUserID", "user_A")

	h.GetAssetURL(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another user's object got %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/api/assets/view?key=user-assets/user_A/resume/own.pdf", nil)
	c.Set("clerkUserID", "user_A")

	h.GetAssetURL(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for own object got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetAssetURL_PrefixScoped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAssetHandler(newFakeStorage(), "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/assets/view?key=other-bucket/secret.pdf", nil)

	h.GetAssetURL(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for foreign prefix got %d", w.Code)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/assets/view?key=user-assets/user_1/resume/a.pdf", nil)

	h.GetAssetURL(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "user-assets/user_1/resume/a.pdf") {
		t.Fatalf("expected presigned url in body, got %s", w.Body.String())
	}
}
