package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartFile(t *testing.T, field, filename, declaredType, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	hdr.Set("Content-Type", declaredType)
	fw, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, filename, declaredType string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartFile(t, "image", filename, declaredType, "fake-image-bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, "photo.png", "image/png", asAdmin())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp uploadResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.URL, "/uploads/products/"))
	assert.Equal(t, []string{"photo.png"}, env.images.saved)
}

func TestUploadRequiresAdminKey(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, "photo.png", "image/png", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, "malware.exe", "application/x-msdownload", asAdmin())
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, env.images.saved)
}

func TestUploadRejectsMismatchedDeclaredType(t *testing.T) {
	env := newTestEnv(t)

	// An image-named file whose part declares a non-image media type must
	// not be stored.
	rec := env.upload(t, "evil.png", "application/pdf", asAdmin())
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, env.images.saved)
}

func TestUploadRejectsMissingDeclaredType(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, "photo.png", "", asAdmin())
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, env.images.saved)
}

func TestUploadMissingFile(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartFile(t, "attachment", "photo.png", "image/png", "bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("api_key", adminKey)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
