package handler

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// maxUploadBytes caps a single image upload at 10 MiB.
const maxUploadBytes = 10 << 20

// allowedImageExts is the extension allow-list for product images.
var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// allowedImageTypes is the declared media type allow-list. The part's
// Content-Type must match alongside the filename extension.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type uploadResp struct {
	URL string `json:"url"`
}

// Upload handles POST /api/upload: a multipart form with a single "image"
// file. Admin only.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		respondError(w, r, http.StatusUnsupportedMediaType, "unsupported image type")
		return
	}

	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || !allowedImageTypes[mediaType] {
		respondError(w, r, http.StatusUnsupportedMediaType, "unsupported image type")
		return
	}

	url, err := h.images.Save(r.Context(), header.Filename, file)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, r, http.StatusCreated, uploadResp{URL: url})
}
