package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"poptrack/internal/imaging"
	"poptrack/internal/storage"
	"poptrack/internal/store"
)

// maxGuideImageBytes caps a single guide image upload.
const maxGuideImageBytes = 10 << 20

// AdminModelImages manages the per-model reference photos shown to field
// users in the data-entry screen.
type AdminModelImages struct {
	modelImages *store.ModelImageStore
	files       *storage.Local
}

// NewAdminModelImages creates a new AdminModelImages handler group.
func NewAdminModelImages(modelImages *store.ModelImageStore, files *storage.Local) *AdminModelImages {
	return &AdminModelImages{
		modelImages: modelImages,
		files:       files,
	}
}

// Upload stores a guide image for a (category, model) pair, replacing any
// previous one. The upload is sniffed and decoded before it is accepted.
func (m *AdminModelImages) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxGuideImageBytes); err != nil {
		fail(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	model := strings.TrimSpace(r.FormValue("model_name"))
	category := strings.TrimSpace(r.FormValue("category_name"))
	if model == "" || category == "" {
		fail(w, http.StatusBadRequest, "Model name and category are required")
		return
	}

	file, hdr, err := r.FormFile("image")
	if err != nil {
		fail(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxGuideImageBytes+1))
	if err != nil {
		serverError(w, "read guide image", err)
		return
	}
	if len(data) > maxGuideImageBytes {
		fail(w, http.StatusBadRequest, "Image is too large (max 10 MB)")
		return
	}

	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		fail(w, http.StatusBadRequest, "Invalid file type. Only images are allowed.")
		return
	}
	if _, err := imaging.Verify(data); err != nil {
		fail(w, http.StatusBadRequest, "Invalid file type. Only images are allowed.")
		return
	}

	filename, err := m.files.Save(bytes.NewReader(data), category+"_"+model+"_"+hdr.Filename)
	if err != nil {
		serverError(w, "save guide image", err)
		return
	}

	previous, err := m.modelImages.Upsert(model, category, filename)
	if err != nil {
		serverError(w, "record guide image", err)
		return
	}
	if previous != "" && previous != filename {
		if err := m.files.Delete(previous); err != nil {
			slog.Warn("previous guide image cleanup failed", "file", previous, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Model image uploaded successfully",
		"image_url": "/uploads/" + filename,
	})
}

// Delete removes a guide image record and its file.
func (m *AdminModelImages) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModelName    string `json:"model_name"`
		CategoryName string `json:"category_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ModelName == "" || req.CategoryName == "" {
		fail(w, http.StatusBadRequest, "Model name and category are required")
		return
	}

	filename, err := m.modelImages.Delete(req.ModelName, req.CategoryName)
	if err != nil {
		serverError(w, "delete guide image record", err)
		return
	}
	if filename != "" {
		if err := m.files.Delete(filename); err != nil {
			slog.Warn("guide image file cleanup failed", "file", filename, "error", err)
		}
	}

	ok(w, "Model image deleted successfully")
}
