package handlers

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// testPNG returns a valid 2x2 PNG payload.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

// uploadForm builds a guide image upload request body.
func uploadForm(t *testing.T, model, category, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("model_name", model)
	mw.WriteField("category_name", category)
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadGuideImage(t *testing.T, env *testEnv, model, category, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := uploadForm(t, model, category, filename, data)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/admin/model-images", body)
	r.Header.Set("Content-Type", contentType)
	env.GuideImageMgr.Upload(w, r)
	return w
}

func TestGuideImageUpload(t *testing.T) {
	env := newTestEnv(t)
	const (
		category = "Guide Image Test"
		model    = "GI-100"
	)
	t.Cleanup(func() { env.DB.Exec("DELETE FROM model_images WHERE category_name = $1", category) })

	// Missing identity fields.
	w := uploadGuideImage(t, env, "", "", "x.png", testPNG(t))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing fields: got %d, want 400", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "Model name and category are required" {
		t.Errorf("message: got %q", body["message"])
	}

	// Missing file.
	w = uploadGuideImage(t, env, model, category, "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing file: got %d, want 400", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "No image file provided" {
		t.Errorf("message: got %q", body["message"])
	}

	// Non-image payload is rejected by content sniffing.
	w = uploadGuideImage(t, env, model, category, "notes.txt", []byte("just some text, not pixels"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-image: got %d, want 400", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "Invalid file type. Only images are allowed." {
		t.Errorf("message: got %q", body["message"])
	}

	// Valid upload.
	w = uploadGuideImage(t, env, model, category, "setup.png", testPNG(t))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status: got %d, body %s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	if body["message"] != "Model image uploaded successfully" {
		t.Errorf("message: got %q", body["message"])
	}
	imageURL, _ := body["image_url"].(string)
	if !strings.HasPrefix(imageURL, "/uploads/") {
		t.Fatalf("image_url: got %q", imageURL)
	}
	firstFile := strings.TrimPrefix(imageURL, "/uploads/")
	if _, err := env.Files.Stat(firstFile); err != nil {
		t.Errorf("uploaded file missing on disk: %v", err)
	}

	// Replacing the image removes the previous file.
	w = uploadGuideImage(t, env, model, category, "setup-v2.png", testPNG(t))
	if w.Code != http.StatusOK {
		t.Fatalf("replace status: got %d, body %s", w.Code, w.Body.String())
	}
	if _, err := env.Files.Stat(firstFile); err == nil {
		t.Error("previous guide image still on disk after replacement")
	}

	// Field users can resolve the guide image.
	w = httptest.NewRecorder()
	r := withChiURLParams(httptest.NewRequest("GET", "/x", nil), "category", category, "model", model)
	env.Field.GuideImage(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("guide image lookup: got %d, body %s", w.Code, w.Body.String())
	}
}

func TestGuideImageDelete(t *testing.T) {
	env := newTestEnv(t)
	const (
		category = "Guide Image Delete Test"
		model    = "GID-100"
	)
	t.Cleanup(func() { env.DB.Exec("DELETE FROM model_images WHERE category_name = $1", category) })

	w := uploadGuideImage(t, env, model, category, "setup.png", testPNG(t))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status: got %d, body %s", w.Code, w.Body.String())
	}
	imageURL := decodeResponse(t, w)["image_url"].(string)
	filename := strings.TrimPrefix(imageURL, "/uploads/")

	w = httptest.NewRecorder()
	r := httptest.NewRequest("DELETE", "/api/admin/model-images",
		strings.NewReader(`{"model_name":"`+model+`","category_name":"`+category+`"}`))
	env.GuideImageMgr.Delete(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("delete status: got %d, body %s", w.Code, w.Body.String())
	}
	if body := decodeResponse(t, w); body["message"] != "Model image deleted successfully" {
		t.Errorf("message: got %q", body["message"])
	}
	if _, err := env.Files.Stat(filename); err == nil {
		t.Error("guide image file still on disk after delete")
	}

	// The field lookup now misses.
	w = httptest.NewRecorder()
	r = withChiURLParams(httptest.NewRequest("GET", "/x", nil), "category", category, "model", model)
	env.Field.GuideImage(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("lookup after delete: got %d, want 404", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "No image found for this model" {
		t.Errorf("message: got %q", body["message"])
	}
}
