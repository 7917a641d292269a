// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foodDrafts = "/admin/drafts/food"

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for x := 0; x < 32; x++ {
		img.Set(x, 0, color.RGBA{R: 120, G: uint8(x * 8), B: 40, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// upload posts a multipart image form to the upload endpoint of drafts.
func (e *testEnv) upload(drafts, section, fieldName, filename string, data []byte) *http.Response {
	e.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(e.t, mw.WriteField("section", section))
	require.NoError(e.t, mw.WriteField("field", fieldName))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(e.t, err)
	_, err = fw.Write(data)
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.server.URL+drafts+"/upload", &body)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.send(req)
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, foodDrafts, nil)

	resp := env.upload(foodDrafts, "foodData", "image", "Green Apple.png", testPNG(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	got := decodeEnvelope[UploadResult](t, resp)
	assert.True(t, strings.HasPrefix(got.Data.URL, "/uploads/foods/"), got.Data.URL)
	assert.True(t, strings.HasSuffix(got.Data.URL, "-green-apple.png"), got.Data.URL)
	assert.Equal(t, got.Data.URL, field(got.Data.Draft, "foodData", "en", "image"))
	assert.Equal(t, got.Data.URL, field(got.Data.Draft, "foodData", "fr", "image"))

	// Stored images are public and cached for long.
	img, err := http.Get(env.server.URL + got.Data.URL)
	require.NoError(t, err)
	defer func() { _ = img.Body.Close() }()
	assert.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/png", img.Header.Get("Content-Type"))
	assert.Contains(t, img.Header.Get("Cache-Control"), "max-age=")
}

func TestUploadRejects(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, foodDrafts, nil)

	resp := env.upload(foodDrafts, "foodData", "image", "notes.txt", []byte("not an image"))
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	got := decodeEnvelope[any](t, resp)
	require.NotNil(t, got.Error)
	assert.Equal(t, "not_image", got.Error.Code)

	resp = env.upload(foodDrafts, "foodData", "name", "apple.png", testPNG(t))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.upload(foodDrafts, "foodData", "nope", "apple.png", testPNG(t))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	got = decodeEnvelope[any](t, resp)
	assert.Equal(t, "unknown_field", got.Error.Code)

	// A failed upload leaves the field unset.
	resp = env.do(http.MethodGet, foodDrafts, nil)
	view := decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, "", field(view.Data, "foodData", "en", "image"))
}

func TestUploadsHideDirectories(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, foodDrafts, nil)
	env.upload(foodDrafts, "foodData", "image", "apple.png", testPNG(t))

	resp, err := http.Get(env.server.URL + "/uploads/foods/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteImage(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, foodDrafts, nil)

	resp := env.upload(foodDrafts, "foodData", "image", "apple.png", testPNG(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	uploaded := decodeEnvelope[UploadResult](t, resp)

	resp = env.do(http.MethodDelete, "/admin/media?url="+url.QueryEscape(uploaded.Data.URL), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[any](t, resp)
	assert.Equal(t, "Image deleted.", got.Notification)

	img, err := http.Get(env.server.URL + uploaded.Data.URL)
	require.NoError(t, err)
	defer func() { _ = img.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, img.StatusCode)

	// Deleting again is not an error.
	resp = env.do(http.MethodDelete, "/admin/media?url="+url.QueryEscape(uploaded.Data.URL), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(http.MethodDelete, "/admin/media?url="+url.QueryEscape("https://example.com/apple.png"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(http.MethodDelete, "/admin/media", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
