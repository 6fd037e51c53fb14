package parcel

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landq/internal/platform/logger"
	dErrors "landq/pkg/domain-errors"
)

type stubCreator struct {
	got    CreateRequest
	result *CreateResult
	err    error
}

func (s *stubCreator) Create(_ context.Context, req CreateRequest) (*CreateResult, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func multipartBody(t *testing.T, fields map[string]string, docName string, doc []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if docName != "" {
		part, err := w.CreateFormFile("landDocument", docName)
		require.NoError(t, err)
		_, err = part.Write(doc)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func serve(t *testing.T, creator Creator, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(creator, logger.New()).Register(r)

	req := httptest.NewRequest(http.MethodPost, "/parcels", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreate(t *testing.T) {
	fields := map[string]string{
		"name":        "Ikoyi Plot 12",
		"coordinates": "[[6.42,3.43],[6.43,3.43]]",
		"country":     "Nigeria",
		"state":       "Lagos",
	}

	t.Run("returns pipeline result as json", func(t *testing.T) {
		creator := &stubCreator{result: &CreateResult{
			MetadataURI: "ipfs://metacid",
			Gateway:     GatewayLinks{Image: "https://gw/img", Metadata: "https://gw/meta"},
		}}
		body, contentType := multipartBody(t, fields, "", nil)

		rec := serve(t, creator, body, contentType)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp CreateResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ipfs://metacid", resp.MetadataURI)
		assert.Equal(t, "Nigeria", creator.got.Country)
		assert.Equal(t, "[[6.42,3.43],[6.43,3.43]]", creator.got.CoordinatesJSON)
		assert.Empty(t, creator.got.Document)
	})

	t.Run("forwards optional document bytes", func(t *testing.T) {
		creator := &stubCreator{result: &CreateResult{}}
		body, contentType := multipartBody(t, fields, "deed.pdf", []byte("deed bytes"))

		rec := serve(t, creator, body, contentType)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "deed.pdf", creator.got.DocumentName)
		assert.Equal(t, []byte("deed bytes"), creator.got.Document)
	})

	t.Run("maps input errors to 400", func(t *testing.T) {
		creator := &stubCreator{err: dErrors.New(dErrors.CodeBadRequest, "missing required fields: country or state")}
		body, contentType := multipartBody(t, map[string]string{"coordinates": "[[1,2]]"}, "", nil)

		rec := serve(t, creator, body, contentType)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "bad_request", resp["error"])
	})

	t.Run("maps upstream failures to 502", func(t *testing.T) {
		creator := &stubCreator{err: dErrors.New(dErrors.CodeUpstream, "upload failed")}
		body, contentType := multipartBody(t, fields, "", nil)

		rec := serve(t, creator, body, contentType)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
