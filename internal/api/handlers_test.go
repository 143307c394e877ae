package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propdash/server/config"
	"propdash/server/internal/extraction"
)

const sampleCSV = `Project Name,Description,Consideration Value
Amanora,सदनिका क्षेत्रफळ 55.74 चौ. मी.,6000000
`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	extractor := extraction.NewExtractor(extraction.DefaultVocabulary(), cfg.ExtractionOptions())
	router := gin.New()
	SetupRoutes(router, NewHandler(cfg, extractor, nil, nil))
	return router
}

// uploadRequest builds a multipart POST with the given form fields and,
// when filename is non-empty, a file part with the given contents.
func uploadRequest(t *testing.T, path string, fields map[string]string, filename, contents string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestProcessBatch(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/batch", nil, "upload.csv", sampleCSV))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	require.Len(t, resp.Summary, 1)

	record := resp.Records[0]
	assert.InDelta(t, 55.74, record.CarpetAreaSqm, 1e-9)
	assert.InDelta(t, 599.99, record.CarpetAreaSqft, 1e-9)
	assert.Equal(t, "1 BHK", record.Configuration)
	assert.InDelta(t, 7407.59, record.APR, 0.01)
}

func TestProcessBatchInvalidThresholds(t *testing.T) {
	router := newTestRouter(t)

	fields := map[string]string{
		"threshold_1": "1100",
		"threshold_2": "850",
		"threshold_3": "600",
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/batch", fields, "upload.csv", sampleCSV))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid configuration")
}

func TestProcessBatchPartialThresholdOverride(t *testing.T) {
	router := newTestRouter(t)

	// 60 sq.mt is 645.84 sq.ft: 2 BHK under the default 600 cutoff,
	// 1 BHK once only the first cutoff is raised to 700.
	csv := "Project Name,Description,Consideration Value\nAmanora,सदनिका क्षेत्रफळ 60 चौ. मी.,6000000\n"
	fields := map[string]string{"threshold_1": "700"}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/batch", fields, "upload.csv", csv))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "1 BHK", resp.Records[0].Configuration)
}

func TestProcessBatchMissingFile(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/batch", nil, "", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file")
}

func TestExportBatch(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/batch/export", nil, "upload.csv", sampleCSV))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "project_data.xlsx")
}

func TestGetCities(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cities", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pune")
}
