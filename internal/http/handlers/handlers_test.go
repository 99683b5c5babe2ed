package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/product-copy-generator/internal/config"
	"github.com/phambaophuc/product-copy-generator/internal/failure"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/repository"
	"github.com/phambaophuc/product-copy-generator/internal/services/generation"
	"github.com/phambaophuc/product-copy-generator/internal/services/processor"
	"github.com/phambaophuc/product-copy-generator/internal/services/storage"
	"github.com/phambaophuc/product-copy-generator/internal/services/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== fakes ====================

type stubGenerator struct {
	batchResult  *models.BatchResult
	batchErr     error
	single       *generation.SingleResult
	singleErr    error
	relayResp    *models.RawResponse
	relayProduct *models.GeneratedProduct
	relayErr     error

	gotImages []models.UploadedImage
	gotConfig models.GenerationConfig
}

func (s *stubGenerator) RunBatch(_ context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*models.BatchResult, error) {
	s.gotImages, s.gotConfig = images, cfg
	return s.batchResult, s.batchErr
}

func (s *stubGenerator) RunSingle(_ context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*generation.SingleResult, error) {
	s.gotImages, s.gotConfig = images, cfg
	return s.single, s.singleErr
}

func (s *stubGenerator) RunRelay(_ context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*models.RawResponse, *models.GeneratedProduct, error) {
	s.gotImages, s.gotConfig = images, cfg
	return s.relayResp, s.relayProduct, s.relayErr
}

func (s *stubGenerator) Model() string { return "gemini-test" }

type memoryArchive struct {
	enabled  bool
	uploads  []string
	imageSet [][]models.UploadedImage
}

func (m *memoryArchive) ArchiveEnabled() bool { return m.enabled }

func (m *memoryArchive) Upload(_ context.Context, _ []byte, folder, filename, _ string) (string, string, error) {
	key := folder + "/" + filename
	m.uploads = append(m.uploads, key)
	return key, "https://cdn.example.com/" + key, nil
}

func (m *memoryArchive) UploadImages(_ context.Context, folder string, images []models.UploadedImage) ([]models.StoredImage, error) {
	m.imageSet = append(m.imageSet, images)
	stored := make([]models.StoredImage, 0, len(images))
	for _, img := range images {
		stored = append(stored, models.StoredImage{Path: folder + "/" + img.Name, Name: img.Name, MIMEType: img.MIMEType, Size: img.Size()})
	}
	return stored, nil
}

type memoryJobQueue struct {
	published []*models.GenerationJob
	jobs      map[string]*models.GenerationJob
}

func (m *memoryJobQueue) PublishJob(_ context.Context, job *models.GenerationJob) error {
	m.published = append(m.published, job)
	m.jobs[job.ID] = job
	return nil
}

func (m *memoryJobQueue) GetJob(_ context.Context, id string) (*models.GenerationJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, storage.ErrJobNotFound
	}
	return job, nil
}

// ==================== helpers ====================

func testConfig() *config.Config {
	return &config.Config{
		Gemini: config.GeminiConfig{Mode: config.GeminiModeDirect, APIKey: "test-key"},
		Generation: config.GenerationConfig{
			FeaturesCount:        3,
			HashtagsCount:        4,
			DescriptionSentences: 3,
			Language:             "Arabic",
		},
		Storage: config.StorageConfig{MaxFileSize: 5 << 20, MaxFiles: 3},
	}
}

func newTestHandler(opts Options) *Handler {
	if opts.Config == nil {
		opts.Config = testConfig()
	}
	if opts.Processor == nil {
		opts.Processor = processor.NewImageProcessor(opts.Config.Storage.MaxFileSize, 0)
	}
	if opts.Webhooks == nil {
		opts.Webhooks = webhook.NewSender(5*time.Second, zap.NewNop())
	}
	opts.Logger = zap.NewNop()
	return NewHandler(opts)
}

func pngImage(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type upload struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, imagesParamKey, f.name))
		header.Set("Content-Type", "image/png")
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, v interface{}) *http.Request {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(h gin.HandlerFunc, method, pattern string, req *http.Request) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, pattern, h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeAPI(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ==================== generation ====================

func TestGenerateBatch_Partial(t *testing.T) {
	result := models.NewBatchResult(2)
	result.AddSuccess(0, "a.png", models.GeneratedProduct{ProductName: "Lamp"})
	result.AddFailure("failed to process image b.png: boom")

	gen := &stubGenerator{batchResult: result}
	h := newTestHandler(Options{Generator: gen})

	req := multipartRequest(t, "/batch", map[string]string{"features_count": "5", "language": "English"},
		upload{"a.png", pngImage(t)}, upload{"b.png", pngImage(t)})
	w := serve(h.GenerateBatch, http.MethodPost, "/batch", req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeAPI(t, w)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["message"], "processed 1 of 2 images")

	require.Len(t, gen.gotImages, 2)
	assert.Equal(t, "a.png", gen.gotImages[0].Name)
	assert.Equal(t, 5, gen.gotConfig.FeaturesCount)
	assert.Equal(t, 4, gen.gotConfig.HashtagsCount)
	assert.Equal(t, "English", gen.gotConfig.Language)
}

func TestGenerateBatch_AllFailed(t *testing.T) {
	result := models.NewBatchResult(1)
	result.AddFailure("failed to process image a.png: boom")

	h := newTestHandler(Options{Generator: &stubGenerator{batchResult: result}})

	req := multipartRequest(t, "/batch", nil, upload{"a.png", pngImage(t)})
	w := serve(h.GenerateBatch, http.MethodPost, "/batch", req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, false, decodeAPI(t, w)["success"])
}

func TestGenerateBatch_Rejections(t *testing.T) {
	h := newTestHandler(Options{Generator: &stubGenerator{}})

	w := serve(h.GenerateBatch, http.MethodPost, "/batch", multipartRequest(t, "/batch", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := multipartRequest(t, "/batch", map[string]string{"hashtags_count": "many"}, upload{"a.png", pngImage(t)})
	w = serve(h.GenerateBatch, http.MethodPost, "/batch", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "hashtags_count")

	req = multipartRequest(t, "/batch", nil, upload{"notes.png", []byte("plain text, not an image")})
	w = serve(h.GenerateBatch, http.MethodPost, "/batch", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	img := pngImage(t)
	req = multipartRequest(t, "/batch", nil, upload{"1.png", img}, upload{"2.png", img}, upload{"3.png", img}, upload{"4.png", img})
	w = serve(h.GenerateBatch, http.MethodPost, "/batch", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too many images")
}

func TestGenerate_NotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Gemini.APIKey = ""
	h := newTestHandler(Options{Config: cfg, Generator: &stubGenerator{}})

	req := multipartRequest(t, "/generate", nil, upload{"a.png", pngImage(t)})
	w := serve(h.GenerateSingle, http.MethodPost, "/generate", req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGenerateSingle_Retried(t *testing.T) {
	gen := &stubGenerator{single: &generation.SingleResult{
		Product:    &models.GeneratedProduct{ProductName: "Lamp"},
		Attempts:   2,
		Retried:    true,
		ImagesUsed: 1,
	}}
	h := newTestHandler(Options{Generator: gen})

	req := multipartRequest(t, "/generate", nil, upload{"a.png", pngImage(t)}, upload{"b.png", pngImage(t)})
	w := serve(h.GenerateSingle, http.MethodPost, "/generate", req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeAPI(t, w)
	assert.Contains(t, body["message"], "retrying")
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["attempts"])
}

func TestGenerateSingle_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"extraction after retry", &generation.RunError{Err: failure.Extraction(failure.ReasonTruncated, "cut"), Attempts: 2, Retried: true}, http.StatusBadGateway},
		{"rate limited", &generation.RunError{Err: &failure.TransportError{StatusCode: 429, Body: "quota"}, Attempts: 1}, http.StatusTooManyRequests},
		{"precondition", &generation.RunError{Err: failure.Precondition("no images provided")}, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Options{Generator: &stubGenerator{singleErr: tt.err}})

			req := multipartRequest(t, "/generate", nil, upload{"a.png", pngImage(t)})
			w := serve(h.GenerateSingle, http.MethodPost, "/generate", req)

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.err.Error(), decodeAPI(t, w)["error"])
		})
	}
}

// ==================== jobs ====================

func TestCreateJob(t *testing.T) {
	archive := &memoryArchive{enabled: true}
	queue := &memoryJobQueue{jobs: map[string]*models.GenerationJob{}}
	h := newTestHandler(Options{Generator: &stubGenerator{}, Archive: archive, Queue: queue, Jobs: queue})

	req := multipartRequest(t, "/jobs", map[string]string{"features_count": "99"}, upload{"a.png", pngImage(t)})
	w := serve(h.CreateJob, http.MethodPost, "/jobs", req)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, queue.published, 1)
	job := queue.published[0]
	assert.Equal(t, models.StatusPending, job.Status)
	assert.Equal(t, models.MaxFeaturesCount, job.Config.FeaturesCount)
	require.Len(t, job.Images, 1)
	assert.Equal(t, "jobs/"+job.ID+"/a.png", job.Images[0].Path)

	w = serve(h.GetJob, http.MethodGet, "/jobs/:id", httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(h.GetJob, http.MethodGet, "/jobs/:id", httptest.NewRequest(http.MethodGet, "/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateJob_ArchiveDisabled(t *testing.T) {
	queue := &memoryJobQueue{jobs: map[string]*models.GenerationJob{}}
	h := newTestHandler(Options{Generator: &stubGenerator{}, Archive: &memoryArchive{}, Queue: queue})

	req := multipartRequest(t, "/jobs", nil, upload{"a.png", pngImage(t)})
	w := serve(h.CreateJob, http.MethodPost, "/jobs", req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, queue.published)
}

// ==================== export ====================

func TestExport_Batch(t *testing.T) {
	archive := &memoryArchive{enabled: true}
	h := newTestHandler(Options{Archive: archive})

	result := models.NewBatchResult(1)
	result.AddSuccess(0, "a.png", models.GeneratedProduct{ProductName: "Lamp"})

	w := serve(h.Export, http.MethodPost, "/export", jsonRequest(t, http.MethodPost, "/export", result))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "multiple-products-marketing-content.json")
	assert.Equal(t, "https://cdn.example.com/exports/multiple-products-marketing-content.json", w.Header().Get(archiveURLHeader))
	assert.Contains(t, w.Body.String(), "\n  \"products\": [")
}

func TestExport_Product(t *testing.T) {
	h := newTestHandler(Options{})

	product := models.GeneratedProduct{ProductName: "Ceramic Mug", Hashtags: []string{"#mug"}}
	w := serve(h.Export, http.MethodPost, "/export", jsonRequest(t, http.MethodPost, "/export", product))

	assert.Equal(t, http.StatusOK, w.Code)
	assertAttachment(t, w, "ceramic-mug-marketing-content.json")
	assert.Empty(t, w.Header().Get(archiveURLHeader))
}

func TestExport_ProductWithArabicName(t *testing.T) {
	archive := &memoryArchive{enabled: true}
	h := newTestHandler(Options{Archive: archive})

	product := models.GeneratedProduct{ProductName: "مصباح مكتب"}
	w := serve(h.Export, http.MethodPost, "/export", jsonRequest(t, http.MethodPost, "/export", product))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "filename*=utf-8''")
	assertAttachment(t, w, "مصباح-مكتب-marketing-content.json")
}

func assertAttachment(t *testing.T, w *httptest.ResponseRecorder, filename string) {
	t.Helper()

	disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, filename, params["filename"])
}

func TestExport_Invalid(t *testing.T) {
	h := newTestHandler(Options{})

	w := serve(h.Export, http.MethodPost, "/export", jsonRequest(t, http.MethodPost, "/export", map[string]string{"foo": "bar"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==================== webhooks ====================

func TestSendProductWebhook(t *testing.T) {
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer receiver.Close()

	h := newTestHandler(Options{})
	body := models.WebhookRequest{
		WebhookURL: receiver.URL,
		Content:    map[string]interface{}{"productName": "Lamp", "hashtags": []string{"#a"}},
		Images:     []string{"QUJD"},
	}
	w := serve(h.SendProductWebhook, http.MethodPost, "/webhook/product", jsonRequest(t, http.MethodPost, "/webhook/product", body))

	require.Equal(t, http.StatusOK, w.Code)
	var env models.WebhookEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Data)
	assert.True(t, env.Data.Success)
	assert.Equal(t, http.StatusOK, env.Data.Response.Status)
	assert.Equal(t, []string{"hashtags", "productName"}, env.Data.PayloadSent.ContentFields)
	assert.Equal(t, 1, env.Data.PayloadSent.ImagesCount)
}

func TestSendProductWebhook_Failures(t *testing.T) {
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer receiver.Close()

	h := newTestHandler(Options{})

	w := serve(h.SendProductWebhook, http.MethodPost, "/p", jsonRequest(t, http.MethodPost, "/p",
		models.WebhookRequest{WebhookURL: "not-a-url", Content: map[string]interface{}{"a": 1}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), models.RelayCodeWebhookSend)

	w = serve(h.SendProductWebhook, http.MethodPost, "/p", jsonRequest(t, http.MethodPost, "/p",
		models.WebhookRequest{WebhookURL: receiver.URL, Content: map[string]interface{}{"a": 1}}))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "404")
}

func TestSendBatchWebhook(t *testing.T) {
	received := make(chan int, 1)
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err == nil {
			received <- len(r.MultipartForm.File)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer receiver.Close()

	h := newTestHandler(Options{})

	result := models.NewBatchResult(1)
	result.AddSuccess(0, "a.png", models.GeneratedProduct{ProductName: "Lamp"})
	content, err := json.Marshal(result)
	require.NoError(t, err)

	req := multipartRequest(t, "/webhook/batch", map[string]string{
		webhookURLParamKey: receiver.URL,
		contentParamKey:    string(content),
	}, upload{"a.png", pngImage(t)})
	w := serve(h.SendBatchWebhook, http.MethodPost, "/webhook/batch", req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, <-received)
}

func TestSendBatchWebhook_ReceiverRejects(t *testing.T) {
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer receiver.Close()

	h := newTestHandler(Options{})
	req := multipartRequest(t, "/webhook/batch", map[string]string{
		webhookURLParamKey: receiver.URL,
		contentParamKey:    `{"products":[],"errors":[]}`,
	})
	w := serve(h.SendBatchWebhook, http.MethodPost, "/webhook/batch", req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "401")
}

// ==================== relay ====================

func TestRelayGenerate(t *testing.T) {
	resp := &models.RawResponse{Candidates: []models.Candidate{{FinishReason: models.FinishReasonStop}}}
	gen := &stubGenerator{relayResp: resp, relayProduct: &models.GeneratedProduct{ProductName: "Lamp"}}
	h := newTestHandler(Options{Generator: gen})

	encoded := base64.StdEncoding.EncodeToString(pngImage(t))
	body := models.RelayRequest{
		Images: []models.RelayImage{
			{MIMEType: "image/png", Data: encoded},
			{Base64Data: "data:image/png;base64," + encoded},
		},
		Config: models.GenerationConfig{FeaturesCount: 5},
	}
	w := serve(h.RelayGenerate, http.MethodPost, "/relay", jsonRequest(t, http.MethodPost, "/relay", body))

	require.Equal(t, http.StatusOK, w.Code)
	var env models.RelayEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Data)
	assert.Equal(t, "Lamp", env.Data.Content.ProductName)
	assert.Equal(t, 2, env.Data.ProcessingInfo.ImagesCount)
	assert.Equal(t, "gemini-test", env.Data.ProcessingInfo.ModelUsed)

	require.Len(t, gen.gotImages, 2)
	assert.Equal(t, "image/png", gen.gotImages[1].MIMEType)
	assert.Equal(t, 5, gen.gotConfig.FeaturesCount)
	assert.Equal(t, 4, gen.gotConfig.HashtagsCount, "zero fields take defaults")
}

func TestRelayGenerate_ExtractionFailureCarriesResponse(t *testing.T) {
	resp := &models.RawResponse{Candidates: []models.Candidate{{FinishReason: models.FinishReasonMaxTokens}}}
	gen := &stubGenerator{relayResp: resp, relayErr: failure.Extraction(failure.ReasonTruncated, "cut")}
	h := newTestHandler(Options{Generator: gen})

	body := models.RelayRequest{Images: []models.RelayImage{{MIMEType: "image/png", Data: base64.StdEncoding.EncodeToString(pngImage(t))}}}
	w := serve(h.RelayGenerate, http.MethodPost, "/relay", jsonRequest(t, http.MethodPost, "/relay", body))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var env models.RelayEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, models.RelayCodeImageProcessing, env.Error.Code)
	require.NotNil(t, env.Error.Response)
	assert.True(t, env.Error.Response.FirstCandidate().Truncated())
}

func TestRelayGenerate_BadPayload(t *testing.T) {
	h := newTestHandler(Options{Generator: &stubGenerator{}})

	w := serve(h.RelayGenerate, http.MethodPost, "/relay", jsonRequest(t, http.MethodPost, "/relay", map[string]interface{}{"images": []interface{}{}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := models.RelayRequest{Images: []models.RelayImage{{MIMEType: "image/png", Data: "%%%"}}}
	w = serve(h.RelayGenerate, http.MethodPost, "/relay", jsonRequest(t, http.MethodPost, "/relay", body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==================== runs & health ====================

func setupRunRepo(t *testing.T) repository.RunRepository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.GenerationRun{}))
	return repository.NewRunRepository(db)
}

func TestRuns(t *testing.T) {
	runs := setupRunRepo(t)
	ctx := context.Background()
	require.NoError(t, runs.Create(ctx, &models.GenerationRun{Mode: models.RunModeBatch, Status: models.RunStatusSuccess, DurationMs: 100}))
	require.NoError(t, runs.Create(ctx, &models.GenerationRun{Mode: models.RunModeSingle, Status: models.RunStatusFailed, ErrorKind: "extraction"}))

	h := newTestHandler(Options{Runs: runs})

	w := serve(h.ListRuns, http.MethodGet, "/runs", httptest.NewRequest(http.MethodGet, "/runs?mode=single", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeAPI(t, w)["data"], 1)

	w = serve(h.ListRuns, http.MethodGet, "/runs", httptest.NewRequest(http.MethodGet, "/runs?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(h.RunStats, http.MethodGet, "/runs/stats", httptest.NewRequest(http.MethodGet, "/runs/stats?since=1h", nil))
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeAPI(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 2, stats["total_runs"])
	assert.EqualValues(t, 1, stats["failed_count"])
}

func TestRuns_Unavailable(t *testing.T) {
	h := newTestHandler(Options{})
	w := serve(h.RunStats, http.MethodGet, "/runs/stats", httptest.NewRequest(http.MethodGet, "/runs/stats", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthCheck(t *testing.T) {
	healthy := HealthFunc(func(context.Context) map[string]string {
		return map[string]string{"redis": "healthy", "supabase": "not configured"}
	})
	h := newTestHandler(Options{Health: []HealthReporter{healthy}})

	w := serve(h.HealthCheck, http.MethodGet, "/health", httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	broken := HealthFunc(func(context.Context) map[string]string {
		return map[string]string{"database": "unhealthy: locked"}
	})
	h = newTestHandler(Options{Health: []HealthReporter{healthy, broken}})

	w = serve(h.HealthCheck, http.MethodGet, "/health", httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	data := decodeAPI(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "direct", data["generator"])
}

func TestGetStats(t *testing.T) {
	h := newTestHandler(Options{Stats: map[string]StatsFunc{
		"cache": func(context.Context) (interface{}, error) {
			return map[string]interface{}{"db_keys": 12}, nil
		},
		"queue": func(context.Context) (interface{}, error) {
			return nil, errors.New("channel closed")
		},
	}})

	w := serve(h.GetStats, http.MethodGet, "/stats", httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeAPI(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 12, data["cache"].(map[string]interface{})["db_keys"])
	assert.Equal(t, "unavailable: channel closed", data["queue"])
}
