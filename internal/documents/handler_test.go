package documents

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"legaldocs-backend/internal/llm"
)

type errorEnvelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func setupRouter(t *testing.T, client llm.Client) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t, NewMemoryRepo(), client)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, svc
}

func uploadRequest(t *testing.T, fileName, contentType string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return env
}

func uploadText(t *testing.T, router *gin.Engine, name, text string) DocumentResponse {
	t.Helper()
	resp := serve(router, uploadRequest(t, name, "text/plain", []byte(text)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var doc DocumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return doc
}

func TestUploadListGetDelete(t *testing.T) {
	router, _ := setupRouter(t, &scriptedLLM{})

	first := uploadText(t, router, "first.txt", "First agreement text")
	second := uploadText(t, router, "second.txt", "Second agreement text")
	if first.DocumentID == "" || first.FileType != "TXT" || first.AnalysisStatus != AnalysisPending {
		t.Fatalf("unexpected upload response %+v", first)
	}
	if first.WordCount != 3 || first.Content != "First agreement text" {
		t.Fatalf("unexpected content fields %+v", first)
	}

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var list ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 2 || list.Documents[0].DocumentID != second.DocumentID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/documents?q=FIRST&type=txt", nil))
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if list.Count != 1 || list.Documents[0].DocumentID != first.DocumentID {
		t.Fatalf("expected search hit on first document, got %+v", list)
	}

	resp = serve(router, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+first.DocumentID, nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+first.DocumentID, nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	if env := decodeError(t, resp); env.Error.Code != "not_found" {
		t.Fatalf("expected not_found code, got %q", env.Error.Code)
	}
	resp = serve(router, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+first.DocumentID, nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 on repeated delete, got %d", resp.Code)
	}
}

func TestUploadErrors(t *testing.T) {
	router, svc := setupRouter(t, &scriptedLLM{})

	resp := serve(router, uploadRequest(t, "broken.docx", "", []byte("PK not really a zip")))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", resp.Code, resp.Body.String())
	}
	env := decodeError(t, resp)
	if env.Error.Code != "extraction_failed" {
		t.Fatalf("expected extraction_failed, got %q", env.Error.Code)
	}
	var details struct {
		Document DocumentResponse `json:"document"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.Document.DocumentID == "" || details.Document.ExtractionError == "" {
		t.Fatalf("expected stored document in details, got %+v", details.Document)
	}
	if _, err := svc.Get(t.Context(), details.Document.DocumentID); err != nil {
		t.Fatalf("expected failed upload to be persisted: %v", err)
	}

	resp = serve(router, uploadRequest(t, "photo.gif", "image/gif", []byte("GIF89a....")))
	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected status 415, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader("no form"))
	req.Header.Set("Content-Type", "text/plain")
	resp = serve(router, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	client := &scriptedLLM{
		outputs: []string{`{"summary":"Employment contract","keyPoints":["Salary is paid monthly"],"insights":{"complexityScore":3}}`},
	}
	router, _ := setupRouter(t, client)
	doc := uploadText(t, router, "employment.txt", "The Employer shall pay the Employee monthly.")

	body := `{"analysisType":"Contract Review","detailLevel":"basic","timelineAnalysis":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.DocumentID+"/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var analyzed DocumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&analyzed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if analyzed.Analysis == nil || analyzed.Analysis.Summary != "Employment contract" {
		t.Fatalf("unexpected analysis %+v", analyzed.Analysis)
	}
	if analyzed.Analysis.AnalysisType != "contract_review" || !analyzed.Analysis.Options.TimelineAnalysis || !analyzed.Analysis.Options.AssessRisks {
		t.Fatalf("unexpected request echo %+v", analyzed.Analysis)
	}
	if analyzed.AnalysisStatus != "completed" || analyzed.AnalysisType != "contract_review" {
		t.Fatalf("unexpected summary fields %+v", analyzed.DocumentSummary)
	}
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	tests := []struct {
		name       string
		client     llm.Client
		body       string
		wantStatus int
		wantCode   string
		wantRaw    string
	}{
		{name: "unparseable", client: &scriptedLLM{outputs: []string{"I refuse."}}, wantStatus: http.StatusBadGateway, wantCode: "LLM_SCHEMA_MISMATCH", wantRaw: "I refuse."},
		{name: "timeout", client: &scriptedLLM{errs: []error{llm.ErrTimeout}}, wantStatus: http.StatusGatewayTimeout, wantCode: "LLM_TIMEOUT"},
		{name: "auth", client: &scriptedLLM{errs: []error{llm.StatusError("gemini", 401, "bad key")}}, wantStatus: http.StatusBadGateway, wantCode: "LLM_AUTH"},
		{name: "not configured", client: llm.PlaceholderClient{}, wantStatus: http.StatusServiceUnavailable, wantCode: "LLM_NOT_CONFIGURED"},
		{name: "bad type", client: &scriptedLLM{}, body: `{"analysisType":"haiku"}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", client: &scriptedLLM{}, body: `{`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupRouter(t, tt.client)
			doc := uploadText(t, router, "a.txt", "Some legal text")

			req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.DocumentID+"/analyze", strings.NewReader(tt.body))
			resp := serve(router, req)
			if resp.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, resp.Code, resp.Body.String())
			}
			if tt.wantCode == "" {
				return
			}
			env := decodeError(t, resp)
			if env.Error.Code != "analysis_failed" {
				t.Fatalf("expected analysis_failed, got %q", env.Error.Code)
			}
			var details struct {
				ErrorCode   string           `json:"errorCode"`
				RawResponse string           `json:"rawResponse"`
				Document    DocumentResponse `json:"document"`
			}
			if err := json.Unmarshal(env.Error.Details, &details); err != nil {
				t.Fatalf("decode details: %v", err)
			}
			if details.ErrorCode != tt.wantCode || details.RawResponse != tt.wantRaw {
				t.Fatalf("unexpected details %+v", details)
			}
			if details.Document.AnalysisStatus != "failed" {
				t.Fatalf("expected failed status stored, got %q", details.Document.AnalysisStatus)
			}
		})
	}
}

func TestAnalyzeWithoutAnalyzer(t *testing.T) {
	router, svc := setupRouter(t, &scriptedLLM{})
	svc.Analyzer = nil
	doc := uploadText(t, router, "a.txt", "Some legal text")

	resp := serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.DocumentID+"/analyze", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d: %s", resp.Code, resp.Body.String())
	}
	env := decodeError(t, resp)
	if env.Error.Code != "analysis_failed" {
		t.Fatalf("expected analysis_failed, got %q", env.Error.Code)
	}
	var details struct {
		ErrorCode string           `json:"errorCode"`
		Document  DocumentResponse `json:"document"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.ErrorCode != "LLM_NOT_CONFIGURED" {
		t.Fatalf("expected LLM_NOT_CONFIGURED, got %q", details.ErrorCode)
	}
	if details.Document.DocumentID != doc.DocumentID || details.Document.AnalysisStatus != AnalysisPending {
		t.Fatalf("expected untouched pending document, got %+v", details.Document)
	}
}

func TestAnalyzeMissingDocument(t *testing.T) {
	router, _ := setupRouter(t, &scriptedLLM{})
	resp := serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/documents/nope/analyze", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestCleanupEndpoint(t *testing.T) {
	router, _ := setupRouter(t, &scriptedLLM{})
	uploadText(t, router, "fresh.txt", "fresh")

	resp := serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/cleanup?olderThanDays=abc", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	resp = serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/cleanup?olderThanDays=1", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Deleted != 0 {
		t.Fatalf("expected nothing deleted, got %d", out.Deleted)
	}
}
