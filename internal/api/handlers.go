// Package api exposes the HTTP and MCP caller surfaces: job submission and
// polling, document upload, artifact retrieval, and session state.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quizforge/quizforge/internal/extract"
	"github.com/quizforge/quizforge/internal/queue"
	"github.com/quizforge/quizforge/internal/quiz"
	"github.com/quizforge/quizforge/internal/render"
	"github.com/quizforge/quizforge/internal/storage"
)

const maxSessionBodySize = 1 << 20 // 1MB

// Limits bounds what a single submission may ask for.
type Limits struct {
	MinQuestions   int
	MaxQuestions   int
	MinSourceWords int
	MaxUploadBytes int64
}

// TTLs is the record-lifetime policy the handlers apply on every write.
type TTLs struct {
	Job     time.Duration
	Session time.Duration
	Upload  time.Duration
}

type AppDeps struct {
	Store     *storage.Store
	Queue     *queue.Queue
	Artifacts *render.Store
	Limits    Limits
	TTLs      TTLs
	RateLimit storage.RateLimit
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth)
	r.Post("/jobs", handleCreateJob(deps))
	r.Get("/jobs/{id}", handleGetJob(deps))
	r.Post("/uploads", handleUpload(deps))
	r.Get("/artifacts/{job_id}", handleGetArtifact(deps))
	r.Put("/sessions/{owner}", handlePutSession(deps))
	r.Get("/sessions/{owner}", handleGetSession(deps))
	r.Delete("/sessions/{owner}", handleDeleteSession(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// JobRequest is one quiz submission. Text carries an inline source; UploadIDs
// reference previously uploaded documents. Exactly one of the two forms is
// used, and multiple upload ids make a multi-source job.
type JobRequest struct {
	Owner      string   `json:"owner"`
	Title      string   `json:"title"`
	Count      int      `json:"count"`
	Text       string   `json:"text"`
	SourceName string   `json:"source_name"`
	UploadIDs  []string `json:"upload_ids"`
}

func handleCreateJob(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, deps.Limits.MaxUploadBytes)
		defer r.Body.Close()

		var req JobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if req.Owner == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "owner is required")
			return
		}
		if req.Count < deps.Limits.MinQuestions || req.Count > deps.Limits.MaxQuestions {
			httpError(w, http.StatusBadRequest, "invalid_request_error",
				"count must be between %d and %d", deps.Limits.MinQuestions, deps.Limits.MaxQuestions)
			return
		}
		if req.Text == "" && len(req.UploadIDs) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at least one of text or upload_ids is required")
			return
		}

		fragments, err := resolveFragments(deps, req)
		if err != nil {
			var se *submitError
			if errors.As(err, &se) {
				httpError(w, se.code, se.errType, "%s", se.msg)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "resolving sources: %v", err)
			return
		}

		allowed, err := deps.Store.AllowSubmission(req.Owner, deps.RateLimit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "checking rate limit: %v", err)
			return
		}
		if !allowed {
			httpError(w, http.StatusTooManyRequests, "rate_limit_error", "submission limit reached, try again later")
			return
		}

		payload, err := json.Marshal(quiz.JobPayload{
			Title:     req.Title,
			Count:     req.Count,
			Fragments: fragments,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "building job payload: %v", err)
			return
		}

		job := storage.Job{
			ID:          uuid.New().String(),
			Owner:       req.Owner,
			PayloadJSON: string(payload),
			Status:      storage.StatusPending,
		}
		if err := deps.Store.CreateJob(job, deps.TTLs.Job); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving job: %v", err)
			return
		}
		if err := deps.Queue.Push(job.ID); err != nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "queue is full, try again later")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"id":     job.ID,
			"status": string(storage.StatusPending),
		})
	}
}

// submitError carries an HTTP status through fragment resolution.
type submitError struct {
	code    int
	errType string
	msg     string
}

func (e *submitError) Error() string { return e.msg }

func resolveFragments(deps AppDeps, req JobRequest) ([]quiz.Fragment, error) {
	if req.Text != "" {
		words := len(strings.Fields(req.Text))
		if words < deps.Limits.MinSourceWords {
			return nil, &submitError{http.StatusBadRequest, "invalid_request_error",
				fmt.Sprintf("source text has %d words, need at least %d", words, deps.Limits.MinSourceWords)}
		}
		name := req.SourceName
		if name == "" {
			name = "inline text"
		}
		return []quiz.Fragment{{
			Name:      name,
			Text:      req.Text,
			WordCount: words,
			CharCount: utf8.RuneCountInString(req.Text),
		}}, nil
	}

	fragments := make([]quiz.Fragment, 0, len(req.UploadIDs))
	for _, id := range req.UploadIDs {
		upload, err := deps.Store.GetUpload(id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &submitError{http.StatusBadRequest, "invalid_request_error",
				fmt.Sprintf("upload %s not found or expired", id)}
		}
		if err != nil {
			return nil, err
		}
		if upload.Owner != req.Owner {
			return nil, &submitError{http.StatusBadRequest, "invalid_request_error",
				fmt.Sprintf("upload %s not found or expired", id)}
		}
		fragments = append(fragments, quiz.Fragment{
			Name:      upload.Filename,
			Text:      upload.Content,
			WordCount: upload.WordCount,
			CharCount: upload.CharCount,
		})
	}

	total := 0
	for _, f := range fragments {
		total += f.WordCount
	}
	if total < deps.Limits.MinSourceWords {
		return nil, &submitError{http.StatusBadRequest, "invalid_request_error",
			fmt.Sprintf("sources total %d words, need at least %d", total, deps.Limits.MinSourceWords)}
	}
	return fragments, nil
}

// JobResponse is the polling view of a job. Error is set only for FAILED,
// the artifact link only for COMPLETED.
type JobResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	ArtifactURL string `json:"artifact_url,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func handleGetJob(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := deps.Store.GetJob(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading job: %v", err)
			return
		}

		resp := JobResponse{
			ID:        job.ID,
			Status:    string(job.Status),
			CreatedAt: job.CreatedAt.Format(time.RFC3339),
			UpdatedAt: job.UpdatedAt.Format(time.RFC3339),
		}
		if job.Status == storage.StatusFailed {
			resp.Error = job.Error
		}
		if job.Status == storage.StatusCompleted && job.ArtifactPath != "" {
			resp.ArtifactURL = "/artifacts/" + job.ID
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func handleUpload(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, deps.Limits.MaxUploadBytes)
		defer r.Body.Close()

		owner := r.URL.Query().Get("owner")
		if owner == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "owner query parameter is required")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading uploaded file: %v", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "file exceeds the upload size limit")
			return
		}
		if int64(len(data)) > deps.Limits.MaxUploadBytes {
			httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "file exceeds the upload size limit")
			return
		}

		kind, ok := extract.KindForMIME(header.Header.Get("Content-Type"))
		if !ok {
			kind, ok = extract.KindForFilename(header.Filename)
		}
		if !ok {
			httpError(w, http.StatusUnsupportedMediaType, "invalid_request_error",
				"unsupported file type %q", header.Filename)
			return
		}

		result, err := extract.Extract(data, kind)
		if errors.Is(err, extract.ErrNoText) {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "no extractable text in %q", header.Filename)
			return
		}
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "extracting text: %v", err)
			return
		}

		upload := storage.Upload{
			ID:        uuid.New().String(),
			Owner:     owner,
			Filename:  header.Filename,
			Content:   result.Text,
			WordCount: result.WordCount,
			CharCount: result.CharCount,
		}
		if err := deps.Store.SaveUpload(upload, deps.TTLs.Upload); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving upload: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":         upload.ID,
			"filename":   upload.Filename,
			"word_count": upload.WordCount,
			"char_count": upload.CharCount,
		})
	}
}

func handleGetArtifact(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "job_id")

		job, err := deps.Store.GetJob(jobID)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading job: %v", err)
			return
		}
		if job.Status != storage.StatusCompleted || job.ArtifactPath == "" {
			httpError(w, http.StatusConflict, "invalid_request_error", "job is %s, artifact not available", job.Status)
			return
		}

		content, err := deps.Artifacts.Read(job.ArtifactPath)
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "artifact no longer available")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(content)
	}
}

func handlePutSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")

		r.Body = http.MaxBytesReader(w, r.Body, maxSessionBodySize)
		state, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "session state too large")
			return
		}
		if !json.Valid(state) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "session state must be valid JSON")
			return
		}

		if err := deps.Store.PutSession(owner, string(state), deps.TTLs.Session); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving session: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "saved"})
	}
}

func handleGetSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")

		session, err := deps.Store.GetSession(owner)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, session.StateJSON)
	}
}

func handleDeleteSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")

		if err := deps.Store.DeleteSession(owner); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting session: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
