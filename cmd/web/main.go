package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"adcraft/internal/config"
	"adcraft/internal/gemini"
	"adcraft/internal/httpclient"
	"adcraft/internal/pipeline"
	"adcraft/internal/session"
)

//go:embed static/*
var staticFS embed.FS

const maxUploadBytes = 25 << 20

type server struct {
	flow           *pipeline.Flow
	sessions       *session.Store
	logger         *slog.Logger
	requestTimeout time.Duration
}

type apiError struct {
	Error string `json:"error"`
}

type planResponse struct {
	SessionID   string    `json:"session_id"`
	TextSwap    string    `json:"text_swap"`
	ProductSwap string    `json:"product_swap"`
	Edits       string    `json:"edits"`
	Usage       usageJSON `json:"usage"`
}

type renderRequest struct {
	SessionID   string `json:"session_id"`
	TextSwap    string `json:"text_swap"`
	ProductSwap string `json:"product_swap"`
	Edits       string `json:"edits"`
}

type renderResponse struct {
	SessionID string    `json:"session_id"`
	ResultURL string    `json:"result_url"`
	Usage     usageJSON `json:"usage"`
}

type usageJSON struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	addr := strings.TrimSpace(os.Getenv("WEB_ADDR"))
	if addr == "" {
		addr = ":8080"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	gem := gemini.New(gemini.Options{
		APIKey:      cfg.GeminiAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		APIVersion:  cfg.GeminiAPIVersion,
		TextModel:   cfg.TextModel,
		ImageModel:  cfg.ImageModel,
		AspectRatio: cfg.AspectRatio,
		HTTPClient:  httpClient,
		Logger:      logger,
	})

	s := &server{
		flow: pipeline.NewFlow(pipeline.FlowOptions{
			Gemini:   gem,
			Logger:   logger,
			PropSwap: cfg.PropSwapPlanner,
		}),
		sessions:       session.NewStore(),
		logger:         logger,
		requestTimeout: cfg.RequestTimeout,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Post("/api/plan", s.handlePlan)
	r.Post("/api/render", s.handleRender)
	r.Get("/api/result/{id}", s.handleResult)

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/*", http.FileServer(http.FS(staticSub)))

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	logger.Info("web started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}

// handlePlan takes the three images plus the campaign text, runs the
// planner stage, and opens a session holding the editable plan.
func (s *server) handlePlan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	campaignData := strings.TrimSpace(r.FormValue("campaign"))
	if campaignData == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "campaign text is required"})
		return
	}

	var in pipeline.Inputs
	for _, f := range []struct {
		field string
		dst   *gemini.ImageInput
	}{
		{"reference", &in.Reference},
		{"logo", &in.Logo},
		{"product", &in.Product},
	} {
		img, err := readImageField(r, f.field)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		*f.dst = img
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	p, usage, err := s.flow.Plan(ctx, campaignData, in)
	if err != nil {
		s.logger.Error("plan stage failed", "err", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: err.Error()})
		return
	}

	id := uuid.NewString()
	s.sessions.Update(id, func(sess *session.Session) {
		sess.CampaignData = campaignData
		sess.Inputs = in
		sess.Plan = p
		sess.HasPlan = true
		sess.Usage = usage
	})

	writeJSON(w, http.StatusOK, planResponse{
		SessionID:   id,
		TextSwap:    p.TextSwap,
		ProductSwap: p.ProductSwap,
		Edits:       p.Edits,
		Usage:       usageJSON{InputTokens: usage.InputTokens, OutputTokens: usage.OutputTokens},
	})
}

// handleRender applies the (possibly edited) plan fields and runs the
// generation stage for the session.
func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}

	sess, ok := s.sessions.Get(req.SessionID)
	if !ok || !sess.HasPlan {
		writeJSON(w, http.StatusNotFound, apiError{Error: "unknown session"})
		return
	}

	sess = s.sessions.Update(req.SessionID, func(st *session.Session) {
		if req.TextSwap != "" {
			st.Plan.TextSwap = req.TextSwap
		}
		if req.ProductSwap != "" {
			st.Plan.ProductSwap = req.ProductSwap
		}
		if req.Edits != "" {
			st.Plan.Edits = req.Edits
		}
	})

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	image, usage, err := s.flow.Render(ctx, sess.CampaignData, sess.Plan, sess.Inputs)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, gemini.ErrNoImagePayload) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.Error("render stage failed", "err", err)
		writeJSON(w, status, apiError{Error: err.Error()})
		return
	}

	total := s.sessions.Update(req.SessionID, func(st *session.Session) {
		st.Generated = image
		st.Usage = st.Usage.Add(usage)
	}).Usage

	writeJSON(w, http.StatusOK, renderResponse{
		SessionID: req.SessionID,
		ResultURL: "/api/result/" + req.SessionID,
		Usage:     usageJSON{InputTokens: total.InputTokens, OutputTokens: total.OutputTokens},
	})
}

func (s *server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, ok := s.sessions.Get(id)
	if !ok || len(sess.Generated) == 0 {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no generated image for this session"})
		return
	}

	w.Header().Set("content-type", "image/png")
	w.Header().Set("content-disposition", `attachment; filename="generated_ad.png"`)
	_, _ = w.Write(sess.Generated)
}

func readImageField(r *http.Request, field string) (gemini.ImageInput, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return gemini.ImageInput{}, errors.New("missing " + field + " image")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return gemini.ImageInput{}, errors.New("failed to read " + field + " image")
	}

	return gemini.ImageInput{Data: data, MimeType: normalizeMime(header, data)}, nil
}

func normalizeMime(header *multipart.FileHeader, data []byte) string {
	mimeType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if strings.Contains(mimeType, ";") {
		mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if strings.Contains(mimeType, ";") {
		mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
		})
	}
}
