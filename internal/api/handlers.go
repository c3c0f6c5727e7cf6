package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/adlens/adlens/internal/database"
	"github.com/adlens/adlens/internal/jobs"
	"github.com/adlens/adlens/internal/models"
	"github.com/adlens/adlens/internal/storage"
)

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type App struct {
	Storage       storage.Storage
	VideoRepo     *database.VideoRepository
	AnalysisRepo  *database.AnalysisRepo
	Jobs          *jobs.Runner
	MaxUploadSize int64
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (app *App) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to get file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") && contentType != "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".mp4" && ext != ".mov" && ext != ".webm" {
			writeError(w, http.StatusBadRequest, "Only video files are allowed")
			return
		}
		contentType = "video/mp4"
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	filename, err := app.Storage.SaveFile(file, storage.FileInfo{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	video := models.NewVideo(title, filename, contentType, header.Size)
	if err := app.VideoRepo.Insert(r.Context(), video); err != nil {
		app.Storage.DeleteFile(filename)
		writeError(w, http.StatusInternalServerError, "Failed to save video information")
		return
	}

	writeJSON(w, http.StatusCreated, video)
}

func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := app.VideoRepo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list videos")
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}
	writeJSON(w, http.StatusOK, videos)
}

func (app *App) GetVideoHandler(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	video, err := app.VideoRepo.GetByID(r.Context(), videoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get video")
		return
	}
	if video == nil {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}
	writeJSON(w, http.StatusOK, video)
}

// EnqueueAnalysisHandler schedules the analysis pipeline for an uploaded
// video. The job runs asynchronously; poll GET /api/videos/{id}/analysis
// for the result.
func (app *App) EnqueueAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	video, err := app.VideoRepo.GetByID(r.Context(), videoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get video")
		return
	}
	if video == nil {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}

	existing, err := app.AnalysisRepo.GetByVideoID(r.Context(), videoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check analysis status")
		return
	}
	if existing != nil && (existing.Status == models.StatusPending || existing.Status == models.StatusRunning) {
		writeJSON(w, http.StatusAccepted, map[string]string{
			"video_id": videoID,
			"status":   existing.Status,
		})
		return
	}

	if err := app.Jobs.Enqueue(r.Context(), videoID); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Analysis queue is full")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"video_id": videoID,
		"status":   models.StatusPending,
	})
}

func (app *App) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	row, err := app.AnalysisRepo.GetByVideoID(r.Context(), videoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get analysis")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "No analysis for this video")
		return
	}
	writeJSON(w, http.StatusOK, row)
}
