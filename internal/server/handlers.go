package server

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"videoconverter/internal/api"
	"videoconverter/internal/convert"
	"videoconverter/internal/history"
	"videoconverter/internal/logging"
)

var fileFields = []string{"file", "video"}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.ServiceInfo{
		Name:        "videoconverter",
		Version:     s.opts.Version,
		Description: "Extracts audio tracks and transcripts from uploaded videos",
		Endpoints: map[string]string{
			"info":    "GET " + BasePath,
			"status":  "GET " + BasePath + "/status",
			"audio":   "POST " + BasePath + "/audio",
			"text":    "POST " + BasePath + "/text",
			"history": "GET " + BasePath + "/history",
		},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.writeError(w, http.StatusServiceUnavailable, "status unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, s.status(r.Context()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, api.HistoryResponse{Entries: []api.HistoryEntry{}})
		return
	}
	limit := history.DefaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}
	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("history read failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Entries: api.FromHistory(entries)})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	req, cleanup, ok := s.readUpload(w, r, convert.OutputAudio)
	if !ok {
		return
	}
	defer cleanup()

	artifact, err := s.converter.ConvertToAudio(r.Context(), req)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.FileName}))
	if artifact.Duration > 0 {
		w.Header().Set("X-Audio-Duration", strconv.FormatFloat(artifact.Duration.Seconds(), 'f', 3, 64))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		logging.WithContext(r.Context(), s.logger).Debug("audio response write failed", logging.Error(err))
	}
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	req, cleanup, ok := s.readUpload(w, r, convert.OutputText)
	if !ok {
		return
	}
	defer cleanup()

	transcript, err := s.converter.ConvertToText(r.Context(), req)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromTranscript(transcript))
}

// readUpload parses the multipart body under the size ceiling. On failure
// it has already written the response.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, kind convert.OutputKind) (convert.Request, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the maximum upload size of %d MB", s.opts.MaxUploadBytes>>20))
		case errors.Is(err, http.ErrNotMultipart):
			s.writeError(w, http.StatusBadRequest, "Expected a multipart/form-data upload")
		default:
			s.writeError(w, http.StatusBadRequest, "No video file provided")
		}
		return convert.Request{}, nil, false
	}
	cleanup := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.WithContext(r.Context(), s.logger).Debug("multipart cleanup failed", logging.Error(err))
		}
	}

	file, header := firstFile(r.MultipartForm)
	if file == nil {
		cleanup()
		s.writeError(w, http.StatusBadRequest, "No video file provided")
		return convert.Request{}, nil, false
	}

	req := convert.Request{
		Source:      file,
		FileName:    header.Filename,
		Size:        header.Size,
		Kind:        kind,
		AudioFormat: r.FormValue("format"),
	}
	return req, func() {
		_ = file.Close()
		cleanup()
	}, true
}

func firstFile(form *multipart.Form) (multipart.File, *multipart.FileHeader) {
	if form == nil {
		return nil, nil
	}
	for _, field := range fileFields {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}
		file, err := headers[0].Open()
		if err != nil {
			return nil, nil
		}
		return file, headers[0]
	}
	return nil, nil
}
