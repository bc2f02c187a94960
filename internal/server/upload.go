package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/rajin-khan/meetminsgen/internal/audio"
)

// multipartMemory is how much of an upload is held in memory before spilling to disk
const multipartMemory = 32 << 20

// handleTranscribe accepts a multipart upload in field "file" and returns the
// minutes as JSON
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	logger, ctx := s.requestLogger(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("upload exceeds %d MB", s.cfg.MaxUploadMB)})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected multipart/form-data"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing form field \"file\""})
		return
	}
	defer file.Close()

	if _, err := audio.CheckFormat(header.Filename); err != nil {
		writeError(w, err)
		return
	}

	saved, err := s.saveUpload(header.Filename, file)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to save upload")
		writeError(w, err)
		return
	}
	defer s.cleanup(saved)

	logger.Info().
		Str("filename", header.Filename).
		Int64("bytes", header.Size).
		Msg("Processing upload")

	result, err := s.pipeline.Process(ctx, saved, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// saveUpload copies src into TEMP_DIR under a unique name keeping the extension
func (s *Server) saveUpload(filename string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.cfg.TempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	path := filepath.Join(s.cfg.TempDir, uuid.NewString()+filepath.Ext(filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// cleanup removes an upload and its normalized copy
func (s *Server) cleanup(path string) {
	for _, p := range []string{path, audio.ConvertedPath(s.cfg.TempDir, path)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", p).Msg("Failed to remove temp file")
		}
	}
}
