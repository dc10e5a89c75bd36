package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"slidealign/internal/service"
	"slidealign/internal/slides"
	"slidealign/internal/store"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:  "online",
		Message: "Lecture alignment API is running",
		Version: s.cfg.Version,
	})
}

func (s *Server) processLecture(c *gin.Context) {
	params, err := s.params(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	slidesFile, err := c.FormFile("pdf_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(uploadError("pdf_file", err)))
		return
	}
	transcriptFile, err := c.FormFile("transcript_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(uploadError("transcript_file", err)))
		return
	}
	if !slides.Supported(slidesFile.Filename) {
		c.JSON(http.StatusBadRequest, errorBody("Slide file must have a .pdf, .txt or .md extension"))
		return
	}
	switch strings.ToLower(filepath.Ext(transcriptFile.Filename)) {
	case ".txt", ".srt":
	default:
		c.JSON(http.StatusBadRequest, errorBody("Transcript file must have a .txt or .srt extension"))
		return
	}

	slidesData, err := readUpload(slidesFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	transcriptData, err := readUpload(transcriptFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	lec, err := s.svc.ParseLecture(slidesFile.Filename, slidesData, transcriptFile.Filename, transcriptData)
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()
	out, err := s.svc.Process(ctx, lec, params)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newProcessResponse(out))
}

// params reads window_size and similarity_threshold, falling back to the
// service defaults.
func (s *Server) params(c *gin.Context) (service.Params, error) {
	p := s.svc.Defaults()
	if v := c.Query("window_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, fmt.Errorf("window_size must be a positive integer, got %q", v)
		}
		p.WindowSize = n
	}
	if v := c.Query("similarity_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return p, fmt.Errorf("similarity_threshold must be a finite number, got %q", v)
		}
		p.Threshold = f
	}
	return p, nil
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	if service.IsBadInput(err) {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, errorBody("processing the lecture took too long"))
		return
	}
	c.JSON(http.StatusInternalServerError, errorBody("Error processing lecture: "+err.Error()))
}

func (s *Server) listRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, errorBody("run history is disabled"))
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("limit must be an integer"))
			return
		}
		limit = n
	}
	runs, err := s.runs.List(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody("list runs failed"))
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "runs": runs})
}

func (s *Server) getRun(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, errorBody("run history is disabled"))
		return
	}
	run, err := s.runs.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody(err.Error()))
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody("load run failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "run": run})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

func uploadError(field string, err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)
	}
	return fmt.Sprintf("missing %s upload", field)
}
