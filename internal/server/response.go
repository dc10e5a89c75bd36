package server

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"slidealign/internal/align"
	"slidealign/internal/service"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

type processResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    processData `json:"data"`
}

type processData struct {
	RunID     string         `json:"run_id"`
	SlideData slideData      `json:"slide_data"`
	Unmatched []string       `json:"unmatched_transcripts"`
	Params    service.Params `json:"parameters"`
}

// slideData encodes as an object keyed by page number, keeping deck order.
type slideData []align.SlideTranscript

func (d slideData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(s.Page)))
		buf.WriteByte(':')
		entry, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		buf.Write(entry)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func newProcessResponse(out *service.Outcome) processResponse {
	return processResponse{
		Success: true,
		Message: out.Message(),
		Data: processData{
			RunID:     out.RunID,
			SlideData: slideData(out.Result.Slides),
			Unmatched: out.Result.Unmatched,
			Params:    out.Params,
		},
	}
}

func errorBody(detail string) gin.H {
	return gin.H{"success": false, "detail": detail}
}
