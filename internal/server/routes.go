package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hferris/waypoints/internal/timeline"
)

func (s *Server) handleSubmitSample(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Time   time.Time `json:"time"`
		Motion string    `json:"motion"`
		Lat    float64   `json:"lat"`
		Lon    float64   `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	state, err := timeline.ParseMotionState(req.Motion)
	if err != nil {
		msg, _ := json.Marshal(map[string]string{"error": err.Error()})
		http.Error(w, string(msg), http.StatusBadRequest)
		return
	}
	if req.Time.IsZero() {
		req.Time = time.Now()
	}

	s.eng.Submit(timeline.Sample{
		Time:  req.Time,
		State: state,
		Lat:   req.Lat,
		Lon:   req.Lon,
	})

	// Rate-limited and non-recording samples are silently dropped;
	// the response reports the resulting state either way.
	writeJSON(w, http.StatusAccepted, map[string]any{
		"recording": s.eng.Recording(),
		"active":    len(s.eng.ActiveSegments()),
	})
}

func (s *Server) handleRecordingStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"recording": s.eng.Recording()})
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	s.eng.StartRecording()
	writeJSON(w, http.StatusOK, map[string]any{"recording": true})
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	s.eng.StopRecording()
	writeJSON(w, http.StatusOK, map[string]any{"recording": false})
}

func (s *Server) handleCurrentSegment(w http.ResponseWriter, r *http.Request) {
	cur, ok := s.eng.Current()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"current": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"current": cur})
}

func (s *Server) handleActiveSegments(w http.ResponseWriter, r *http.Request) {
	segs := s.eng.ActiveSegments()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(segs),
		"segments": segs,
	})
}

func (s *Server) handleFinalizedSegments(w http.ResponseWriter, r *http.Request) {
	segs := s.eng.FinalizedSegments()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(segs),
		"segments": segs,
	})
}
