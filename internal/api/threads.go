package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/store"
	"github.com/abhisek/skillpath/internal/tutor"
)

// maxBodyBytes caps request bodies; skill graphs are the largest payload.
const maxBodyBytes = 1 << 20

type createThreadRequest struct {
	User  string            `json:"user"`
	Title string            `json:"title"`
	Graph *skillgraph.Draft `json:"graph"`
}

type submitRequest struct {
	User   string `json:"user"`
	NodeID string `json:"node_id"`
	tutor.Attempt
}

type evidenceResponse struct {
	EventID        string              `json:"event_id"`
	Sequence       int64               `json:"sequence"`
	Timestamp      time.Time           `json:"timestamp"`
	NodeID         string              `json:"node_id"`
	Modality       skillgraph.Modality `json:"modality"`
	Correct        bool                `json:"correct"`
	Score          float64             `json:"score"`
	Tags           []string            `json:"tags"`
	FormatStrength float64             `json:"format_strength"`
	Response       string              `json:"response,omitempty"`
}

// nextResponse carries the recommendation even when no exercise could be
// generated.
type nextResponse struct {
	tutor.Step
	ContentError string `json:"content_error,omitempty"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// user reads the mandatory ?user= parameter.
func user(r *http.Request) (string, error) {
	u := strings.TrimSpace(r.URL.Query().Get("user"))
	if u == "" {
		return "", fmt.Errorf("%w: missing user", ErrBadRequest)
	}
	return u, nil
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	switch {
	case strings.TrimSpace(req.User) == "":
		s.fail(w, r, fmt.Errorf("%w: missing user", ErrBadRequest))
		return
	case req.Graph == nil || len(req.Graph.Nodes) == 0:
		s.fail(w, r, fmt.Errorf("%w: missing graph", ErrBadRequest))
		return
	}

	th, err := s.tutor.CreateThread(r.Context(), req.User, req.Title, req.Graph)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, th)
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	u, err := user(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	threads, err := s.tutor.Threads(r.Context(), u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if threads == nil {
		threads = []store.Thread{}
	}
	writeJSON(w, http.StatusOK, threads)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	u, err := user(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rec, err := s.tutor.Plan(r.Context(), u, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	u, err := user(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	step, err := s.tutor.Next(r.Context(), u, r.PathValue("id"))
	switch {
	case errors.Is(err, tutor.ErrContentUnavailable):
		writeJSON(w, http.StatusOK, nextResponse{Step: step, ContentError: err.Error()})
	case err != nil:
		s.fail(w, r, err)
	default:
		writeJSON(w, http.StatusOK, nextResponse{Step: step})
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	u, err := user(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status, err := s.tutor.Progress(r.Context(), u, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	switch {
	case strings.TrimSpace(req.User) == "":
		s.fail(w, r, fmt.Errorf("%w: missing user", ErrBadRequest))
		return
	case strings.TrimSpace(req.NodeID) == "":
		s.fail(w, r, fmt.Errorf("%w: missing node_id", ErrBadRequest))
		return
	}

	res, err := s.tutor.Submit(r.Context(), req.User, r.PathValue("id"), req.NodeID, req.Attempt)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	u, err := user(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var opts store.QueryOpts
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			s.fail(w, r, fmt.Errorf("%w: invalid limit %q", ErrBadRequest, l))
			return
		}
		opts.Limit = n
	}

	events, err := s.tutor.History(r.Context(), u, r.PathValue("id"), r.URL.Query().Get("node"), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]evidenceResponse, len(events))
	for i, e := range events {
		out[i] = evidenceResponse{
			EventID:        e.EventID,
			Sequence:       e.Sequence,
			Timestamp:      e.Timestamp,
			NodeID:         e.NodeID,
			Modality:       e.Modality,
			Correct:        e.Correct,
			Score:          e.Score,
			Tags:           e.Tags,
			FormatStrength: e.FormatStrength,
			Response:       e.Response,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
