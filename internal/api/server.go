package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"crc32-rainbow/internal/cracker"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate go tool oapi-codegen -config ../../api/config.yaml ../../api/openapi.yaml

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Options configure a Server.
type Options struct {
	// APIKey, if set, must match the api_key request header.
	APIKey string

	// Strict rejects hashes that are not 1 to 8 hex digits.
	Strict bool

	// Cache, if set, holds recent crack results.
	Cache *Cache

	// Logger receives request diagnostics; nil discards them.
	Logger *zap.Logger
}

// Server implements ServerInterface over a cracking engine and a history
// database.
type Server struct {
	engine *cracker.Engine
	db     *sql.DB
	cache  *Cache
	log    *zap.Logger
	apiKey string
	strict bool
}

// NewServer creates a new API server
func NewServer(engine *cracker.Engine, db *sql.DB, opts *Options) ServerInterface {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Server{
		engine: engine,
		db:     db,
		cache:  o.Cache,
		log:    o.Logger,
		apiKey: o.APIKey,
		strict: o.Strict,
	}
}

// CrackHash implements GET /crack/{hash}
func (s *Server) CrackHash(w http.ResponseWriter, r *http.Request, hash string) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
		return
	}

	sum, err := s.parse(hash)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.crack(r.Context(), hash, sum, false)
	if err != nil {
		s.log.Error("crack failed", zap.String("hash", hash), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to crack hash")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateCrack implements POST /cracks
func (s *Server) CreateCrack(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
		return
	}

	var req CrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Hash == "" {
		writeError(w, http.StatusBadRequest, "Hash is required")
		return
	}

	sum, err := s.parse(req.Hash)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	verify := req.Verify != nil && *req.Verify
	resp, err := s.crack(r.Context(), req.Hash, sum, verify)
	if err != nil {
		s.log.Error("crack failed", zap.String("hash", req.Hash), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to crack hash")
		return
	}

	createdAt := time.Now().UTC()
	id, err := InsertCrack(s.db, req.Hash, sum, resp.Candidates, resp.ElapsedMs, createdAt)
	if err != nil {
		s.log.Error("failed to record crack", zap.String("hash", req.Hash), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to record crack")
		return
	}
	resp.Id = &id
	resp.CreatedAt = &createdAt

	s.log.Info("crack recorded",
		zap.Stringer("id", id),
		zap.String("checksum", resp.Checksum),
		zap.Int("candidates", len(resp.Candidates)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// GetCrack implements GET /cracks/{id}
func (s *Server) GetCrack(w http.ResponseWriter, r *http.Request, id string) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
		return
	}

	crackID, err := uuid.Parse(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid crack ID")
		return
	}

	rec, err := GetCrackByID(s.db, crackID)
	if err != nil {
		s.log.Error("failed to fetch crack", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch crack")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Crack not found")
		return
	}

	writeJSON(w, http.StatusOK, recordResponse(rec))
}

// ListCracks implements GET /cracks
func (s *Server) ListCracks(w http.ResponseWriter, r *http.Request, params ListCracksParams) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
		return
	}

	limit := defaultListLimit
	if params.Limit != nil {
		limit = *params.Limit
	}
	if limit < 1 || limit > maxListLimit {
		writeError(w, http.StatusBadRequest, "Limit must be between 1 and 100")
		return
	}

	records, err := ListCracks(s.db, limit)
	if err != nil {
		s.log.Error("failed to list cracks", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list cracks")
		return
	}

	resp := make([]CrackResponse, len(records))
	for i := range records {
		resp[i] = recordResponse(&records[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetHealth implements GET /healthz
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Polynomial: cracker.FormatHash(s.engine.Polynomial()),
		MaxWidth:   s.engine.MaxWidth(),
		Entries:    s.engine.Entries(),
	})
}

func (s *Server) authorized(r *http.Request) bool {
	return s.apiKey == "" || r.Header.Get("api_key") == s.apiKey
}

func (s *Server) parse(hash string) (uint32, error) {
	if s.strict {
		return cracker.ParseHashStrict(hash)
	}
	return cracker.ParseHash(hash), nil
}

// crack runs the engine for sum, consulting the cache first.
func (s *Server) crack(ctx context.Context, hash string, sum uint32, verify bool) (CrackResponse, error) {
	start := time.Now()
	resp := CrackResponse{
		Hash:     hash,
		Checksum: cracker.FormatHash(sum),
	}

	key := cacheKey(sum, verify)
	if s.cache != nil {
		candidates, ok, err := s.cache.Get(key)
		if err != nil {
			s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			cached := true
			resp.Candidates = candidates
			resp.Cached = &cached
			resp.ElapsedMs = elapsedMs(start)
			return resp, nil
		}
	}

	ms, err := s.engine.Matches(ctx, sum)
	if err != nil {
		return CrackResponse{}, err
	}
	if verify {
		ms = s.engine.Verified(ms, sum)
	}

	resp.Candidates = toCandidates(ms)
	resp.ElapsedMs = elapsedMs(start)

	if s.cache != nil {
		if err := s.cache.Put(key, resp.Candidates); err != nil {
			s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

func toCandidates(ms []cracker.Match) []Candidate {
	out := make([]Candidate, len(ms))
	for i, m := range ms {
		out[i] = Candidate{
			Value: int64(m.Value),
			Width: m.Width,
			Field: m.Field(),
		}
	}
	return out
}

func recordResponse(rec *CrackRecord) CrackResponse {
	id := rec.ID
	createdAt := rec.CreatedAt
	candidates := rec.Candidates
	if candidates == nil {
		candidates = []Candidate{}
	}
	return CrackResponse{
		Id:         &id,
		Hash:       rec.Hash,
		Checksum:   cracker.FormatHash(rec.Checksum),
		Candidates: candidates,
		ElapsedMs:  rec.ElapsedMs,
		CreatedAt:  &createdAt,
	}
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// ErrorHandler reports parameter binding failures as JSON.
func ErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	var paramErr *InvalidParamFormatError
	if errors.As(err, &paramErr) {
		writeError(w, http.StatusBadRequest, "Invalid parameter "+paramErr.ParamName)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
