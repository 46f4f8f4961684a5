package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"crc32-rainbow/internal/cracker"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testEngine = sync.OnceValue(func() *cracker.Engine { return cracker.MustNew(nil) })

// setupTestDB creates a temporary SQLite database for testing
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Create a temporary file for the database
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	// Initialize database
	db, err := InitDB(dbPath)
	require.NoError(t, err)
	require.NoError(t, CreateSchema(db))

	// Close database when test is done
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// fieldHash returns the hex checksum of n written as a zero-padded field
func fieldHash(n uint32, width int) string {
	return cracker.FormatHash(crc32.ChecksumIEEE(fmt.Appendf(nil, "%0*d", width, n)))
}

func TestServer_CreateCrack(t *testing.T) {
	verify := true
	tests := []struct {
		name           string
		apiKey         string
		strict         bool
		requestBody    any
		closeDB        bool
		expectedStatus int
		expectedError  string
		expected       *Candidate
	}{
		{
			name:           "Success",
			apiKey:         "secret-api-key",
			requestBody:    CrackRequest{Hash: fieldHash(12345, 5)},
			expectedStatus: http.StatusOK,
			expected:       &Candidate{Value: 12345, Width: 5, Field: "12345"},
		},
		{
			name:           "Success_Verify",
			apiKey:         "secret-api-key",
			requestBody:    CrackRequest{Hash: fieldHash(12345678, 8), Verify: &verify},
			expectedStatus: http.StatusOK,
			expected:       &Candidate{Value: 12345678, Width: 8, Field: "12345678"},
		},
		{
			name:           "Unauthorized_MissingKey",
			apiKey:         "",
			requestBody:    CrackRequest{Hash: "11"},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid or missing API key",
		},
		{
			name:           "Unauthorized_InvalidKey",
			apiKey:         "wrong-key",
			requestBody:    CrackRequest{Hash: "11"},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid or missing API key",
		},
		{
			name:           "BadRequest_InvalidJSON",
			apiKey:         "secret-api-key",
			requestBody:    "{invalid-json",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "BadRequest_EmptyHash",
			apiKey:         "secret-api-key",
			requestBody:    CrackRequest{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Hash is required",
		},
		{
			name:           "BadRequest_StrictInvalidHash",
			apiKey:         "secret-api-key",
			strict:         true,
			requestBody:    CrackRequest{Hash: "not-hex"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid hash",
		},
		{
			name:           "Success_LenientInvalidHash",
			apiKey:         "secret-api-key",
			requestBody:    CrackRequest{Hash: "not-hex"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "InternalServerError_DBError",
			apiKey:         "secret-api-key",
			requestBody:    CrackRequest{Hash: "11"},
			closeDB:        true,
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Failed to record crack",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			if tt.closeDB {
				db.Close()
			}
			server := NewServer(testEngine(), db, &Options{
				APIKey: "secret-api-key",
				Strict: tt.strict,
				Logger: zaptest.NewLogger(t),
			})

			// Create request body
			var body []byte
			var err error
			if reqStr, ok := tt.requestBody.(string); ok {
				body = []byte(reqStr)
			} else {
				body, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/cracks", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.apiKey != "" {
				req.Header.Set("api_key", tt.apiKey)
			}

			w := httptest.NewRecorder()

			s := server.(*Server)
			s.CreateCrack(w, req)

			resp := w.Result()
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedError != "" {
				var errResp map[string]string
				err := json.NewDecoder(resp.Body).Decode(&errResp)
				require.NoError(t, err)
				assert.Contains(t, errResp["error"], tt.expectedError)
			} else if tt.expectedStatus == http.StatusOK {
				var crackResp CrackResponse
				err := json.NewDecoder(resp.Body).Decode(&crackResp)
				require.NoError(t, err)
				assert.NotNil(t, crackResp.Id)
				assert.NotNil(t, crackResp.CreatedAt)
				assert.NotNil(t, crackResp.Candidates)
				if tt.expected != nil {
					assert.Contains(t, crackResp.Candidates, *tt.expected)
				}
				if req, ok := tt.requestBody.(CrackRequest); ok && req.Verify != nil {
					sum := cracker.ParseHash(req.Hash)
					for _, c := range crackResp.Candidates {
						m := cracker.Match{Value: uint32(c.Value), Width: c.Width}
						assert.True(t, testEngine().Verify(m, sum), "unverified candidate %+v", c)
					}
				}
			}
		})
	}
}

func TestServer_CrackHash(t *testing.T) {
	db := setupTestDB(t)
	cache, err := OpenCache(time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	server := NewServer(testEngine(), db, &Options{Cache: cache})
	s := server.(*Server)

	hash := fieldHash(987654321, 9)
	crack := func() CrackResponse {
		req := httptest.NewRequest(http.MethodGet, "/crack/"+hash, nil)
		w := httptest.NewRecorder()
		s.CrackHash(w, req, hash)

		resp := w.Result()
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var crackResp CrackResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&crackResp))
		return crackResp
	}

	first := crack()
	assert.Nil(t, first.Cached)
	assert.Nil(t, first.Id, "GET results are not recorded")
	assert.Equal(t, hash, first.Checksum)
	assert.Contains(t, first.Candidates, Candidate{Value: 987654321, Width: 9, Field: "987654321"})

	second := crack()
	require.NotNil(t, second.Cached)
	assert.True(t, *second.Cached)
	assert.Equal(t, first.Candidates, second.Candidates)

	records, err := ListCracks(db, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestServer_CrackHash_Unauthorized(t *testing.T) {
	server := NewServer(testEngine(), setupTestDB(t), &Options{APIKey: "secret-api-key"})
	s := server.(*Server)

	req := httptest.NewRequest(http.MethodGet, "/crack/11", nil)
	w := httptest.NewRecorder()
	s.CrackHash(w, req, "11")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_GetCrack(t *testing.T) {
	tests := []struct {
		name           string
		id             func(t *testing.T, db *sql.DB) string
		closeDB        bool
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Found",
			id: func(t *testing.T, db *sql.DB) string {
				id, err := InsertCrack(db, "11", 0x11, []Candidate{{Value: 42, Width: 2, Field: "42"}}, 1.5, time.Now())
				require.NoError(t, err)
				return id.String()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "NotFound",
			id:             func(*testing.T, *sql.DB) string { return "8f0c7b4e-6a53-4a4e-9b8a-2f6f3f0e9d11" },
			expectedStatus: http.StatusNotFound,
			expectedError:  "Crack not found",
		},
		{
			name:           "BadRequest_InvalidID",
			id:             func(*testing.T, *sql.DB) string { return "not-a-uuid" },
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid crack ID",
		},
		{
			name:           "InternalServerError_DBError",
			id:             func(*testing.T, *sql.DB) string { return "8f0c7b4e-6a53-4a4e-9b8a-2f6f3f0e9d11" },
			closeDB:        true,
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Failed to fetch crack",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			id := tt.id(t, db)
			if tt.closeDB {
				db.Close()
			}

			server := NewServer(testEngine(), db, nil)
			s := server.(*Server)

			req := httptest.NewRequest(http.MethodGet, "/cracks/"+id, nil)
			w := httptest.NewRecorder()
			s.GetCrack(w, req, id)

			resp := w.Result()
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedError != "" {
				var errResp ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
				assert.Equal(t, tt.expectedError, errResp.Error)
				return
			}

			var crackResp CrackResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&crackResp))
			require.NotNil(t, crackResp.Id)
			assert.Equal(t, id, crackResp.Id.String())
			assert.Equal(t, "00000011", crackResp.Checksum)
			assert.Equal(t, []Candidate{{Value: 42, Width: 2, Field: "42"}}, crackResp.Candidates)
		})
	}
}

func TestServer_ListCracks(t *testing.T) {
	limit := func(n int) *int { return &n }

	tests := []struct {
		name           string
		limit          *int
		closeDB        bool
		expectedCount  int
		expectedStatus int
	}{
		{
			name:           "Default",
			expectedCount:  3, // We seeded 3 cracks
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Limited",
			limit:          limit(2),
			expectedCount:  2,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "BadRequest_Zero",
			limit:          limit(0),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "BadRequest_TooLarge",
			limit:          limit(101),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "InternalServerError_DBError",
			closeDB:        true,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			for i, hash := range []string{"aa", "bb", "cc"} {
				_, err := InsertCrack(db, hash, cracker.ParseHash(hash), nil, 1, base.Add(time.Duration(i)*time.Minute))
				require.NoError(t, err)
			}
			if tt.closeDB {
				db.Close()
			}

			server := NewServer(testEngine(), db, nil)
			s := server.(*Server)

			req := httptest.NewRequest(http.MethodGet, "/cracks", nil)
			w := httptest.NewRecorder()
			s.ListCracks(w, req, ListCracksParams{Limit: tt.limit})

			resp := w.Result()
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var cracks []CrackResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&cracks))
				require.Len(t, cracks, tt.expectedCount)
				assert.Equal(t, "cc", cracks[0].Hash, "newest crack first")
				assert.Equal(t, "bb", cracks[1].Hash)
				assert.NotNil(t, cracks[0].Candidates)
			}
		})
	}
}

func TestHandler_Routes(t *testing.T) {
	db := setupTestDB(t)
	server := NewServer(testEngine(), db, nil)
	h := HandlerWithOptions(server, ChiServerOptions{
		BaseRouter:       chi.NewRouter(),
		ErrorHandlerFunc: ErrorHandler,
	})

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"CrackHash", http.MethodGet, "/crack/" + fieldHash(4711, 4), "", http.StatusOK},
		{"CreateCrack", http.MethodPost, "/cracks", `{"hash":"11"}`, http.StatusOK},
		{"ListCracks", http.MethodGet, "/cracks?limit=5", "", http.StatusOK},
		{"ListCracks_BadLimit", http.MethodGet, "/cracks?limit=many", "", http.StatusBadRequest},
		{"GetCrack_Unknown", http.MethodGet, "/cracks/8f0c7b4e-6a53-4a4e-9b8a-2f6f3f0e9d11", "", http.StatusNotFound},
		{"GetHealth", http.MethodGet, "/healthz", "", http.StatusOK},
		{"UnknownRoute", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestServer_GetHealth(t *testing.T) {
	server := NewServer(testEngine(), nil, nil)
	s := server.(*Server)

	w := httptest.NewRecorder()
	s.GetHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, HealthResponse{
		Status:     "ok",
		Polynomial: "edb88320",
		MaxWidth:   9,
		Entries:    100000,
	}, health)
}
