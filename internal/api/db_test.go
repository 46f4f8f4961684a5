package api

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertCrack(t *testing.T) {
	db := setupTestDB(t)
	createdAt := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	candidates := []Candidate{
		{Value: 42, Width: 5, Field: "00042"},
		{Value: 123456789, Width: 9, Field: "123456789"},
	}

	id, err := InsertCrack(db, "CBF43926", 0xcbf43926, candidates, 2.25, createdAt)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	rec, err := GetCrackByID(db, id)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "CBF43926", rec.Hash)
	assert.Equal(t, uint32(0xcbf43926), rec.Checksum)
	assert.Equal(t, candidates, rec.Candidates)
	assert.Equal(t, 2.25, rec.ElapsedMs)
	assert.True(t, createdAt.Equal(rec.CreatedAt), "created_at %v != %v", rec.CreatedAt, createdAt)
}

func TestInsertCrack_DBError(t *testing.T) {
	db := setupTestDB(t)
	db.Close()
	_, err := InsertCrack(db, "11", 0x11, nil, 0, time.Now())
	assert.Error(t, err)
}

func TestGetCrackByID(t *testing.T) {
	tests := []struct {
		name        string
		insert      bool
		closeDB     bool
		expectedErr bool
		found       bool
	}{
		{
			name:   "ExistingCrack",
			insert: true,
			found:  true,
		},
		{
			name:  "NonExistentCrack",
			found: false,
		},
		{
			name:        "DBError",
			closeDB:     true,
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			id := uuid.New()
			if tt.insert {
				var err error
				id, err = InsertCrack(db, "11", 0x11, nil, 0, time.Now())
				require.NoError(t, err)
			}
			if tt.closeDB {
				db.Close()
			}
			rec, err := GetCrackByID(db, id)
			if tt.expectedErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				if tt.found {
					require.NotNil(t, rec)
					assert.Equal(t, id, rec.ID)
				} else {
					assert.Nil(t, rec)
				}
			}
		})
	}
}

func TestListCracks(t *testing.T) {
	db := setupTestDB(t)

	records, err := ListCracks(db, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, hash := range []string{"01", "02", "03", "04"} {
		_, err := InsertCrack(db, hash, uint32(i+1), nil, 0, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	records, err = ListCracks(db, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "04", records[0].Hash)
	assert.Equal(t, "03", records[1].Hash)
	assert.Equal(t, "02", records[2].Hash)
}

func TestListCracks_DBError(t *testing.T) {
	db := setupTestDB(t)
	db.Close()
	_, err := ListCracks(db, 10)
	assert.Error(t, err)
}

func TestCreateSchema_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, CreateSchema(db))
}
