package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/testutil"
)

func TestProgressBar_ForwardsToStore(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	upload := &model.Upload{
		ID:         "upload-1",
		UserID:     "user-1",
		FileName:   "march.csv",
		Status:     model.UploadProcessing,
		TotalItems: 10,
	}
	require.NoError(t, db.Storage.CreateUpload(ctx, upload))

	var out bytes.Buffer
	bar := NewProgressBar(&out, db.Storage)

	require.NoError(t, bar.IncrementProcessed(ctx, "upload-1", 4))
	require.NoError(t, bar.IncrementProcessed(ctx, "upload-1", 6))
	bar.Finish()

	got, err := db.Storage.GetUpload(ctx, "upload-1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.ProcessedItems)
	assert.Contains(t, out.String(), "Categorizing transactions")
}

func TestProgressBar_UnknownUpload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	bar := NewProgressBar(&bytes.Buffer{}, db.Storage)

	err := bar.IncrementProcessed(context.Background(), "missing", 1)
	assert.Error(t, err)
}

func TestProgressBar_FinishWithoutStart(t *testing.T) {
	bar := NewProgressBar(&bytes.Buffer{}, nil)
	assert.NotPanics(t, bar.Finish)
}
