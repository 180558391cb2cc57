package checklist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agalitsyn/checklist-bot/internal/checklist"
	"github.com/agalitsyn/checklist-bot/internal/model"
)

func TestEncodeCollection(t *testing.T) {
	b, err := checklist.EncodeCollection(model.TaskCollection{
		{ID: 1700000000000, Title: "Buy milk", Status: model.TaskStatusActive},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1700000000000,"title":"Buy milk","status":"active"}]`, string(b))
}

func TestDecodeCollection(t *testing.T) {
	c, err := checklist.DecodeCollection([]byte(`[
		{"id": 1, "title": "a", "status": "pending"},
		{"id": 2, "title": "b", "status": "done"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, model.TaskCollection{
		{ID: 1, Title: "a", Status: model.TaskStatusPending},
		{ID: 2, Title: "b", Status: model.TaskStatusDone},
	}, c)

	c, err = checklist.DecodeCollection([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Empty(t, c)
}

func TestDecodeCollection_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantPath string
	}{
		{name: "syntax", input: `[{"id":1,`},
		{name: "null", input: `null`},
		{name: "object", input: `{"id":1,"title":"a","status":"pending"}`},
		{name: "legacy status", input: `[{"id":1,"title":"a","status":"to do"}]`, wantPath: "[0].status"},
		{name: "fractional id", input: `[{"id":1.5,"title":"a","status":"pending"}]`, wantPath: "[0].id"},
		{name: "string id", input: `[{"id":"1","title":"a","status":"pending"}]`, wantPath: "[0].id"},
		{name: "empty title", input: `[{"id":1,"title":"","status":"pending"}]`, wantPath: "[0].title"},
		{name: "missing title", input: `[{"id":1,"status":"pending"}]`, wantPath: "[0]"},
		{name: "extra member", input: `[{"id":1,"title":"a","status":"pending","state":"doing"}]`, wantPath: "[0]"},
		{name: "second item", input: `[{"id":1,"title":"a","status":"pending"},{"id":2,"title":"b","status":"completed"}]`, wantPath: "[1].status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := checklist.DecodeCollection([]byte(tt.input))
			require.Error(t, err)
			if tt.wantPath == "" {
				return
			}
			var serr *checklist.SchemaError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.wantPath, serr.Path)
		})
	}
}
