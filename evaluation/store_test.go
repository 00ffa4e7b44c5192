package evaluation

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "playground.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTest() *Test {
	rank := 1
	return &Test{
		Name:      "comparison",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Questions: []string{"What is Go?", "What is a channel?"},
		TotalCost: 0.025,
		Results: []ResponseRecord{
			{Provider: "openai", ModelID: "gpt-4-turbo-preview", QuestionIndex: 0, Response: "A language.", Rank: &rank, Cost: 0.02},
			{Provider: "ollama", ModelID: "mistral", QuestionIndex: 1, Response: "A pipe.", Cost: 0.005},
		},
	}
}

func TestStoreSaveAndList(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Save(context.Background(), sampleTest())
	assert.NoError(t, err)
	assert.NotEmpty(t, id)

	tests, err := store.List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, tests, 1)

	saved := tests[0]
	assert.Equal(t, id, saved.ID)
	assert.Equal(t, "comparison", saved.Name)
	assert.Equal(t, []string{"What is Go?", "What is a channel?"}, saved.Questions)
	assert.InDelta(t, 0.025, saved.TotalCost, 1e-9)
	assert.Len(t, saved.Results, 2)
	assert.Equal(t, "gpt-4-turbo-preview", saved.Results[0].ModelID)
	assert.NotNil(t, saved.Results[0].Rank)
	assert.Equal(t, 1, *saved.Results[0].Rank)
	assert.Nil(t, saved.Results[1].Rank)
}

func TestStoreListNewestFirst(t *testing.T) {
	store := newTestStore(t)

	older := sampleTest()
	older.Name = "older"
	newer := sampleTest()
	newer.Name = "newer"
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	_, err := store.Save(context.Background(), older)
	assert.NoError(t, err)
	_, err = store.Save(context.Background(), newer)
	assert.NoError(t, err)

	tests, err := store.List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, tests, 2)
	assert.Equal(t, "newer", tests[0].Name)
	assert.Equal(t, "older", tests[1].Name)
}

func TestStoreWriteCSV(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Save(context.Background(), sampleTest())
	assert.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, store.WriteCSV(context.Background(), &buf, id))

	out := buf.String()
	assert.Contains(t, out, "Test Name,Question,Provider,Model,Response,Rank,Cost")
	assert.Contains(t, out, "What is Go?")
	assert.Contains(t, out, "gpt-4-turbo-preview")
	assert.Contains(t, out, "0.020000")
}
