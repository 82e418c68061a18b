package contact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func full() Fields {
	return Fields{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Feedback",
		Message: "Works great on my walk to work.",
	}
}

func TestSubmitIncomplete(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Fields)
	}{
		{"empty form", func(f *Fields) { *f = Fields{} }},
		{"missing name", func(f *Fields) { f.Name = "" }},
		{"missing email", func(f *Fields) { f.Email = "" }},
		{"missing subject", func(f *Fields) { f.Subject = "" }},
		{"blank message", func(f *Fields) { f.Message = "   " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := full()
			tt.mutate(&fields)

			form := NewForm(nil)
			form.Set(fields)

			inq, err := form.Submit()
			assert.Nil(t, inq)
			assert.ErrorIs(t, err, ErrIncomplete)
			assert.Equal(t, "Please fill out all fields.", err.Error())
			assert.Equal(t, fields, form.Fields(), "fields are kept on failure")
		})
	}
}

func TestSubmitClearsFields(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "inquiries.json"))
	require.NoError(t, err)

	form := NewForm(store)
	form.Set(full())

	inq, err := form.Submit()
	require.NoError(t, err)
	assert.NotEmpty(t, inq.ID)
	assert.Equal(t, full(), inq.Fields)
	assert.Equal(t, Fields{}, form.Fields())
	assert.Equal(t, 1, store.Count())
	assert.Equal(t, "Your inquiry has been submitted!", PromptSubmitted)
}

func TestJSONStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "inquiries.json")
	store, err := NewJSONStore(path)
	require.NoError(t, err)

	form := NewForm(store)
	form.Set(full())
	first, err := form.Submit()
	require.NoError(t, err)

	second := full()
	second.Subject = "Second"
	form.Set(second)
	_, err = form.Submit()
	require.NoError(t, err)

	reopened, err := NewJSONStore(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Count())

	list, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.Contains(t, ids, first.ID)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestJSONStoreRejectsMissingID(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "inquiries.json"))
	require.NoError(t, err)
	assert.Error(t, store.Save(&Inquiry{}))
	assert.Equal(t, 0, store.Count())
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inquiries.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewJSONStore(path)
	assert.Error(t, err)
}
