package trivia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/categories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`[{"id":11,"title":"math"},{"id":12,"title":"lit"},{"id":13,"title":"geo"}]`))
	})
	mux.HandleFunc("/category", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "11":
			_, _ = w.Write([]byte(`{"id":11,"title":"math","clues":[
				{"question":"2+2","answer":4},
				{"question":"<i>1+1</i>","answer":"2"},
				{"question":"","answer":"dropped"},
				{"question":"Fish &amp; chips?","answer":null}
			]}`))
		case "500":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCategoryIDs(t *testing.T) {
	c := NewClient(newAPI(t).URL+"/", WithRateLimit(100))
	ids, err := c.CategoryIDs(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []CategoryID{11, 12, 13}, ids)
}

func TestClientCategory(t *testing.T) {
	c := NewClient(newAPI(t).URL)
	d, err := c.Category(context.Background(), 11)
	require.NoError(t, err)

	assert.Equal(t, CategoryID(11), d.ID)
	assert.Equal(t, "math", d.Title)
	require.Len(t, d.Clues, 2)
	assert.Equal(t, "4", d.Clues[0].Answer)
	assert.Equal(t, "1+1", d.Clues[1].Question)
}

func TestClientErrors(t *testing.T) {
	api := newAPI(t)
	c := NewClient(api.URL)

	_, err := c.Category(context.Background(), 99)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = c.Category(context.Background(), 500)
	assert.ErrorIs(t, err, ErrRemoteServiceUnavailable)

	api.Close()
	_, err = c.CategoryIDs(context.Background(), 3)
	assert.ErrorIs(t, err, ErrRemoteServiceUnavailable)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Fish & chips", cleanText("  <b>Fish</b> &amp;\n chips "))
	assert.Equal(t, "", cleanText("<br/>"))
}

func TestOfflinePack(t *testing.T) {
	o, err := LoadOffline()
	require.NoError(t, err)

	ids, err := o.CategoryIDs(context.Background(), 100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(ids), 6)

	for _, id := range ids {
		d, err := o.Category(context.Background(), id)
		require.NoError(t, err)
		assert.NotEmpty(t, d.Title)
		assert.GreaterOrEqual(t, len(d.Clues), 5, "category %q", d.Title)
	}

	few, err := o.CategoryIDs(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, few, 2)

	_, err = o.Category(context.Background(), -1)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
