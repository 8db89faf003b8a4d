package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchSubject(t *testing.T) {
	t.Run("decodes works and optional fields", func(t *testing.T) {
		var gotPath, gotQuery, gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"name": "Education technology",
				"work_count": 3,
				"works": [
					{"title": "A", "authors": [{"name": "Ann"}], "first_publish_year": 2001, "edition_count": 4},
					{"title": "B"}
				]
			}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "subjectview-test", time.Second)
		res, err := c.FetchSubject(context.Background(), "education_technology", 50)
		require.NoError(t, err)

		assert.Equal(t, "/subjects/education_technology.json", gotPath)
		assert.Equal(t, "limit=50", gotQuery)
		assert.Equal(t, "subjectview-test", gotUA)
		assert.Equal(t, "Education technology", res.Name)
		require.Len(t, res.Works, 2)
		assert.Equal(t, "Ann", res.Works[0].Authors[0].Name)
		require.NotNil(t, res.Works[0].FirstPublishYear)
		assert.Equal(t, 2001, *res.Works[0].FirstPublishYear)
		assert.Nil(t, res.Works[1].FirstPublishYear)
		assert.Nil(t, res.Works[1].EditionCount)
		assert.Empty(t, res.Works[1].Authors)
	})

	t.Run("non-success status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "ua", time.Second)
		_, err := c.FetchSubject(context.Background(), "x", 10)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("invalid json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "ua", time.Second)
		_, err := c.FetchSubject(context.Background(), "x", 10)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("missing works field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"name": "x"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "ua", time.Second)
		_, err := c.FetchSubject(context.Background(), "x", 10)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("empty works is valid", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"works": []}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "ua", time.Second)
		res, err := c.FetchSubject(context.Background(), "x", 10)
		require.NoError(t, err)
		assert.Empty(t, res.Works)
	})

	t.Run("unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		base := srv.URL
		srv.Close()

		c := NewClient(base, "ua", time.Second)
		_, err := c.FetchSubject(context.Background(), "x", 10)
		assert.Error(t, err)
	})
}
