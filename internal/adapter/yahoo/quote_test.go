package yahoo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajdeep108/smartifyLLM/internal/adapter/yahoo"
)

func TestClient_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
			w.Write([]byte(`{"chart":{"result":[{"meta":{
				"symbol":"AAPL","currency":"USD",
				"regularMarketPrice":187.33,"regularMarketTime":1717342200
			}}],"error":null}}`))
		}))
		defer ts.Close()

		c := yahoo.NewClient()
		c.SetBaseURL(ts.URL)

		quote, err := c.Lookup(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "AAPL", quote.Symbol)
		assert.Equal(t, 187.33, quote.Price)
		assert.Equal(t, "USD", quote.Currency)
		assert.Equal(t, "finance.yahoo.com", quote.Source)
		assert.Equal(t, int64(1717342200), quote.AsOf.Unix())
	})

	t.Run("Unknown Symbol", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Not Found","description":"No data found"}}}`))
		}))
		defer ts.Close()

		c := yahoo.NewClient()
		c.SetBaseURL(ts.URL)

		_, err := c.Lookup(ctx, "NOPE")
		assert.Error(t, err)
	})

	t.Run("HTTP Error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer ts.Close()

		c := yahoo.NewClient()
		c.SetBaseURL(ts.URL)

		_, err := c.Lookup(ctx, "AAPL")
		assert.Error(t, err)
	})

	t.Run("Provider Unreachable", func(t *testing.T) {
		c := yahoo.NewClient()
		c.SetBaseURL("http://127.0.0.1:1")
		_, err := c.Lookup(ctx, "AAPL")
		assert.Error(t, err)
	})
}
