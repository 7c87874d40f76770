package universe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal2001/BatchGetSymbols/pkg/config"
	"github.com/hal2001/BatchGetSymbols/pkg/httputil"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

const sp500HTML = `<html><body>
<table class="wikitable sortable" id="constituents">
<tbody>
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th><th>GICS Sub-Industry</th><th>Headquarters Location</th></tr>
<tr><td><a href="#">MMM</a></td><td><a href="#">3M</a></td><td>Industrials</td><td>Industrial Conglomerates</td><td>Saint Paul, Minnesota</td></tr>
<tr><td><a href="#">BRK.B</a></td><td><a href="#">Berkshire Hathaway</a></td><td>Financials</td><td>Multi-Sector Holdings</td><td>Omaha, Nebraska</td></tr>
<tr><td>BF.B</td><td>Brown–Forman</td><td>Consumer Staples</td><td>Distillers &amp; Vintners</td><td>Louisville, Kentucky</td></tr>
</tbody>
</table>
<table class="wikitable" id="changes"><tbody><tr><td>X</td><td>Y</td><td>Z</td><td>W</td></tr></tbody></table>
</body></html>`

const ftseHTML = `<html><body>
<table class="wikitable sortable" id="constituents">
<tbody>
<tr><th>Company</th><th>Ticker</th><th>FTSE industry classification benchmark sector<sup>[1]</sup></th></tr>
<tr><td>3i</td><td>III</td><td>Financial Services</td></tr>
<tr><td>BT Group</td><td>BT.A</td><td>Telecommunications</td></tr>
<tr><td>  Rolls-Royce
 Holdings </td><td>RR.</td><td>Aerospace &amp; Defence</td></tr>
</tbody>
</table>
</body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wiki/List_of_S&P_500_companies":
			w.Write([]byte(sp500HTML))
		case "/wiki/FTSE_100_Index":
			w.Write([]byte(ftseHTML))
		case "/wiki/Empty":
			w.Write([]byte("<html></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(url string) *Client {
	return NewClient(httputil.New(&config.Config{}, logger.Nop()), logger.Nop(), url)
}

func TestFetchSP500(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	members, err := newTestClient(server.URL).FetchSP500(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 3)

	assert.Equal(t, Constituent{
		Ticker:      "MMM",
		Symbol:      "MMM",
		Company:     "3M",
		Sector:      "Industrials",
		SubIndustry: "Industrial Conglomerates",
	}, members[0])
	assert.Equal(t, "BRK-B", members[1].Ticker)
	assert.Equal(t, "BRK.B", members[1].Symbol)
	assert.Equal(t, []string{"MMM", "BRK-B", "BF-B"}, Tickers(members))
}

func TestFetchFTSE100(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	members, err := newTestClient(server.URL).Fetch(context.Background(), "FTSE100")
	require.NoError(t, err)
	require.Len(t, members, 3)

	assert.Equal(t, "III.L", members[0].Ticker)
	assert.Equal(t, "3i", members[0].Company)
	assert.Equal(t, "Financial Services", members[0].Sector)
	assert.Equal(t, "BT-A.L", members[1].Ticker)
	assert.Equal(t, "RR.L", members[2].Ticker)
	assert.Equal(t, "Rolls-Royce Holdings", members[2].Company)
}

func TestFetch_Errors(t *testing.T) {
	server := newServer(t)
	defer server.Close()
	client := newTestClient(server.URL)

	_, err := client.Fetch(context.Background(), "dax")
	assert.ErrorContains(t, err, "unknown index")

	client.baseURL = server.URL + "/missing"
	_, err = client.FetchSP500(context.Background())
	assert.ErrorContains(t, err, "unexpected status code: 404")
}

func TestParse_NoTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>maintenance</p></body></html>"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchSP500(context.Background())
	assert.ErrorContains(t, err, "constituents table not found")

	_, err = newTestClient(server.URL).FetchFTSE100(context.Background())
	assert.ErrorContains(t, err, "constituents table not found")
}

type fakeCompositionCache struct {
	data   map[string][]byte
	ttl    time.Duration
	getErr error
}

func (f *fakeCompositionCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCompositionCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	f.ttl = ttl
	return nil
}

func TestFetch_Cache(t *testing.T) {
	var hits int32
	inner := newServer(t)
	defer inner.Close()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		inner.Config.Handler.ServeHTTP(w, r)
	}))
	defer server.Close()

	store := &fakeCompositionCache{data: map[string][]byte{}}
	client := newTestClient(server.URL).WithCache(store, time.Hour)

	first, err := client.Fetch(context.Background(), "SP500")
	require.NoError(t, err)
	second, err := client.Fetch(context.Background(), "sp500")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Contains(t, store.data, "universe:sp500")
	assert.Equal(t, time.Hour, store.ttl)
}

func TestFetch_CacheReadErrorFallsBack(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	store := &fakeCompositionCache{data: map[string][]byte{}, getErr: errors.New("redis down")}
	members, err := newTestClient(server.URL).WithCache(store, time.Hour).Fetch(context.Background(), "ftse100")
	require.NoError(t, err)
	assert.Len(t, members, 3)
	assert.Contains(t, store.data, "universe:ftse100")
}
