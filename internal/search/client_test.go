package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqguard/pkg/platform/circuit"
	"seqguard/pkg/platform/sentinel"
)

const resultsJSON = `{
  "BlastOutput2": [{
    "report": {"results": {"search": {"hits": [
      {
        "description": [{"id": "gb|MN908947.3|", "accession": "MN908947", "title": "Bacillus anthracis strain Ames chromosome"}],
        "hsps": [{"bit_score": 512.3, "evalue": 1e-140, "identity": 85, "align_len": 100, "query_from": 1, "query_to": 100, "hit_from": 2001, "hit_to": 2100}]
      },
      {
        "description": [{"id": "pat|US|1", "accession": "US1", "title": "Sequence 4 from patent US 1"}],
        "hsps": [{"bit_score": 80, "evalue": 0.01, "identity": 40, "align_len": 50, "query_from": 10, "query_to": 59, "hit_from": 1, "hit_to": 50}]
      }
    ]}}}
  }]
}`

// fakeQBLAST serves the three QBLAST calls. readyAfter is the number of
// WAITING answers before READY.
type fakeQBLAST struct {
	submitBody   string
	readyAfter   int32
	finalStatus  string
	results      string
	failRequests int32

	requests atomic.Int32
	polls    atomic.Int32
	lastForm atomic.Value
}

func (f *fakeQBLAST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := f.requests.Add(1)
	if n <= f.failRequests {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	if r.Method == http.MethodPost {
		_ = r.ParseForm()
		f.lastForm.Store(r.PostForm)
		_, _ = io.WriteString(w, f.submitBody)
		return
	}

	q := r.URL.Query()
	if q.Get("FORMAT_OBJECT") == "SearchInfo" {
		p := f.polls.Add(1)
		status := "READY"
		if f.finalStatus != "" {
			status = f.finalStatus
		}
		if p <= f.readyAfter {
			status = "WAITING"
		}
		_, _ = fmt.Fprintf(w, "<!--\nQBlastInfoBegin\n\tStatus=%s\nQBlastInfoEnd\n-->", status)
		return
	}
	_, _ = io.WriteString(w, f.results)
}

func newFake() *fakeQBLAST {
	return &fakeQBLAST{
		submitBody: "<!--QBlastInfoBegin\n    RID = R7X2K9Z1016\n    RTOE = 20\nQBlastInfoEnd-->",
		readyAfter: 2,
		results:    resultsJSON,
	}
}

func newTestClient(url string, opts ...Option) *Client {
	base := []Option{
		WithPollInterval(time.Millisecond),
		WithRetry(3, 0),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return NewClient(url, append(base, opts...)...)
}

func TestClient_Search(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	hits, err := newTestClient(srv.URL).Search(context.Background(), "ACGTACGT", DatabaseNucleotide)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "gb|MN908947.3|", hits[0].ID)
	assert.Equal(t, "MN908947", hits[0].Accession)
	assert.Equal(t, "Bacillus anthracis strain Ames chromosome", hits[0].Title)
	assert.Equal(t, 512.3, hits[0].Score)
	assert.Equal(t, 1e-140, hits[0].EValue)
	assert.Equal(t, 85.0, hits[0].IdentityPercentage)
	assert.Equal(t, 100, hits[0].AlignLength)
	assert.Equal(t, 2001, hits[0].HitFrom)
	assert.Equal(t, 80.0, hits[1].IdentityPercentage)

	assert.Equal(t, int32(3), fake.polls.Load())

	form, _ := fake.lastForm.Load().(url.Values)
	require.NotNil(t, form)
	assert.Equal(t, []string{"Put"}, form["CMD"])
	assert.Equal(t, []string{"blastn"}, form["PROGRAM"])
	assert.Equal(t, []string{"nt"}, form["DATABASE"])
	assert.Equal(t, []string{"ACGTACGT"}, form["QUERY"])
	assert.Equal(t, []string{"JSON2_S"}, form["FORMAT_TYPE"])
}

func TestClient_SubmitWithoutRID(t *testing.T) {
	fake := newFake()
	fake.submitBody = "<html>Too many requests</html>"
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), "ACGT", DatabasePatent)
	require.Error(t, err)
	assert.Equal(t, ErrorSubmitFailed, GetCategory(err))
	assert.False(t, IsRetryable(err))
}

func TestClient_JobStatusFailures(t *testing.T) {
	tests := []struct {
		status string
		want   ErrorCategory
	}{
		{"FAILED", ErrorJobFailed},
		{"UNKNOWN", ErrorJobExpired},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			fake := newFake()
			fake.readyAfter = 0
			fake.finalStatus = tt.status
			srv := httptest.NewServer(fake)
			defer srv.Close()

			_, err := newTestClient(srv.URL).Search(context.Background(), "ACGT", DatabasePatent)
			require.Error(t, err)
			assert.Equal(t, tt.want, GetCategory(err))
		})
	}

	t.Run("expired wraps sentinel", func(t *testing.T) {
		fake := newFake()
		fake.readyAfter = 0
		fake.finalStatus = "UNKNOWN"
		srv := httptest.NewServer(fake)
		defer srv.Close()

		_, err := newTestClient(srv.URL).Search(context.Background(), "ACGT", DatabasePatent)
		assert.ErrorIs(t, err, sentinel.ErrExpired)
	})
}

func TestClient_PollingIsBounded(t *testing.T) {
	fake := newFake()
	fake.readyAfter = 1000
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := newTestClient(srv.URL, WithMaxPollAttempts(4)).Search(context.Background(), "ACGT", DatabaseNucleotide)
	require.Error(t, err)
	assert.Equal(t, ErrorTimeout, GetCategory(err))
	assert.Equal(t, int32(4), fake.polls.Load())
}

func TestClient_PollingHonoursCancellation(t *testing.T) {
	fake := newFake()
	fake.readyAfter = 1000
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	client := newTestClient(srv.URL, WithPollInterval(5*time.Millisecond), WithMaxPollAttempts(10_000))
	_, err := client.Search(ctx, "ACGT", DatabaseNucleotide)
	require.Error(t, err)
	assert.Equal(t, ErrorTimeout, GetCategory(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	fake := newFake()
	fake.readyAfter = 0
	fake.failRequests = 2
	srv := httptest.NewServer(fake)
	defer srv.Close()

	hits, err := newTestClient(srv.URL).Search(context.Background(), "ACGT", DatabasePatent)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	// 2 failed + submit + 1 poll + results
	assert.Equal(t, int32(5), fake.requests.Load())
}

func TestClient_ExhaustedRetriesOpenBreaker(t *testing.T) {
	fake := newFake()
	fake.failRequests = 1_000
	srv := httptest.NewServer(fake)
	defer srv.Close()

	breaker := circuit.New("blast-test", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1))
	client := newTestClient(srv.URL, WithBreaker(breaker))

	_, err := client.Search(context.Background(), "ACGT", DatabasePatent)
	require.Error(t, err)
	assert.Equal(t, ErrorProviderOutage, GetCategory(err))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(3), fake.requests.Load())
	assert.True(t, breaker.IsOpen())

	_, err = client.Search(context.Background(), "ACGT", DatabasePatent)
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, int32(4), fake.requests.Load(), "open circuit sends a single probe")
}

func TestClient_BreakerClosesAfterProbeSuccess(t *testing.T) {
	fake := newFake()
	fake.readyAfter = 0
	srv := httptest.NewServer(fake)
	defer srv.Close()

	breaker := circuit.New("blast-test", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1))
	breaker.RecordFailure()
	require.True(t, breaker.IsOpen())

	_, err := newTestClient(srv.URL, WithBreaker(breaker)).Search(context.Background(), "ACGT", DatabasePatent)
	require.NoError(t, err)
	assert.False(t, breaker.IsOpen())
}

func TestClient_MalformedResultsYieldNoHits(t *testing.T) {
	fake := newFake()
	fake.readyAfter = 0
	fake.results = `{"BlastOutput2": "nope"`
	srv := httptest.NewServer(fake)
	defer srv.Close()

	hits, err := newTestClient(srv.URL).Search(context.Background(), "ACGT", DatabasePatent)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NotNil(t, hits)
}

func TestParseRID(t *testing.T) {
	rid, ok := parseRID([]byte("    RID = 6W508U25016\n"))
	assert.True(t, ok)
	assert.Equal(t, "6W508U25016", rid)

	rid, ok = parseRID([]byte("RID=ABC"))
	assert.True(t, ok)
	assert.Equal(t, "ABC", rid)

	_, ok = parseRID([]byte("no handle here"))
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusReady, parseStatus([]byte("Status=READY")))
	assert.Equal(t, StatusWaiting, parseStatus([]byte("Status=WAITING")))
	assert.Equal(t, StatusFailed, parseStatus([]byte("Status=FAILED")))
	assert.Equal(t, StatusUnknown, parseStatus([]byte("Status=UNKNOWN")))
	assert.Equal(t, StatusWaiting, parseStatus([]byte("")))
}

func TestIdentityPercentage(t *testing.T) {
	assert.Equal(t, 85.0, IdentityPercentage(85, 100))
	assert.Equal(t, 0.0, IdentityPercentage(5, 0))
}
