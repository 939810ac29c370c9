package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqguard/internal/analysis/handler"
	"seqguard/internal/search"
	dErrors "seqguard/pkg/domain-errors"
)

const reporterCassette = "TTCCTCATGCAATTCAAAACCATGTCCGTAATGTAGGCGAAATAGTAAACCATTTTACGGAGGATACCAAATTCCTCCTTATTCAGGACCTAACCTGAGGTAAACCAGGTCTCTCCGCCC"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScanFindsBundledPatent(t *testing.T) {
	out, err := execute(t, "", "scan", "ACGT"+reporterCassette+"ACGT")
	require.NoError(t, err)

	var resp handler.LocalAnalysisResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, len(reporterCassette)+8, resp.Sequence.Length)
	ids := make([]string, 0, len(resp.Local.Matches))
	for _, m := range resp.Local.Matches {
		ids = append(ids, m.EntryID)
	}
	assert.Contains(t, ids, "US-10435682-B2")
}

func TestScanReadsStdinAndFiles(t *testing.T) {
	fasta := ">query\n" + reporterCassette + "\n"

	out, err := execute(t, fasta, "scan", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"header": "query"`)

	path := filepath.Join(t.TempDir(), "query.fasta")
	require.NoError(t, os.WriteFile(path, []byte(fasta), 0o600))
	out, err = execute(t, "", "scan", "--in", path, "--pretty=false")
	require.NoError(t, err)
	assert.Contains(t, out, `"header":"query"`)
}

func TestScanRejectsEmptySequence(t *testing.T) {
	_, err := execute(t, "", "scan", ">header only\n")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestJurisdictions(t *testing.T) {
	out, err := execute(t, "", "jurisdictions")
	require.NoError(t, err)

	var resp handler.JurisdictionsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	codes := make([]string, 0, len(resp.Jurisdictions))
	for _, j := range resp.Jurisdictions {
		codes = append(codes, j.Code)
	}
	assert.Contains(t, codes, "GLOBAL")
	assert.Contains(t, codes, "US")
}

func TestRegistryFlagFromEnvironment(t *testing.T) {
	t.Setenv("SEQGUARD_REGISTRY", filepath.Join(t.TempDir(), "missing.json"))
	_, err := execute(t, "", "scan", "ACGT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")
}

const anthracisResults = `{"BlastOutput2":[{"report":{"results":{"search":{"hits":[
  {"description":[{"id":"gb|CP009541.1|","accession":"CP009541","title":"Bacillus anthracis strain Ames Ancestor chromosome"}],
   "hsps":[{"bit_score":900,"evalue":0,"identity":99,"align_len":100,"query_from":1,"query_to":100,"hit_from":1,"hit_to":100}]}
]}}}}]}`

func fakeQBLAST(t *testing.T, status string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = io.WriteString(w, "RID = CLI123\n")
			return
		}
		if r.URL.Query().Get("FORMAT_OBJECT") == "SearchInfo" {
			_, _ = fmt.Fprintf(w, "QBlastInfoBegin\n\tStatus=%s\nQBlastInfoEnd\n", status)
			return
		}
		_, _ = io.WriteString(w, anthracisResults)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeAgainstSearchService(t *testing.T) {
	srv := fakeQBLAST(t, "READY")

	out, err := execute(t, "", "analyze", "ACGTACGTACGTACGTACGT",
		"--blast-url", srv.URL,
		"--poll-interval", "1ms",
		"--jurisdiction", "us",
		"--cache", "none",
	)
	require.NoError(t, err)

	var resp handler.AnalysisResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "RED", string(resp.Risk.RiskLevel))
	assert.Equal(t, "US", resp.Compliance.CountryCode)
	assert.NotEmpty(t, resp.Compliance.Violations)
}

func TestAnalyzeSearchFailureExitCode(t *testing.T) {
	srv := fakeQBLAST(t, "FAILED")
	t.Setenv("SEQGUARD_BLAST_URL", srv.URL)
	t.Setenv("SEQGUARD_POLL_INTERVAL", "1ms")

	_, err := execute(t, "", "analyze", "ACGTACGTACGT")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, describe(err), "failed")
}

func TestAnalyzeDefaultsToNoCache(t *testing.T) {
	srv := fakeQBLAST(t, "READY")

	out, err := execute(t, "", "analyze", "ACGTACGTACGTACGTACGT",
		"--blast-url", srv.URL,
		"--poll-interval", "1ms",
	)
	require.NoError(t, err)
	assert.Contains(t, out, `"risk_level": "RED"`)

	c := &cli{v: viper.New()}
	next := search.NewClient(srv.URL)
	searcher, closeCache, err := c.withCache(context.Background(), next, nil)
	require.NoError(t, err)
	defer closeCache()
	assert.Same(t, next, searcher)
}

func TestAnalyzeRejectsProcessLocalCache(t *testing.T) {
	_, err := execute(t, "", "analyze", "ACGTACGTACGT", "--cache", "memory")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, err.Error(), "want redis or none")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(fmt.Errorf("unknown flag")))
	assert.Equal(t, 1, exitCode(dErrors.New(dErrors.CodeValidation, "bad")))
	assert.Equal(t, 2, exitCode(dErrors.New(dErrors.CodeUpstream, "down")))
	assert.Equal(t, 3, exitCode(dErrors.New(dErrors.CodeTimeout, "slow")))
}
