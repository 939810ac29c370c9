package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantSeq     string
		wantHeader  string
		wantSource  SourceType
		wantInvalid int
	}{
		{
			name:       "raw sequence is upper-cased",
			input:      "atgc gatc\n",
			wantSeq:    "ATGCGATC",
			wantHeader: RawHeader,
			wantSource: SourceRaw,
		},
		{
			name:       "fasta header and multi-line body",
			input:      ">seq1 test construct\nATGC\nGATC\r\nNNAT\n",
			wantSeq:    "ATGCGATCNNAT",
			wantHeader: "seq1 test construct",
			wantSource: SourceFASTA,
		},
		{
			name:       "leading whitespace before fasta marker",
			input:      "  \n>hdr\nACGT",
			wantSeq:    "ACGT",
			wantHeader: "hdr",
			wantSource: SourceFASTA,
		},
		{
			name:        "invalid characters are stripped and counted",
			input:       "ATXGU-C",
			wantSeq:     "ATGC",
			wantHeader:  RawHeader,
			wantSource:  SourceRaw,
			wantInvalid: 3,
		},
		{
			name:       "fasta with header only",
			input:      ">lonely header",
			wantSeq:    "",
			wantHeader: "lonely header",
			wantSource: SourceFASTA,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			assert.Empty(t, got.Error)
			assert.Equal(t, tt.wantSeq, got.Sequence)
			assert.Equal(t, tt.wantHeader, got.Header)
			assert.Equal(t, tt.wantSource, got.SourceType)
			assert.Equal(t, len(tt.wantSeq), got.Length)
			assert.Equal(t, tt.wantInvalid, got.InvalidCharCount)
			assert.False(t, got.CreatedAt.IsZero())
		})
	}
}

func TestParse_EmptyInput(t *testing.T) {
	got := Parse("")
	assert.Equal(t, ErrInvalidInput, got.Error)
	assert.True(t, got.Empty())
	assert.Zero(t, got.Length)
}

func TestParse_OnlyInvalidCharactersYieldsEmptySequence(t *testing.T) {
	got := Parse("xyz123")
	assert.True(t, got.Empty())
	assert.Equal(t, 6, got.InvalidCharCount)
	assert.Empty(t, got.Error)
}

func TestParseBytes_NonText(t *testing.T) {
	got := ParseBytes([]byte{0xff, 0xfe, 0x41})
	assert.Equal(t, ErrInvalidInput, got.Error)
	assert.True(t, got.Empty())
}

func TestParse_OutputAlphabet(t *testing.T) {
	got := Parse("acgtn RYKM acgtn *&^ 12")
	require.NotEmpty(t, got.Sequence)
	for _, r := range got.Sequence {
		assert.Contains(t, "ATGCN", string(r))
	}
}

func TestGCContent(t *testing.T) {
	assert.Equal(t, 0.0, GCContent(""))
	assert.Equal(t, 0.5, GCContent("ATGC"))
	assert.Equal(t, 1.0, GCContent("GGCC"))
	assert.InDelta(t, 0.25, Parse("AATTGCAA").GCContent, 1e-9)
}
