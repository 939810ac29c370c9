// Command seqguard screens DNA and RNA sequences from the command line.
//
//	seqguard scan ATGC...                 # bundled registry only, no network
//	seqguard analyze -i query.fasta -j US # remote patent and organism search
//	seqguard jurisdictions
//
// Every flag can also be set as SEQGUARD_<FLAG> with dashes as underscores,
// for example SEQGUARD_BLAST_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	dErrors "seqguard/pkg/domain-errors"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seqguard: %s\n", describe(err))
		os.Exit(exitCode(err))
	}
}

// exitCode is 1 for bad input or usage, 2 for remote search failures and 3
// when the analysis ran out of time.
func exitCode(err error) int {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		return 1
	}
	switch de.Code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		return 1
	case dErrors.CodeTimeout:
		return 3
	default:
		return 2
	}
}

func describe(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code != dErrors.CodeInternal {
		return de.Message
	}
	return err.Error()
}
