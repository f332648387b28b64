package main

import (
	"fmt"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/crawl"
)

// Run executes the recrawl command.
func (c *RecrawlCmd) Run(deps *Dependencies) error {
	normalized, err := crawl.Normalize(c.URL, nil)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: invalid URL %q\n", c.URL)
		return docdex.Errorf(docdex.EINVALID, "invalid URL %q", c.URL)
	}

	if err := deps.Frontier.ResetEntry(deps.Ctx, normalized); err != nil {
		if docdex.ErrorCode(err) == docdex.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: %q has not been seen by any crawl\n", normalized)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		}
		return err
	}

	fmt.Fprintf(deps.Stdout, "Re-queued %s; run 'docdex crawl' to process it.\n", normalized)
	return nil
}
