package main

import (
	"fmt"

	"github.com/fwojciec/docdex"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	results, err := deps.Matcher.Match(deps.Ctx, c.Query, docdex.MatchMode(c.Mode), c.Limit, c.Offset)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No matches.")
		return nil
	}

	for i, r := range results {
		doc, err := deps.Documents.FindDocumentByID(deps.Ctx, r.DocumentID)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
			return err
		}
		title := doc.Title
		if title == "" {
			title = doc.SourceURL
		}
		fmt.Fprintf(deps.Stdout, "%d. %s (score %.3f, page %d)\n", c.Offset+i+1, title, r.Score, r.Page)
		fmt.Fprintf(deps.Stdout, "   %s\n", doc.SourceURL)
		if r.Snippet != "" {
			fmt.Fprintf(deps.Stdout, "   …%s…\n", r.Snippet)
		}
	}
	return nil
}
