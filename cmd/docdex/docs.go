package main

import (
	"fmt"

	"github.com/fwojciec/docdex"
)

// Run executes the docs command.
func (c *DocsCmd) Run(deps *Dependencies) error {
	filter := docdex.DocumentFilter{Limit: c.Limit}
	if c.Status != "" {
		filter.ParseStatus = &c.Status
	}

	docs, err := deps.Documents.FindDocuments(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	if len(docs) == 0 {
		fmt.Fprintln(deps.Stdout, "No documents.")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Documents (%d):\n\n", len(docs))
	for i, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.SourceURL
		}
		state := doc.ParseStatus
		if doc.Indexed {
			state = "indexed"
		}
		fmt.Fprintf(deps.Stdout, "  %d. [%s/%s] %s\n     %s\n", i+1, doc.Format, state, title, doc.SourceURL)
		if doc.ParseError != "" {
			fmt.Fprintf(deps.Stdout, "     parse error: %s\n", doc.ParseError)
		}
		if c.Aliases {
			aliases, err := deps.Documents.FindAliases(deps.Ctx, doc.ID)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
				return err
			}
			for _, alias := range aliases {
				if alias != doc.SourceURL {
					fmt.Fprintf(deps.Stdout, "     alias: %s\n", alias)
				}
			}
		}
	}
	return nil
}
