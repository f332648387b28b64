package main

import (
	"fmt"
	"sort"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/crawl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	deps.Coordinator.Events = func(ev crawl.Event) {
		switch ev.Type {
		case crawl.EventPageVisited:
			fmt.Fprintf(deps.Stdout, "  page %s\n", ev.URL)
		case crawl.EventStateChanged:
			if ev.State == crawl.StateIndexed {
				fmt.Fprintf(deps.Stdout, "  indexed %s\n", ev.URL)
			}
		case crawl.EventFailed:
			fmt.Fprintf(deps.Stderr, "  fail %s: %s\n", ev.URL, docdex.ErrorMessage(ev.Err))
		}
	}

	summary, err := deps.Coordinator.Run(deps.Ctx, c.URL)
	if summary != nil {
		printSummary(deps, summary)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}
	return nil
}

func printSummary(deps *Dependencies, s *crawl.Summary) {
	fmt.Fprintf(deps.Stdout, "\nCrawl finished:\n")
	fmt.Fprintf(deps.Stdout, "  pages visited: %d\n", s.PagesVisited)
	fmt.Fprintf(deps.Stdout, "  discovered:    %d\n", s.Discovered)
	fmt.Fprintf(deps.Stdout, "  downloaded:    %d\n", s.Downloaded)
	fmt.Fprintf(deps.Stdout, "  reused:        %d\n", s.Reused)
	fmt.Fprintf(deps.Stdout, "  indexed:       %d\n", s.Indexed)
	fmt.Fprintf(deps.Stdout, "  skipped:       %d\n", s.Skipped)
	fmt.Fprintf(deps.Stdout, "  failed:        %d\n", s.Failed)

	if len(s.FailedKinds) > 0 {
		kinds := make([]string, 0, len(s.FailedKinds))
		for kind := range s.FailedKinds {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		fmt.Fprintf(deps.Stdout, "\nFailures by kind:\n")
		for _, kind := range kinds {
			fmt.Fprintf(deps.Stdout, "  %s: %d\n", kind, s.FailedKinds[kind])
		}
	}
}
