// Package docdex implements a crawl-to-index pipeline for a corpus of
// documents published on a public disclosures site. It discovers document
// URLs from listing pages, downloads them politely (robots.txt plus per-host
// rate limits), extracts text from PDF/DOCX/HTML/plain-text (optionally OCR),
// indexes the text for full-text search, and answers keyword, regex,
// wildcard, fuzzy and semantic queries against the committed index.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency or concern (e.g., sqlite/, http/, extract/).
// The package has no UI: a front end drives it through the crawl control
// surface (crawl.Coordinator) and the search surface (match.Engine).
package docdex
