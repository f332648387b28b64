package crawl

import (
	"context"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/fs"
)

// Downloader turns a candidate document URL into a stored Document. Storage
// is content-addressed: two URLs resolving to identical bytes collapse to
// one Document, the second URL becoming an alias.
type Downloader struct {
	Fetcher   docdex.Fetcher
	Documents docdex.DocumentService
	Blobs     docdex.BlobStore
}

// Download fetches the entry's URL and persists the result. The reused
// result is true when no new blob was stored: the content was already known
// (by hash) or the server answered 304 to a conditional request.
//
// A failed or interrupted transfer creates no Document; the caller leaves
// the frontier entry pending for retry.
func (d *Downloader) Download(ctx context.Context, entry *docdex.FrontierEntry) (doc *docdex.Document, reused bool, err error) {
	req := docdex.FetchRequest{URL: entry.URL}

	// A URL we resolved before fetches conditionally so unchanged content is
	// never re-downloaded.
	prior, err := d.Documents.FindDocumentByURL(ctx, entry.URL)
	if err == nil {
		req.ETag = prior.ETag
		req.LastModified = prior.LastModified
	} else if docdex.ErrorCode(err) != docdex.ENOTFOUND {
		return nil, false, err
	}

	resp, err := d.Fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if resp.NotModified {
		return prior, true, nil
	}

	hash := fs.Hash(resp.Body)

	// Duplicate content from a different URL: reuse the Document, record the
	// alias, store nothing.
	if existing, err := d.Documents.FindDocumentByID(ctx, hash); err == nil {
		if existing.SourceURL != entry.URL {
			if err := d.Documents.AddAlias(ctx, hash, entry.URL); err != nil {
				return nil, false, err
			}
		}
		return existing, true, nil
	} else if docdex.ErrorCode(err) != docdex.ENOTFOUND {
		return nil, false, err
	}

	localPath, _, err := d.Blobs.Put(hash, blobExt(entry.URL, resp.ContentType), resp.Body)
	if err != nil {
		return nil, false, err
	}

	doc = &docdex.Document{
		ID:           hash,
		SourceURL:    entry.URL,
		Title:        entry.Title,
		LocalPath:    localPath,
		ByteSize:     int64(len(resp.Body)),
		ContentType:  resp.ContentType,
		FetchStatus:  docdex.StatusSuccess,
		ParseStatus:  docdex.StatusPending,
		ETag:         resp.ETag,
		LastModified: resp.LastModified,
		DiscoveredAt: entry.DiscoveredAt,
		FetchedAt:    time.Now().UTC(),
	}
	if err := d.Documents.CreateDocument(ctx, doc); err != nil {
		// Lost a race with a concurrent worker storing the same content.
		if docdex.ErrorCode(err) == docdex.ECONFLICT {
			if aerr := d.Documents.AddAlias(ctx, hash, entry.URL); aerr != nil {
				return nil, false, aerr
			}
			existing, ferr := d.Documents.FindDocumentByID(ctx, hash)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, true, nil
		}
		return nil, false, err
	}

	return doc, false, nil
}

// blobExt picks a file extension for the stored blob: the URL's extension
// when recognizable, otherwise one derived from the Content-Type.
func blobExt(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); downloadExts[ext] {
			return ext
		}
	}

	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".bin"
	}
	switch mt {
	case "application/pdf":
		return ".pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	case "text/html":
		return ".html"
	case "text/plain":
		return ".txt"
	default:
		return ".bin"
	}
}
