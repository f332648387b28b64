package extract_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts content and title", func(t *testing.T) {
		t.Parallel()

		html := `<!doctype html>
<html>
<head><title>Disclosure Portal</title><script>alert("hi")</script></head>
<body>
  <nav>Home | About | Contact</nav>
  <article>
    <h1>Quarterly Disclosures</h1>
    <p>The agency publishes quarterly disclosure reports covering budget
    execution, procurement awards and personnel changes.</p>
    <p>Reports older than five years move to the archive section and remain
    available on request.</p>
  </article>
  <footer>Copyright Example Agency</footer>
</body>
</html>`

		e := extract.NewHTMLExtractor()
		got, err := e.Extract(context.Background(), []byte(html))
		require.NoError(t, err)

		assert.Contains(t, got.FullText, "quarterly disclosure reports")
		assert.NotContains(t, got.FullText, "alert(")
		assert.Equal(t, "Disclosure Portal", got.Title)
		assert.Equal(t, []docdex.PageOffset{{Page: 1, Start: 0}}, got.PageOffsets)
	})

	t.Run("falls back to body text for minimal markup", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Stub</title></head><body>short notice text</body></html>`

		e := extract.NewHTMLExtractor()
		got, err := e.Extract(context.Background(), []byte(html))
		require.NoError(t, err)
		assert.Contains(t, got.FullText, "short notice text")
	})

	t.Run("honors canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		e := extract.NewHTMLExtractor()
		_, err := e.Extract(ctx, []byte("<html></html>"))
		require.Error(t, err)
	})
}
