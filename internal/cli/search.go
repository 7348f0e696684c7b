package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	"github.com/matzehuels/pkgcompare/pkg/integrations/npm"
	"github.com/matzehuels/pkgcompare/pkg/search"
)

type searchOpts struct {
	page  int
	pages int
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	opts := searchOpts{pages: 1}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the npm registry for packages",
		Long: fmt.Sprintf(`Search lists package names matching a query, %d per page. Queries shorter
than %d characters return nothing.`, npm.PageSize, npm.MinQueryLength),
		Example: `  pkgcompare search "date format"
  pkgcompare search react --pages 3
  pkgcompare search react --page 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVar(&opts.page, "page", 0, "show only this page")
	cmd.Flags().IntVar(&opts.pages, "pages", 1, "number of pages to load")

	return cmd
}

func (c *CLI) runSearch(ctx context.Context, w io.Writer, query string, opts searchOpts) error {
	if opts.page < 0 || opts.pages < 1 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "--page and --pages must be positive")
	}
	if npm.QueryTooShort(npm.NormalizeQuery(query)) {
		printWarning(w, "Type at least %d characters to search", npm.MinQueryLength)
		return nil
	}

	ws, err := c.newWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	want := max(opts.page, opts.pages)
	if err := ws.Search(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", search.FailureMessage, err)
	}
	for st := ws.Suggestions(); st.Page < want && st.HasMore; st = ws.Suggestions() {
		if err := ws.MoreSuggestions(ctx); err != nil {
			return fmt.Errorf("%s: %w", search.FailureMessage, err)
		}
	}

	st := ws.Suggestions()
	items, offset := st.Items, 0
	if opts.page > 0 {
		offset = (opts.page - 1) * npm.PageSize
		if offset >= len(items) {
			printInfo(w, "No results on page %d", opts.page)
			return nil
		}
		items = items[offset:min(offset+npm.PageSize, len(items))]
	}
	if len(items) == 0 {
		printInfo(w, "No packages match %q", st.Query)
		return nil
	}

	highlights := search.Highlights(st.Query, items)
	for i, name := range items {
		fmt.Fprintf(w, "%s %s\n", StyleDim.Render(fmt.Sprintf("%3d", offset+i+1)), highlight(name, highlights[i]))
	}
	if st.HasMore && opts.page == 0 {
		printNextStep(w, "More results", fmt.Sprintf("pkgcompare search %q --pages %d", st.Query, st.Page+1))
	}
	return nil
}

// highlight renders the characters at the matched byte offsets in the
// highlight style.
func highlight(s string, matched []int) string {
	if len(matched) == 0 {
		return StyleValue.Render(s)
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if hit[i] {
			b.WriteString(StyleHighlight.Bold(true).Render(string(r)))
		} else {
			b.WriteString(StyleValue.Render(string(r)))
		}
	}
	return b.String()
}
