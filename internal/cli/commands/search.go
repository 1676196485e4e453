package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"byproduct-catalog/internal/cli/tui"
	"byproduct-catalog/internal/cli/ui"
	"byproduct-catalog/internal/model"
	"byproduct-catalog/internal/search"
)

var searchFlags struct {
	facets      []string
	interactive bool
}

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "search products by keyword and facets",
	Long: `Search the catalog. Facets narrow the result to products carrying any of
the given ids; several --facet flags combine. Facet keys: cid (material
category), fid (material form), aid (application), iid (ingredient),
sid (supplier), hid (health claim).`,
	Example: `  $ bpcat search "rice bran"
  $ bpcat search --facet cid=c1,c2 --facet aid=a1
  $ bpcat search -i`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringArrayVar(&searchFlags.facets, "facet", nil, "facet selection as key=id[,id...]")
	searchCmd.Flags().BoolVarP(&searchFlags.interactive, "interactive", "i", false, "open the interactive search")
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := parseQuery(args, searchFlags.facets)
	if err != nil {
		return err
	}

	client, err := newCatalogClient()
	if err != nil {
		ui.PrintError("failed to create client: %v", err)
		return reported(err)
	}
	publisher := newPublisher()
	defer closePublisher(publisher)

	opts := []search.Option{search.WithQuery(q), search.WithLogger(log)}
	if publisher != nil {
		opts = append(opts, search.WithPublisher(publisher))
	}

	if searchFlags.interactive {
		return runInteractiveSearch(cmd.Context(), client, opts)
	}

	ctrl := search.NewController(cmd.Context(), client, opts...)
	ctrl.Refresh()
	ctrl.Wait()

	st := ctrl.Snapshot()
	if st.Err != nil {
		ui.PrintErrorBox("Search failed", st.ErrorText())
		return reported(st.Err)
	}
	ui.PrintSuccess("%d products", len(st.Products))
	ui.WriteProducts(os.Stdout, st.Products)
	fmt.Println()
	ui.WriteFacetOptions(os.Stdout, st.FacetOptions, st.Query)
	return nil
}

func runInteractiveSearch(ctx context.Context, fetcher search.Fetcher, opts []search.Option) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Assigned before the program starts; the controller only calls it from
	// fetches started by the program.
	var send func(tea.Msg)
	opts = append(opts, search.WithOnChange(func(st search.State) {
		if send != nil {
			send(tui.StateMsg{State: st})
		}
	}))

	ctrl := search.NewController(ctx, fetcher, opts...)
	debouncer := search.NewKeywordDebouncer(ctrl, cfg.KeywordDebounce)

	err := tui.Run(ctrl, debouncer, func(s func(tea.Msg)) { send = s })
	cancel()
	ctrl.Wait()
	return err
}

// parseQuery builds the initial query from the keyword argument and the
// --facet flags. Repeated keys accumulate.
func parseQuery(args, facets []string) (model.SearchQuery, error) {
	q := model.SearchQuery{Selected: map[model.FacetKey][]string{}}
	if len(args) > 0 {
		q = q.WithKeyword(strings.TrimSpace(args[0]))
	}
	for _, f := range facets {
		rawKey, rawIDs, ok := strings.Cut(f, "=")
		if !ok {
			return q, errors.Errorf("invalid facet %q, expected key=id[,id...]", f)
		}
		key, err := model.ParseFacetKey(strings.TrimSpace(rawKey))
		if err != nil {
			return q, err
		}
		ids := append([]string(nil), q.SelectedIDs(key)...)
		for _, id := range strings.Split(rawIDs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		q = q.WithFacet(key, ids)
	}
	return q, nil
}
