package commands

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"byproduct-catalog/internal/apierror"
	"byproduct-catalog/internal/cli/ui"
	"byproduct-catalog/internal/model"
	"byproduct-catalog/internal/search"
)

var productCmd = &cobra.Command{
	Use:     "product <id>",
	Short:   "show one product and a few recommendations",
	Example: `  $ bpcat product p003`,
	Args:    cobra.ExactArgs(1),
	RunE:    runProduct,
}

func runProduct(cmd *cobra.Command, args []string) error {
	client, err := newCatalogClient()
	if err != nil {
		ui.PrintError("failed to create client: %v", err)
		return reported(err)
	}

	p, err := client.GetProduct(cmd.Context(), args[0])
	if err != nil {
		if code, ok := apierror.StatusCode(err); ok && code == 404 {
			ui.PrintError("product %s not found", args[0])
		} else {
			ui.PrintErrorBox("Product unavailable", apierror.Describe("product", err))
		}
		return reported(err)
	}
	fmt.Println(ui.RenderProduct(*p))

	// Recommendations are best effort.
	res, err := client.SearchProducts(cmd.Context(), model.SearchQuery{})
	if err != nil {
		log.WithError(err).Debug("recommendations unavailable")
		return nil
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	picks := search.Recommend(model.Summaries(res.Products), p.ProductID, search.DefaultRecommendations, rng)
	if len(picks) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println(ui.Styles.Title.Render("You may also like"))
	ui.WriteProducts(cmd.OutOrStdout(), picks)
	return nil
}
