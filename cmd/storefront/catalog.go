package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	infraRepo "github.com/nickchild-info/conbrako-laser-sub000/internal/infra/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

func (a *app) catalog() *usecase.CatalogUsecase {
	return usecase.NewCatalogUsecase(
		infraRepo.NewProductAPIRepository(a.client),
		infraRepo.NewCollectionAPIRepository(a.client),
		a.log,
	)
}

func newCatalogCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List active products and variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := a.catalog()
			if err := catalog.Load(contextOf(cmd)); err != nil {
				return err
			}
			products := catalog.Products()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), products)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PRODUCT\tVARIANT\tSKU\tPRICE\tSTOCK")
			for _, p := range products {
				if !p.IsActive {
					continue
				}
				for _, v := range p.Variants {
					if !v.IsActive {
						continue
					}
					fmt.Fprintf(tw, "%s (%s)\t%s (%s)\t%s\t%s\t%d\n", p.Name, p.ID, v.Name, v.ID, v.SKU, formatRand(v.Price), v.Stock)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// セントを "R12.99" の形にする
func formatRand(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR%d.%02d", sign, cents/100, cents%100)
}
