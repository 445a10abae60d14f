package main

import (
	"github.com/spf13/cobra"

	infraRepo "github.com/nickchild-info/conbrako-laser-sub000/internal/infra/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

func newOrderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "order <id>",
		Short: "Show an order and its tracking details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := usecase.NewOrderUsecase(infraRepo.NewOrderAPIRepository(a.client))
			o, err := uc.GetOrder(contextOf(cmd), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), o)
		},
	}
}
