package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	infraRepo "github.com/nickchild-info/conbrako-laser-sub000/internal/infra/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

// ローカルのカート（STORAGE_DRIVERのストア）を、最新カタログで復元して開く
func (a *app) openCart(ctx context.Context) (*usecase.CartStore, func() error, error) {
	catalog := a.catalog()
	if err := catalog.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	stores, err := infraRepo.OpenStateStores(ctx, a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}

	cart := usecase.NewCartStore(catalog, stores.Cart, usecase.CartStorageKey, a.log)
	cart.Rehydrate(ctx)
	return cart, func() error { return stores.Close(ctx) }, nil
}

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and edit the local cart",
	}

	// 操作ごとに開いて、表示して、閉じる
	run := func(fn func(ctx context.Context, cart *usecase.CartStore, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			cart, closeFn, err := a.openCart(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := fn(ctx, cart, args); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cart.Cart())
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cart *usecase.CartStore, args []string) error {
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <productId> <variantId> [quantity]",
		Short: "Add a variant (quantity defaults to 1)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: run(func(ctx context.Context, cart *usecase.CartStore, args []string) error {
			qty := int64(1)
			if len(args) == 3 {
				n, err := strconv.ParseInt(args[2], 10, 64)
				if err != nil {
					return fmt.Errorf("quantity must be number: %w", err)
				}
				qty = n
			}
			before := cart.Cart().ItemCount
			if after := cart.AddItem(ctx, args[0], args[1], qty).ItemCount; after == before {
				return fmt.Errorf("variant %s of product %s is not in the catalog", args[1], args[0])
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <variantId>",
		Short: "Remove a variant",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cart *usecase.CartStore, args []string) error {
			cart.RemoveItem(ctx, args[0])
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <variantId> <quantity>",
		Short: "Set the quantity of a variant (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(ctx context.Context, cart *usecase.CartStore, args []string) error {
			n, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("quantity must be number: %w", err)
			}
			cart.UpdateQuantity(ctx, args[0], n)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cart *usecase.CartStore, args []string) error {
			cart.ClearCart(ctx)
			return nil
		}),
	})

	return cmd
}
