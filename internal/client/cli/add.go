package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iudanet/cartsync/internal/models"
)

func (c *Cli) addCommand() *cobra.Command {
	item := models.CartItem{Quantity: 1}
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add an item to the cart",
		Example: `  cartsync add 42 --qty 2 --price 1999 --title "Coffee beans"
  cartsync add 42 --prop engraving=Hello --prop size=M`,
		Args: cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, args []string) error {
			item.ID = args[0]
			return c.runAdd(ctx, item)
		}),
	}
	cmd.Flags().IntVarP(&item.Quantity, "qty", "q", 1, "Quantity")
	cmd.Flags().Int64VarP(&item.Price, "price", "p", 0, "Unit price in minor currency units (1999 = 19.99)")
	cmd.Flags().StringVarP(&item.Title, "title", "t", "", "Title shown in the cart")
	cmd.Flags().StringToStringVar(&item.Properties, "prop", nil, "Line property key=value, repeatable")
	return cmd
}

func (c *Cli) runAdd(ctx context.Context, item models.CartItem) error {
	snap, err := c.svc.AddItem(ctx, item)
	if err != nil {
		return err
	}
	return c.printMutation(ctx, snap)
}
