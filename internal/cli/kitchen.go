package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/kusina/internal/app"
	"github.com/Additional-Code/kusina/internal/dto"
	"github.com/Additional-Code/kusina/internal/entity"
	"github.com/Additional-Code/kusina/internal/format"
	"github.com/Additional-Code/kusina/internal/seeder"
	"github.com/Additional-Code/kusina/internal/service/pos"
	"github.com/Additional-Code/kusina/pkg/errorbank"
)

// withKitchen starts the core modules and hands the POS service to fn.
func withKitchen(cmd *cobra.Command, fn func(context.Context, *pos.Service) error) error {
	var svc *pos.Service
	return runWithApp(cmd.Context(), fx.Options(app.Core, fx.Populate(&svc)), func(ctx context.Context) error {
		return fn(ctx, svc)
	})
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty kitchen with sample menu, orders and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, fx.Provide(seeder.New), fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := seed.Run(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed data applied")
				return nil
			})
		},
	}
}

func newMenuCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Manage the menu",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List menu items by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKitchen(cmd, func(ctx context.Context, svc *pos.Service) error {
				items, err := svc.Menu(ctx)
				if err != nil {
					return err
				}
				return printMenu(cmd.OutOrStdout(), items)
			})
		},
	})

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a menu item",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			price, _ := cmd.Flags().GetFloat64("price")
			category, _ := cmd.Flags().GetString("category")
			return withKitchen(cmd, func(ctx context.Context, svc *pos.Service) error {
				item, err := svc.AddMenuItem(ctx, name, price, category)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added #%d %s (%s) %s\n", item.ID, item.Name, item.Category, format.Peso(item.Price))
				return nil
			})
		},
	}
	addCmd.Flags().String("name", "", "Item name")
	addCmd.Flags().Float64("price", 0, "Item price")
	addCmd.Flags().String("category", "", "Item category (defaults to Main)")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("price")

	cmd.AddCommand(addCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a menu item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errorbank.BadRequest("invalid id", errorbank.WithCause(err))
			}
			return withKitchen(cmd, func(ctx context.Context, svc *pos.Service) error {
				if err := svc.DeleteMenuItem(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted #%d\n", id)
				return nil
			})
		},
	})

	return cmd
}

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Work the order queue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "Show pending orders, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKitchen(cmd, func(ctx context.Context, svc *pos.Service) error {
				return printOrders(cmd.OutOrStdout(), dto.FromOrders(svc.PendingOrders(), svc.Location()))
			})
		},
	})

	placeCmd := &cobra.Command{
		Use:     "place",
		Short:   "Place an order",
		Example: `  kusina orders place --customer "Maria Santos" --item "Chicken Adobo:1" --item Rice:2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			customer, _ := cmd.Flags().GetString("customer")
			raw, _ := cmd.Flags().GetStringArray("item")
			items, err := parseItems(raw)
			if err != nil {
				return err
			}
			return withKitchen(cmd, func(ctx context.Context, svc *pos.Service) error {
				total, _ := cmd.Flags().GetFloat64("total")
				if !cmd.Flags().Changed("total") {
					if total, err = svc.Quote(ctx, items); err != nil {
						return err
					}
				}
				order, err := svc.PlaceOrder(ctx, pos.PlaceOrderInput{CustomerName: customer, Items: items, TotalPrice: total})
				if err != nil {
					return err
				}
				resp := dto.FromOrder(order, svc.Location())
				fmt.Fprintf(cmd.OutOrStdout(), "queued #%d for %s: %s, %s (%d waiting)\n",
					resp.ID, resp.CustomerName, resp.ItemsSummary, resp.TotalDisplay, svc.QueueSize())
				return nil
			})
		},
	}
	placeCmd.Flags().String("customer", "", "Customer name (defaults to Guest)")
	placeCmd.Flags().StringArray("item", nil, "Line item as name[:qty]; repeatable")
	placeCmd.Flags().Float64("total", 0, "Order total (priced from the menu when omitted)")
	_ = placeCmd.MarkFlagRequired("item")
	cmd.AddCommand(placeCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "complete",
		Short: "Serve the oldest pending order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKitchen(cmd, func(ctx context.Context, svc *pos.Service) error {
				order, ok, err := svc.CompleteNextOrder(ctx)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "no pending orders")
					return nil
				}
				resp := dto.FromOrder(order, svc.Location())
				fmt.Fprintf(cmd.OutOrStdout(), "served #%d for %s: %s, %s\n", resp.ID, resp.CustomerName, resp.ItemsSummary, resp.TotalDisplay)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "Show completed orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKitchen(cmd, func(ctx context.Context, svc *pos.Service) error {
				orders, err := svc.Transactions(ctx)
				if err != nil {
					return err
				}
				return printOrders(cmd.OutOrStdout(), dto.FromOrders(orders, svc.Location()))
			})
		},
	})

	return cmd
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Sales summaries",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "today",
		Short: "Summarise today's completed orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKitchen(cmd, func(ctx context.Context, svc *pos.Service) error {
				stats, err := svc.TodayStats(ctx)
				if err != nil {
					return err
				}
				resp := dto.FromStats(stats)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d orders, revenue %s, average %s\n",
					resp.Day, resp.OrderCount, resp.TotalRevenueDisplay, resp.AverageOrderDisplay)
				return nil
			})
		},
	})
	return cmd
}

// parseItems reads "name[:qty]" pairs.
func parseItems(raw []string) ([]entity.LineItem, error) {
	items := make([]entity.LineItem, 0, len(raw))
	for _, r := range raw {
		name, qty := strings.TrimSpace(r), 1
		if i := strings.LastIndex(r, ":"); i >= 0 {
			n, err := strconv.Atoi(strings.TrimSpace(r[i+1:]))
			if err != nil {
				return nil, errorbank.BadRequest("invalid item quantity", errorbank.WithDetail("item", r), errorbank.WithCause(err))
			}
			name, qty = strings.TrimSpace(r[:i]), n
		}
		items = append(items, entity.LineItem{Name: name, Qty: qty})
	}
	return items, nil
}

func printMenu(w io.Writer, items []entity.MenuItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tNAME\tPRICE")
	for _, item := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", item.ID, item.Category, item.Name, format.Peso(item.Price))
	}
	return tw.Flush()
}

func printOrders(w io.Writer, orders []dto.OrderResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECEIVED\tCUSTOMER\tITEMS\tTOTAL\tSTATUS")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.ReceivedAtDisplay, o.CustomerName, o.ItemsSummary, o.TotalDisplay, o.Status)
	}
	return tw.Flush()
}
