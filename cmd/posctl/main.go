// Command posctl inspects and maintains the order list of a POS store
// directly, using the same POS_* environment as pos-service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/jcmexdev/club-pos/internal/config"
	"github.com/jcmexdev/club-pos/internal/pkg/telemetry"
	"github.com/jcmexdev/club-pos/internal/pos/app"
	"github.com/jcmexdev/club-pos/internal/pos/domain"
	"github.com/jcmexdev/club-pos/internal/pos/orderlog"
	orderlogsqlite "github.com/jcmexdev/club-pos/internal/pos/orderlog/sqlite"
	"github.com/jcmexdev/club-pos/internal/pos/store"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "posctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "posctl",
		Usage: "inspect and maintain club POS orders",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "backend", Usage: "override POS_BACKEND", EnvVars: []string{"POS_BACKEND"}},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
		},
		Commands: []*cli.Command{
			{
				Name:  "orders",
				Usage: "list and transition orders",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "list orders of a view",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "view", Value: "all", Usage: "all, pending or history"},
						},
						Action: withService(func(c *cli.Context, svc *app.Service) error {
							orders, err := svc.ListOrders(c.Context, c.String("view"))
							if err != nil {
								return err
							}
							return printOrders(c, orders...)
						}),
					},
					{
						Name:      "show",
						Usage:     "show one order",
						ArgsUsage: "ORDER_NUMBER",
						Action: withService(func(c *cli.Context, svc *app.Service) error {
							order, err := svc.GetOrder(c.Context, c.Args().First())
							if err != nil {
								return err
							}
							return printOrders(c, order)
						}),
					},
					{
						Name:      "accept",
						Usage:     "kitchen-accept a pending order",
						ArgsUsage: "ORDER_NUMBER",
						Action: withService(func(c *cli.Context, svc *app.Service) error {
							order, err := svc.AcceptOrder(c.Context, c.Args().First())
							if err != nil {
								return err
							}
							return printOrders(c, order)
						}),
					},
					{
						Name:      "close",
						Usage:     "close a processed order",
						ArgsUsage: "ORDER_NUMBER",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "payment", Required: true, Usage: "Cash, Card or Account"},
						},
						Action: withService(func(c *cli.Context, svc *app.Service) error {
							order, err := svc.CloseOrder(c.Context, c.Args().First(), c.String("payment"))
							if err != nil {
								return err
							}
							return printOrders(c, order)
						}),
					},
					{
						Name:      "history",
						Usage:     "show the recorded transitions of an order",
						ArgsUsage: "ORDER_NUMBER",
						Action: withService(func(c *cli.Context, svc *app.Service) error {
							entries, err := svc.History(c.Context, c.Args().First())
							if err != nil {
								return err
							}
							return printHistory(c, entries)
						}),
					},
					{
						Name:  "clear",
						Usage: "delete every stored order",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "yes", Usage: "confirm deletion"},
						},
						Action: withService(func(c *cli.Context, svc *app.Service) error {
							if !c.Bool("yes") {
								return errors.New("refusing to clear orders without --yes")
							}
							if err := svc.ClearOrders(c.Context); err != nil {
								return err
							}
							fmt.Fprintln(c.App.Writer, "all orders cleared")
							return nil
						}),
					},
				},
			},
			{
				Name:  "menu",
				Usage: "print the menu",
				Action: withService(func(c *cli.Context, svc *app.Service) error {
					courses := svc.Menu(c.Context)
					if c.Bool("json") {
						return writeJSON(c.App.Writer, courses)
					}
					table := newTable(c.App.Writer, "Course", "ID", "Item", "Price")
					table.SetAutoMergeCells(true)
					for _, course := range courses {
						for _, it := range course.Items {
							table.Append([]string{course.Name, strconv.Itoa(it.ID), it.Name, it.Price.StringFixed(2)})
						}
					}
					table.Render()
					return nil
				}),
			},
		},
	}
}

type serviceAction func(c *cli.Context, svc *app.Service) error

// withService builds the application service from the environment, runs fn
// and releases the stores.
func withService(fn serviceAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		logger := telemetry.NewLogger(c.App.ErrWriter, c.String("log-level"))
		svc, closeFn, err := buildService(c.Context, c.String("backend"), logger)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(c, svc)
	}
}

func buildService(ctx context.Context, backend string, logger *slog.Logger) (*app.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if backend != "" {
		cfg.Backend = backend
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	kvStore, err := cfg.OpenStore(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	closers := []io.Closer{kvStore}

	var orderLog orderlog.Repository
	if cfg.OrderLogPath != "" {
		repo, err := orderlogsqlite.Open(cfg.OrderLogPath)
		if err != nil {
			_ = kvStore.Close()
			return nil, nil, err
		}
		closers = append(closers, repo)
		orderLog = repo
	}
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	menu, err := cfg.Catalog()
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	svc, err := app.New(app.Options{
		KV:       kvStore,
		Orders:   store.New(kvStore, logger),
		Catalog:  menu,
		OrderLog: orderLog,
		Fees:     cfg.Fees(),
		CartTTL:  cfg.CartTTL,
		Logger:   logger,
	})
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return svc, closeAll, nil
}

func printOrders(c *cli.Context, orders ...domain.Order) error {
	if c.Bool("json") {
		return writeJSON(c.App.Writer, orders)
	}
	table := newTable(c.App.Writer, "Order", "Status", "Table", "Items", "Total", "Payment", "Created")
	for _, o := range orders {
		table.Append([]string{
			o.OrderNumber, string(o.Status), o.TableNo, strconv.Itoa(o.ItemCount),
			o.GrandTotal.StringFixed(2), string(o.PaymentMethod),
			o.Timestamp.Local().Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	return nil
}

func printHistory(c *cli.Context, entries []orderlog.Entry) error {
	if c.Bool("json") {
		return writeJSON(c.App.Writer, entries)
	}
	table := newTable(c.App.Writer, "At", "Action", "From", "To", "Payment", "Trace")
	for _, e := range entries {
		table.Append([]string{
			e.At.Local().Format("2006-01-02 15:04:05"), e.Action,
			e.From, e.To, e.PaymentMethod, e.TraceID,
		})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
