package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/galimov-i/music-site/pkg/store"
)

type storeOpener func(configPath string) (store.Store, error)

// cli holds state shared by the subcommands.
type cli struct {
	open       storeOpener
	out        io.Writer
	configPath string
}

func newRootCmd(open storeOpener, out io.Writer) *cobra.Command {
	c := &cli{open: open, out: out}
	root := &cobra.Command{
		Use:           "siteadmin",
		Short:         "Inspect and manage music site records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (defaults to SITE_CONFIG or config.yaml)")

	root.AddCommand(c.migrateCmd())
	root.AddCommand(c.ordersCmd())
	root.AddCommand(c.contactsCmd())
	root.AddCommand(c.purchasesCmd())
	root.AddCommand(c.eventsCmd())
	return root
}

// withStore opens the store, runs fn and closes the store.
func (c *cli) withStore(cmd *cobra.Command, fn func(ctx context.Context, st store.Store) error) error {
	st, err := c.open(c.configPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(cmd.Context(), st)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd, func(context.Context, store.Store) error {
				fmt.Fprintln(c.out, "schema up to date")
				return nil
			})
		},
	}
}

func (c *cli) ordersCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List song orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd, func(ctx context.Context, st store.Store) error {
				orders, err := st.ListSongOrders(ctx, status)
				if err != nil {
					return err
				}
				tw := c.table("ID", "CREATED", "STATUS", "NAME", "EMAIL", "TYPE")
				for _, o := range orders {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", o.ID, formatMillis(o.CreatedAt), o.Status, o.Name, o.Email, o.SongType)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only orders with this status")
	return cmd
}

func (c *cli) contactsCmd() *cobra.Command {
	var unreplied bool
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List contact messages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var replied *bool
			if unreplied {
				replied = new(bool)
			}
			return c.withStore(cmd, func(ctx context.Context, st store.Store) error {
				contacts, err := st.ListContacts(ctx, replied)
				if err != nil {
					return err
				}
				tw := c.table("ID", "CREATED", "REPLIED", "NAME", "EMAIL")
				for _, m := range contacts {
					fmt.Fprintf(tw, "%d\t%s\t%t\t%s\t%s\n", m.ID, formatMillis(m.CreatedAt), m.Replied, m.Name, m.Email)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&unreplied, "unreplied", false, "only messages not yet replied to")
	cmd.AddCommand(&cobra.Command{
		Use:   "reply <id>",
		Short: "Mark a contact message as replied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid contact id %q", args[0])
			}
			return c.withStore(cmd, func(ctx context.Context, st store.Store) error {
				if err := st.MarkContactReplied(ctx, id); err != nil {
					return fmt.Errorf("mark contact %d replied: %w", id, err)
				}
				fmt.Fprintf(c.out, "contact %d marked replied\n", id)
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) purchasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purchases <email>",
		Short: "List course purchases for an email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, st store.Store) error {
				purchases, err := st.ListPurchasesByEmail(ctx, args[0])
				if err != nil {
					return err
				}
				tw := c.table("PAYMENT", "CREATED", "SYSTEM", "STATUS", "ACCESS", "AMOUNT")
				for _, p := range purchases {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", p.PaymentID, formatMillis(p.CreatedAt), p.PaymentSystem, p.Status, p.AccessGranted, p.Amount.StringFixed(2))
				}
				return tw.Flush()
			})
		},
	}
}

func (c *cli) eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <payment_id>",
		Short: "Show webhook deliveries recorded for a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, st store.Store) error {
				events, err := st.ListWebhookEvents(ctx, args[0])
				if err != nil {
					return err
				}
				tw := c.table("ID", "RECEIVED", "PROVIDER", "EVENT", "MATCHED")
				for _, ev := range events {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", ev.ID, formatMillis(ev.ReceivedAt), ev.Provider, ev.EventType, ev.Matched)
				}
				return tw.Flush()
			})
		},
	}
}

func (c *cli) table(headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	return tw
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}
