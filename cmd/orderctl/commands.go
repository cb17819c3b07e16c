package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/fast-pizza/internal/domain/address"
	"github.com/xenking/fast-pizza/internal/domain/cart"
	"github.com/xenking/fast-pizza/internal/domain/order"
	"github.com/xenking/fast-pizza/internal/domain/phone"
	"github.com/xenking/fast-pizza/internal/geo"
	"github.com/xenking/fast-pizza/internal/restaurant"
	"github.com/xenking/fast-pizza/internal/storage/postgres"
)

type options struct {
	apiURL     string
	geocodeURL string
	timeout    time.Duration
}

func (o *options) client() *http.Client {
	return &http.Client{Timeout: o.timeout}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "orderctl",
		Short:         "Inspect and manage Fast Pizza orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", restaurant.DefaultBaseURL, "Restaurant API base URL")
	cmd.PersistentFlags().StringVar(&opts.geocodeURL, "geocode-url", geo.DefaultReverseGeocodeURL, "Reverse geocoding endpoint")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	cmd.AddCommand(newPhoneCmd())
	cmd.AddCommand(newPriceCmd())
	cmd.AddCommand(newAddressCmd(opts))
	cmd.AddCommand(newOrderCmd(opts))
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

func newPhoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phone <number>",
		Short: "Check a phone number the way the order form does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !phone.IsValid(args[0]) {
				return errors.New(order.MsgInvalidPhone)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
}

func newPriceCmd() *cobra.Command {
	var priority bool
	cmd := &cobra.Command{
		Use:   "price <cart-json>",
		Short: "Price a serialized cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []cart.Item
			if err := json.Unmarshal([]byte(args[0]), &items); err != nil {
				return &order.MalformedCartError{Err: err}
			}
			p := order.PriceCart(items, priority)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cart:     %s\n", p.Cart.StringFixed(2))
			fmt.Fprintf(out, "priority: %s\n", p.Priority.StringFixed(2))
			fmt.Fprintf(out, "total:    %s\n", p.Total.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().BoolVar(&priority, "priority", false, "Add the priority surcharge")
	return cmd
}

func newAddressCmd(opts *options) *cobra.Command {
	var lat, lng string
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Reverse geocode a position into a delivery address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			la, err := strconv.ParseFloat(lat, 64)
			if err != nil {
				return errors.Wrap(err, "parse latitude")
			}
			lo, err := strconv.ParseFloat(lng, 64)
			if err != nil {
				return errors.Wrap(err, "parse longitude")
			}

			resolver := address.NewResolver(geo.NewBigDataCloud(opts.client(), opts.geocodeURL), address.NewStore())
			state, err := resolver.Resolve(cmd.Context(), "cli", geo.Device{
				Position: address.Position{Latitude: la, Longitude: lo},
			})
			if err != nil {
				return errors.Wrap(err, "resolve address")
			}
			fmt.Fprintln(cmd.OutOrStdout(), state.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&lat, "lat", "", "Latitude")
	cmd.Flags().StringVar(&lng, "lng", "", "Longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newOrderCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Look up and update orders at the restaurant API",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := restaurant.New(opts.client(), opts.apiURL).Get(cmd.Context(), args[0])
			if err != nil {
				return errors.Wrapf(err, "get order %s", args[0])
			}
			printOrder(cmd, rec)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "prioritize <id>",
		Short: "Mark an order as priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := restaurant.New(opts.client(), opts.apiURL).Update(cmd.Context(), args[0], order.Patch{Priority: true})
			if err != nil {
				return errors.Wrapf(err, "prioritize order %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s is now priority\n", args[0])
			return nil
		},
	})
	return cmd
}

func printOrder(cmd *cobra.Command, rec *order.Record) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:        %s\n", rec.ID)
	fmt.Fprintf(out, "status:    %s\n", rec.Status)
	fmt.Fprintf(out, "customer:  %s\n", rec.Customer)
	fmt.Fprintf(out, "priority:  %t\n", rec.Priority)
	fmt.Fprintf(out, "total:     %s\n", rec.OrderPrice.Add(rec.PriorityPrice).StringFixed(2))
	if !rec.EstimatedDelivery.IsZero() {
		fmt.Fprintf(out, "delivery:  %s\n", rec.EstimatedDelivery.Format(time.RFC3339))
	}
	for _, it := range rec.Cart {
		fmt.Fprintf(out, "  %dx %s\n", it.Quantity, it.Name)
	}
}

func newMigrateCmd() *cobra.Command {
	var databaseURL string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL order schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return errors.New("database URL is required: set --database-url or DATABASE_URL")
			}
			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, databaseURL)
			if err != nil {
				return errors.Wrap(err, "connect")
			}
			defer pool.Close()

			if err := postgres.RunMigrations(ctx, pool); err != nil {
				return errors.Wrap(err, "migrate")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	return cmd
}
