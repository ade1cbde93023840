package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/model"
	"github.com/spf13/cobra"
)

type galleryRow struct {
	model.Image
	Owned    bool `json:"owned"`
	InCart   bool `json:"inCart"`
	Favorite bool `json:"favorite"`
}

func newGalleryCmd(get func() *app) *cobra.Command {
	var (
		cats, tags []string
		minP, maxP string
		favorites  bool
		search     string
	)
	cmd := &cobra.Command{
		Use:     "gallery",
		Aliases: []string{"ls"},
		Short:   "List catalog images through the gallery filters",
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a := get()
			if minP != "" || maxP != "" {
				lo, hi := a.shop.PriceRange()
				var err error
				if minP != "" {
					if lo, err = parseAmount(minP); err != nil {
						return err
					}
				}
				if maxP != "" {
					if hi, err = parseAmount(maxP); err != nil {
						return err
					}
				}
				a.shop.SetPriceRange(lo, hi)
			}
			st := model.FilterState{
				SelectedCategoryIDs: set(cats),
				SelectedTagIDs:      set(tags),
				FavoritesOnly:       favorites,
				SearchTerm:          search,
			}
			imgs := a.shop.VisibleImages(st)
			rows := make([]galleryRow, 0, len(imgs))
			for _, img := range imgs {
				rows = append(rows, galleryRow{
					Image:    img,
					Owned:    a.shop.Ledger.Owns(img.ID),
					InCart:   a.shop.Cart.Contains(img.ID),
					Favorite: a.shop.IsFavorite(img.ID),
				})
			}
			return a.emit(rows, func(w io.Writer) error {
				lines := make([]string, 0, len(rows))
				for _, r := range rows {
					lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s",
						r.ID, r.Title, r.Price.Format(), r.CategoryID, yesNo(r.Owned), yesNo(r.InCart), yesNo(r.Favorite)))
				}
				return table(w, "ID\tTITLE\tPRICE\tCATEGORY\tOWNED\tIN CART\tFAV", lines...)
			})
		},
	}
	cmd.Flags().StringSliceVar(&cats, "category", nil, "category ids to include")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag ids to match")
	cmd.Flags().StringVar(&minP, "min", "", "minimum price")
	cmd.Flags().StringVar(&maxP, "max", "", "maximum price")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "only favorited images")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match title or description")
	return cmd
}

func set(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

type cartView struct {
	Lines []model.CartLine `json:"lines"`
	Count int              `json:"count"`
	Total model.Money      `json:"total"`
}

func showCart(a *app) error {
	v := cartView{Lines: a.shop.Cart.Lines(), Count: a.shop.Cart.Count(), Total: a.shop.Cart.Total()}
	return a.emit(v, func(w io.Writer) error {
		lines := make([]string, 0, len(v.Lines)+1)
		for _, l := range v.Lines {
			lines = append(lines, fmt.Sprintf("%s\t%s\t%d\t%s", l.ImageID, l.Image.Title, l.Quantity, l.Subtotal().Format()))
		}
		lines = append(lines, fmt.Sprintf("\tTOTAL\t%d\t%s", v.Count, v.Total.Format()))
		return table(w, "ID\tTITLE\tQTY\tSUBTOTAL", lines...)
	})
}

func newCartCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		Args:  cobra.NoArgs,
		RunE:  func(*cobra.Command, []string) error { return showCart(get()) },
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add IMAGE_ID",
			Short: "Add one unit of an image",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				img, ok := a.shop.Catalog.Image(args[0])
				if !ok {
					return fmt.Errorf("image %s: %w", args[0], errs.ErrNotFound)
				}
				if err := a.shop.Cart.Add(cmd.Context(), img); err != nil {
					return err
				}
				return showCart(a)
			},
		},
		&cobra.Command{
			Use:     "rm IMAGE_ID",
			Aliases: []string{"remove"},
			Short:   "Remove an image from the cart",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				if err := a.shop.Cart.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				return showCart(a)
			},
		},
		&cobra.Command{
			Use:   "qty IMAGE_ID N",
			Short: "Step the quantity one unit toward N (0 removes)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				var n int
				if _, err := fmt.Sscan(args[1], &n); err != nil {
					return errs.Invalid("quantity", "Quantity must be a whole number")
				}
				if err := a.shop.Cart.ChangeQuantity(cmd.Context(), args[0], n); err != nil {
					return err
				}
				return showCart(a)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a := get()
				a.shop.Cart.Clear(cmd.Context())
				return showCart(a)
			},
		},
	)
	return cmd
}

func newCheckoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Buy everything in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			total, err := a.shop.Checkout(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(map[string]any{"total": total}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "charged", total.Format())
				return err
			})
		},
	}
}

func newBuyCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "buy IMAGE_ID",
		Short: "Buy a single image now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return get().shop.BuyNow(cmd.Context(), args[0])
		},
	}
}

func newDownloadCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "download IMAGE_ID",
		Short: "Print the full-resolution URL of an owned image",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a := get()
			url, err := a.shop.OriginalURL(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, url)
			return err
		},
	}
}

func newPurchasesCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purchases",
		Short: "List owned images",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a := get()
			if a.shop.Session.User() == nil {
				return errs.ErrAuthRequired
			}
			owned := a.shop.Ledger.Owned()
			return a.emit(owned, func(w io.Writer) error {
				lines := make([]string, 0, len(owned))
				for _, id := range owned {
					title := "(no longer listed)"
					if img, ok := a.shop.Catalog.Image(id); ok {
						title = img.Title
					}
					lines = append(lines, id+"\t"+title)
				}
				return table(w, "ID\tTITLE", lines...)
			})
		},
	}
	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Download the purchases spreadsheet (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			data, err := a.api.Purchases.Export(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return err
			}
			cmd.Printf("wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "purchases.xlsx", "output file")
	cmd.AddCommand(export)
	return cmd
}

func newTransactionsCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "List balance movements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			txs, err := a.api.UserTransactions.Mine(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(txs, func(w io.Writer) error {
				lines := make([]string, 0, len(txs))
				for _, t := range txs {
					lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s", t.CreatedAt.Local().Format(time.DateTime), t.Type, t.Amount.Format(), t.ID))
				}
				return table(w, "WHEN\tTYPE\tAMOUNT\tID", lines...)
			})
		},
	}
}
