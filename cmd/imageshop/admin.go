package main

import (
	"fmt"
	"io"

	"github.com/and161185/imageshop/internal/model"
	"github.com/spf13/cobra"
)

func newAdminCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the catalog (admin role)",
	}
	cmd.AddCommand(newAdminImageCmd(get), newAdminCategoryCmd(get), newAdminTagCmd(get))
	return cmd
}

func printImages(a *app, imgs []model.Image) error {
	return a.emit(imgs, func(w io.Writer) error {
		lines := make([]string, 0, len(imgs))
		for _, img := range imgs {
			lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s", img.ID, img.Title, img.Price.Format(), img.CategoryID))
		}
		return table(w, "ID\tTITLE\tPRICE\tCATEGORY", lines...)
	})
}

type imageFlags struct {
	title, description, price, category, preview, original string
}

func (f *imageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "title (3+ chars)")
	cmd.Flags().StringVar(&f.description, "description", "", "description (10+ chars when set)")
	cmd.Flags().StringVar(&f.price, "price", "", "price, e.g. 12.50")
	cmd.Flags().StringVar(&f.category, "category", "", "category id")
	cmd.Flags().StringVar(&f.preview, "preview-url", "", "watermarked preview URL")
	cmd.Flags().StringVar(&f.original, "original-url", "", "full-resolution URL")
}

// apply overlays the flags the user actually set onto img.
func (f *imageFlags) apply(cmd *cobra.Command, img *model.Image) error {
	fl := cmd.Flags()
	if fl.Changed("title") {
		img.Title = f.title
	}
	if fl.Changed("description") {
		img.Description = f.description
	}
	if fl.Changed("price") {
		p, err := parseAmount(f.price)
		if err != nil {
			return err
		}
		img.Price = p
	}
	if fl.Changed("category") {
		img.CategoryID = f.category
	}
	if fl.Changed("preview-url") {
		img.PreviewURL = f.preview
	}
	if fl.Changed("original-url") {
		img.OriginalURL = f.original
	}
	return nil
}

func newAdminImageCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Create, update, delete and search images",
	}

	var addFlags imageFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			var img model.Image
			if err := addFlags.apply(cmd, &img); err != nil {
				return err
			}
			out, err := a.shop.Catalog.CreateImage(cmd.Context(), img)
			if err != nil {
				return err
			}
			return printImages(a, []model.Image{*out})
		},
	}
	addFlags.bind(add)

	var updFlags imageFlags
	update := &cobra.Command{
		Use:   "update IMAGE_ID",
		Short: "Update the given fields of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			img, ok := a.shop.Catalog.Image(args[0])
			if !ok {
				img = model.Image{ID: args[0]}
			}
			if err := updFlags.apply(cmd, &img); err != nil {
				return err
			}
			out, err := a.shop.Catalog.UpdateImage(cmd.Context(), img)
			if err != nil {
				return err
			}
			return printImages(a, []model.Image{*out})
		},
	}
	updFlags.bind(update)

	rm := &cobra.Command{
		Use:   "rm IMAGE_ID",
		Short: "Delete an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().shop.Catalog.DeleteImage(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println("deleted", args[0])
			return nil
		},
	}

	search := &cobra.Command{
		Use:   "search [TERM]",
		Short: "Match title, description or id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a := get()
			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			return printImages(a, a.shop.Catalog.AdminSearch(term))
		},
	}

	cmd.AddCommand(add, update, rm, search)
	return cmd
}

func newAdminCategoryCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "List or create categories",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a := get()
			cats := a.shop.Catalog.Categories()
			return a.emit(cats, func(w io.Writer) error {
				lines := make([]string, 0, len(cats))
				for _, c := range cats {
					lines = append(lines, c.ID+"\t"+c.Name)
				}
				return table(w, "ID\tNAME", lines...)
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := get().shop.Catalog.CreateCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println("created category", c.ID, c.Name)
			return nil
		},
	})
	return cmd
}

func newAdminTagCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "List or create tags",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a := get()
			tags := a.shop.Catalog.Tags()
			return a.emit(tags, func(w io.Writer) error {
				lines := make([]string, 0, len(tags))
				for _, t := range tags {
					lines = append(lines, t.ID+"\t"+t.Name)
				}
				return table(w, "ID\tNAME", lines...)
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := get().shop.Catalog.CreateTag(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println("created tag", t.ID, t.Name)
			return nil
		},
	})
	return cmd
}
