package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/and161185/imageshop/internal/filter"
	"github.com/and161185/imageshop/internal/model"
	"github.com/and161185/imageshop/internal/validate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Catalog caches images, categories and tags. It is read-only to shoppers; admin writes
// are applied locally after the server accepts them.
type Catalog struct {
	images     Collection[model.Image]
	categories Collection[model.Category]
	tags       Collection[model.Tag]
	log        *zap.Logger

	mu   sync.RWMutex
	imgs []model.Image
	cats []model.Category
	tgs  []model.Tag
}

// NewCatalog constructs an empty Catalog.
func NewCatalog(images Collection[model.Image], categories Collection[model.Category], tags Collection[model.Tag], log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{images: images, categories: categories, tags: tags, log: log}
}

// Load fetches all three collections concurrently. On failure the previous contents stay.
func (c *Catalog) Load(ctx context.Context) error {
	var (
		imgs []model.Image
		cats []model.Category
		tgs  []model.Tag
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		imgs, err = c.images.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		cats, err = c.categories.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		tgs, err = c.tags.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	c.mu.Lock()
	c.imgs, c.cats, c.tgs = imgs, cats, tgs
	c.mu.Unlock()
	c.log.Debug("catalog loaded", zap.Int("images", len(imgs)), zap.Int("categories", len(cats)), zap.Int("tags", len(tgs)))
	return nil
}

// Images returns a snapshot of all images.
func (c *Catalog) Images() []model.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Image(nil), c.imgs...)
}

// Categories returns a snapshot of all categories.
func (c *Catalog) Categories() []model.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Category(nil), c.cats...)
}

// Tags returns a snapshot of all tags.
func (c *Catalog) Tags() []model.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Tag(nil), c.tgs...)
}

// Image looks an image up by id.
func (c *Catalog) Image(id string) (model.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, img := range c.imgs {
		if img.ID == id {
			return img, true
		}
	}
	return model.Image{}, false
}

// AdminSearch matches title, description or id.
func (c *Catalog) AdminSearch(term string) []model.Image {
	return filter.AdminSearch(c.Images(), term)
}

// CreateImage validates, creates and appends an image.
func (c *Catalog) CreateImage(ctx context.Context, img model.Image) (*model.Image, error) {
	img.Title = strings.TrimSpace(img.Title)
	img.Description = strings.TrimSpace(img.Description)
	if err := validate.Image(img); err != nil {
		return nil, err
	}
	out, err := c.images.Create(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	c.mu.Lock()
	c.imgs = append(c.imgs, *out)
	c.mu.Unlock()
	return out, nil
}

// UpdateImage validates, updates and replaces an image in place.
func (c *Catalog) UpdateImage(ctx context.Context, img model.Image) (*model.Image, error) {
	img.Title = strings.TrimSpace(img.Title)
	img.Description = strings.TrimSpace(img.Description)
	if err := validate.Image(img); err != nil {
		return nil, err
	}
	out, err := c.images.Update(ctx, img.ID, img)
	if err != nil {
		return nil, fmt.Errorf("update image: %w", err)
	}
	c.mu.Lock()
	replaced := false
	for i := range c.imgs {
		if c.imgs[i].ID == out.ID {
			c.imgs[i] = *out
			replaced = true
			break
		}
	}
	if !replaced {
		c.imgs = append(c.imgs, *out)
	}
	c.mu.Unlock()
	return out, nil
}

// DeleteImage removes an image on the server and locally.
func (c *Catalog) DeleteImage(ctx context.Context, id string) error {
	if err := c.images.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	c.mu.Lock()
	for i := range c.imgs {
		if c.imgs[i].ID == id {
			c.imgs = append(c.imgs[:i:i], c.imgs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// CreateCategory creates and appends a category.
func (c *Catalog) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if err := validate.EntityName(name); err != nil {
		return nil, err
	}
	out, err := c.categories.Create(ctx, model.Category{Name: name})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	c.mu.Lock()
	c.cats = append(c.cats, *out)
	c.mu.Unlock()
	return out, nil
}

// CreateTag creates and appends a tag.
func (c *Catalog) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if err := validate.EntityName(name); err != nil {
		return nil, err
	}
	out, err := c.tags.Create(ctx, model.Tag{Name: name})
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	c.mu.Lock()
	c.tgs = append(c.tgs, *out)
	c.mu.Unlock()
	return out, nil
}
