// Package filter derives the visible gallery from the catalog and the consumer's filter state.
// Everything here is pure; callers recompute on every input change.
package filter

import (
	"strings"

	"github.com/and161185/imageshop/internal/model"
)

// Apply narrows images through the stages in order: category, price, favorites, tags, search.
// tags resolves selected tag ids to display names; favorites holds favorited image ids.
func Apply(images []model.Image, tags []model.Tag, favorites map[string]struct{}, st model.FilterState) []model.Image {
	out := make([]model.Image, 0, len(images))
	tagNames := selectedTagNames(tags, st.SelectedTagIDs)
	term := strings.ToLower(strings.TrimSpace(st.SearchTerm))
	favOnly := st.FavoritesOnly || st.ShowFavoritesOnly

	for _, img := range images {
		if !inCategories(img, st.SelectedCategoryIDs) {
			continue
		}
		if img.Price < st.PriceMin || img.Price > st.PriceMax {
			continue
		}
		if favOnly {
			if _, ok := favorites[img.ID]; !ok {
				continue
			}
		}
		if len(st.SelectedTagIDs) > 0 && !mentionsAny(img, tagNames) {
			continue
		}
		if term != "" && !contains(img, term) {
			continue
		}
		out = append(out, img)
	}
	return out
}

func inCategories(img model.Image, selected map[string]struct{}) bool {
	if len(selected) == 0 {
		return true
	}
	_, ok := selected[img.CategoryID]
	return ok
}

// selectedTagNames returns lower-cased display names; ids with no known tag are ignored.
func selectedTagNames(tags []model.Tag, selected map[string]struct{}) []string {
	if len(selected) == 0 {
		return nil
	}
	names := make([]string, 0, len(selected))
	for _, t := range tags {
		if _, ok := selected[t.ID]; ok && strings.TrimSpace(t.Name) != "" {
			names = append(names, strings.ToLower(strings.TrimSpace(t.Name)))
		}
	}
	return names
}

func mentionsAny(img model.Image, lowerNames []string) bool {
	for _, n := range lowerNames {
		if contains(img, n) {
			return true
		}
	}
	return false
}

func contains(img model.Image, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(img.Title), lowerTerm) ||
		strings.Contains(strings.ToLower(img.Description), lowerTerm)
}

// AdminSearch matches title, description or id case-insensitively; blank returns all.
func AdminSearch(images []model.Image, term string) []model.Image {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]model.Image(nil), images...)
	}
	var out []model.Image
	for _, img := range images {
		if contains(img, term) || strings.Contains(strings.ToLower(img.ID), term) {
			out = append(out, img)
		}
	}
	return out
}

// Bounds returns the [min,max] catalog price; [0,0] when empty.
func Bounds(images []model.Image) (lo, hi model.Money) {
	for i, img := range images {
		if i == 0 || img.Price < lo {
			lo = img.Price
		}
		if i == 0 || img.Price > hi {
			hi = img.Price
		}
	}
	return lo, hi
}
