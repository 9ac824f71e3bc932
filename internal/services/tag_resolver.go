package services

import (
	"errors"
	"fmt"
	"strings"

	"showroom/internal/models"
	"showroom/internal/repositories"
)

// TagResolver finds or creates tags by name and links them to cars.
type TagResolver struct {
	tags repositories.TagRepository
	cars repositories.CarRepository
}

// NewTagResolver creates a new TagResolver.
func NewTagResolver(tags repositories.TagRepository, cars repositories.CarRepository) *TagResolver {
	return &TagResolver{tags: tags, cars: cars}
}

// Resolve returns the tag with exactly this name, creating it on first use.
// If a concurrent request inserts the same name first, the existing row is returned.
func (r *TagResolver) Resolve(name string) (*models.Tag, error) {
	tag, err := r.tags.GetByName(name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	tag = &models.Tag{Name: name}
	if err := r.tags.Create(tag); err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, err
		}
		existing, getErr := r.tags.GetByName(name)
		if getErr != nil {
			return nil, fmt.Errorf("tag %q lost creation race and could not be re-read: %w", name, getErr)
		}
		return existing, nil
	}
	return tag, nil
}

// Attach resolves name and links the tag to carID. Re-linking is a no-op.
func (r *TagResolver) Attach(carID uint, name string) (*models.Tag, error) {
	tag, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	if err := r.cars.AttachTag(carID, tag.ID); err != nil {
		return nil, err
	}
	return tag, nil
}

// ParseTags splits a comma-separated list, trims each name, drops empty names and
// collapses duplicates keeping the first occurrence.
func ParseTags(csv string) []string {
	parts := strings.Split(csv, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
