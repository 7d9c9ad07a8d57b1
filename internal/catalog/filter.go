package catalog

import (
	"strings"

	"github.com/samber/lo"
	"github.com/thesavant42/icr-browser/internal/models"
)

// FilterImages reduces images to those matching filter and fills each
// survivor's Tags with its sorted, filtered tags for filter.Arch.
// Image order is preserved; images left without tags are still returned.
func FilterImages(images []models.Image, filter models.ImageFilter) []models.Image {
	editions := []models.Edition{models.EditionGeneral, models.EditionAny}
	if filter.Community {
		editions = []models.Edition{models.EditionCommunity, models.EditionAny}
	}
	arch := filter.Arch
	if arch == "" {
		arch = models.ArchAMD64
	}

	matched := lo.Filter(images, func(img models.Image, _ int) bool {
		return img.Kind == filter.Kind &&
			img.Root == filter.Root &&
			lo.Contains(editions, img.Edition) &&
			strings.Contains(img.Name, filter.Name)
	})

	return lo.Map(matched, func(img models.Image, _ int) models.Image {
		sorted := SortTagsWidth(img.Arch[arch], filter.UniqueMajor, filter.MajorWidth)
		img.Tags = lo.Filter(sorted, func(tag string, _ int) bool {
			return tag != "" && strings.Contains(tag, filter.Tag)
		})
		return img
	})
}

// LatestRef returns "fullName:tag" for the newest non-"latest" tag of the
// public image called name, or "" when there is none.
func LatestRef(images []models.Image, name, arch string) string {
	img, ok := lo.Find(images, func(img models.Image) bool {
		return img.Name == name && img.PublicAccess
	})
	if !ok {
		return ""
	}
	for _, tag := range SortTags(img.Arch[arch], false) {
		if tag != "" && tag != Latest {
			return img.FullName + ":" + tag
		}
	}
	return ""
}
