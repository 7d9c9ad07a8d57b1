package catalog

import (
	"strings"

	"github.com/samber/lo"
	"github.com/thesavant42/icr-browser/internal/models"
)

const (
	DefaultRegistry = "containers.intersystems.com"
	PublicRoot      = "intersystems"
	InternalRoot    = "iscinternal"

	armSuffix = "-" + models.ArchARM64
)

// Rules holds the classification constants applied by Normalize
type Rules struct {
	Registry      string   // registry host prepended to FullName
	ProductPrefix string   // names starting with this are the primary product...
	Excluded      []string // ...unless listed here
	PublicRoot    string   // the only namespace whose images can be public
	PublicTools   []string // names that are always public in PublicRoot
}

// DefaultRules returns the rules for the InterSystems Container Registry
func DefaultRules() Rules {
	return Rules{
		Registry:      DefaultRegistry,
		ProductPrefix: "iris",
		Excluded:      []string{"iris-operator"},
		PublicRoot:    PublicRoot,
		PublicTools: []string{
			"arbiter",
			"passwordhash",
			"webgateway",
			"webgateway-lockeddown",
			"webgateway-nginx",
		},
	}
}

// Normalize converts a raw registry listing into typed images.
// It fails on the first malformed repository path and returns no images in that case.
func Normalize(listing models.Listing, rules Rules) ([]models.Image, error) {
	images := make([]models.Image, 0, len(listing.Repositories))
	for i, repo := range listing.Repositories {
		img, err := rules.normalizeRepository(repo)
		if err != nil {
			return nil, &ValidationError{Index: i, Path: repo.Repository, Reason: err.Error()}
		}
		images = append(images, img)
	}
	return images, nil
}

func (r Rules) normalizeRepository(repo models.Repository) (models.Image, error) {
	root, name, ok := strings.Cut(repo.Repository, "/")
	if !ok {
		return models.Image{}, errMissingSlash
	}
	if root == "" || name == "" {
		return models.Image{}, errEmptySegment
	}

	kind := r.classifyKind(name)
	return models.Image{
		Root:         root,
		Name:         name,
		FullName:     r.Registry + "/" + root + "/" + name,
		Kind:         kind,
		Edition:      classifyEdition(kind, name),
		Arch:         partitionArch(repo.Tags),
		PublicAccess: r.isPublic(root, name),
	}, nil
}

func (r Rules) classifyKind(name string) models.Kind {
	if strings.HasPrefix(name, r.ProductPrefix) && !lo.Contains(r.Excluded, name) {
		return models.KindPrimary
	}
	return models.KindTools
}

func classifyEdition(kind models.Kind, name string) models.Edition {
	if kind != models.KindPrimary {
		return models.EditionAny
	}
	if lo.Contains(strings.Split(name, "-"), "community") {
		return models.EditionCommunity
	}
	return models.EditionGeneral
}

// isPublic never grants access outside the public root, whatever the name says.
func (r Rules) isPublic(root, name string) bool {
	if root != r.PublicRoot {
		return false
	}
	return strings.Contains(name, "-community") || lo.Contains(r.PublicTools, name)
}

// partitionArch splits tags per architecture. A "-arm64" suffix marks an
// arm64-only tag; anything else is a multi-arch tag resolved at pull time.
func partitionArch(tags []string) map[string][]string {
	var amd, arm []string
	for _, tag := range tags {
		if base, ok := strings.CutSuffix(tag, armSuffix); ok {
			arm = append(arm, base)
			continue
		}
		amd = append(amd, tag)
		arm = append(arm, tag)
	}
	return map[string][]string{
		models.ArchAMD64: lo.Uniq(amd),
		models.ArchARM64: lo.Uniq(arm),
	}
}
