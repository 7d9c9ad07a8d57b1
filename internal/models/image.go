package models

import "time"

// Kind is the coarse category of a repository
type Kind string

const (
	KindPrimary Kind = "primary" // the database product (iris*, except the operator)
	KindTools   Kind = "tools"   // everything else
)

// Edition is the license tier of a primary-product repository
type Edition string

const (
	EditionAny       Edition = "any" // tools are never constrained by edition
	EditionGeneral   Edition = "general"
	EditionCommunity Edition = "community"
)

// Architecture keys used in Image.Arch
const (
	ArchAMD64 = "amd64"
	ArchARM64 = "arm64"
)

// Architectures lists every key that Image.Arch is populated with
var Architectures = []string{ArchAMD64, ArchARM64}

// Repository is one entry of a raw registry listing
type Repository struct {
	Repository string   `json:"repository"` // root/name, e.g. "intersystems/iris-community"
	Tags       []string `json:"tags"`
}

// Listing is the raw registry listing, in the format produced by
// `docker-ls repositories -j`
type Listing struct {
	Repositories []Repository `json:"repositories"`
}

// CachedListing is a raw listing read back from the local cache
type CachedListing struct {
	Registry  string
	Listing   Listing
	FetchedAt time.Time
}

// Image is a normalized repository with derived classification flags.
// Images are built once per catalog load and never mutated afterwards.
type Image struct {
	Root         string              // namespace, e.g. "intersystems"
	Name         string              // repository name within the root, may contain "/"
	FullName     string              // registry/root/name
	Kind         Kind                // primary or tools
	Edition      Edition             // community, general or any
	Arch         map[string][]string // architecture -> tags available for it
	PublicAccess bool                // pullable without registry credentials

	// Tags holds the sorted, filtered tags for the selected architecture.
	// Only set on images returned by the filter engine.
	Tags []string
}

// ImageFilter holds the user-selected criteria for the filter engine
type ImageFilter struct {
	Kind        Kind
	Root        string
	Community   bool   // community toggle; ignored by edition "any"
	Arch        string // ArchAMD64 or ArchARM64
	UniqueMajor bool   // collapse tags to one per major version
	MajorWidth  int    // dot components forming the major version (0 = default)
	Name        string // substring of Image.Name; empty matches all
	Tag         string // substring of each tag; empty matches all
}
