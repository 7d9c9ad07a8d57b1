package catalog

// versions.go orders tags newest first.
// Tags are compared component by component on ".", numerically; a component
// that is not a number counts as 0. "latest" beats everything.

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Latest is the sentinel tag that always sorts as the newest
const Latest = "latest"

// DefaultMajorWidth is the number of leading dot components that form a
// major version ("2023.1" for "2023.1.0.235.1").
const DefaultMajorWidth = 2

var yearVersion = regexp.MustCompile(`^20\d{2}$`)

// CompareVersions returns -1, 0 or 1 as a is older than, equal to, or newer than b.
func CompareVersions(a, b string) int {
	switch {
	case a == Latest && b == Latest:
		return 0
	case a == Latest:
		return 1
	case b == Latest:
		return -1
	}

	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := range max(len(as), len(bs)) {
		x, y := versionToken(as, i), versionToken(bs, i)
		if x == y {
			continue
		}
		if x > y {
			return 1
		}
		return -1
	}
	return 0
}

func versionToken(parts []string, i int) int64 {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(parts[i]), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// SortTags sorts tags newest first using DefaultMajorWidth for de-duplication.
func SortTags(tags []string, uniqueMajor bool) []string {
	return SortTagsWidth(tags, uniqueMajor, DefaultMajorWidth)
}

// SortTagsWidth sorts tags newest first. With uniqueMajor only the newest tag
// of every major version is kept, in order of first appearance.
// Fewer than two tags are returned untouched; the input is never modified.
func SortTagsWidth(tags []string, uniqueMajor bool, width int) []string {
	if len(tags) < 2 {
		return tags
	}

	sorted := slices.Clone(tags)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return CompareVersions(b, a)
	})
	if !uniqueMajor {
		return sorted
	}

	seen := make(map[string]struct{}, len(sorted))
	unique := make([]string, 0, len(sorted))
	for _, tag := range sorted {
		major := MajorPrefix(tag, width)
		if _, ok := seen[major]; ok {
			continue
		}
		seen[major] = struct{}{}
		unique = append(unique, tag)
	}
	return unique
}

// MajorPrefix returns the first width dot components of tag.
// A non-positive width means DefaultMajorWidth.
func MajorPrefix(tag string, width int) string {
	if width <= 0 {
		width = DefaultMajorWidth
	}
	parts := strings.SplitN(tag, ".", width+1)
	if len(parts) > width {
		parts = parts[:width]
	}
	return strings.Join(parts, ".")
}

// SplitYearVersion splits a date-versioned tag into its major part and the
// remainder ("2023.1", "0.235.1"). ok is false for any other tag shape.
func SplitYearVersion(tag string, width int) (major, rest string, ok bool) {
	first, _, _ := strings.Cut(tag, ".")
	if !yearVersion.MatchString(first) {
		return "", "", false
	}
	major = MajorPrefix(tag, width)
	rest = strings.TrimPrefix(strings.TrimPrefix(tag, major), ".")
	return major, rest, true
}
