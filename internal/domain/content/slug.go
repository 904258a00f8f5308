package content

import (
	"strconv"
	"strings"
	"time"
)

// Slugify lower-cases title and collapses every run of characters outside
// [a-z0-9] into a single hyphen, trimming hyphens at both ends.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// MaxSlugLength is the width of the slug column.
const MaxSlugLength = 255

// SlugCandidate returns the slug to try on the given attempt. Attempt zero is
// the base itself; later attempts append the unix time plus attempt-1, so the
// suffix is always purely numeric. The base is shortened as needed so the
// candidate never exceeds MaxSlugLength.
func SlugCandidate(base string, now time.Time, attempt int) string {
	if attempt <= 0 {
		return base
	}
	suffix := strconv.FormatInt(now.Unix()+int64(attempt-1), 10)
	return TrimSlug(base, MaxSlugLength-len(suffix)-1) + "-" + suffix
}

// TrimSlug cuts slug to at most max bytes without leaving a trailing hyphen.
// Slugs are ASCII, so bytes and characters agree.
func TrimSlug(slug string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(slug) > max {
		slug = slug[:max]
	}
	return strings.TrimRight(slug, "-")
}
