package content

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "Hello, World!", want: "hello-world"},
		{input: "  Leading and trailing  ", want: "leading-and-trailing"},
		{input: "Déjà vu: 2024 edition", want: "d-j-vu-2024-edition"},
		{input: "multiple---hyphens__here", want: "multiple-hyphens-here"},
		{input: "UPPER case", want: "upper-case"},
		{input: "!!!", want: ""},
		{input: "", want: ""},
		{input: "already-a-slug", want: "already-a-slug"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Slugify(tc.input), "input %q", tc.input)
	}
}

func TestSlugCandidate(t *testing.T) {
	now := time.Unix(1700000000, 0)
	require.Equal(t, "hello-world", SlugCandidate("hello-world", now, 0))
	require.Equal(t, "hello-world-1700000000", SlugCandidate("hello-world", now, 1))
	require.Equal(t, "hello-world-1700000001", SlugCandidate("hello-world", now, 2))

	pattern := regexp.MustCompile(`^hello-world-\d+$`)
	for attempt := 1; attempt < 5; attempt++ {
		require.Regexp(t, pattern, SlugCandidate("hello-world", now, attempt))
	}

	long := strings.Repeat("ab-", 85)
	candidate := SlugCandidate(long, now, 1)
	require.LessOrEqual(t, len(candidate), MaxSlugLength)
	require.Regexp(t, `^[a-z0-9]+(-[a-z0-9]+)*-1700000000$`, candidate)
}

func TestTrimSlug(t *testing.T) {
	require.Equal(t, "abc", TrimSlug("abc-def", 4))
	require.Equal(t, "abc-def", TrimSlug("abc-def", 10))
	require.Equal(t, "", TrimSlug("abc", 0))
}

func TestCheckLengths(t *testing.T) {
	errs := CheckLengths(nil,
		Limit{Field: "category", Value: strings.Repeat("é", 100), Max: 100},
		Limit{Field: "author", Value: strings.Repeat("x", 101), Max: 100},
	)
	require.Len(t, errs, 1)
	require.Equal(t, "author", errs[0].Field)
	require.Equal(t, "must be at most 100 characters", errs[0].Message)
}

func TestResolveStatus(t *testing.T) {
	draft := StatusDraft

	got := ResolveStatus(ScopePublic, &draft)
	require.NotNil(t, got)
	require.Equal(t, StatusPublished, *got)

	got = ResolveStatus(ScopePublic, nil)
	require.NotNil(t, got)
	require.Equal(t, StatusPublished, *got)

	got = ResolveStatus(ScopeAdmin, &draft)
	require.Equal(t, StatusDraft, *got)

	require.Nil(t, ResolveStatus(ScopeAdmin, nil))
}

func TestResolveActive(t *testing.T) {
	inactive := false

	got := ResolveActive(ScopePublic, &inactive)
	require.True(t, *got)

	got = ResolveActive(ScopeAdmin, &inactive)
	require.False(t, *got)

	require.Nil(t, ResolveActive(ScopeAdmin, nil))
}

func TestVisible(t *testing.T) {
	require.True(t, Visible(ScopePublic, StatusPublished))
	require.False(t, Visible(ScopePublic, StatusDraft))
	require.False(t, Visible(ScopePublic, StatusArchived))
	require.True(t, Visible(ScopeAdmin, StatusDraft))

	require.False(t, VisibleActive(ScopePublic, false))
	require.True(t, VisibleActive(ScopeAdmin, false))
}

func TestParseLimit(t *testing.T) {
	limit, err := ParseLimit(url.Values{})
	require.NoError(t, err)
	require.Zero(t, limit)

	limit, err = ParseLimit(url.Values{"limit": {"3"}})
	require.NoError(t, err)
	require.Equal(t, 3, limit)

	_, err = ParseLimit(url.Values{"limit": {"abc"}})
	require.True(t, IsValidation(err))

	_, err = ParseLimit(url.Values{"limit": {"0"}})
	require.True(t, IsValidation(err))

	_, err = ParseLimit(url.Values{"limit": {"201"}})
	require.True(t, IsValidation(err))
}

func TestParseStatusFilter(t *testing.T) {
	status, err := ParseStatusFilter(url.Values{"status": {"Published"}})
	require.NoError(t, err)
	require.Equal(t, StatusPublished, *status)

	status, err = ParseStatusFilter(url.Values{})
	require.NoError(t, err)
	require.Nil(t, status)

	_, err = ParseStatusFilter(url.Values{"status": {"live"}})
	require.True(t, IsValidation(err))
}

func TestParseBool(t *testing.T) {
	value, err := ParseBool(url.Values{"featured": {"true"}}, "featured")
	require.NoError(t, err)
	require.True(t, *value)

	value, err = ParseBool(url.Values{"featured": {"off"}}, "featured")
	require.NoError(t, err)
	require.False(t, *value)

	value, err = ParseBool(url.Values{}, "featured")
	require.NoError(t, err)
	require.Nil(t, value)

	_, err = ParseBool(url.Values{"featured": {"maybe"}}, "featured")
	var vErr ValidationError
	require.True(t, errors.As(err, &vErr))
	require.Equal(t, "featured", vErr.Field)
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{Required("name"), Required("email")}
	require.True(t, IsValidation(fmt.Errorf("wrap: %w", errs)))
	require.Equal(t, "is required", errs.Fields()["email"])
	require.Contains(t, errs.Error(), "and 1 more")
	require.False(t, IsValidation(errors.New("plain")))
}

type sampleInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Note  string `json:"note" validate:"max=5"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(sampleInput{Name: "Ana", Email: "ana@example.com"}))

	err := Validate(sampleInput{Email: "not-an-email", Note: "too long"})
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	fields := errs.Fields()
	require.Equal(t, "is required", fields["name"])
	require.Equal(t, "must be a valid email address", fields["email"])
	require.Equal(t, "must be at most 5 characters", fields["note"])
}

func TestValidateEmail(t *testing.T) {
	require.NoError(t, ValidateEmail("email", "team@cvisual.ht"))
	require.True(t, IsValidation(ValidateEmail("email", "")))
	require.True(t, IsValidation(ValidateEmail("email", "nope")))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate("abc", 5))
	require.Equal(t, "ab", Truncate("abc", 2))
	require.Equal(t, "éé", Truncate("ééé", 2))
	require.Equal(t, "", Truncate("abc", 0))
}
