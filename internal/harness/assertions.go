package harness

import (
	"fmt"
	"slices"
)

// CheckExpect compares an outcome with the expectation and returns one
// message per mismatch.
func CheckExpect(expect Expect, out Outcome) []string {
	var errs []string

	if expect.Error != "" {
		switch {
		case out.Error == nil:
			errs = append(errs, fmt.Sprintf("expected error %s, query succeeded", expect.Error))
		case out.Error.Code != expect.Error:
			errs = append(errs, fmt.Sprintf("expected error %s, got %s: %s",
				expect.Error, out.Error.Code, out.Error.Message))
		}
		return errs
	}

	if out.Error != nil {
		return append(errs, fmt.Sprintf("unexpected error %s: %s", out.Error.Code, out.Error.Message))
	}

	if expect.Entries != nil {
		var got []string
		if out.Entries != nil {
			got = *out.Entries
		}
		errs = appendNames(errs, "entries", *expect.Entries, got)
	}

	if out.Page == nil {
		if expect.Collections != nil {
			errs = append(errs, "expected a collections page, got none")
		}
		return errs
	}

	if expect.Collections != nil {
		errs = appendNames(errs, "collections", *expect.Collections, out.Page.Collections)
	}
	errs = appendInt(errs, "num_items", expect.NumItems, out.Page.NumItems)
	errs = appendInt(errs, "num_pages", expect.NumPages, out.Page.NumPages)
	errs = appendInt(errs, "index", expect.Index, out.Page.Index)
	errs = appendInt(errs, "size", expect.Size, out.Page.Size)
	return errs
}

func appendNames(errs []string, what string, want, got []string) []string {
	if len(want) == 0 && len(got) == 0 {
		return errs
	}
	if !slices.Equal(want, got) {
		errs = append(errs, fmt.Sprintf("%s: expected %v, got %v", what, want, got))
	}
	return errs
}

func appendInt(errs []string, what string, want *int, got int) []string {
	if want != nil && *want != got {
		errs = append(errs, fmt.Sprintf("%s: expected %d, got %d", what, *want, got))
	}
	return errs
}
