package vonage

import (
	"maps"
	"slices"
	"strings"

	"github.com/aussiebroadwan/vonage/pkg/errx"
)

const requiredReason = "required"

// fieldErrors collects request validation failures keyed by wire field name.
type fieldErrors map[string]string

func (f fieldErrors) add(field, reason string) {
	if _, ok := f[field]; !ok {
		f[field] = reason
	}
}

// err returns nil when no field failed, otherwise a KindValidation error
// whose Data is the field map.
func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	keys := slices.Sorted(maps.Keys(f))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return &errx.Error{
		Kind:    errx.KindValidation,
		Message: "invalid request: " + strings.Join(parts, "; "),
		Data:    map[string]string(f),
	}
}

func oneOf(v string, allowed ...string) bool {
	return slices.Contains(allowed, v)
}
