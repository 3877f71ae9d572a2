package images

import (
	"strings"

	"github.com/wtag-io/wtag/pkg/storage"
)

// SensitiveTag is the reserved tag that marks opt-in-only content.
const SensitiveTag = "*sensitive"

// ExclusionPrefix marks a query term as an exclusion.
const ExclusionPrefix = "-"

// ParseTagExpression splits query terms into a storage filter. Each term is
// either a bare tag (inclusion) or a "-"-prefixed tag (exclusion). Unless
// the inclusion set names the sensitive tag explicitly, the sensitive tag is
// added to the exclusions, so sensitive content never appears unrequested.
func ParseTagExpression(terms []string) storage.ImageFilter {
	var filter storage.ImageFilter
	sensitiveRequested := false

	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(term, ExclusionPrefix); ok {
			if rest != "" {
				filter.Exclude = append(filter.Exclude, rest)
			}
			continue
		}
		if term == SensitiveTag {
			sensitiveRequested = true
		}
		filter.Include = append(filter.Include, term)
	}

	if !sensitiveRequested {
		filter.Exclude = append(filter.Exclude, SensitiveTag)
	}
	return filter
}

// normalizeSortKey maps caller-provided sort keys onto the storage sort
// whitelist, defaulting to name.
func normalizeSortKey(key string) string {
	switch key {
	case storage.SortByHash, storage.SortByUploaded, storage.SortByUpdated:
		return key
	default:
		return storage.SortByName
	}
}
