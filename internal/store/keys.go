package store

import "fmt"

// Key layout:
//
//	doc:{path}                                   -> JSON document
//	grp:{group}\x00{path}                        -> empty, collection group membership
//	idx:{group}\x00{field}\x00{value}\x00{path}  -> empty, equality index
//	out:{seq}                                    -> recorded change awaiting its handler
//
// Paths never contain NUL, so the separator cannot collide with a path.
// Every key family is ordered by path within its prefix, which is the
// store's natural result order.
const (
	docPrefix    = "doc:"
	groupPrefix  = "grp:"
	indexPrefix  = "idx:"
	outboxPrefix = "out:"
	sep          = "\x00"
)

func docKey(path string) []byte {
	return []byte(docPrefix + path)
}

func groupScanPrefix(group string) string {
	return groupPrefix + group + sep
}

func groupKey(group, path string) []byte {
	return []byte(groupScanPrefix(group) + path)
}

func indexScanPrefix(group, field, value string) string {
	return indexPrefix + group + sep + field + sep + value + sep
}

func indexKey(group, field, value, path string) []byte {
	return []byte(indexScanPrefix(group, field, value) + path)
}

// outboxKey zero-pads seq so entries sort in commit order.
func outboxKey(seq uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", outboxPrefix, seq)
}
