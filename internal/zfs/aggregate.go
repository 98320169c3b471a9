package zfs

import (
	"cmp"
	"slices"
	"strings"
)

// Hooks receive the conditions Aggregate tolerates. Nil fields are ignored.
type Hooks struct {
	// Dropped is called for datasets of an unrecognized type.
	Dropped func(ds Dataset)
	// SizeError is called when a used/available value of a top-level
	// filesystem cannot be decoded. The value does not count towards the totals.
	SizeError func(ds Dataset, property string, err error)
}

// Aggregate sorts datasets into pools, filesystems, snapshots and bookmarks
// and sums used/available over top-level filesystems.
func Aggregate(in ListOutput) Stats {
	return AggregateWithHooks(in, Hooks{})
}

// AggregateWithHooks is Aggregate with notifications for dropped datasets and
// undecodable sizes.
func AggregateWithHooks(in ListOutput, hooks Hooks) Stats {
	st := Stats{
		Pools:       []string{},
		Filesystems: []Dataset{},
		Snapshots:   []Dataset{},
		Bookmarks:   []Dataset{},
	}
	var used, avail uint64

	add := func(total *uint64, ds Dataset, property, value string) {
		n, err := ParseSize(value)
		if err != nil {
			if hooks.SizeError != nil {
				hooks.SizeError(ds, property, err)
			}
			return
		}
		*total += n
	}

	for _, ds := range in.Datasets {
		if !slices.Contains(st.Pools, ds.Pool) {
			st.Pools = append(st.Pools, ds.Pool)
		}

		switch ds.Type {
		case TypeFilesystem:
			if isTopLevel(ds.Name) {
				add(&used, ds, "used", ds.Properties.Used.Value)
				add(&avail, ds, "available", ds.Properties.Available.Value)
			}
			st.Filesystems = append(st.Filesystems, ds)
		case TypeSnapshot:
			st.Snapshots = append(st.Snapshots, ds)
		case TypeBookmark:
			st.Bookmarks = append(st.Bookmarks, ds)
		default:
			if hooks.Dropped != nil {
				hooks.Dropped(ds)
			}
		}
	}

	slices.Sort(st.Pools)
	for _, list := range [][]Dataset{st.Filesystems, st.Snapshots, st.Bookmarks} {
		slices.SortFunc(list, byName)
	}

	st.TotalUsed = FormatBytes(used)
	st.TotalAvailable = FormatBytes(avail)
	return st
}

// isTopLevel reports whether name is a pool root ("tank") or a direct child
// of one ("tank/home"). Deeper filesystems are already part of their parent's usage.
func isTopLevel(name string) bool {
	return strings.Count(name, "/") <= 1
}

func byName(a, b Dataset) int {
	return cmp.Compare(a.Name, b.Name)
}
