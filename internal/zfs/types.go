package zfs

// Dataset types reported by `zfs list -j`.
const (
	TypeFilesystem = "FILESYSTEM"
	TypeSnapshot   = "SNAPSHOT"
	TypeBookmark   = "BOOKMARK"
)

// PropertySource records where a property value came from (local, inherited, ...).
// It is passed through untouched.
type PropertySource struct {
	Type string `json:"type" yaml:"type"`
	Data string `json:"data" yaml:"data"`
}

// Property is a single raw property value as printed by zfs.
type Property struct {
	Value  string         `json:"value" yaml:"value"`
	Source PropertySource `json:"source" yaml:"source"`
}

// DatasetProperties holds the properties requested from zfs list.
type DatasetProperties struct {
	Used       Property `json:"used" yaml:"used"`
	Available  Property `json:"available" yaml:"available"`
	Referenced Property `json:"referenced" yaml:"referenced"`
	Mountpoint Property `json:"mountpoint" yaml:"mountpoint"`
}

// Dataset is one filesystem, snapshot or bookmark entry.
type Dataset struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Pool      string `json:"pool" yaml:"pool"`
	CreateTXG string `json:"createtxg" yaml:"createtxg"`
	// Dataset and SnapshotName are only set on snapshots.
	Dataset      *string           `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	SnapshotName *string           `json:"snapshot_name,omitempty" yaml:"snapshot_name,omitempty"`
	Properties   DatasetProperties `json:"properties" yaml:"properties"`
}

// OutputVersion is the version header of the JSON output.
type OutputVersion struct {
	Command   string `json:"command" yaml:"command"`
	VersMajor uint32 `json:"vers_major" yaml:"vers_major"`
	VersMinor uint32 `json:"vers_minor" yaml:"vers_minor"`
}

// ListOutput is the decoded output of `zfs list -t all -j`.
// The map keys carry no meaning; Dataset.Name identifies an entry.
type ListOutput struct {
	OutputVersion OutputVersion      `json:"output_version" yaml:"output_version"`
	Datasets      map[string]Dataset `json:"datasets" yaml:"datasets"`
}

// Stats is the aggregated view served to the UI.
type Stats struct {
	Pools          []string  `json:"pools" yaml:"pools"`
	Filesystems    []Dataset `json:"filesystems" yaml:"filesystems"`
	Snapshots      []Dataset `json:"snapshots" yaml:"snapshots"`
	Bookmarks      []Dataset `json:"bookmarks" yaml:"bookmarks"`
	TotalUsed      string    `json:"total_used" yaml:"total_used"`
	TotalAvailable string    `json:"total_available" yaml:"total_available"`
}
