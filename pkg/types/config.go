package types

// BuildConfig holds settings for the table build stage.
type BuildConfig struct {
	// AnnotationsDir is the directory scanned in batch mode for annotation
	// YAML files (default "annotations").
	AnnotationsDir string `json:"annotations_dir" yaml:"annotations_dir"`

	// TablesDir is the directory where built tables are written in batch
	// mode (default "tables").
	TablesDir string `json:"tables_dir" yaml:"tables_dir"`

	// Marker overrides the provenance marker substring. Empty uses Marker.
	Marker string `json:"marker,omitempty" yaml:"marker,omitempty"`

	// Sentinel overrides the fallback microbe name. Empty uses Sentinel.
	Sentinel string `json:"sentinel,omitempty" yaml:"sentinel,omitempty"`
}

// StoreConfig holds settings for the row store stage.
type StoreConfig struct {
	// StoreDir is the directory holding the SQLite database and exports
	// (default "store").
	StoreDir string `json:"store_dir" yaml:"store_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Build BuildConfig `json:"build" yaml:"build"`
	Store StoreConfig `json:"store" yaml:"store"`
}
