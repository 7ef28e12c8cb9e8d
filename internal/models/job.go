package models

// DownloadJob is one remote file and every local path it must end up at.
// The first destination receives the download; the rest are local copies.
type DownloadJob struct {
	URL          string   // URL is the remote location of the file.
	Destinations []string // Destinations are absolute or data-dir relative file paths.
}

// AreaPlan is the tile selection result for a single area.
type AreaPlan struct {
	Area       Area          // Area is the source region.
	Anchors    GridAnchorSet // Anchors is the expanded grid extent.
	Candidates []string      // Candidates are the synthesized tile names.
	Matches    []string      // Matches are the catalog URLs selected for the area.
	Err        error         // Err is set when the area was skipped.
}
