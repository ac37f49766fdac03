package contracts

// ImageFolder is one batch job: every image directly inside Path becomes a
// page of a single document named after the folder.
type ImageFolder struct {
	ImagePaths []string
	Name       string
	Path       string
	ImagesSize int64
}

type BatchResult struct {
	Folder  string
	PDFPath string
	Pages   int
	Status  Status
	Err     error
}
