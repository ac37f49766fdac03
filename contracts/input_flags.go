package contracts

type Backend string

const (
	BackendGofpdf Backend = "gofpdf"
	BackendStream Backend = "stream"
)

type InputFlags struct {
	Files        []string
	InputRootDir string
	OutputDir    string
	Page         PageSize
	Backend      Backend
	Verify       bool
}
