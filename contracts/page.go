package contracts

// PointsPerPixel is the size of one page unit in PDF points. Page sizes,
// placements and image pixels all share this unit, the same px unit a
// jsPDF document uses, so a 446.46px wide image spans an A4 page.
const PointsPerPixel = 96.0 / 72.0

// PageSize is expressed in px, see PointsPerPixel.
type PageSize struct {
	Width  float64
	Height float64
}

func (p PageSize) Landscape() PageSize {
	if p.Width >= p.Height {
		return p
	}
	return PageSize{Width: p.Height, Height: p.Width}
}

// Points is the page size as written to the PDF MediaBox.
func (p PageSize) Points() (width, height float64) {
	return p.Width * PointsPerPixel, p.Height * PointsPerPixel
}

func pageFromPoints(width, height float64) PageSize {
	return PageSize{Width: width / PointsPerPixel, Height: height / PointsPerPixel}
}

var (
	PageA3     = pageFromPoints(841.89, 1190.55)
	PageA4     = pageFromPoints(595.28, 841.89)
	PageA5     = pageFromPoints(419.53, 595.28)
	PageLetter = pageFromPoints(612, 792)
	PageLegal  = pageFromPoints(612, 1008)
)

var NamedPages = map[string]PageSize{
	"a3":     PageA3,
	"a4":     PageA4,
	"a5":     PageA5,
	"letter": PageLetter,
	"legal":  PageLegal,
}
