package site

// Image is an enlargeable picture on the page.
type Image struct {
	Src string
	Alt string
}

// Gallery is the set of enlargeable pictures on the page, in display order.
var Gallery = []Image{
	{Src: "/images/gallery/shore.png", Alt: "The Jersey Shore in the summer"},
	{Src: "/images/gallery/pines.png", Alt: "Hiking through the Pine Barrens"},
	{Src: "/images/gallery/diner.png", Alt: "Pork roll, egg and cheese at the diner"},
}

// Popup is the enlarged image overlay.
type Popup struct {
	Visible     bool
	PhotoSrc    string
	PhotoAlt    string
	Description string
}

// Open shows img in the popup. The alt text doubles as the caption.
func (p *Popup) Open(img Image) {
	p.PhotoSrc = img.Src
	p.PhotoAlt = img.Alt
	p.Description = img.Alt
	p.Visible = true
}

// Close hides the popup. The last image stays loaded.
func (p *Popup) Close() {
	p.Visible = false
}
