package pages

import "github.com/zopapami/artgallery/internal/model"

// NoSelection is the ActiveIndex of a view with nothing hovered
const NoSelection = -1

// GalleryView holds the listed artworks and the single active selection.
type GalleryView struct {
	Artworks    []*model.Artwork
	ActiveIndex int
	Active      *model.Artwork
}

func NewGalleryView(artworks []*model.Artwork) *GalleryView {
	v := &GalleryView{ActiveIndex: NoSelection}
	v.Refresh(artworks)
	return v
}

// Refresh replaces the list. The selection survives only if the active
// artwork is still listed.
func (v *GalleryView) Refresh(artworks []*model.Artwork) {
	if artworks == nil {
		artworks = []*model.Artwork{}
	}
	v.Artworks = artworks

	if v.Active == nil {
		v.ClearActive()
		return
	}
	if !v.SelectID(v.Active.ID) {
		v.ClearActive()
	}
}

// SetActive selects the artwork at index i; out of range clears.
func (v *GalleryView) SetActive(i int) bool {
	if i < 0 || i >= len(v.Artworks) {
		v.ClearActive()
		return false
	}
	v.ActiveIndex = i
	v.Active = v.Artworks[i]
	return true
}

// SelectID selects the artwork with the given id
func (v *GalleryView) SelectID(id string) bool {
	for i, a := range v.Artworks {
		if a.ID == id {
			return v.SetActive(i)
		}
	}
	v.ClearActive()
	return false
}

func (v *GalleryView) ClearActive() {
	v.ActiveIndex = NoSelection
	v.Active = nil
}

func (v *GalleryView) IsActive(id string) bool {
	return v.Active != nil && v.Active.ID == id
}

func (v *GalleryView) Empty() bool {
	return len(v.Artworks) == 0
}
