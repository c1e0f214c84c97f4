package highlight

import "github.com/GriffinCanCode/TextWarden/internal/domain/surface"

// Popup dimensions used for placement
const (
	PopupWidth  = 300
	PopupHeight = 250
	popupMargin = 5
)

// Placement names the side of the anchor the popup opens on
type Placement string

const (
	BelowRight Placement = "below-right"
	BelowLeft  Placement = "below-left"
	AboveRight Placement = "above-right"
	AboveLeft  Placement = "above-left"
)

// Position is where a popup is drawn, in page coordinates
type Position struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Placement Placement `json:"placement"`
}

// PlacePopup positions a popup next to an anchor given in viewport
// coordinates. It opens below unless there is too little room and more room
// above, and right-aligned to the anchor's left edge unless the same holds for
// the left side. The result is clamped inside the viewport with a 5px margin.
func PlacePopup(anchor surface.Rect, view surface.Size, scroll surface.Point, popup surface.Size) Position {
	if popup.Width <= 0 || popup.Height <= 0 {
		popup = surface.Size{Width: PopupWidth, Height: PopupHeight}
	}

	spaceAbove := anchor.Top
	spaceBelow := view.Height - anchor.Bottom()
	spaceLeft := anchor.Left
	spaceRight := view.Width - anchor.Right()

	above := spaceBelow < popup.Height && spaceAbove > spaceBelow
	left := spaceRight < popup.Width && spaceLeft > spaceRight

	var pos Position
	switch {
	case above && left:
		pos.Placement = AboveLeft
	case above:
		pos.Placement = AboveRight
	case left:
		pos.Placement = BelowLeft
	default:
		pos.Placement = BelowRight
	}

	if left {
		pos.X = anchor.Right() - popup.Width + scroll.X
	} else {
		pos.X = anchor.Left + scroll.X
	}
	if above {
		pos.Y = anchor.Top + scroll.Y - popup.Height - popupMargin
	} else {
		pos.Y = anchor.Bottom() + scroll.Y + popupMargin
	}

	pos.X = clamp(pos.X, scroll.X+popupMargin, scroll.X+view.Width-popup.Width-popupMargin)
	pos.Y = clamp(pos.Y, scroll.Y+popupMargin, scroll.Y+view.Height-popup.Height-popupMargin)
	return pos
}

// clamp matches max(lo, min(v, hi)); lo wins when the window is too small
func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
