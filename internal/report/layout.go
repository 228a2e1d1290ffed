package report

import (
	"fmt"
)

var (
	recordedTimeSlots = []Point{{6, 9.5}, {6, 53.5}}
	diagnosisSlots    = []Point{{79, 17}, {79, 30}, {79, 43}, {79, 61}, {79, 74}, {79, 87}}
	waveformSlots     = []Point{{5, 23}, {5, 36}, {5, 49}, {5, 67}, {5, 80}, {5, 93}}
	waveformSize      = Size{W: 415, H: 109}

	frameSlots = []Point{{4.85, 49}, {4.85, 93}}
	frameSize  = Size{W: 416, H: 328}
	frameStyle = RectStyle{Color: Color{120, 150, 230}, Width: 1}

	titleAt  = Point{5, 3}
	nameAt   = Point{77, 3}
	pageAt   = Point{90, 98.5}
	logoAt   = Point{45, 99}
	logoSize = Size{W: 100, H: 20}
	boardAt  = Point{77, 92}
	board    = Size{W: 120, H: 690}
	legendAt = Point{78, 9.5}
)

// PageHeader holds what is printed once per content page.
type PageHeader struct {
	Title      string
	Technician string
	LegendText string
	Logo       string
	Board      string
	Page       int
	TotalPages int
}

// Render draws the frames, artwork and header text of a page.
func (h PageHeader) Render(d Drawer) {
	for _, at := range frameSlots {
		d.DrawRect(at, frameSize, frameStyle)
	}
	if h.Board != "" {
		d.DrawImage(h.Board, boardAt, board)
	}
	if h.Logo != "" {
		d.DrawImage(h.Logo, logoAt, logoSize)
	}
	d.DrawText(h.Title, titleAt, TextStyle{Size: 24, Color: Black})
	d.DrawText(h.Technician, nameAt, TextStyle{Size: 12, Color: Black})
	d.DrawText(h.LegendText, legendAt, TextStyle{Size: 10, Color: Black})
	d.DrawText(fmt.Sprintf("%d/%d", h.Page, h.TotalPages), pageAt, TextStyle{Size: 10, Color: Black})
}

// PageCount returns the total pages of a report with records content rows
// behind coverPages cover pages.
func PageCount(records, coverPages int) int {
	return (records+RowsPerPage-1)/RowsPerPage + coverPages
}

// Pager is a Drawer that can start new pages.
type Pager interface {
	Drawer
	AddPage()
}

// Layout draws all records of one patient. Each page carries the header and
// RowsPerPage records; pages are numbered after the cover.
func Layout(p Pager, header PageHeader, coverPages int, records [][]Attribute) error {
	header.TotalPages = PageCount(len(records), coverPages)
	for i, attrs := range records {
		row := i % RowsPerPage
		if row == 0 {
			p.AddPage()
			header.Page = coverPages + 1 + i/RowsPerPage
			header.Render(p)
		}
		for _, attr := range attrs {
			if err := attr.Render(p, row); err != nil {
				return fmt.Errorf("record %d: %s: %w", i+1, attr.Kind(), err)
			}
		}
	}
	return nil
}
