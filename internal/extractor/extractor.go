// Package extractor turns a fully expanded instructor listing page into
// InstructorRecord values. It is a pure transform over markup: no browser,
// no I/O beyond the optional file helper.
package extractor

import (
	"fmt"
	"iter"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/rating-ingest/internal/entity"
)

// Signatures are the CSS selectors that identify each part of a card.
// Info, Name, Department, School and FeedbackNumber are looked up inside the
// info container; Quality and RatingCount inside the whole card.
type Signatures struct {
	Card           string
	Info           string
	Name           string
	Department     string
	School         string
	Quality        string
	RatingCount    string
	FeedbackNumber string
	// NotApplicable is the token the page shows instead of a retake percent.
	NotApplicable string
}

// DefaultSignatures matches the listing markup as served by the rating site.
func DefaultSignatures() Signatures {
	return Signatures{
		Card:           `a[class*="TeacherCard__StyledTeacherCard"]`,
		Info:           "div.TeacherCard__CardInfo-syjs0d-1",
		Name:           "div.CardName__StyledCardName-sc-1gyrgim-0",
		Department:     "div.CardSchool__Department-sc-19lmz2k-0",
		School:         "div.CardSchool__School-sc-19lmz2k-1",
		Quality:        "div.CardNumRating__CardNumRatingNumber-sc-17t4b9u-2",
		RatingCount:    "div.CardNumRating__CardNumRatingCount-sc-17t4b9u-3",
		FeedbackNumber: "div.CardFeedback__CardFeedbackNumber-lq6nix-2",
		NotApplicable:  "N/A",
	}
}

type Extractor struct {
	sig Signatures
}

func New(sig Signatures) *Extractor {
	return &Extractor{sig: sig}
}

// Records parses htmlContent and returns the cards it contains in document
// order. The sequence can be ranged over any number of times. A card without
// an info container is skipped; any other missing field is left absent.
func (e *Extractor) Records(htmlContent string) (iter.Seq[entity.InstructorRecord], error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse listing markup: %w", err)
	}
	cards := doc.Find(e.sig.Card)

	return func(yield func(entity.InstructorRecord) bool) {
		for i := range cards.Length() {
			record, ok := e.parseCard(cards.Eq(i))
			if !ok {
				continue
			}
			if !yield(record) {
				return
			}
		}
	}, nil
}

// ParseFile extracts the records of a listing page saved to disk.
func (e *Extractor) ParseFile(path string) ([]entity.InstructorRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seq, err := e.Records(string(content))
	if err != nil {
		return nil, err
	}
	return Collect(seq), nil
}

// Collect materializes a record sequence into a table.
func Collect(seq iter.Seq[entity.InstructorRecord]) []entity.InstructorRecord {
	records := slices.Collect(seq)
	if records == nil {
		records = []entity.InstructorRecord{}
	}
	return records
}

func (e *Extractor) parseCard(card *goquery.Selection) (entity.InstructorRecord, bool) {
	info := card.Find(e.sig.Info).First()
	if info.Length() == 0 {
		return entity.InstructorRecord{}, false
	}

	feedback := info.Find(e.sig.FeedbackNumber)

	return entity.InstructorRecord{
		Name:          text(info.Find(e.sig.Name)),
		Department:    text(info.Find(e.sig.Department)),
		School:        text(info.Find(e.sig.School)),
		Quality:       number(text(card.Find(e.sig.Quality))),
		TotalRatings:  ratingCount(text(card.Find(e.sig.RatingCount))),
		RetakePercent: e.retakePercent(text(feedback.Eq(0))),
		Difficulty:    number(text(feedback.Eq(1))),
	}, true
}

// text returns the trimmed text of the first node in sel, or nil if sel is
// empty.
func text(sel *goquery.Selection) *string {
	if sel.Length() == 0 {
		return nil
	}
	s := strings.TrimSpace(sel.First().Text())
	return &s
}

func number(s *string) *float64 {
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		return nil
	}
	return &f
}

// ratingCount reads "12 ratings" as 12. Anything unreadable counts as 0.
func ratingCount(s *string) int {
	if s == nil {
		return 0
	}
	fields := strings.Fields(*s)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return n
}

func (e *Extractor) retakePercent(s *string) *float64 {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(strings.Trim(*s, "%"))
	if v == e.sig.NotApplicable {
		return nil
	}
	return number(&v)
}
