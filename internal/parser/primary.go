package parser

import (
	"strings"
	"time"

	"github.com/epeers/ownership/internal/edgar"
	"github.com/epeers/ownership/internal/models"
)

// PrimaryDocHeuristic picks the primary document of an accession from its
// file index. The archive does not label it, so every implementation is a guess.
type PrimaryDocHeuristic func(items []edgar.IndexItem) (edgar.IndexItem, bool)

// LargestHTMLThenText prefers .htm/.html files and falls back to .txt; among
// candidates the largest wins, missing sizes counting as zero. Ties go to the
// later entry in the index.
func LargestHTMLThenText(items []edgar.IndexItem) (edgar.IndexItem, bool) {
	if best, ok := largestWithSuffix(items, ".htm", ".html"); ok {
		return best, true
	}
	return largestWithSuffix(items, ".txt")
}

func largestWithSuffix(items []edgar.IndexItem, suffixes ...string) (edgar.IndexItem, bool) {
	var best edgar.IndexItem
	found := false
	for _, item := range items {
		name := strings.ToLower(item.Name)
		matched := false
		for _, s := range suffixes {
			if strings.HasSuffix(name, s) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if !found || item.Size >= best.Size {
			best = item
			found = true
		}
	}
	return best, found
}

// lastModifiedDate reads the date part of an index item's last-modified stamp
func lastModifiedDate(item edgar.IndexItem) (time.Time, bool) {
	fields := strings.Fields(item.LastModified)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	d, err := models.ParseDate(fields[0])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
