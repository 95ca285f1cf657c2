package analysis

import (
	"fmt"
	"unicode/utf8"

	"github.com/law-makers/seocrawl/pkg/models"
)

// Page issue types
const (
	IssueMissingDescription = "missing_meta_description"
	IssueTitleLength        = "title_length"
	IssueMissingH1          = "missing_h1"
	IssueImagesWithoutAlt   = "images_without_alt"
	IssueMissingCanonical   = "missing_canonical"
)

const (
	MinTitleLength = 10
	MaxTitleLength = 60
)

type issueRule func(rec *models.PageRecord) *models.PageIssue

// issueRules are applied independently; each yields at most one issue
var issueRules = []issueRule{
	missingDescription,
	titleLength,
	missingH1,
	imagesWithoutAlt,
	missingCanonical,
}

// DetectIssues applies every page rule to rec
func DetectIssues(rec *models.PageRecord) []models.PageIssue {
	issues := []models.PageIssue{}
	for _, rule := range issueRules {
		if issue := rule(rec); issue != nil {
			issues = append(issues, *issue)
		}
	}
	return issues
}

func missingDescription(rec *models.PageRecord) *models.PageIssue {
	if rec.MetaTags.Description != "" {
		return nil
	}
	return &models.PageIssue{
		Type:           IssueMissingDescription,
		Detail:         "Page has no meta description",
		Proof:          map[string]any{"metaDescription": ""},
		Recommendation: "Add a unique meta description of 120-160 characters summarising the page.",
	}
}

func titleLength(rec *models.PageRecord) *models.PageIssue {
	n := utf8.RuneCountInString(rec.Title)
	if n >= MinTitleLength && n <= MaxTitleLength {
		return nil
	}
	return &models.PageIssue{
		Type:           IssueTitleLength,
		Detail:         fmt.Sprintf("Title is %d characters, expected %d-%d", n, MinTitleLength, MaxTitleLength),
		Proof:          map[string]any{"title": rec.Title, "length": n},
		Recommendation: fmt.Sprintf("Write a descriptive title between %d and %d characters.", MinTitleLength, MaxTitleLength),
	}
}

func missingH1(rec *models.PageRecord) *models.PageIssue {
	if len(rec.Headings.H1) > 0 {
		return nil
	}
	return &models.PageIssue{
		Type:           IssueMissingH1,
		Detail:         "Page has no H1 heading",
		Proof:          map[string]any{"h1Count": 0},
		Recommendation: "Add a single H1 that states the main topic of the page.",
	}
}

func imagesWithoutAlt(rec *models.PageRecord) *models.PageIssue {
	if rec.Images.WithoutAlt == 0 {
		return nil
	}
	var missing []string
	for _, img := range rec.Images.Sample {
		if !img.HasAlt {
			missing = append(missing, img.Src)
		}
	}
	return &models.PageIssue{
		Type:           IssueImagesWithoutAlt,
		Detail:         fmt.Sprintf("%d of %d images have no alt text", rec.Images.WithoutAlt, rec.Images.Total),
		Proof:          map[string]any{"withoutAlt": rec.Images.WithoutAlt, "total": rec.Images.Total, "examples": missing},
		Recommendation: "Describe every meaningful image with alt text; use alt=\"\" only for decorative images.",
	}
}

func missingCanonical(rec *models.PageRecord) *models.PageIssue {
	if rec.MetaTags.Canonical != "" {
		return nil
	}
	return &models.PageIssue{
		Type:           IssueMissingCanonical,
		Detail:         "Page has no canonical link",
		Proof:          map[string]any{"canonical": ""},
		Recommendation: "Add <link rel=\"canonical\"> pointing at the preferred URL of this page.",
	}
}
