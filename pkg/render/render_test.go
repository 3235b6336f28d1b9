package render

import (
	"strings"
	"testing"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

func TestTextEmpty(t *testing.T) {
	if got := Text(nil); got != EmptyResultText {
		t.Errorf("Expected empty-result indicator, got %q", got)
	}

	if got := Text([]domain.Recommendation{}); got != EmptyResultText {
		t.Errorf("Expected empty-result indicator, got %q", got)
	}
}

func TestTextRendersFields(t *testing.T) {
	recommendations := []domain.Recommendation{
		{
			Name:     "Lung Cancer",
			Test:     "Low-dose computed tomography (LDCT)",
			Interval: "every year",
			Grade:    domain.GRADE_B,
			Notes:    "Annual screening for heavy smokers.",
		},
		{
			Name:  "Hepatitis B",
			Test:  "Hepatitis B surface antigen test",
			Grade: domain.GRADE_B,
			Notes: "Screen adults at increased risk.",
		},
	}

	got := Text(recommendations)

	for _, want := range []string{
		"Lung Cancer (Grade B)",
		"Test: Low-dose computed tomography (LDCT)",
		"Interval: every year",
		"Notes: Annual screening for heavy smokers.",
		"Hepatitis B (Grade B)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q\ngot:\n%s", want, got)
		}
	}

	// The second record has no interval; no interval line may appear for it
	if strings.Count(got, "Interval:") != 1 {
		t.Errorf("Expected exactly one interval line, got:\n%s", got)
	}

	// List order is preserved
	if strings.Index(got, "Lung Cancer") > strings.Index(got, "Hepatitis B") {
		t.Errorf("Expected records in list order, got:\n%s", got)
	}
}

func TestCatalogText(t *testing.T) {
	entries := []domain.CatalogEntry{
		{Position: 1, Topic: "Abdominal Aortic Aneurysm", Grades: []domain.Grade{domain.GRADE_B, domain.GRADE_C}, Summary: "Ages 65-75"},
		{Position: 2, Topic: "Breast Cancer", Grades: []domain.Grade{domain.GRADE_B}, Summary: "Women aged 40-74"},
	}

	got := CatalogText(entries)

	if !strings.Contains(got, "1. Abdominal Aortic Aneurysm [B/C] - Ages 65-75") {
		t.Errorf("Unexpected catalog rendering:\n%s", got)
	}

	if !strings.Contains(got, "2. Breast Cancer [B] - Women aged 40-74") {
		t.Errorf("Unexpected catalog rendering:\n%s", got)
	}
}

func TestResultText(t *testing.T) {
	result := &domain.ScreeningResult{
		MatchedCount: 1,
		CatalogSize:  17,
		Profile: domain.DerivedProfile{
			PackYears: 30,
		},
		Recommendations: []domain.Recommendation{
			{
				Name:  "Lung Cancer",
				Test:  "Low-dose computed tomography (LDCT)",
				Grade: domain.GRADE_B,
				Notes: "Annual screening for heavy smokers.",
			},
		},
	}

	got := ResultText(result)

	if !strings.Contains(got, "Matched 1 of 17 screening topics (30.0 pack-years)") {
		t.Errorf("Unexpected header:\n%s", got)
	}

	if !strings.Contains(got, "Lung Cancer (Grade B)") {
		t.Errorf("Expected recommendation block:\n%s", got)
	}
}
