package service

import (
	"github.com/sirupsen/logrus"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// ScreeningRuleEngine holds the fixed catalog of preventive-care screening
// rules and evaluates patient profiles against it. The catalog is built once
// at construction and never mutated afterwards, so a single engine is safe
// for concurrent use without locking.
type ScreeningRuleEngine struct {
	logger *logrus.Logger
	rules  []*ScreeningRule
}

// ScreeningRule is one static catalog entry: an eligibility predicate over
// the derived profile plus a producer that builds the recommendation record.
// Both functions are pure. The producer may branch on profile values to pick
// wording, grade, or interval, and may return nil when no variant applies
// (the abdominal aortic aneurysm rule and the under-21 cervical case).
//
// Rules are evaluated independently, in catalog order, and never see each
// other's outcomes: the catalog represents all applicable guidelines, not a
// decision tree with a single winner.
type ScreeningRule struct {
	Topic   string
	Grades  []domain.Grade
	Summary string
	Applies func(p domain.DerivedProfile) bool
	Produce func(p domain.DerivedProfile) *domain.Recommendation
}

// NewScreeningRuleEngine creates the engine and builds the rule catalog.
func NewScreeningRuleEngine(logger *logrus.Logger) *ScreeningRuleEngine {
	engine := &ScreeningRuleEngine{
		logger: logger,
		rules:  make([]*ScreeningRule, 0, 17),
	}

	engine.initializeRules()

	return engine
}

// Evaluate maps a patient profile to the ordered list of matching
// recommendations. The derived profile is computed once, then every rule is
// checked independently; output order is catalog order regardless of how
// many rules match. Identical input always yields an identical list, and the
// input profile is never mutated.
func (e *ScreeningRuleEngine) Evaluate(profile domain.PatientProfile) []domain.Recommendation {
	derived := Derive(profile)

	recommendations := make([]domain.Recommendation, 0, len(e.rules))
	for _, rule := range e.rules {
		if !rule.Applies(derived) {
			continue
		}
		if rec := rule.Produce(derived); rec != nil {
			recommendations = append(recommendations, *rec)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"age":            derived.Age,
		"sex":            string(derived.Sex),
		"smoking_status": string(derived.SmokingStatus),
		"pack_years":     derived.PackYears,
		"matched":        len(recommendations),
		"catalog_size":   len(e.rules),
	}).Debug("Evaluated screening catalog")

	return recommendations
}

// Catalog returns the rule catalog metadata in evaluation order, for
// discovery endpoints and rendered documentation.
func (e *ScreeningRuleEngine) Catalog() []domain.CatalogEntry {
	entries := make([]domain.CatalogEntry, 0, len(e.rules))
	for i, rule := range e.rules {
		entries = append(entries, domain.CatalogEntry{
			Position: i + 1,
			Topic:    rule.Topic,
			Grades:   append([]domain.Grade(nil), rule.Grades...),
			Summary:  rule.Summary,
		})
	}
	return entries
}

// Size returns the number of rules in the catalog.
func (e *ScreeningRuleEngine) Size() int {
	return len(e.rules)
}

// initializeRules builds the 17-entry catalog. The order below is the output
// order and must not change: callers and stored evaluations rely on it.
func (e *ScreeningRuleEngine) initializeRules() {
	e.addRule("Abdominal Aortic Aneurysm",
		[]domain.Grade{domain.GRADE_B, domain.GRADE_C, domain.GRADE_I},
		"Ages 65-75; grade varies by sex and smoking history",
		aaaApplies, aaaProduce)

	e.addRule("Breast Cancer",
		[]domain.Grade{domain.GRADE_B},
		"Women aged 40-74",
		breastCancerApplies, breastCancerProduce)

	e.addRule("Cervical Cancer",
		[]domain.Grade{domain.GRADE_A, domain.GRADE_D},
		"Non-pregnant women; method varies by age, stop after 65",
		cervicalCancerApplies, cervicalCancerProduce)

	e.addRule("Colorectal Cancer (family history)",
		[]domain.Grade{domain.GRADE_B},
		"Ages 40-44 with a family history of colorectal cancer",
		colorectalFamilyApplies, colorectalFamilyProduce)

	e.addRule("Colorectal Cancer (general population)",
		[]domain.Grade{domain.GRADE_A, domain.GRADE_B, domain.GRADE_C},
		"Ages 45-75 routinely; individualized through 85",
		colorectalGeneralApplies, colorectalGeneralProduce)

	e.addRule("Lung Cancer",
		[]domain.Grade{domain.GRADE_B},
		"Ages 50-80 with a 20 pack-year history, current or quit within 15 years",
		lungCancerApplies, lungCancerProduce)

	e.addRule("Osteoporosis",
		[]domain.Grade{domain.GRADE_B},
		"Women 65 and older, or younger women at increased risk",
		osteoporosisApplies, osteoporosisProduce)

	e.addRule("Hypertension",
		[]domain.Grade{domain.GRADE_A},
		"All adults 18 and older",
		hypertensionApplies, hypertensionProduce)

	e.addRule("Diabetes and Prediabetes",
		[]domain.Grade{domain.GRADE_B},
		"Ages 35-70 who are overweight",
		diabetesApplies, diabetesProduce)

	e.addRule("HIV",
		[]domain.Grade{domain.GRADE_A},
		"Ages 15-65, anyone at increased risk, and pregnant patients",
		hivApplies, hivProduce)

	e.addRule("Hepatitis C",
		[]domain.Grade{domain.GRADE_B},
		"Ages 18-79, anyone at increased risk, and pregnant patients",
		hepatitisCApplies, hepatitisCProduce)

	e.addRule("Hepatitis B",
		[]domain.Grade{domain.GRADE_B},
		"Increased-risk adults and pregnant patients",
		hepatitisBApplies, hepatitisBProduce)

	e.addRule("Syphilis",
		[]domain.Grade{domain.GRADE_A},
		"Pregnant patients and anyone at increased risk",
		syphilisApplies, syphilisProduce)

	e.addRule("Chlamydia and Gonorrhea",
		[]domain.Grade{domain.GRADE_B},
		"Sexually active women 24 and younger, older women at increased risk",
		chlamydiaGonorrheaApplies, chlamydiaGonorrheaProduce)

	e.addRule("Latent Tuberculosis",
		[]domain.Grade{domain.GRADE_B},
		"Adults at increased risk of tuberculosis infection",
		latentTBApplies, latentTBProduce)

	e.addRule("Unhealthy Alcohol Use",
		[]domain.Grade{domain.GRADE_B},
		"All adults 18 and older",
		alcoholApplies, alcoholProduce)

	e.addRule("Tobacco Use",
		[]domain.Grade{domain.GRADE_A},
		"All adults 18 and older",
		tobaccoApplies, tobaccoProduce)

	e.logger.WithField("rule_count", len(e.rules)).Info("Initialized screening rule catalog")
}

// addRule is a helper to append a rule to the catalog in order.
func (e *ScreeningRuleEngine) addRule(topic string, grades []domain.Grade, summary string,
	applies func(p domain.DerivedProfile) bool,
	produce func(p domain.DerivedProfile) *domain.Recommendation) {
	e.rules = append(e.rules, &ScreeningRule{
		Topic:   topic,
		Grades:  grades,
		Summary: summary,
		Applies: applies,
		Produce: produce,
	})
}

// Rule implementations. Each rule is a pure predicate/producer pair so it can
// be unit tested in isolation.

// Abdominal aortic aneurysm, one-time ultrasonography, ages 65 to 75:
//   - men who currently smoke, or who quit with any computed pack-years: B
//   - men who never smoked: C
//   - women who ever smoked or with a family history of AAA: I
//   - women who never smoked and have no family history: no entry
func aaaApplies(p domain.DerivedProfile) bool {
	return p.AgeBetween(65, 75)
}

func aaaProduce(p domain.DerivedProfile) *domain.Recommendation {
	switch {
	case p.Sex == domain.MALE && (p.IsCurrentSmoker() || (p.IsFormerSmoker() && p.PackYears > 0)):
		return &domain.Recommendation{
			Name:     "Abdominal Aortic Aneurysm",
			Test:     "One-time abdominal ultrasound",
			Interval: "once",
			Grade:    domain.GRADE_B,
			Notes:    "Men aged 65 to 75 who have ever smoked benefit from one-time ultrasound screening for abdominal aortic aneurysm.",
		}
	case p.Sex == domain.MALE && p.SmokingStatus == domain.NEVER_SMOKER:
		return &domain.Recommendation{
			Name:     "Abdominal Aortic Aneurysm",
			Test:     "One-time abdominal ultrasound",
			Interval: "once",
			Grade:    domain.GRADE_C,
			Notes:    "Men aged 65 to 75 who have never smoked may selectively be offered screening; discuss with your clinician.",
		}
	case p.Sex == domain.FEMALE && (p.EverSmoked() || p.HasCondition(domain.FAMILY_HISTORY_AAA)):
		return &domain.Recommendation{
			Name:  "Abdominal Aortic Aneurysm",
			Test:  "Abdominal ultrasound",
			Grade: domain.GRADE_I,
			Notes: "Evidence is insufficient to assess screening benefit for women aged 65 to 75 who have smoked or have a family history of abdominal aortic aneurysm.",
		}
	default:
		return nil
	}
}

// Breast cancer, biennial mammography for women aged 40 to 74.
func breastCancerApplies(p domain.DerivedProfile) bool {
	return p.Sex == domain.FEMALE && p.AgeBetween(40, 74)
}

func breastCancerProduce(p domain.DerivedProfile) *domain.Recommendation {
	return &domain.Recommendation{
		Name:     "Breast Cancer",
		Test:     "Mammography",
		Interval: "every 2 years",
		Grade:    domain.GRADE_B,
		Notes:    "Biennial screening mammography is recommended for women aged 40 to 74.",
	}
}

// Cervical cancer, non-pregnant women only. The pregnancy gate covers the
// whole rule: pregnant patients receive no cervical entry at any age,
// including the over-65 stop-screening advice.
//   - ages 21-29: cytology every 3 years, A
//   - ages 30-65: HPV testing or co-testing, A
//   - over 65: screening not recommended, D
//   - under 21 (or unknown age): no entry
func cervicalCancerApplies(p domain.DerivedProfile) bool {
	return p.Sex == domain.FEMALE && !p.Pregnant
}

func cervicalCancerProduce(p domain.DerivedProfile) *domain.Recommendation {
	switch {
	case p.AgeBetween(21, 29):
		return &domain.Recommendation{
			Name:     "Cervical Cancer",
			Test:     "Pap smear (cervical cytology)",
			Interval: "every 3 years",
			Grade:    domain.GRADE_A,
			Notes:    "Women aged 21 to 29 should be screened with cervical cytology every 3 years.",
		}
	case p.AgeBetween(30, 65):
		return &domain.Recommendation{
			Name:     "Cervical Cancer",
			Test:     "High-risk HPV test alone or with cytology (co-testing)",
			Interval: "every 5 years",
			Grade:    domain.GRADE_A,
			Notes:    "Women aged 30 to 65 may screen with HPV testing every 5 years, co-testing every 5 years, or cytology alone every 3 years.",
		}
	case p.AgeAbove(65):
		return &domain.Recommendation{
			Name:  "Cervical Cancer",
			Test:  "No routine screening",
			Grade: domain.GRADE_D,
			Notes: "Screening is not recommended after age 65 for women with adequate prior screening who are not otherwise at high risk.",
		}
	default:
		return nil
	}
}

// Colorectal cancer for ages 40 to 44 with a family history. The general
// rule below starts at 45, so the two colorectal entries never overlap; the
// disjoint age windows are a property of catalog authoring, not enforced by
// the engine.
func colorectalFamilyApplies(p domain.DerivedProfile) bool {
	return p.HasCondition(domain.FAMILY_HISTORY_CRC) && p.AgeBetween(40, 44)
}

func colorectalFamilyProduce(p domain.DerivedProfile) *domain.Recommendation {
	return &domain.Recommendation{
		Name:     "Colorectal Cancer",
		Test:     "Colonoscopy",
		Interval: "every 5 years",
		Grade:    domain.GRADE_B,
		Notes:    "A family history of colorectal cancer warrants earlier screening, starting at age 40.",
	}
}

// Colorectal cancer, general population:
//   - ages 45-49: B
//   - ages 50-75: A
//   - ages 76-85: C, individualized decision
func colorectalGeneralApplies(p domain.DerivedProfile) bool {
	return p.AgeBetween(45, 75) || p.AgeBetween(76, 85)
}

func colorectalGeneralProduce(p domain.DerivedProfile) *domain.Recommendation {
	if p.AgeBetween(45, 75) {
		grade := domain.GRADE_B
		notes := "Colorectal cancer screening is recommended starting at age 45."
		if p.AgeAtLeast(50) {
			grade = domain.GRADE_A
			notes = "Colorectal cancer screening is strongly recommended for adults aged 50 to 75."
		}
		return &domain.Recommendation{
			Name:     "Colorectal Cancer",
			Test:     "Colonoscopy, stool-based testing, or another accepted method",
			Interval: "every 10 years (colonoscopy) or per chosen method",
			Grade:    grade,
			Notes:    notes,
		}
	}

	return &domain.Recommendation{
		Name:     "Colorectal Cancer",
		Test:     "Colonoscopy, stool-based testing, or another accepted method",
		Interval: "individualized",
		Grade:    domain.GRADE_C,
		Notes:    "For adults aged 76 to 85 the decision to screen should be individualized, weighing overall health and prior screening history.",
	}
}

// Lung cancer, annual low-dose CT for ages 50 to 80 with at least a 20
// pack-year history, who currently smoke or quit within the past 15 years.
func lungCancerApplies(p domain.DerivedProfile) bool {
	if !p.AgeBetween(50, 80) {
		return false
	}
	if p.IsCurrentSmoker() && p.PackYears >= 20 {
		return true
	}
	return p.IsFormerSmoker() && p.PackYears >= 20 && p.YearsSinceQuit <= 15
}

func lungCancerProduce(p domain.DerivedProfile) *domain.Recommendation {
	return &domain.Recommendation{
		Name:     "Lung Cancer",
		Test:     "Low-dose computed tomography (LDCT)",
		Interval: "every year",
		Grade:    domain.GRADE_B,
		Notes:    "Annual screening applies to adults aged 50 to 80 with a 20 pack-year smoking history who currently smoke or quit within the past 15 years.",
	}
}

// Osteoporosis, bone density measurement for women 65 and older, and for
// younger women whose risk profile warrants it. An unknown age matches
// neither branch: "age < 65" is false when no age was reported.
func osteoporosisApplies(p domain.DerivedProfile) bool {
	if p.Sex != domain.FEMALE {
		return false
	}
	return p.AgeAtLeast(65) || (p.AgeBelow(65) && p.HasCondition(domain.OSTEOPOROSIS_RISK))
}

func osteoporosisProduce(p domain.DerivedProfile) *domain.Recommendation {
	notes := "Women aged 65 and older should be screened for osteoporosis to prevent fractures."
	if p.AgeBelow(65) {
		notes = "Postmenopausal women younger than 65 at increased risk should be screened for osteoporosis."
	}
	return &domain.Recommendation{
		Name:  "Osteoporosis",
		Test:  "Bone density scan (DXA)",
		Grade: domain.GRADE_B,
		Notes: notes,
	}
}

// Hypertension, blood pressure measurement for all adults. Annual for 40 and
// older, every 3 to 5 years for younger adults.
func hypertensionApplies(p domain.DerivedProfile) bool {
	return p.AgeAtLeast(18)
}

func hypertensionProduce(p domain.DerivedProfile) *domain.Recommendation {
	interval := "every 3-5 years"
	if p.AgeAtLeast(40) {
		interval = "every year"
	}
	return &domain.Recommendation{
		Name:     "Hypertension",
		Test:     "Office blood pressure measurement",
		Interval: interval,
		Grade:    domain.GRADE_A,
		Notes:    "All adults should have their blood pressure checked; confirm elevated readings outside the clinical setting before diagnosis.",
	}
}

// Diabetes and prediabetes, ages 35 to 70 who are overweight.
func diabetesApplies(p domain.DerivedProfile) bool {
	return p.AgeBetween(35, 70) && p.HasCondition(domain.OVERWEIGHT)
}

func diabetesProduce(p domain.DerivedProfile) *domain.Recommendation {
	return &domain.Recommendation{
		Name:     "Diabetes and Prediabetes",
		Test:     "Fasting plasma glucose or HbA1c",
		Interval: "every 3 years",
		Grade:    domain.GRADE_B,
		Notes:    "Adults aged 35 to 70 who are overweight should be screened for prediabetes and type 2 diabetes.",
	}
}

// HIV, universal screening window: the age range alone qualifies, risk
// factors and pregnancy widen it to any age.
func hivApplies(p domain.DerivedProfile) bool {
	return p.AgeBetween(15, 65) || p.HasCondition(domain.HIV_RISK) || p.Pregnant
}

func hivProduce(p domain.DerivedProfile) *domain.Recommendation {
	return &domain.Recommendation{
		Name:     "HIV",
		Test:     "HIV antigen/antibody test",
		Interval: "at least once",
		Grade:    domain.GRADE_A,
		Notes:    "Everyone aged 15 to 65 should be tested for HIV at least once; people at increased risk and pregnant patients should be tested regardless of age.",
	}
}

// Hepatitis C, universal screening window: ages 18 to 79, plus anyone at
// increased risk and pregnant patients.
func hepatitisCApplies(p domain.DerivedProfile) bool {
	return p.AgeBetween(18, 79) || p.HasCondition(domain.HCV_RISK) || p.Pregnant
}

func hepatitisCProduce(p domain.DerivedProfile) *domain.Recommendation {
	return &domain.Recommendation{
		Name:     "Hepatitis C",
		Test:     "Hepatitis C virus antibody test",
		Interval: "at least once",
		Grade:    domain.GRADE_B,
		Notes:    "All adults aged 18 to 79 should be screened for hepatitis C at least once; repeat testing applies while risk factors persist.",
	}
}

// Hepatitis B, increased-risk adults and pregnant patients only.
func hepatitisBApplies(p domain.DerivedProfile) bool {
	return p.HasCondition(domain.HCV_RISK) || p.HasCondition(domain.HIV_RISK) || p.Pregnant
}

func hepatitisBProduce(p domain.DerivedProfile) *domain.Recommendation {
	return &domain.Recommendation{
		Name:  "Hepatitis B",
		Test:  "Hepatitis B surface antigen test",
		Grade: domain.GRADE_B,
		Notes: "Adults at increased risk and pregnant patients should be screened for hepatitis B infection.",
	}
}

// Syphilis, all pregnant patients and anyone at increased risk. Interval and
// wording differ for pregnancy.
func syphilisApplies(p domain.DerivedProfile) bool {
	return p.Pregnant || p.HasCondition(domain.STI_RISK)
}

func syphilisProduce(p domain.DerivedProfile) *domain.Recommendation {
	if p.Pregnant {
		return &domain.Recommendation{
			Name:     "Syphilis",
			Test:     "Serologic test for syphilis",
			Interval: "early in each pregnancy",
			Grade:    domain.GRADE_A,
			Notes:    "All pregnant patients should be screened for syphilis as early as possible in pregnancy.",
		}
	}
	return &domain.Recommendation{
		Name:     "Syphilis",
		Test:     "Serologic test for syphilis",
		Interval: "while risk factors persist",
		Grade:    domain.GRADE_A,
		Notes:    "Nonpregnant adolescents and adults at increased risk should be screened for syphilis.",
	}
}

// Chlamydia and gonorrhea, sexually active women: routine through age 24,
// older only with risk factors.
func chlamydiaGonorrheaApplies(p domain.DerivedProfile) bool {
	if p.Sex != domain.FEMALE {
		return false
	}
	return p.AgeBetween(15, 24) || (p.AgeAbove(24) && p.HasCondition(domain.STI_RISK))
}

func chlamydiaGonorrheaProduce(p domain.DerivedProfile) *domain.Recommendation {
	interval := "every year while risk factors persist"
	notes := "Women older than 24 at increased risk should be screened for chlamydia and gonorrhea."
	if p.AgeBetween(15, 24) {
		interval = "every year while sexually active"
		notes = "All sexually active women aged 24 and younger should be screened for chlamydia and gonorrhea."
	}
	return &domain.Recommendation{
		Name:     "Chlamydia and Gonorrhea",
		Test:     "Nucleic acid amplification test (NAAT)",
		Interval: interval,
		Grade:    domain.GRADE_B,
		Notes:    notes,
	}
}

// Latent tuberculosis, adults at increased risk.
func latentTBApplies(p domain.DerivedProfile) bool {
	return p.HasCondition(domain.TB_RISK)
}

func latentTBProduce(p domain.DerivedProfile) *domain.Recommendation {
	return &domain.Recommendation{
		Name:  "Latent Tuberculosis",
		Test:  "Tuberculin skin test or interferon-gamma release assay",
		Grade: domain.GRADE_B,
		Notes: "Adults at increased risk of tuberculosis infection should be screened for latent disease.",
	}
}

// Unhealthy alcohol use, all adults.
func alcoholApplies(p domain.DerivedProfile) bool {
	return p.AgeAtLeast(18)
}

func alcoholProduce(p domain.DerivedProfile) *domain.Recommendation {
	return &domain.Recommendation{
		Name:  "Unhealthy Alcohol Use",
		Test:  "Alcohol use screening questionnaire (such as AUDIT-C)",
		Grade: domain.GRADE_B,
		Notes: "Adults 18 and older should be screened for unhealthy alcohol use and offered brief counseling when indicated.",
	}
}

// Tobacco use, all adults. Pregnant patients get behavioral counseling
// advice only; cessation medication wording is reserved for the
// non-pregnant note.
func tobaccoApplies(p domain.DerivedProfile) bool {
	return p.AgeAtLeast(18)
}

func tobaccoProduce(p domain.DerivedProfile) *domain.Recommendation {
	notes := "All adults should be asked about tobacco use and offered behavioral counseling and approved cessation medications when they smoke."
	if p.Pregnant {
		notes = "Pregnant patients should be asked about tobacco use and offered behavioral counseling for cessation."
	}
	return &domain.Recommendation{
		Name:     "Tobacco Use",
		Test:     "Ask about tobacco use",
		Interval: "every visit",
		Grade:    domain.GRADE_A,
		Notes:    notes,
	}
}
