package memory

// SectionSpec is the static definition of one document section: the source
// material it requires, the corpus categories to query first, and the ordered
// template parts it is assembled from. Section definitions are configuration,
// not derived data.
type SectionSpec struct {
	Name              string
	RequiredSources   []string
	PrimaryCategories []string
	TemplateParts     []string
}

// sectionSpecs is the static section table.
var sectionSpecs = map[string]SectionSpec{
	"background": {
		Name:              "background",
		RequiredSources:   []string{"CV", "Degree Certificates"},
		PrimaryCategories: []string{"02_Applicant_Background"},
		TemplateParts:     []string{"education", "skills", "certifications"},
	},
	"experience": {
		Name:              "experience",
		RequiredSources:   []string{"Work Declarations", "Recommendation Letters"},
		PrimaryCategories: []string{"04_NIW_Criterion_2", "05_NIW_Criterion_3"},
		TemplateParts:     []string{"work_history", "achievements", "impact"},
	},
	"expert_opinion": {
		Name:              "expert_opinion",
		RequiredSources:   []string{"Opinion PDF"},
		PrimaryCategories: []string{"06_Letters_of_Recommendation"},
		TemplateParts:     []string{"credentials", "evaluation", "recommendation"},
	},
	"introduction": {
		Name:              "introduction",
		PrimaryCategories: []string{"01_General_Documents"},
		TemplateParts:     []string{"opening", "applicant_intro"},
	},
	"achievements": {
		Name:              "achievements",
		RequiredSources:   []string{"Awards", "Publications", "Recognition"},
		PrimaryCategories: []string{"03_NIW_Criterion_1_Significant_Merit_and_Importance"},
		TemplateParts:     []string{"awards", "recognition", "contributions"},
	},
	"national_interest": {
		Name:            "national_interest",
		RequiredSources: []string{"Impact Statements", "Field Evidence"},
		PrimaryCategories: []string{
			"03_NIW_Criterion_1_Significant_Merit_and_Importance",
			"05_NIW_Criterion_3_Benefit_to_USA_Without_Labor_Certification",
		},
		TemplateParts: []string{"merit", "positioning", "waiver_justification"},
	},
	"conclusion": {
		Name:          "conclusion",
		TemplateParts: []string{"summary", "recommendation"},
	},
}

// partKeywords maps every template part to the ordered keyword set used for
// classification. Matching is a case-insensitive substring check against the
// chunk text, a pure function of (text, table).
var partKeywords = map[string][]string{
	"education":      {"degree", "university", "education", "academic", "study"},
	"skills":         {"skill", "expertise", "proficient", "knowledge", "ability"},
	"certifications": {"certif", "license", "credential", "qualification"},
	"work_history":   {"work", "job", "position", "employed", "career"},
	"achievements":   {"achieve", "accomplish", "success", "award", "recognition"},
	"impact":         {"impact", "contribut", "influence", "effect", "result"},
	"credentials":    {"credential", "qualification", "background", "expert"},
	"evaluation":     {"evaluat", "assess", "review", "analysis"},
	"recommendation": {"recommend", "endorse", "support", "advocate"},

	"opening":              {"write", "support", "petition", "behalf"},
	"applicant_intro":      {"applicant", "field", "background", "introduce"},
	"awards":               {"award", "prize", "medal", "honor", "grant"},
	"recognition":          {"recognized", "acknowledged", "distinguished", "reputation"},
	"contributions":        {"contribut", "develop", "research", "advance", "innovat"},
	"merit":                {"merit", "importance", "significant", "substantial", "value"},
	"positioning":          {"position", "advance", "qualification", "background", "unique"},
	"waiver_justification": {"waiver", "benefit", "interest", "advantage", "important"},
	"summary":              {"summary", "conclude", "therefore", "thus", "finally"},
}

// SectionNames returns all defined section names, sorted.
func SectionNames() []string {
	names := make([]string, 0, len(sectionSpecs))
	for name := range sectionSpecs {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

// Spec returns the static definition for a section.
func Spec(section string) (SectionSpec, bool) {
	s, ok := sectionSpecs[section]
	return s, ok
}
