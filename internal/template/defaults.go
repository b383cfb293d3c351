package template

// Default templates shipped with the registry. Placeholders use the {{part}}
// form and name the template parts of the matching section, so a fully
// synthesized section resolves without fallback.

// defaultProfessionTemplates are keyed profession -> section -> template and
// registered under (profession, ANY, section).
var defaultProfessionTemplates = map[string]map[string]string{
	"engineer": {
		"background": `{{education}}

{{skills}}

{{certifications}}`,
		"experience": `{{work_history}}

{{achievements}}

{{impact}}`,
		"expert_opinion": `{{credentials}}

{{evaluation}}

{{recommendation}}`,
	},
	"medical": {
		"background": `{{education}}

Clinical training and specialization:
{{skills}}

{{certifications}}`,
		"experience": `{{work_history}}

{{achievements}}

Clinical and research impact:
{{impact}}`,
		"expert_opinion": `{{credentials}}

{{evaluation}}

{{recommendation}}`,
	},
}

// defaultVisaTemplates are keyed visa type -> section -> template and
// registered under (ANY, visa_type, section).
var defaultVisaTemplates = map[string]map[string]string{
	"EB1": {
		"introduction": `{{opening}}

{{applicant_intro}}`,
		"achievements": `{{awards}}

{{recognition}}

{{contributions}}

These accomplishments demonstrate that the applicant has risen to the very top of the field of endeavor.`,
		"conclusion": `{{summary}}

{{recommendation}}

I strongly recommend that USCIS approve this petition.`,
	},
	"EB2": {
		"introduction": `{{opening}}

{{applicant_intro}}`,
		"national_interest": `{{merit}}

{{positioning}}

{{waiver_justification}}`,
		"conclusion": `{{summary}}

{{recommendation}}

I strongly recommend that USCIS approve this petition with a National Interest Waiver.`,
	},
}
