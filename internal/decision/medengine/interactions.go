package medengine

import "github.com/mamacare/triagedesk/internal/domain/model"

// drugPair is a normalized, order-independent key into the
// interaction table.
type drugPair struct{ a, b string }

func pairKey(a, b string) drugPair {
	na, nb := normalizeDrug(a), normalizeDrug(b)
	if na > nb {
		na, nb = nb, na
	}
	return drugPair{na, nb}
}

type drugDrugRule struct {
	severity model.InteractionSeverity
	message  string
}

// drugDrugTable is the read-only drug-drug interaction reference,
// loaded once at process start and never mutated. Keys are
// normalized drug name pairs.
var drugDrugTable = map[drugPair]drugDrugRule{
	pairKey("warfarin", "aspirin"): {
		severity: model.SeverityContraindicated,
		message:  "Warfarin with Aspirin substantially increases bleeding risk.",
	},
	pairKey("warfarin", "ibuprofen"): {
		severity: model.SeveritySevere,
		message:  "Warfarin with an NSAID (Ibuprofen) raises GI bleeding risk.",
	},
	pairKey("atenolol", "verapamil"): {
		severity: model.SeveritySevere,
		message:  "Beta-blocker with a non-dihydropyridine calcium channel blocker risks severe bradycardia.",
	},
	pairKey("sildenafil", "nitroglycerin"): {
		severity: model.SeverityContraindicated,
		message:  "Sildenafil with a nitrate can cause life-threatening hypotension.",
	},
	pairKey("metformin", "contrast_dye"): {
		severity: model.SeverityModerate,
		message:  "Metformin around iodinated contrast carries a lactic acidosis risk.",
	},
}

type conditionRule struct {
	drug     string
	flag     model.VulnerabilityFlag
	severity model.InteractionSeverity
	message  string
}

// drugConditionTable is flag-gated: a drug matched against a
// vulnerability flag carried by the patient snapshot.
var drugConditionTable = []conditionRule{
	{drug: "warfarin", flag: model.FlagPregnant, severity: model.SeverityContraindicated, message: "Warfarin is contraindicated in pregnancy."},
	{drug: "ibuprofen", flag: model.FlagHeartDisease, severity: model.SeveritySevere, message: "NSAIDs worsen outcomes in patients with heart disease."},
	{drug: "metformin", flag: model.FlagImmunocompromised, severity: model.SeverityModerate, message: "Metformin use warrants closer monitoring in immunocompromised patients."},
	{drug: "aspirin", flag: model.FlagPregnant, severity: model.SeverityModerate, message: "Aspirin in pregnancy should be dosed under specialist guidance."},
}

type symptomRule struct {
	drug        string
	symptom     string
	severity    model.InteractionSeverity
	message     string
	isDanger    bool
}

// drugSymptomTable matches a current medication against a reported
// symptom that suggests the drug is already causing harm.
var drugSymptomTable = []symptomRule{
	{drug: "atenolol", symptom: "bradycardia", severity: model.SeveritySevere, message: "Beta-blocker (Atenolol) with reported bradycardia-like symptoms.", isDanger: true},
	{drug: "atenolol", symptom: "dizziness", severity: model.SeverityModerate, message: "Beta-blocker (Atenolol) with reported dizziness."},
	{drug: "warfarin", symptom: "head injury", severity: model.SeverityContraindicated, message: "Anticoagulant (Warfarin) with a reported head injury is a bleeding emergency pattern.", isDanger: true},
	{drug: "metformin", symptom: "vomiting", severity: model.SeverityModerate, message: "Metformin with reported vomiting risks dehydration-related lactic acidosis."},
}
