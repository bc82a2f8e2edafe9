package validation

import "github.com/bosflow/bosflow/model"

// The five BOS methodology categories, in methodology order: WHO
// depends, WHAT they expect, WHAT breaks, WHAT telemetry, WHAT signals.
const (
	CategoryStakeholders = "stakeholders"
	CategoryDependencies = "dependencies"
	CategoryImpacts      = "impacts"
	CategoryTelemetry    = "telemetry"
	CategorySignals      = "signals"
)

// CategoryOrder is the canonical evaluation and reporting order.
var CategoryOrder = []string{
	CategoryStakeholders,
	CategoryDependencies,
	CategoryImpacts,
	CategoryTelemetry,
	CategorySignals,
}

// CategoryLabels are the report display names for the core categories.
var CategoryLabels = map[string]string{
	CategoryStakeholders: "Stakeholders (WHO depends)",
	CategoryDependencies: "Dependencies (WHAT they expect)",
	CategoryImpacts:      "Impacts (WHAT breaks)",
	CategoryTelemetry:    "Telemetry (WHAT telemetry)",
	CategorySignals:      "Signals (WHAT signals)",
}

func nonEmptyPredicate() *model.Predicate {
	return &model.Predicate{Kind: model.KindNonEmpty}
}

func enumPredicate(values ...string) *model.Predicate {
	return &model.Predicate{Kind: model.KindEnum, AllowedValues: values}
}

func rangePredicate(min, max float64) *model.Predicate {
	return &model.Predicate{Kind: model.KindRange, Min: &min, Max: &max}
}

// defaultRules are the built-in BOS rule packs, keyed by category. The
// taxonomies (stakeholder types, impact categories, signal types) come
// from the BOS stakeholder framework.
var defaultRules = map[string][]model.ValidationRule{
	CategoryStakeholders: {
		{
			FieldPath:    "stakeholders",
			Required:     true,
			Type:         model.TypeArray,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "At least one stakeholder is required",
			Suggestions:  []string{"Identify WHO depends on this step: people, business entities, and vendors"},
		},
		{
			FieldPath:    "stakeholders[].name",
			Required:     true,
			Type:         model.TypeString,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "Every stakeholder needs a name",
		},
		{
			FieldPath:    "stakeholders[].type",
			Required:     true,
			Type:         model.TypeString,
			Validator:    enumPredicate("people", "business", "vendor"),
			ErrorMessage: "Stakeholder type must be one of: people, business, vendor",
			Suggestions:  []string{"Classify stakeholders as people, business entities, or vendors"},
		},
		{
			FieldPath:      "stakeholders[].role",
			Type:           model.TypeString,
			WarningMessage: "Stakeholder roles help route playbook actions",
		},
	},
	CategoryDependencies: {
		{
			FieldPath:    "dependencies",
			Required:     true,
			Type:         model.TypeArray,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "Map WHAT each stakeholder expects from this step",
			Suggestions:  []string{"Record each stakeholder's expectation as a measurable statement"},
		},
		{
			FieldPath:    "dependencies[].expectation",
			Required:     true,
			Type:         model.TypeString,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "Every dependency needs an expectation statement",
		},
		{
			FieldPath:      "dependencies[].stakeholder",
			Type:           model.TypeString,
			WarningMessage: "Dependencies not linked to a stakeholder are hard to prioritize",
		},
		{
			FieldPath:      "dependencies[].measurable",
			Type:           model.TypeBoolean,
			WarningMessage: "Mark expectations measurable where possible",
			Suggestions:    []string{"Quantify expectations with a number, percentage, or timeframe"},
		},
	},
	CategoryImpacts: {
		{
			FieldPath:    "impacts",
			Required:     true,
			Type:         model.TypeArray,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "Describe WHAT breaks when this step fails",
			Suggestions:  []string{"Cover financial, legal, operational, and customer experience impacts"},
		},
		{
			FieldPath:    "impacts[].category",
			Required:     true,
			Type:         model.TypeString,
			Validator:    enumPredicate("financial", "legal", "operational", "customer_experience"),
			ErrorMessage: "Impact category must be one of: financial, legal, operational, customer_experience",
		},
		{
			FieldPath:    "impacts[].description",
			Required:     true,
			Type:         model.TypeString,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "Every impact needs a description",
		},
		{
			FieldPath:      "impacts[].severity",
			Type:           model.TypeNumber,
			Validator:      rangePredicate(1, 5),
			ErrorMessage:   "Impact severity must be between 1 and 5",
			WarningMessage: "Unrated impacts cannot be ranked in the playbook",
		},
	},
	CategoryTelemetry: {
		{
			FieldPath:    "telemetryMappings",
			Required:     true,
			Type:         model.TypeArray,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "Map WHAT telemetry exposes this step's observable units",
			Suggestions:  []string{"Name the observable unit behind each stakeholder expectation"},
		},
		{
			FieldPath:    "telemetryMappings[].observableUnit",
			Required:     true,
			Type:         model.TypeString,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "Every telemetry mapping needs an observable unit",
		},
		{
			FieldPath:    "telemetryMappings[].telemetryRequired",
			Required:     true,
			Type:         model.TypeString,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "State which telemetry is required for each observable unit",
		},
		{
			FieldPath:      "telemetryMappings[].dataSources",
			Type:           model.TypeArray,
			WarningMessage: "Telemetry without data sources cannot be wired to a dashboard",
		},
	},
	CategorySignals: {
		{
			FieldPath:    "signals",
			Required:     true,
			Type:         model.TypeArray,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "Define WHAT signals indicate stakeholder impact",
			Suggestions:  []string{"Differentiate business, process, and system signals"},
		},
		{
			FieldPath:    "signals[].name",
			Required:     true,
			Type:         model.TypeString,
			Validator:    nonEmptyPredicate(),
			ErrorMessage: "Every signal needs a name",
		},
		{
			FieldPath:    "signals[].type",
			Required:     true,
			Type:         model.TypeString,
			Validator:    enumPredicate("business", "process", "system"),
			ErrorMessage: "Signal type must be one of: business, process, system",
		},
		{
			FieldPath:      "signals[].threshold",
			Type:           model.TypeNumber,
			WarningMessage: "Signals without thresholds cannot trigger alerts",
		},
		{
			FieldPath:      "signals[].owner",
			Type:           model.TypeString,
			WarningMessage: "Unowned signals have no escalation path",
			Suggestions:    []string{"Assign an owner to every signal"},
		},
	},
}
