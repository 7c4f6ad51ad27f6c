package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

// SARIFReporter outputs threats in SARIF format for code scanning dashboards
type SARIFReporter struct{}

// SARIF structures
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool     `json:"tool"`
	Results    []sarifResult `json:"results"`
	Properties sarifRunProps `json:"properties"`
}

type sarifRunProps struct {
	RunID       string `json:"runId"`
	Description string `json:"description"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription sarifText       `json:"shortDescription"`
	FullDescription  sarifText       `json:"fullDescription"`
	Help             sarifText       `json:"help"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
	Properties       sarifProperties `json:"properties"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifProperties struct {
	Tags             []string `json:"tags"`
	SecuritySeverity string   `json:"security-severity,omitempty"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifText         `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
	Properties          sarifProperties   `json:"properties"`
}

type sarifLocation struct {
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations"`
}

type sarifLogicalLocation struct {
	Name               string `json:"name"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind"`
}

var categoryHelp = map[models.Category]string{
	models.Spoofing:              "An attacker may impersonate this element. Require strong authentication.",
	models.Tampering:             "Data held or carried by this element may be modified. Protect integrity with validation, signing or access control.",
	models.Repudiation:           "Actions involving this element may be denied later. Keep tamper-evident audit logs.",
	models.InformationDisclosure: "Data may be exposed to unauthorized parties. Encrypt in transit and at rest, and restrict access.",
	models.DenialOfService:       "This element may be made unavailable. Apply rate limits, quotas and redundancy.",
	models.ElevationOfPrivilege:  "An attacker may gain rights they should not have. Enforce least privilege and authorization checks.",
}

// Report generates SARIF output for the given result
func (r *SARIFReporter) Report(result *models.Result) ([]byte, error) {
	rules, ruleIndexMap := r.buildRules()

	report := sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           ToolName,
					Version:        ToolVersion,
					InformationURI: "https://github.com/ethanolivertroy/threat-modeler",
					Rules:          rules,
				},
			},
			Results: r.buildResults(result, ruleIndexMap),
			Properties: sarifRunProps{
				RunID:       result.ID,
				Description: result.Description,
			},
		}},
	}

	return json.MarshalIndent(report, "", "  ")
}

// buildRules returns one rule per STRIDE category, in STRIDE order
func (r *SARIFReporter) buildRules() ([]sarifRule, map[models.Category]int) {
	categories := models.AllCategories()
	rules := make([]sarifRule, 0, len(categories))
	ruleIndexMap := make(map[models.Category]int, len(categories))

	for _, c := range categories {
		ruleIndexMap[c] = len(rules)
		rules = append(rules, sarifRule{
			ID:   ruleID(c),
			Name: strings.ReplaceAll(c.Title(), " ", ""),
			ShortDescription: sarifText{
				Text: fmt.Sprintf("STRIDE: %s", c.Title()),
			},
			FullDescription: sarifText{
				Text: categoryHelp[c],
			},
			Help: sarifText{
				Text: categoryHelp[c],
			},
			DefaultConfig: sarifRuleConfig{Level: "warning"},
			Properties: sarifProperties{
				Tags: []string{"security", "threat-model", "stride", string(c)},
			},
		})
	}

	return rules, ruleIndexMap
}

func (r *SARIFReporter) buildResults(result *models.Result, ruleIndexMap map[models.Category]int) []sarifResult {
	results := make([]sarifResult, 0)
	tm := result.ThreatModel
	if tm == nil {
		return results
	}

	for _, name := range tm.ComponentNames() {
		a := tm.Components[name]
		loc := sarifLogicalLocation{
			Name:               name,
			FullyQualifiedName: "component/" + name,
			Kind:               "component",
		}
		for _, c := range a.Stride {
			msg := fmt.Sprintf("Component %q is exposed to %s", name, c.Title())
			results = append(results, r.newResult(c, a.Scores[c], msg, loc, ruleIndexMap))
		}
	}

	for _, f := range tm.Flows {
		flow := f.Flow()
		loc := sarifLogicalLocation{
			Name:               flow.String(),
			FullyQualifiedName: "flow/" + f.Src + "/" + f.Dst,
			Kind:               "flow",
		}
		for _, c := range f.Stride {
			msg := fmt.Sprintf("Data flow %s is exposed to %s", flow.String(), c.Title())
			results = append(results, r.newResult(c, f.Scores[c], msg, loc, ruleIndexMap))
		}
	}

	return results
}

func (r *SARIFReporter) newResult(c models.Category, score float64, msg string, loc sarifLogicalLocation, ruleIndexMap map[models.Category]int) sarifResult {
	severity := models.SeverityFor(score)
	return sarifResult{
		RuleID:    ruleID(c),
		RuleIndex: ruleIndexMap[c],
		Level:     severity.SARIFLevel(),
		Message:   sarifText{Text: fmt.Sprintf("%s (score %.1f, %s)", msg, score, severity)},
		Locations: []sarifLocation{{LogicalLocations: []sarifLogicalLocation{loc}}},
		PartialFingerprints: map[string]string{
			"threatHash": fmt.Sprintf("%s:%s", loc.FullyQualifiedName, c),
		},
		Properties: sarifProperties{
			Tags:             []string{"stride", string(c)},
			SecuritySeverity: fmt.Sprintf("%.1f", score),
		},
	}
}

func ruleID(c models.Category) string {
	return "STRIDE-" + strings.ToUpper(string(c))
}
