// Package threats maps components and flows to STRIDE categories and scores
// them.
package threats

import "github.com/ethanolivertroy/threat-modeler/internal/models"

const (
	spoofing   = models.Spoofing
	tampering  = models.Tampering
	repudiate  = models.Repudiation
	disclosure = models.InformationDisclosure
	dos        = models.DenialOfService
	elevation  = models.ElevationOfPrivilege
)

// Rule maps a keyword to the STRIDE categories it implies
type Rule struct {
	Keyword    string
	Categories []models.Category
}

// componentRules is matched by substring against lowercased component names
var componentRules = []Rule{
	{"database", []models.Category{tampering, disclosure, repudiate}},
	{"postgres", []models.Category{tampering, disclosure}},
	{"s3", []models.Category{disclosure, tampering}},
	{"github", []models.Category{disclosure}},
	{"llm", []models.Category{disclosure, tampering}},
	{"api endpoint", []models.Category{spoofing, tampering, dos, disclosure}},
	{"postman collection", []models.Category{disclosure}},
	{"public repo", []models.Category{disclosure}},
	{"web", []models.Category{spoofing, tampering, dos}},
	{"auth-service", []models.Category{elevation, tampering, repudiate}},
	{"user-service", []models.Category{tampering, disclosure}},
}

// overlay applies Categories when the name contains any of Keywords
type overlay struct {
	Keywords   []string
	Categories []models.Category
}

var componentOverlays = []overlay{
	{[]string{"api", "endpoint", "post"}, []models.Category{spoofing, tampering, dos}},
	{[]string{"repo", "github", "public"}, []models.Category{disclosure}},
}

var componentDefault = []models.Category{disclosure, tampering}

var (
	untrustedSources    = []string{"mobile", "client", "postman", "external"}
	publicDestinations  = []string{"public", "github"}
	boundaryCategories  = []models.Category{spoofing, disclosure, dos}
	storageDestinations = []string{"db", "postgres", "s3", "storage"}
	storageCategories   = []models.Category{tampering, disclosure}
	flowDefault         = []models.Category{disclosure}
	exposureMarkers     = []string{"public", "github"}
)

const (
	unknownBaseSeverity = 5.0
	exposureBoost       = 2.0
	maxSeverity         = 10.0
)

var baseSeverity = map[models.Category]float64{
	spoofing:   6,
	tampering:  8,
	repudiate:  5,
	disclosure: 9,
	dos:        6,
	elevation:  9,
}

// ComponentRules returns a copy of the component keyword table in match order
func ComponentRules() []Rule {
	out := make([]Rule, len(componentRules))
	for i, r := range componentRules {
		out[i] = Rule{
			Keyword:    r.Keyword,
			Categories: append([]models.Category(nil), r.Categories...),
		}
	}
	return out
}

// BaseSeverity returns the unboosted score of a category; unknown categories score 5
func BaseSeverity(c models.Category) float64 {
	if s, ok := baseSeverity[c]; ok {
		return s
	}
	return unknownBaseSeverity
}
