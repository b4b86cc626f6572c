package ai

// EntityTypes defines the valid categories for extracted entities.
// These types are used by triple extractors to classify the endpoints of
// extracted statements. They mirror the taxonomy observed in the source
// corpus and are configuration, not algorithm.
var EntityTypes = []string{
	"satellite",
	"mission",
	"instrument",
	"organization",
	"parameter",
	"place",
	"person",
	"technology",
	"event",
	"service",
	"product",
}
