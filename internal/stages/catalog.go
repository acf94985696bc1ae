package stages

import "strings"

// Pipeline names one of the two sequential stage sequences a work order
// passes through.
type Pipeline string

const (
	PipelineINCO Pipeline = "INCO"
	PipelineANTI Pipeline = "ANTI"
)

// Stage is a named checkpoint within a pipeline with its progress weight.
type Stage struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"`
}

// Hand-off stages: a date on these moves the order to the next location.
const (
	HandOffINCO = "Anticorr"
	HandOffANTI = "Despacho"
)

var incoStages = []Stage{
	{Name: "Recepcion", Progress: 10},
	{Name: "Corte", Progress: 25},
	{Name: "Armado", Progress: 45},
	{Name: "Soldadura", Progress: 65},
	{Name: "Control", Progress: 85},
	{Name: HandOffINCO, Progress: 100},
}

var antiStages = []Stage{
	{Name: "Granallado", Progress: 25},
	{Name: "Pintura", Progress: 50},
	{Name: "Secado", Progress: 75},
	{Name: HandOffANTI, Progress: 100},
}

var allPipelines = []Pipeline{PipelineINCO, PipelineANTI}

// Pipelines returns the pipelines in traversal order.
func Pipelines() []Pipeline {
	cp := make([]Pipeline, len(allPipelines))
	copy(cp, allPipelines)
	return cp
}

// ParsePipeline converts a string into a known Pipeline.
func ParsePipeline(value string) (Pipeline, bool) {
	switch Pipeline(strings.ToUpper(strings.TrimSpace(value))) {
	case PipelineINCO:
		return PipelineINCO, true
	case PipelineANTI:
		return PipelineANTI, true
	default:
		return "", false
	}
}

func catalog(p Pipeline) []Stage {
	switch p {
	case PipelineINCO:
		return incoStages
	case PipelineANTI:
		return antiStages
	default:
		return nil
	}
}

// Stages returns a copy of the ordered stages for a pipeline. Unknown
// pipelines yield nil.
func Stages(p Pipeline) []Stage {
	src := catalog(p)
	if src == nil {
		return nil
	}
	cp := make([]Stage, len(src))
	copy(cp, src)
	return cp
}

// IndexOf returns the position of stageName within the pipeline. Matching is
// exact; stage names are identifiers, not labels.
func IndexOf(p Pipeline, stageName string) (int, bool) {
	for i, stage := range catalog(p) {
		if stage.Name == stageName {
			return i, true
		}
	}
	return -1, false
}

// Find returns the stage named stageName within the pipeline.
func Find(p Pipeline, stageName string) (Stage, bool) {
	idx, ok := IndexOf(p, stageName)
	if !ok {
		return Stage{}, false
	}
	return catalog(p)[idx], true
}

// Lookup searches every pipeline for stageName and reports which pipeline
// holds it.
func Lookup(stageName string) (Stage, Pipeline, bool) {
	for _, p := range allPipelines {
		if stage, ok := Find(p, stageName); ok {
			return stage, p, true
		}
	}
	return Stage{}, "", false
}

// ProgressOf returns the progress weight for a status. An empty status, or one
// not present in any catalog, has progress 0.
func ProgressOf(status string) int {
	if status == "" {
		return 0
	}
	stage, _, ok := Lookup(status)
	if !ok {
		return 0
	}
	return stage.Progress
}

// HandOff returns the stage whose date advances an order out of the pipeline.
func HandOff(p Pipeline) string {
	switch p {
	case PipelineINCO:
		return HandOffINCO
	case PipelineANTI:
		return HandOffANTI
	default:
		return ""
	}
}
