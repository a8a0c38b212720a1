package upload

// Stage names one ordered, dependent unit of remote work.
type Stage string

const (
	StagePDF        Stage = "uploading_pdf"
	StageThumbnails Stage = "uploading_thumbnails"
	StageDocument   Stage = "saving_document"
	StageFields     Stage = "saving_fields"
	StageCompleted  Stage = "completed"
)

// stageSpan declares the overall-percent band one stage occupies. The
// stage-to-percent mapping lives in this table so the weighting can be
// tuned without touching pipeline code.
type stageSpan struct {
	Stage Stage
	Start int
	End   int
}

var stagePlan = []stageSpan{
	{StagePDF, 5, 45},
	{StageThumbnails, 50, 80},
	{StageDocument, 85, 85},
	{StageFields, 90, 90},
	{StageCompleted, 100, 100},
}

func span(s Stage) stageSpan {
	for _, sp := range stagePlan {
		if sp.Stage == s {
			return sp
		}
	}
	return stageSpan{Stage: s}
}

// at maps a fraction of stage-internal progress into the span's band,
// clamped to [Start, End].
func (sp stageSpan) at(frac float64) int {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return sp.Start + int(frac*float64(sp.End-sp.Start))
}
