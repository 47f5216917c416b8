package domain

import "fmt"

// SignificantRainThresholdMm is the fixed policy threshold. A day must exceed
// it, not merely reach it.
const SignificantRainThresholdMm = 5.0

// Classify maps a daily precipitation sum to a verdict. It is total: negative
// and NaN inputs classify as MINOR_OR_NONE with the raw value echoed.
func Classify(precipitationSumMm float64) Verdict {
	v := Verdict{
		Class:           MinorOrNone,
		ThresholdMm:     SignificantRainThresholdMm,
		PrecipitationMm: precipitationSumMm,
	}
	// NaN compares false and falls through to MINOR_OR_NONE.
	if precipitationSumMm > SignificantRainThresholdMm {
		v.Class = SignificantRain
		v.Explanation = fmt.Sprintf(
			"The location experienced %.2fmm of rainfall, which constitutes significant precipitation "+
				"that may have impacted outdoor activities or events.", precipitationSumMm)
		return v
	}
	v.Explanation = fmt.Sprintf(
		"The location experienced %.2fmm of rainfall, which constitutes minimal precipitation "+
			"unlikely to significantly impact outdoor activities.", precipitationSumMm)
	return v
}

// Headline returns the short verdict label shown above the explanation.
func (v Verdict) Headline() string {
	if v.Significant() {
		return "SIGNIFICANT RAIN DETECTED"
	}
	return "MINOR/NO RAIN"
}
