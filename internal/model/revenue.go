package model

// RevenueMode identifies which rule produced the displayed RPM and revenue.
type RevenueMode string

const (
	RevenueModeActual    RevenueMode = "ACTUAL"
	RevenueModeAIDefault RevenueMode = "AI_DEFAULT"
	RevenueModeManual    RevenueMode = "MANUAL"
)

// RevenueSnapshot is one refresh cycle's totals for the trailing report window.
type RevenueSnapshot struct {
	Views int64 `json:"views"`
	// ActualRevenue is in the Analytics API base currency and is nil when the
	// revenue source returned no usable row.
	ActualRevenue  *float64 `json:"actualRevenue,omitempty"`
	ConversionRate float64  `json:"conversionRate"`
}

// HasActual reports whether the snapshot carries actual revenue data.
func (s RevenueSnapshot) HasActual() bool {
	return s.ActualRevenue != nil
}

// RevenueDisplayState is the resolved revenue view-model.
type RevenueDisplayState struct {
	Views             int64       `json:"views"`
	EffectiveRPM      float64     `json:"effectiveRpm"`
	EffectiveRevenue  float64     `json:"effectiveRevenue"`
	Mode              RevenueMode `json:"mode"`
	ManualRPMOverride *float64    `json:"manualRpmOverride,omitempty"`
	// BaselineRPM is the value a manual-input field should show: the last
	// resolved RPM in automatic modes, the override in manual mode.
	BaselineRPM float64 `json:"baselineRpm"`

	Currency        string `json:"currency"`
	RoundedRevenue  int64  `json:"roundedRevenue"`
	RoundedRPM      int64  `json:"roundedRpm"`
	RoundedBaseline int64  `json:"roundedBaseline"`
	HasSnapshot     bool   `json:"hasSnapshot"`
}

// ManualRPMRequest is the API request body for setting a manual RPM.
type ManualRPMRequest struct {
	RPM *float64 `json:"rpm"`
}
