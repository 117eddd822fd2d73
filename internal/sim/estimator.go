package sim

import (
	"bookflow/models"
)

// Warning messages, emitted in this fixed order.
const (
	warnHighImpact        = "High market impact detected"
	warnSlippage          = "Significant slippage expected"
	warnLowFill           = "Low fill probability"
	warnConsiderImmediate = "Consider immediate execution to reduce impact"
)

// timingMultiplier returns the impact multiplier for a timing choice.
// Unrecognized timings fall back to 1.0.
func timingMultiplier(timing models.Timing) float64 {
	switch timing {
	case models.TimingImmediate:
		return 1.2
	case models.Timing5s:
		return 1.0
	case models.Timing10s:
		return 0.9
	case models.Timing30s:
		return 0.8
	}
	return 1.0
}

// Estimate derives fill and impact metrics for a simulated order. It is a
// pure function of the order alone and deliberately does not consult the
// live orderbook.
func Estimate(order models.SimulatedOrder) models.OrderMetrics {
	baseImpact := order.Quantity * 0.01
	marketImpact := baseImpact * timingMultiplier(order.Timing)

	fillPercentage := 100 - marketImpact*10
	if fillPercentage < 20 {
		fillPercentage = 20
	}

	slippage := marketImpact * order.Price * 0.1

	fillTime := string(order.Timing)
	if order.Timing == models.TimingImmediate {
		fillTime = "<1s"
	}

	warnings := make([]string, 0, 4)
	if marketImpact > 1.5 {
		warnings = append(warnings, warnHighImpact)
	}
	if slippage > order.Price*0.005 {
		warnings = append(warnings, warnSlippage)
	}
	if fillPercentage < 70 {
		warnings = append(warnings, warnLowFill)
	}
	if order.Timing != models.TimingImmediate && marketImpact > 1.0 {
		warnings = append(warnings, warnConsiderImmediate)
	}

	return models.OrderMetrics{
		FillPercentage:    fillPercentage,
		MarketImpact:      marketImpact,
		Slippage:          slippage,
		EstimatedFillTime: fillTime,
		Warnings:          warnings,
	}
}
