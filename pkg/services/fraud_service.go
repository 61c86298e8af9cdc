package services

import (
	"time"

	"bi-decision-engine/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultFraudAlertCount GetFraudAlerts の既定件数
	DefaultFraudAlertCount = 3
	// MaxFraudAlertCount 1リクエストで生成できる最大件数
	MaxFraudAlertCount = 50
)

// FraudAlertTypes 不正アラートの種別（固定7種）
var FraudAlertTypes = []string{
	"unusual_spending",
	"velocity_check",
	"location_anomaly",
	"card_testing",
	"account_takeover",
	"refund_abuse",
	"identity_mismatch",
}

var paymentMethods = []string{"credit_card", "debit_card", "paypal", "apple_pay", "bank_transfer"}

var severities = []models.Severity{models.SeverityHigh, models.SeverityMedium, models.SeverityLow}

// severityRule 重大度ごとのリスクスコア帯 [min, max) とフレーズ集
type severityRule struct {
	minScore        int
	maxScore        int
	descriptions    []string
	recommendations []string
}

var severityRules = map[models.Severity]severityRule{
	models.SeverityHigh: {
		minScore: 80,
		maxScore: 100,
		descriptions: []string{
			"Multiple high-value purchases from a new device within minutes",
			"Rapid sequence of declined authorizations followed by a large approval",
			"Shipping address changed immediately before a high-value order",
		},
		recommendations: []string{
			"Block the payment method and contact the account holder immediately",
			"Freeze pending orders and require step-up verification",
		},
	},
	models.SeverityMedium: {
		minScore: 50,
		maxScore: 80,
		descriptions: []string{
			"Purchase pattern deviates from the customer's usual basket",
			"Order placed from an unusual geographic location",
			"Several small test charges detected on one card",
		},
		recommendations: []string{
			"Flag the order for manual review before fulfilment",
			"Request additional verification at next checkout",
		},
	},
	models.SeverityLow: {
		minScore: 0,
		maxScore: 50,
		descriptions: []string{
			"Slightly elevated order frequency compared to baseline",
			"Billing and shipping names differ",
			"First purchase with a newly added payment method",
		},
		recommendations: []string{
			"Continue monitoring the account",
			"No action required; keep in watchlist for 7 days",
		},
	},
}

// RiskBand 重大度に対応するリスクスコア帯 [min, max)
func RiskBand(severity models.Severity) (lo, hi int) {
	rule := severityRules[severity]
	return rule.minScore, rule.maxScore
}

// FraudService 重大度ルールからリスクスコア付きアラートを生成するサービス
type FraudService struct {
	rng RandomSource
}

// NewFraudService 新しい不正検知サービスを作成
func NewFraudService(rng RandomSource) *FraudService {
	return &FraudService{rng: rng}
}

// GenerateAlerts n件のアラートを生成（n<=0 の場合は既定の3件）
func (fs *FraudService) GenerateAlerts(n int, now time.Time) []models.FraudAlert {
	if n <= 0 {
		n = DefaultFraudAlertCount
	}

	alerts := make([]models.FraudAlert, 0, n)
	for i := 0; i < n; i++ {
		alerts = append(alerts, fs.generateAlert(now))
	}
	return alerts
}

func (fs *FraudService) generateAlert(now time.Time) models.FraudAlert {
	severity := severities[fs.rng.Int(0, len(severities)-1)]
	rule := severityRules[severity]

	riskScore := fs.rng.Int(rule.minScore, rule.maxScore-1)
	alertType := pick(fs.rng, FraudAlertTypes)
	description := pick(fs.rng, rule.descriptions)
	recommendation := pick(fs.rng, rule.recommendations)

	affected := 1
	if severity == models.SeverityHigh {
		affected = fs.rng.Int(1, 5)
	}

	totalValue := decimal.NewFromFloat(fs.rng.Uniform(100, 2100)).Round(2)
	age := time.Duration(fs.rng.Uniform(0, 3600) * float64(time.Second))

	return models.FraudAlert{
		ID:                   uuid.New().String(),
		Severity:             severity,
		Type:                 alertType,
		Description:          description,
		RiskScore:            riskScore,
		AffectedTransactions: affected,
		TotalValue:           totalValue,
		Recommendation:       recommendation,
		Timestamp:            now.Add(-age),
		PaymentMethod:        pick(fs.rng, paymentMethods),
	}
}

// SummarizeFraud 不正アラートのサマリーを計算
func SummarizeFraud(alerts []models.FraudAlert) models.FraudSummary {
	summary := models.FraudSummary{
		TotalAlerts:      len(alerts),
		TotalValueAtRisk: decimal.Zero,
	}
	if len(alerts) == 0 {
		return summary
	}

	scoreTotal := 0
	for _, a := range alerts {
		if a.Severity == models.SeverityHigh {
			summary.HighRiskCount++
		}
		summary.TotalValueAtRisk = summary.TotalValueAtRisk.Add(a.TotalValue)
		scoreTotal += a.RiskScore
	}
	summary.AvgRiskScore = round(float64(scoreTotal)/float64(len(alerts)), 1)
	return summary
}
