// Package expense manages the courier's cost of living: the monthly bill,
// daily incidentals, insurance, and debt payments.
package expense

import (
	"log/slog"

	"github.com/talgya/courier-life/internal/entropy"
	"github.com/talgya/courier-life/internal/player"
)

// Monthly is the recurring expense breakdown.
type Monthly struct {
	Rent          float64 `json:"rent" yaml:"rent"`
	Food          float64 `json:"food" yaml:"food"`
	Utilities     float64 `json:"utilities" yaml:"utilities"`
	Phone         float64 `json:"phone" yaml:"phone"`
	Transport     float64 `json:"transport" yaml:"transport"`
	Medical       float64 `json:"medical" yaml:"medical"`
	Entertainment float64 `json:"entertainment" yaml:"entertainment"`
	DebtPayment   float64 `json:"debt_payment" yaml:"debt_payment"`
}

// Total sums the breakdown.
func (m Monthly) Total() float64 {
	return m.Rent + m.Food + m.Utilities + m.Phone + m.Transport +
		m.Medical + m.Entertainment + m.DebtPayment
}

// DefaultMonthly is the starting cost of living.
func DefaultMonthly() Monthly {
	return Monthly{
		Rent:          2000.0,
		Food:          800.0,
		Utilities:     200.0,
		Phone:         100.0,
		Transport:     300.0,
		Medical:       0.0,
		Entertainment: 200.0,
		DebtPayment:   1000.0,
	}
}

// BillingResult is the outcome of a monthly billing check.
type BillingResult struct {
	Processed     bool    `json:"processed"`
	Paid          bool    `json:"paid"`
	Total         float64 `json:"total"`
	RentIncreased bool    `json:"rent_increased"`
	OldRent       float64 `json:"old_rent,omitempty"`
	NewRent       float64 `json:"new_rent,omitempty"`
	CreditPenalty int     `json:"credit_penalty,omitempty"`
}

// billingIntervalDays gates the monthly cycle.
const billingIntervalDays = 30

// insufficientFundsPenalty is the flat credit hit for a missed bill.
const insufficientFundsPenalty = 20

// Manager runs the expense clock against the shared state.
type Manager struct {
	expenses      Monthly
	lastBilledDay int
	rng           entropy.Source
}

// NewManager creates an expense manager starting its billing clock at day 1.
func NewManager(rng entropy.Source) *Manager {
	return &Manager{
		expenses:      DefaultMonthly(),
		lastBilledDay: 1,
		rng:           rng,
	}
}

// Breakdown returns the current monthly expense table.
func (m *Manager) Breakdown() Monthly {
	return m.expenses
}

// LastBilledDay exposes the billing clock for persistence.
func (m *Manager) LastBilledDay() int {
	return m.lastBilledDay
}

// Restore seeds the billing clock and rent from a snapshot.
func (m *Manager) Restore(lastBilledDay int, rent float64) {
	if lastBilledDay > 0 {
		m.lastBilledDay = lastBilledDay
	}
	if rent > 0 {
		m.expenses.Rent = rent
	}
}

// ProcessMonthly runs the billing check for the given game day. A no-op
// until 30 days have elapsed since the last successful billing. On
// insufficient funds the clock is NOT reset, so the bill is retried on the
// next check and the penalty can compound until paid; unpaid bills do not
// accrue as debt.
func (m *Manager) ProcessMonthly(st *player.State, gameDay int) BillingResult {
	if gameDay-m.lastBilledDay < billingIntervalDays {
		return BillingResult{Processed: false}
	}

	res := BillingResult{Processed: true}

	// Landlord's mood: 10% chance the rent jumps 5-15% this cycle. The
	// bill still goes out, at the new total.
	if entropy.Chance(m.rng, 0.1) {
		res.RentIncreased = true
		res.OldRent = m.expenses.Rent
		m.expenses.Rent = player.RoundMoney(m.expenses.Rent * (1 + entropy.Uniform(m.rng, 0.05, 0.15)))
		res.NewRent = m.expenses.Rent
		st.Finances.MonthlyRent = m.expenses.Rent
		slog.Info("rent increased", "old", res.OldRent, "new", res.NewRent)
	}

	res.Total = player.RoundMoney(m.expenses.Total())

	if st.Finances.DeliveryCoins >= res.Total {
		st.Finances.DeliveryCoins -= res.Total
		m.lastBilledDay = gameDay
		res.Paid = true
	} else {
		st.Attributes.CreditScore -= insufficientFundsPenalty
		res.CreditPenalty = insufficientFundsPenalty
		slog.Warn("monthly bill unpaid", "total", res.Total, "balance", st.Finances.DeliveryCoins)
	}

	return res
}

// DailyIncidentals rolls the day's out-of-pocket costs: food, transport,
// and sundries.
func (m *Manager) DailyIncidentals() float64 {
	food := entropy.Uniform(m.rng, 20, 50)
	transport := entropy.Uniform(m.rng, 10, 30)
	other := entropy.Uniform(m.rng, 5, 20)
	return player.RoundMoney(food + transport + other)
}

// InsuranceCost is the flat price of medical coverage.
const InsuranceCost = 500.0

// BuyInsurance purchases medical insurance once.
func BuyInsurance(st *player.State) (bool, string) {
	if st.Finances.MedicalInsurance {
		return false, "already_insured"
	}
	if st.Finances.DeliveryCoins < InsuranceCost {
		return false, "insufficient_funds"
	}
	st.Finances.DeliveryCoins -= InsuranceCost
	st.Finances.MedicalInsurance = true
	return true, ""
}

// PayDebt puts amount toward the outstanding debt from the liquid balance.
func PayDebt(st *player.State, amount float64) (bool, string) {
	if amount <= 0 {
		return false, "invalid_amount"
	}
	if amount > st.Finances.DeliveryCoins {
		return false, "insufficient_funds"
	}
	if amount > st.Finances.Debt {
		amount = st.Finances.Debt
	}
	st.Finances.DeliveryCoins -= amount
	st.Finances.Debt = player.RoundMoney(st.Finances.Debt - amount)
	return true, ""
}
