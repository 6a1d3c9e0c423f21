// Package engine owns the single courier session: the shared player state,
// the subsystems around it, and the mutex that serializes every discrete
// mutating operation.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/courier-life/internal/clock"
	"github.com/talgya/courier-life/internal/dialogue"
	"github.com/talgya/courier-life/internal/entropy"
	"github.com/talgya/courier-life/internal/expense"
	"github.com/talgya/courier-life/internal/lottery"
	"github.com/talgya/courier-life/internal/market"
	"github.com/talgya/courier-life/internal/order"
	"github.com/talgya/courier-life/internal/player"
	"github.com/talgya/courier-life/internal/school"
	"github.com/talgya/courier-life/internal/weather"
)

// Command failure reason codes shared by the session surface.
const (
	ReasonOrderNotFound       = "order_not_found"
	ReasonOrderInProgress     = "order_in_progress"
	ReasonNoActiveOrder       = "no_active_order"
	ReasonNoDeliveredOrder    = "no_delivered_order"
	ReasonInsufficientStamina = "insufficient_stamina"
	ReasonInsufficientFunds   = "insufficient_funds"
	ReasonUnknownSymbol       = "unknown_symbol"
)

// minAcceptStamina gates order pickup: too tired, no ride.
const minAcceptStamina = 20

// deliveryFatigue is the fatigue gained per completed run.
const deliveryFatigue = 5

// fatigueDrainThreshold is the level past which fatigue eats stamina every
// engine tick.
const fatigueDrainThreshold = 80

// defaultPoolSize is how many candidate orders a refresh produces when the
// caller does not say.
const defaultPoolSize = 5

// maxPoolSize caps a single refresh.
const maxPoolSize = 10

// Config holds the knobs a session is built with.
type Config struct {
	PlayerName     string
	TimeMultiplier float64 // game seconds per real second
	Seed           int64   // weather noise seed
	DialogueMode   dialogue.Mode
}

// Session wires every subsystem around the one player.State. All command
// methods lock mu; the lock is never held across a dialogue provider call or
// a clock advance, so observers and network providers cannot deadlock it.
type Session struct {
	mu sync.Mutex

	state *player.State

	clock       *clock.Clock
	weather     *weather.System
	generator   *order.Generator
	resolver    *order.Resolver
	dialogues   *dialogue.Resolver
	exchange    *market.Exchange
	portfolio   *market.Portfolio
	lottery     *lottery.Engine
	expenses    *expense.Manager
	nightSchool *school.NightSchool
	careers     *school.CareerBoard

	pool      []*order.Order
	active    *order.Order
	delivered *order.Order // last completed order, target of post-delivery dialogue

	career string // non-courier career after a successful transition, "" otherwise

	bus  *eventBus
	stop chan struct{}
	done chan struct{}
}

// NewSession builds a fresh session. rng drives every stochastic subsystem
// except lottery draws, which use lotteryRng (pass the same source when no
// true-entropy client is configured). provider may be nil for offline-only
// dialogue.
func NewSession(cfg Config, rng, lotteryRng entropy.Source, provider dialogue.Provider) *Session {
	st := player.New(cfg.PlayerName)

	mult := cfg.TimeMultiplier
	if mult <= 0 {
		mult = 60.0 // 1 real second = 1 game minute
	}

	s := &Session{
		state:       st,
		clock:       clock.New(st.CurrentTime, mult),
		weather:     weather.NewSystem(cfg.Seed),
		generator:   order.NewGenerator(rng),
		resolver:    order.NewResolver(rng),
		dialogues:   dialogue.NewResolver(dialogue.DefaultCatalog(), provider, rng),
		exchange:    market.NewExchange(rng),
		portfolio:   market.NewPortfolio(&st.Finances),
		lottery:     lottery.NewEngine(lotteryRng),
		expenses:    expense.NewManager(rng),
		nightSchool: school.NewNightSchool(school.DefaultCatalog(), rng),
		careers:     school.NewCareerBoard(school.DefaultCareers(), rng),
		bus:         newEventBus(),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	s.dialogues.SetMode(cfg.DialogueMode)
	s.state.Weather = s.weather.At(s.clock.Now())

	s.clock.OnHourChange(s.onHour)
	s.clock.OnNewDay(s.onNewDay)
	return s
}

// State returns a copy of the player state for read-only presentation.
func (s *Session) State() player.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := *s.state
	attrs := *s.state.Attributes
	attrs.Skills = make(map[player.Skill]int, len(s.state.Attributes.Skills))
	for k, v := range s.state.Attributes.Skills {
		attrs.Skills[k] = v
	}
	st.Attributes = &attrs
	st.CurrentTime = s.clock.Now()
	return st
}

// Events returns the most recent engine events, newest last.
func (s *Session) Events(limit int) []Event {
	return s.bus.recent(limit)
}

// DrainEvents returns events published since the previous drain. The
// persistence appender uses this to avoid writing duplicates.
func (s *Session) DrainEvents() []Event {
	return s.bus.drain()
}

// Subscribe registers a live event consumer. Call the returned func to
// unsubscribe.
func (s *Session) Subscribe() (<-chan Event, func()) {
	return s.bus.subscribe()
}

func (s *Session) publish(category, format string, args ...any) {
	s.bus.publish(Event{
		Time:        s.clock.Now(),
		GameDay:     s.clock.Day(),
		Category:    category,
		Description: fmt.Sprintf(format, args...),
	})
}

// --- order pool ---

// OrderResult is the discriminated outcome of an order pool command.
type OrderResult struct {
	OK     bool         `json:"ok"`
	Reason string       `json:"reason,omitempty"`
	Order  *order.Order `json:"order,omitempty"`
}

// RefreshOrders regenerates the available pool with count fresh candidates.
// The active order, if any, is unaffected.
func (s *Session) RefreshOrders(count int) []*order.Order {
	if count <= 0 {
		count = defaultPoolSize
	}
	if count > maxPoolSize {
		count = maxPoolSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hour := s.clock.Now().Hour()
	s.pool = s.pool[:0]
	for i := 0; i < count; i++ {
		s.pool = append(s.pool, s.generator.Generate(s.state.Weather, hour))
	}
	return s.snapshotPool()
}

// Orders returns the current available pool.
func (s *Session) Orders() []*order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotPool()
}

func (s *Session) snapshotPool() []*order.Order {
	out := make([]*order.Order, len(s.pool))
	for i, o := range s.pool {
		cp := *o
		out[i] = &cp
	}
	return out
}

// ActiveOrder returns a copy of the order in progress, or nil.
func (s *Session) ActiveOrder() *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	cp := *s.active
	return &cp
}

// AcceptOrder takes an order from the pool. Requires stamina of at least 20
// and no run already in progress.
func (s *Session) AcceptOrder(id string) OrderResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return OrderResult{OK: false, Reason: ReasonOrderInProgress}
	}
	if s.state.Attributes.Stamina < minAcceptStamina {
		return OrderResult{OK: false, Reason: ReasonInsufficientStamina}
	}

	idx := s.poolIndex(id)
	if idx < 0 {
		return OrderResult{OK: false, Reason: ReasonOrderNotFound}
	}

	o := s.pool[idx]
	s.pool = append(s.pool[:idx], s.pool[idx+1:]...)
	o.Status = order.StatusAccepted
	s.active = o

	slog.Info("order accepted", "id", o.ID, "priority", o.Priority.String(), "total", o.Total())
	cp := *o
	return OrderResult{OK: true, Order: &cp}
}

// RejectOrder drops an order from the pool. Rejection carries no penalty.
func (s *Session) RejectOrder(id string) OrderResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.poolIndex(id)
	if idx < 0 {
		return OrderResult{OK: false, Reason: ReasonOrderNotFound}
	}
	s.pool = append(s.pool[:idx], s.pool[idx+1:]...)
	return OrderResult{OK: true}
}

func (s *Session) poolIndex(id string) int {
	for i, o := range s.pool {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// DeliveryOutcome bundles the resolved run with the state deltas applied.
type DeliveryOutcome struct {
	OK           bool          `json:"ok"`
	Reason       string        `json:"reason,omitempty"`
	Order        *order.Order  `json:"order,omitempty"`
	Result       *order.Result `json:"result,omitempty"`
	LevelsGained int           `json:"levels_gained,omitempty"`
	MinutesSpent int           `json:"minutes_spent,omitempty"`
}

// Deliver runs the active order to completion and applies every delta:
// earnings, tip, credit, experience and level-ups, stamina, fatigue, stats.
// Game time advances by the estimated minutes plus any penalty.
func (s *Session) Deliver() DeliveryOutcome {
	s.mu.Lock()

	if s.active == nil {
		s.mu.Unlock()
		return DeliveryOutcome{OK: false, Reason: ReasonNoActiveOrder}
	}

	o := s.active
	o.Status = order.StatusPickedUp
	res := s.resolver.Resolve(o, s.state)

	st := s.state
	st.Stats.TotalOrders++
	if res.Success {
		st.Stats.SuccessfulDeliveries++
		st.Stats.TotalEarnings = player.RoundMoney(st.Stats.TotalEarnings + res.Earnings)
		st.Stats.TotalTips = player.RoundMoney(st.Stats.TotalTips + res.Tip)
		st.Finances.DeliveryCoins = player.RoundMoney(st.Finances.DeliveryCoins + res.Earnings)
	}
	if res.Complaint {
		st.Stats.Complaints++
	}
	if res.FiveStar {
		st.Stats.FiveStarRatings++
	}
	st.Attributes.CreditScore += res.CreditDelta

	levels := st.Attributes.GainExperience(res.ExperienceGained)
	st.Attributes.SpendStamina(5 + int(o.DistanceKM))
	st.FatigueLevel += deliveryFatigue
	if st.FatigueLevel > 100 {
		st.FatigueLevel = 100
	}
	st.District = o.DeliveryDistrict

	minutes := o.EstimatedMinutes + res.TimePenalty
	s.delivered, s.active = o, nil

	cp := *o
	out := DeliveryOutcome{
		OK:           true,
		Order:        &cp,
		Result:       res,
		LevelsGained: levels,
		MinutesSpent: minutes,
	}
	s.mu.Unlock()

	// Advance outside the lock: day/hour observers re-enter the session.
	s.clock.Advance(time.Duration(minutes) * time.Minute)

	if res.Success {
		s.publish("delivery", "delivered %s for %.2f coins (tip %.2f)", o.ID, res.Earnings, res.Tip)
	} else {
		s.publish("delivery", "run %s failed: %s", o.ID, res.Events[len(res.Events)-1].Description)
	}
	if levels > 0 {
		s.publish("delivery", "reached level %d", s.State().Attributes.Level)
	}
	return out
}

// --- dialogue ---

// DialogueOptions previews the response set the courier may choose from for
// the last delivered order. Empty when nothing has been delivered.
func (s *Session) DialogueOptions(trigger dialogue.Trigger) []dialogue.Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delivered == nil {
		return nil
	}
	return s.dialogues.OfferedOptions(s.delivered, trigger, s.state.Attributes)
}

// InteractionOutcome bundles a resolved exchange with the applied effect.
type InteractionOutcome struct {
	OK          bool                  `json:"ok"`
	Reason      string                `json:"reason,omitempty"`
	Interaction *dialogue.Interaction `json:"interaction,omitempty"`
	CreditDelta int                   `json:"credit_delta,omitempty"`
}

// Interact runs one customer exchange about the last delivered order.
// chosenIndex picks from the offered option set; pass a negative index to
// let the resolver choose. In online mode the provider call happens without
// the state lock held.
func (s *Session) Interact(trigger dialogue.Trigger, chosenIndex int) InteractionOutcome {
	s.mu.Lock()
	if s.delivered == nil {
		s.mu.Unlock()
		return InteractionOutcome{OK: false, Reason: ReasonNoDeliveredOrder}
	}
	o := s.delivered
	now := s.clock.Now()

	var inter *dialogue.Interaction
	if s.dialogues.Online() {
		// Only the provider round-trip runs unlocked. The request snapshot
		// is taken while the state is still ours, and the history append
		// happens back under the lock.
		req := s.dialogues.ProviderRequest(o, trigger, s.state.Attributes)
		s.mu.Unlock()
		opts, err := s.dialogues.FetchOptions(req)
		s.mu.Lock()
		inter = s.dialogues.InteractProvided(o, trigger, now, chosenIndex, opts, err)
	} else {
		inter = s.dialogues.Interact(o, trigger, s.state.Attributes, now, chosenIndex)
	}
	s.state.Attributes.CreditScore += inter.Chosen.Effect.CreditDelta
	s.mu.Unlock()

	if inter.Chosen.Effect.CreditDelta != 0 {
		s.publish("dialogue", "%s customer: credit %+d", o.CustomerType.String(), inter.Chosen.Effect.CreditDelta)
	}
	return InteractionOutcome{
		OK:          true,
		Interaction: inter,
		CreditDelta: inter.Chosen.Effect.CreditDelta,
	}
}

// DialogueHistory exposes the interaction log, newest last.
func (s *Session) DialogueHistory(limit int) []dialogue.HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogues.History(limit)
}

// AnalyzeDialogue aggregates per-customer-type success rates.
func (s *Session) AnalyzeDialogue() map[player.CustomerType]dialogue.PatternStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogues.AnalyzePatterns()
}

// --- market ---

// Stocks lists the exchange catalog at current prices.
func (s *Session) Stocks() []*market.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchange.All()
}

// SearchStocks filters the catalog by symbol or name fragment.
func (s *Session) SearchStocks(keyword string) []*market.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchange.Search(keyword)
}

// BuyStock opens or extends a position at the current exchange price.
func (s *Session) BuyStock(symbol string, shares int, leverage float64) market.TradeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	stock := s.exchange.Get(symbol)
	if stock == nil {
		return market.TradeResult{OK: false, Reason: ReasonUnknownSymbol}
	}
	res := s.portfolio.Buy(symbol, shares, stock.Price, leverage, s.clock.Now())
	if res.OK {
		slog.Info("stock bought", "symbol", symbol, "shares", shares, "price", stock.Price, "leverage", leverage)
	}
	return res
}

// SellStock closes part or all of a position at the current exchange price.
func (s *Session) SellStock(symbol string, shares int) market.TradeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	stock := s.exchange.Get(symbol)
	if stock == nil {
		return market.TradeResult{OK: false, Reason: ReasonUnknownSymbol}
	}
	res := s.portfolio.Sell(symbol, shares, stock.Price, s.clock.Now())
	if res.OK {
		slog.Info("stock sold", "symbol", symbol, "shares", shares, "price", stock.Price, "profit", res.Profit)
	}
	return res
}

// PortfolioView is a read-only summary of holdings.
type PortfolioView struct {
	Positions    []*market.Position   `json:"positions"`
	Value        float64              `json:"value"`
	ProfitLoss   float64              `json:"profit_loss"`
	Balance      float64              `json:"balance"`
	Transactions []market.Transaction `json:"transactions,omitempty"`
}

// Portfolio snapshots positions, totals, and recent transactions.
func (s *Session) Portfolio(historyLimit int) PortfolioView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PortfolioView{
		Positions:    s.portfolio.Positions(),
		Value:        s.portfolio.Value(),
		ProfitLoss:   s.portfolio.TotalProfitLoss(),
		Balance:      s.state.Finances.DeliveryCoins,
		Transactions: s.portfolio.History(historyLimit),
	}
}

// --- lottery ---

// LotteryOutcome bundles a draw with the money movement applied.
type LotteryOutcome struct {
	OK     bool          `json:"ok"`
	Reason string        `json:"reason,omitempty"`
	Draw   *lottery.Draw `json:"draw,omitempty"`
}

// PlayLottery buys one ticket, debits the cost, and credits any prize.
// numbers may be nil for a quick pick; a malformed ticket is reported via
// Reason and costs nothing.
func (s *Session) PlayLottery(v lottery.Variant, numbers []int) LotteryOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	cost := lottery.TicketCost(v)
	if s.state.Finances.DeliveryCoins < cost {
		return LotteryOutcome{OK: false, Reason: ReasonInsufficientFunds}
	}

	draw, err := s.lottery.Play(v, numbers)
	if err != nil {
		return LotteryOutcome{OK: false, Reason: err.Error()}
	}

	s.state.Finances.DeliveryCoins = player.RoundMoney(s.state.Finances.DeliveryCoins - draw.Cost + draw.Prize)
	if draw.Prize >= 1000 {
		s.publish("lottery", "%s prize: %.0f coins", string(draw.Variant), draw.Prize)
		slog.Info("lottery win", "variant", string(draw.Variant), "prize", draw.Prize)
	}
	return LotteryOutcome{OK: true, Draw: draw}
}

// --- expenses ---

// PayExpenses runs the monthly billing check immediately.
func (s *Session) PayExpenses() expense.BillingResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.expenses.ProcessMonthly(s.state, s.clock.Day())
	if res.Processed {
		s.publishBilling(res)
	}
	return res
}

// ExpenseBreakdown returns the current monthly expense table.
func (s *Session) ExpenseBreakdown() expense.Monthly {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenses.Breakdown()
}

// BuyInsurance purchases medical insurance.
func (s *Session) BuyInsurance() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, reason := expense.BuyInsurance(s.state)
	if ok {
		s.publish("expense", "medical insurance purchased")
	}
	return ok, reason
}

// GearShop lists purchasable equipment upgrades with ownership flags.
func (s *Session) GearShop() []player.GearItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return player.GearShop(s.state)
}

// BuyGear purchases one equipment upgrade from the shop.
func (s *Session) BuyGear(id string) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, reason := player.BuyGear(s.state, id)
	if ok {
		s.publish("expense", "gear purchased: %s", id)
	}
	return ok, reason
}

// PayDebt pays down the loan principal.
func (s *Session) PayDebt(amount float64) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, reason := expense.PayDebt(s.state, amount)
	if ok {
		s.publish("expense", "debt payment %.2f, remaining %.2f", amount, s.state.Finances.Debt)
	}
	return ok, reason
}

// --- school and careers ---

// Courses lists the night-school catalog.
func (s *Session) Courses() []*school.Course {
	return school.DefaultCatalog().All()
}

// Enroll signs the courier up for a course.
func (s *Session) Enroll(id school.CourseID) school.EnrollResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.nightSchool.Enroll(id, s.state)
	if res.OK {
		s.publish("school", "enrolled in %s", string(id))
	}
	return res
}

// Study runs one study sitting and advances game time by its length.
func (s *Session) Study(id school.CourseID, minutes int) school.StudyResult {
	s.mu.Lock()
	res := s.nightSchool.Study(id, minutes, s.state, s.clock.Now())
	s.mu.Unlock()

	if res.ExperienceGained > 0 {
		s.clock.Advance(time.Duration(minutes) * time.Minute)
	}
	return res
}

// TakeExam attempts the course exam.
func (s *Session) TakeExam(id school.CourseID) school.ExamResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.nightSchool.TakeExam(id, s.state)
	if res.OK && res.Passed {
		s.publish("school", "passed %s exam", string(id))
	}
	return res
}

// GraduationProgress reports progress toward an education level.
func (s *Session) GraduationProgress(level school.EducationLevel) (bool, school.GraduationRequirement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nightSchool.GraduationProgress(level)
}

// Careers lists the transition table.
func (s *Session) Careers() []school.Career {
	return s.careers.Careers()
}

// CheckCareer verifies the skill requirements for a career.
func (s *Session) CheckCareer(name string) (school.EligibilityResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.careers.CheckEligibility(name, s.state.Attributes)
}

// AttemptCareer rolls a career transition. Success records the new career on
// the session; the courier keeps delivering either way.
func (s *Session) AttemptCareer(name string) school.TransitionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.careers.AttemptTransition(name, s.state.Attributes)
	if res.OK && res.Succeeded {
		s.career = name
		s.publish("career", "career transition succeeded: %s", name)
		slog.Info("career transition", "career", name, "rate", res.SuccessRate)
	}
	return res
}

// Career returns the current non-courier career, empty if none.
func (s *Session) Career() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.career
}

// --- rest ---

// RestOutcome reports a rest action.
type RestOutcome struct {
	StaminaRestored int `json:"stamina_restored"`
	FatigueReduced  int `json:"fatigue_reduced"`
	MinutesSpent    int `json:"minutes_spent"`
}

// Rest trades game time for recovery: roughly full stamina over ten hours of
// sleep, fatigue shed at half that rate.
func (s *Session) Rest(minutes int) RestOutcome {
	if minutes <= 0 {
		return RestOutcome{}
	}
	if minutes > 12*60 {
		minutes = 12 * 60
	}

	s.mu.Lock()
	stamina := minutes / 6
	fatigue := minutes / 12
	before := s.state.Attributes.Stamina
	s.state.Attributes.RestoreStamina(stamina)
	restored := s.state.Attributes.Stamina - before

	if fatigue > s.state.FatigueLevel {
		fatigue = s.state.FatigueLevel
	}
	s.state.FatigueLevel -= fatigue
	s.mu.Unlock()

	s.clock.Advance(time.Duration(minutes) * time.Minute)
	return RestOutcome{StaminaRestored: restored, FatigueReduced: fatigue, MinutesSpent: minutes}
}

// --- background loop ---

// Run drives the session in real time until Stop: wall-clock time scales
// into game time, the market ticks, leveraged positions are checked, and
// fatigue grinds at stamina. Blocks; run it on its own goroutine.
func (s *Session) Run() {
	slog.Info("session started", "player", s.state.PlayerName, "time", s.clock.FormattedTime())
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			slog.Info("session stopped", "day", s.clock.Day())
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// Stop halts the background loop and waits for it to drain.
func (s *Session) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

func (s *Session) tick() {
	// Observers fire inside Update; they take the lock themselves.
	s.clock.Update()

	s.mu.Lock()
	now := s.clock.Now()
	var liquidations []string
	if s.exchange.Tick(now) {
		liquidations = s.portfolio.RefreshPositions(s.exchange, now)
	}
	if s.state.FatigueLevel > fatigueDrainThreshold {
		s.state.Attributes.SpendStamina(1)
	}
	s.mu.Unlock()

	for _, symbol := range liquidations {
		s.publish("market", "margin call closed %s", symbol)
	}
}

// onHour refreshes the weather once per game hour.
func (s *Session) onHour(hour int) {
	s.mu.Lock()
	prev := s.state.Weather
	next := s.weather.Refresh(s.clock.Now(), prev)
	s.state.Weather = next
	s.mu.Unlock()

	if next != prev {
		s.publish("system", "weather turned %s", next.String())
	}
}

// onNewDay charges daily incidentals and runs the monthly billing check.
func (s *Session) onNewDay(day int) {
	s.mu.Lock()
	incidentals := s.expenses.DailyIncidentals()
	s.state.Finances.DeliveryCoins = player.RoundMoney(s.state.Finances.DeliveryCoins - incidentals)
	billing := s.expenses.ProcessMonthly(s.state, day)
	s.mu.Unlock()

	s.publish("expense", "day %d incidentals: %.2f coins", day, incidentals)
	if billing.Processed {
		s.publishBilling(billing)
	}
	slog.Info("new day", "day", day, "balance", s.State().Finances.DeliveryCoins)
}

func (s *Session) publishBilling(res expense.BillingResult) {
	if res.Paid {
		s.publish("expense", "monthly bill paid: %.2f coins", res.Total)
	} else {
		s.publish("expense", "monthly bill unpaid (%.2f), credit -%d", res.Total, res.CreditPenalty)
	}
	if res.RentIncreased {
		s.publish("expense", "rent raised from %.2f to %.2f", res.OldRent, res.NewRent)
	}
}

// Clock exposes the game clock for presentation.
func (s *Session) Clock() *clock.Clock {
	return s.clock
}
