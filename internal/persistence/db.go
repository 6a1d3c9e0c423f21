// Package persistence provides SQLite-based session storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/courier-life/internal/dialogue"
	"github.com/talgya/courier-life/internal/engine"
	"github.com/talgya/courier-life/internal/market"
	"github.com/talgya/courier-life/internal/player"
	"github.com/talgya/courier-life/internal/school"
)

// DB wraps a SQLite connection for session persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS player_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		customer_type TEXT NOT NULL,
		trigger_condition TEXT NOT NULL,
		player_line TEXT NOT NULL,
		response TEXT NOT NULL,
		credit_delta INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS study_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		effectiveness REAL NOT NULL,
		experience_gained INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS passed_courses (
		course_id TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS positions (
		symbol TEXT PRIMARY KEY,
		shares INTEGER NOT NULL,
		avg_cost REAL NOT NULL,
		current_price REAL NOT NULL,
		leverage REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		action TEXT NOT NULL,
		symbol TEXT NOT NULL,
		shares INTEGER NOT NULL,
		price REAL NOT NULL,
		leverage REAL NOT NULL,
		amount REAL NOT NULL,
		profit REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		time TEXT NOT NULL,
		game_day INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_time ON interactions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_transactions_time ON transactions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_day ON events(game_day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSnapshot performs a full save of a session snapshot.
func (db *DB) SaveSnapshot(m *engine.Memento) error {
	slog.Info("saving session",
		"day", m.GameDay,
		"balance", m.State.Finances.DeliveryCoins,
		"interactions", len(m.Interactions),
		"transactions", len(m.Transactions))

	if err := db.saveState(m); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := db.saveInteractions(m.Interactions); err != nil {
		return fmt.Errorf("save interactions: %w", err)
	}
	if err := db.saveSchool(m.StudySessions, m.PassedCourses); err != nil {
		return fmt.Errorf("save school: %w", err)
	}
	if err := db.savePortfolio(m.Positions, m.Transactions); err != nil {
		return fmt.Errorf("save portfolio: %w", err)
	}
	if err := db.SaveMeta("saved_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("session saved")
	return nil
}

// saveState writes the player state as a flat key-value snapshot. Enum
// fields are stored as their canonical labels so saves stay readable and
// survive reorderings of the enum values.
func (db *DB) saveState(m *engine.Memento) error {
	st := &m.State
	skillsJSON, _ := json.Marshal(st.Attributes.Skills)

	kv := map[string]string{
		"player_name":       st.PlayerName,
		"game_time":         m.GameTime.UTC().Format(time.RFC3339),
		"game_day":          strconv.Itoa(m.GameDay),
		"weather":           st.Weather.String(),
		"district":          st.District.String(),
		"fatigue_level":     strconv.Itoa(st.FatigueLevel),
		"online":            strconv.FormatBool(st.Online),
		"career":            m.Career,
		"delivery_coins":    formatMoney(st.Finances.DeliveryCoins),
		"credit_points":     strconv.Itoa(st.Finances.CreditPoints),
		"debt":              formatMoney(st.Finances.Debt),
		"monthly_rent":      formatMoney(st.Finances.MonthlyRent),
		"savings":           formatMoney(st.Finances.Savings),
		"medical_insurance": strconv.FormatBool(st.Finances.MedicalInsurance),
		"battery_capacity":  strconv.Itoa(st.Equipment.BatteryCapacity),
		"rain_cover":        strconv.FormatBool(st.Equipment.RainCover),
		"cargo_reinforced":  strconv.FormatBool(st.Equipment.CargoReinforced),
		"uniform_tier":      st.Equipment.UniformTier,
		"skills":            string(skillsJSON),
		"stamina":           strconv.Itoa(st.Attributes.Stamina),
		"credit_score":      strconv.Itoa(st.Attributes.CreditScore),
		"experience":        strconv.Itoa(st.Attributes.Experience),
		"level":             strconv.Itoa(st.Attributes.Level),
		"total_orders":      strconv.Itoa(st.Stats.TotalOrders),
		"successful":        strconv.Itoa(st.Stats.SuccessfulDeliveries),
		"complaints":        strconv.Itoa(st.Stats.Complaints),
		"five_star":         strconv.Itoa(st.Stats.FiveStarRatings),
		"total_earnings":    formatMoney(st.Stats.TotalEarnings),
		"total_tips":        formatMoney(st.Stats.TotalTips),
		"last_billed_day":   strconv.Itoa(m.LastBilledDay),
		"lottery_losses":    strconv.Itoa(m.LotteryLossStreak),
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range kv {
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO player_state (key, value) VALUES (?, ?)",
			key, value,
		); err != nil {
			return fmt.Errorf("insert %s: %w", key, err)
		}
	}

	return tx.Commit()
}

func (db *DB) saveInteractions(records []dialogue.HistoryRecord) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err := tx.Exec(`INSERT OR REPLACE INTO interactions
			(id, timestamp, customer_type, trigger_condition, player_line, response, credit_delta)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Timestamp.UTC().Format(time.RFC3339), r.CustomerType.String(),
			string(r.Trigger), r.PlayerLine, r.Response, r.CreditDelta,
		)
		if err != nil {
			return fmt.Errorf("insert interaction %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func (db *DB) saveSchool(sessions []school.StudySession, passed []school.CourseID) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM study_sessions"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM passed_courses"); err != nil {
		return err
	}

	for _, s := range sessions {
		_, err := tx.Exec(`INSERT INTO study_sessions
			(course_id, start_time, duration_minutes, effectiveness, experience_gained)
			VALUES (?, ?, ?, ?, ?)`,
			string(s.CourseID), s.StartTime.UTC().Format(time.RFC3339),
			s.DurationMinutes, s.Effectiveness, s.ExperienceGained,
		)
		if err != nil {
			return fmt.Errorf("insert study session: %w", err)
		}
	}

	for _, id := range passed {
		if _, err := tx.Exec("INSERT INTO passed_courses (course_id) VALUES (?)", string(id)); err != nil {
			return fmt.Errorf("insert passed course: %w", err)
		}
	}

	return tx.Commit()
}

func (db *DB) savePortfolio(positions []*market.Position, transactions []market.Transaction) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM positions"); err != nil {
		return err
	}

	for _, p := range positions {
		_, err := tx.Exec(`INSERT INTO positions
			(symbol, shares, avg_cost, current_price, leverage)
			VALUES (?, ?, ?, ?, ?)`,
			p.Symbol, p.Shares, p.AvgCost, p.CurrentPrice, p.Leverage,
		)
		if err != nil {
			return fmt.Errorf("insert position %s: %w", p.Symbol, err)
		}
	}

	for _, t := range transactions {
		_, err := tx.Exec(`INSERT OR REPLACE INTO transactions
			(id, timestamp, action, symbol, shares, price, leverage, amount, profit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Timestamp.UTC().Format(time.RFC3339), string(t.Action),
			t.Symbol, t.Shares, t.Price, t.Leverage, t.Amount, t.Profit,
		)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// SaveEvents appends engine events to the log.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (time, game_day, category, description) VALUES (?, ?, ?, ?)",
			e.Time.UTC().Format(time.RFC3339), e.GameDay, e.Category, e.Description,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in session metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// LoadSnapshot reads the saved session, or (nil, nil) when none exists.
// Malformed rows are logged and skipped rather than failing the load; a
// corrupt enum label falls back to its zero value.
func (db *DB) LoadSnapshot() (*engine.Memento, error) {
	kv, err := db.loadState()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if len(kv) == 0 {
		return nil, nil
	}

	st := player.New(kv["player_name"])
	m := &engine.Memento{GameDay: 1}

	if t, err := time.Parse(time.RFC3339, kv["game_time"]); err == nil {
		m.GameTime = t
		st.CurrentTime = t
	} else {
		m.GameTime = st.CurrentTime
	}
	m.GameDay = atoiOr(kv["game_day"], 1)
	m.Career = kv["career"]
	m.LastBilledDay = atoiOr(kv["last_billed_day"], 1)
	m.LotteryLossStreak = atoiOr(kv["lottery_losses"], 0)

	if w, err := player.ParseWeather(kv["weather"]); err == nil {
		st.Weather = w
	} else {
		slog.Warn("unknown saved weather, defaulting", "label", kv["weather"])
	}
	if d, err := player.ParseDistrict(kv["district"]); err == nil {
		st.District = d
	} else {
		slog.Warn("unknown saved district, defaulting", "label", kv["district"])
	}

	st.FatigueLevel = atoiOr(kv["fatigue_level"], 0)
	st.Online = kv["online"] == "true"

	st.Finances.DeliveryCoins = atofOr(kv["delivery_coins"], st.Finances.DeliveryCoins)
	st.Finances.CreditPoints = atoiOr(kv["credit_points"], st.Finances.CreditPoints)
	st.Finances.Debt = atofOr(kv["debt"], st.Finances.Debt)
	st.Finances.MonthlyRent = atofOr(kv["monthly_rent"], st.Finances.MonthlyRent)
	st.Finances.Savings = atofOr(kv["savings"], 0)
	st.Finances.MedicalInsurance = kv["medical_insurance"] == "true"

	st.Equipment.BatteryCapacity = atoiOr(kv["battery_capacity"], 100)
	st.Equipment.RainCover = kv["rain_cover"] == "true"
	st.Equipment.CargoReinforced = kv["cargo_reinforced"] == "true"
	if tier := kv["uniform_tier"]; tier != "" {
		st.Equipment.UniformTier = tier
	}

	st.Attributes.Skills = loadSkills(kv["skills"])
	st.Attributes.Stamina = atoiOr(kv["stamina"], 100)
	st.Attributes.CreditScore = atoiOr(kv["credit_score"], 100)
	st.Attributes.Experience = atoiOr(kv["experience"], 0)
	st.Attributes.Level = atoiOr(kv["level"], 1)

	st.Stats.TotalOrders = atoiOr(kv["total_orders"], 0)
	st.Stats.SuccessfulDeliveries = atoiOr(kv["successful"], 0)
	st.Stats.Complaints = atoiOr(kv["complaints"], 0)
	st.Stats.FiveStarRatings = atoiOr(kv["five_star"], 0)
	st.Stats.TotalEarnings = atofOr(kv["total_earnings"], 0)
	st.Stats.TotalTips = atofOr(kv["total_tips"], 0)

	m.State = *st

	if m.Interactions, err = db.loadInteractions(); err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	if m.StudySessions, m.PassedCourses, err = db.loadSchool(); err != nil {
		return nil, fmt.Errorf("load school: %w", err)
	}
	if m.Positions, m.Transactions, err = db.loadPortfolio(); err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	slog.Info("session loaded", "player", st.PlayerName, "day", m.GameDay)
	return m, nil
}

func (db *DB) loadState() (map[string]string, error) {
	rows, err := db.conn.Queryx("SELECT key, value FROM player_state")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		kv[key] = value
	}
	return kv, rows.Err()
}

func (db *DB) loadInteractions() ([]dialogue.HistoryRecord, error) {
	rows, err := db.conn.Queryx(`SELECT id, timestamp, customer_type, trigger_condition,
		player_line, response, credit_delta FROM interactions ORDER BY timestamp`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []dialogue.HistoryRecord
	for rows.Next() {
		var r dialogue.HistoryRecord
		var ts, ctype, trigger string
		if err := rows.Scan(&r.ID, &ts, &ctype, &trigger, &r.PlayerLine, &r.Response, &r.CreditDelta); err != nil {
			return nil, err
		}
		r.Timestamp, _ = time.Parse(time.RFC3339, ts)
		r.Trigger = dialogue.Trigger(trigger)
		ct, err := player.ParseCustomerType(ctype)
		if err != nil {
			slog.Warn("skipping interaction with unknown customer type", "label", ctype)
			continue
		}
		r.CustomerType = ct
		records = append(records, r)
	}
	return records, rows.Err()
}

func (db *DB) loadSchool() ([]school.StudySession, []school.CourseID, error) {
	rows, err := db.conn.Queryx(`SELECT course_id, start_time, duration_minutes,
		effectiveness, experience_gained FROM study_sessions ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var sessions []school.StudySession
	for rows.Next() {
		var s school.StudySession
		var courseID, start string
		if err := rows.Scan(&courseID, &start, &s.DurationMinutes, &s.Effectiveness, &s.ExperienceGained); err != nil {
			return nil, nil, err
		}
		s.CourseID = school.CourseID(courseID)
		s.StartTime, _ = time.Parse(time.RFC3339, start)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var rawIDs []string
	if err := db.conn.Select(&rawIDs, "SELECT course_id FROM passed_courses ORDER BY course_id"); err != nil {
		return nil, nil, err
	}
	passed := make([]school.CourseID, len(rawIDs))
	for i, id := range rawIDs {
		passed[i] = school.CourseID(id)
	}

	return sessions, passed, nil
}

func (db *DB) loadPortfolio() ([]*market.Position, []market.Transaction, error) {
	var positions []*market.Position
	if err := db.conn.Select(&positions,
		`SELECT symbol, shares, avg_cost AS avgcost, current_price AS currentprice, leverage
		 FROM positions ORDER BY symbol`); err != nil {
		return nil, nil, err
	}

	rows, err := db.conn.Queryx(`SELECT id, timestamp, action, symbol, shares,
		price, leverage, amount, profit FROM transactions ORDER BY timestamp`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var transactions []market.Transaction
	for rows.Next() {
		var t market.Transaction
		var ts, action string
		if err := rows.Scan(&t.ID, &ts, &action, &t.Symbol, &t.Shares, &t.Price, &t.Leverage, &t.Amount, &t.Profit); err != nil {
			return nil, nil, err
		}
		t.Timestamp, _ = time.Parse(time.RFC3339, ts)
		t.Action = market.TradeAction(action)
		transactions = append(transactions, t)
	}
	return positions, transactions, rows.Err()
}

// RecentEvents returns the most recent N logged events, oldest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	rows, err := db.conn.Queryx(
		"SELECT time, game_day, category, description FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []engine.Event
	for rows.Next() {
		var e engine.Event
		var ts string
		if err := rows.Scan(&ts, &e.GameDay, &e.Category, &e.Description); err != nil {
			return nil, err
		}
		e.Time, _ = time.Parse(time.RFC3339, ts)
		events = append(events, e)
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, rows.Err()
}

// Reset drops all saved session data.
func (db *DB) Reset() error {
	for _, table := range []string{
		"player_state", "interactions", "study_sessions", "passed_courses",
		"positions", "transactions", "events", "meta",
	} {
		if _, err := db.conn.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// HasSave reports whether a snapshot exists.
func (db *DB) HasSave() (bool, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM player_state")
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return n > 0, err
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func atofOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func loadSkills(raw string) map[player.Skill]int {
	if raw == "" {
		return player.NewAttributes().Skills
	}
	decoded := make(map[string]int)
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		slog.Warn("corrupt skills blob, using defaults", "error", err)
		return player.NewAttributes().Skills
	}
	skills := make(map[player.Skill]int, len(decoded))
	for key, level := range decoded {
		skill, err := player.ParseSkill(key)
		if err != nil {
			slog.Warn("skipping unknown skill", "key", key)
			continue
		}
		skills[skill] = level
	}
	return skills
}
