package models

import "time"

// GameStatus is the lifecycle state of a game: waiting -> in_progress -> completed.
type GameStatus string

const (
	GameStatusWaiting    GameStatus = "waiting"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusCompleted  GameStatus = "completed"
)

// Turn identifies the side to move.
type Turn string

const (
	TurnWhite Turn = "white"
	TurnBlack Turn = "black"
)

// Opposite returns the other side.
func (t Turn) Opposite() Turn {
	if t == TurnWhite {
		return TurnBlack
	}
	return TurnWhite
}

// ResultTag is the recorded outcome of a completed game.
type ResultTag string

const (
	ResultWhiteWins ResultTag = "white_wins"
	ResultBlackWins ResultTag = "black_wins"
	ResultDraw      ResultTag = "draw"
)

// Wager status values. Pass-through metadata; the core never interprets them.
const (
	WagerStatusPending   = "pending"
	WagerStatusFunded    = "funded"
	WagerStatusCompleted = "completed"
)

// Player is an identity record keyed by wallet address. Addresses are stored
// lowercased; the username defaults to Player_<last 6 of address>.
type Player struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Game is the aggregate root: identity, participants, authoritative position,
// lifecycle state and opaque wager metadata. Version is the optimistic
// concurrency counter bumped on every update.
type Game struct {
	ID              int64      `json:"id"`
	Player1ID       int64      `json:"player1_id"`
	Player2ID       *int64     `json:"player2_id"`
	WagerAmount     string     `json:"wager_amount"`
	TimeControl     string     `json:"time_control"`
	Status          GameStatus `json:"status"`
	FEN             string     `json:"fen"`
	CurrentTurn     Turn       `json:"current_turn"`
	DrawOffered     bool       `json:"draw_offered"`
	ContractAddress string     `json:"contract_address"`
	TransactionHash string     `json:"transaction_hash"`
	Network         string     `json:"network"`
	WagerStatus     string     `json:"wager_status"`
	Version         int64      `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	LastMoveAt      time.Time  `json:"last_move_at"`

	Player1 *Player `json:"player1,omitempty"`
	Player2 *Player `json:"player2,omitempty"`
	Moves   []Move  `json:"moves,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// Move is one ledger entry: immutable once written, numbered 1..n per game.
// Move holds coordinate notation as submitted (replayable against the
// preceding FEN); SAN is the display form.
type Move struct {
	ID         int64     `json:"id"`
	GameID     int64     `json:"game_id"`
	PlayerID   int64     `json:"player_id"`
	Move       string    `json:"move"`
	SAN        string    `json:"san"`
	FEN        string    `json:"fen"`
	MoveNumber int       `json:"move_number"`
	CreatedAt  time.Time `json:"created_at"`
}

// Result records the outcome of a completed game. At most one per game;
// WinnerID is nil for draws.
type Result struct {
	ID        int64     `json:"id"`
	GameID    int64     `json:"game_id"`
	WinnerID  *int64    `json:"winner_id"`
	Result    ResultTag `json:"result"`
	EndedAt   time.Time `json:"ended_at"`
	CreatedAt time.Time `json:"created_at"`
}

// GameSummary is the compact recent-games shape, rendered from player1's
// perspective (victory/defeat/draw) the way the leaderboard displays it.
type GameSummary struct {
	ID        string    `json:"id"`
	Opponent  string    `json:"opponent"`
	Result    string    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
	Amount    string    `json:"amount"`
}
