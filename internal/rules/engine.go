package rules

import (
	"errors"
	"strconv"
	"strings"

	"github.com/corentings/chess/v2"
)

// StartingFEN is the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Sentinel errors; callers map these to their own error taxonomy.
var (
	ErrBadFEN        = errors.New("invalid FEN")
	ErrMalformedMove = errors.New("malformed move")
	ErrIllegalMove   = errors.New("illegal move")
)

// Termination describes how a position ended, if it did.
type Termination string

const (
	TerminationNone      Termination = ""
	TerminationCheckmate Termination = "checkmate"
	TerminationStalemate Termination = "stalemate"
	TerminationDraw      Termination = "draw"
)

// MoveResult is the outcome of applying one move to a position. UCI is the
// normalized coordinate form of the input and can be replayed through
// ApplyMove. SAN carries check (+) and mate (#) suffixes. On checkmate the
// side that moved wins.
type MoveResult struct {
	FEN         string
	UCI         string
	SAN         string
	Termination Termination
}

// ApplyMove validates move (coordinate notation, from+to with an optional
// promotion letter) against fen and returns the resulting position.
func ApplyMove(fen, move string) (MoveResult, error) {
	move = strings.ToLower(strings.TrimSpace(move))
	if !isCoordinateSyntax(move) {
		return MoveResult{}, ErrMalformedMove
	}

	game, err := load(fen)
	if err != nil {
		return MoveResult{}, err
	}

	pos := game.Position()
	mv, err := chess.UCINotation{}.Decode(pos, move)
	if err != nil {
		return MoveResult{}, ErrIllegalMove
	}
	san := chess.AlgebraicNotation{}.Encode(pos, mv)

	if err := game.Move(mv, nil); err != nil {
		return MoveResult{}, ErrIllegalMove
	}

	res := MoveResult{
		FEN: game.FEN(),
		UCI: move,
		SAN: san,
	}

	switch game.Outcome() {
	case chess.WhiteWon, chess.BlackWon:
		res.Termination = TerminationCheckmate
	case chess.Draw:
		if game.Method() == chess.Stalemate {
			res.Termination = TerminationStalemate
		} else {
			res.Termination = TerminationDraw
		}
	default:
		// The library only auto-draws at 75 moves; the fifty-move rule
		// applies once the halfmove clock reaches 100 half-moves.
		if clk, cerr := halfmoveClock(res.FEN); cerr == nil && clk >= 100 {
			res.Termination = TerminationDraw
		}
	}
	return res, nil
}

// Turn returns the side to move in fen: "white" or "black".
func Turn(fen string) (string, error) {
	game, err := load(fen)
	if err != nil {
		return "", err
	}
	return colorName(game.Position().Turn()), nil
}

// LegalMoves lists every legal move in fen in coordinate notation.
func LegalMoves(fen string) ([]string, error) {
	game, err := load(fen)
	if err != nil {
		return nil, err
	}
	valid := game.ValidMoves()
	moves := make([]string, 0, len(valid))
	for _, mv := range valid {
		moves = append(moves, mv.String())
	}
	return moves, nil
}

// IsCheckmate reports whether the side to move in fen is checkmated.
func IsCheckmate(fen string) (bool, error) {
	game, err := load(fen)
	if err != nil {
		return false, err
	}
	return game.Position().Status() == chess.Checkmate, nil
}

// IsStalemate reports whether the side to move in fen is stalemated.
func IsStalemate(fen string) (bool, error) {
	game, err := load(fen)
	if err != nil {
		return false, err
	}
	return game.Position().Status() == chess.Stalemate, nil
}

// IsDraw reports whether fen is a drawn position: stalemate, fifty-move rule,
// or insufficient mating material. Threefold repetition is not detectable
// from a single FEN.
func IsDraw(fen string) (bool, error) {
	game, err := load(fen)
	if err != nil {
		return false, err
	}
	if game.Position().Status() == chess.Stalemate {
		return true, nil
	}
	if clk, cerr := halfmoveClock(fen); cerr == nil && clk >= 100 {
		return true, nil
	}
	return insufficientMaterial(game), nil
}

func load(fen string) (*chess.Game, error) {
	option, err := chess.FEN(fen)
	if err != nil {
		return nil, ErrBadFEN
	}
	return chess.NewGame(option), nil
}

// isCoordinateSyntax returns true iff s is [a-h][1-8][a-h][1-8] with an
// optional promotion piece [qrbn].
func isCoordinateSyntax(s string) bool {
	if len(s) < 4 || len(s) > 5 {
		return false
	}
	if s[0] < 'a' || s[0] > 'h' {
		return false
	}
	if s[1] < '1' || s[1] > '8' {
		return false
	}
	if s[2] < 'a' || s[2] > 'h' {
		return false
	}
	if s[3] < '1' || s[3] > '8' {
		return false
	}
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'r', 'b', 'n':
		default:
			return false
		}
	}
	return true
}

func colorName(c chess.Color) string {
	if c == chess.White {
		return "white"
	}
	return "black"
}

func halfmoveClock(fen string) (int, error) {
	fields := strings.Fields(fen)
	if len(fields) < 5 {
		return 0, ErrBadFEN
	}
	return strconv.Atoi(fields[4])
}

// insufficientMaterial reports whether neither side can possibly mate:
// bare kings, a lone minor piece, or same-colored bishops only.
func insufficientMaterial(game *chess.Game) bool {
	board := game.Position().Board()

	knights := 0
	bishopSquareColors := map[int]bool{}
	for file := chess.FileA; file <= chess.FileH; file++ {
		for rank := chess.Rank1; rank <= chess.Rank8; rank++ {
			sq := chess.NewSquare(file, rank)
			piece := board.Piece(sq)
			if piece == chess.NoPiece {
				continue
			}
			switch piece.Type() {
			case chess.King:
			case chess.Knight:
				knights++
			case chess.Bishop:
				bishopSquareColors[(int(file)+int(rank))%2] = true
			default:
				// Pawn, rook or queen: mate is still possible.
				return false
			}
		}
	}

	bishops := len(bishopSquareColors)
	switch {
	case knights == 0 && bishops == 0:
		return true
	case knights == 1 && bishops == 0:
		return true
	case knights == 0 && bishops == 1:
		// Any number of bishops, all on the same square color.
		return true
	}
	return false
}
