package database

import (
	"database/sql"
	"errors"
	"testing"
)

const testFENAfterE4 = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPPPPPP/RNBQKBNR b KQkq e3 0 1"

func TestCheckTurn(t *testing.T) {
	game := &Game{Player1: 1, Player2: 2, Whomst: 1, Status: GameActive}

	if err := CheckTurn(game, 1); err != nil {
		t.Fatalf("player to move: %v", err)
	}
	if err := CheckTurn(game, 2); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("opponent: got %v, want ErrNotYourTurn", err)
	}
	if err := CheckTurn(game, 3); !errors.Is(err, ErrNotPlayer) {
		t.Fatalf("stranger: got %v, want ErrNotPlayer", err)
	}

	game.Status = GameWhiteWins
	var statusErr *StatusError
	if err := CheckTurn(game, 1); !errors.As(err, &statusErr) {
		t.Fatalf("finished game: got %v, want StatusError", err)
	}
}

func TestApplyMoveFlipsTurn(t *testing.T) {
	s := newTestService(t)
	game, white, black := startGame(t, s)

	result := MoveResult{FEN: testFENAfterE4, States: `{"castling":"KQkq"}`}
	var updated *Game
	err := s.WriteTx(func(tx *sql.Tx) error {
		var err error
		updated, err = s.ApplyMove(tx, game.ID, white.ID, "e2e4", result)
		return err
	})
	if err != nil {
		t.Fatalf("apply move: %v", err)
	}

	if updated.Whomst != black.ID {
		t.Fatalf("turn did not pass: whomst=%d", updated.Whomst)
	}
	if updated.FEN != testFENAfterE4 {
		t.Fatalf("fen not updated: %q", updated.FEN)
	}
	if updated.States != `{"castling":"KQkq"}` {
		t.Fatalf("states not updated: %q", updated.States)
	}
	if updated.Status != GameActive {
		t.Fatalf("status = %q, want ACTIVE", updated.Status)
	}

	moves, err := s.ListMoves(s.DB(), MoveFilter{GameID: &game.ID}, ListOptions{})
	if err != nil {
		t.Fatalf("list moves: %v", err)
	}
	if len(moves) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(moves))
	}
	if moves[0].Movestr != "e2e4" || moves[0].UserID != white.ID || moves[0].FEN != testFENAfterE4 {
		t.Fatalf("unexpected audit row: %+v", moves[0])
	}
}

func TestApplyMoveOutOfTurn(t *testing.T) {
	s := newTestService(t)
	game, _, black := startGame(t, s)
	stranger := createTestUser(t, s, "stranger")

	result := MoveResult{FEN: testFENAfterE4, States: "{}"}

	err := s.WriteTx(func(tx *sql.Tx) error {
		_, err := s.ApplyMove(tx, game.ID, black.ID, "e7e5", result)
		return err
	})
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("black moving first: got %v, want ErrNotYourTurn", err)
	}

	err = s.WriteTx(func(tx *sql.Tx) error {
		_, err := s.ApplyMove(tx, game.ID, stranger.ID, "e2e4", result)
		return err
	})
	if !errors.Is(err, ErrNotPlayer) {
		t.Fatalf("stranger moving: got %v, want ErrNotPlayer", err)
	}

	// Nothing was committed: still white to move, no audit rows.
	current, err := s.GetGameByID(s.DB(), game.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if current.Whomst != game.Whomst || current.FEN != InitialFEN {
		t.Fatal("rejected moves must not change the game")
	}
	moves, err := s.ListMoves(s.DB(), MoveFilter{GameID: &game.ID}, ListOptions{})
	if err != nil {
		t.Fatalf("list moves: %v", err)
	}
	if len(moves) != 0 {
		t.Fatalf("expected no audit rows, got %d", len(moves))
	}
}

func TestApplyMoveCheckmate(t *testing.T) {
	s := newTestService(t)
	game, white, black := startGame(t, s)

	result := MoveResult{FEN: testFENAfterE4, States: "{}", GameOver: true, Draw: false}
	var updated *Game
	err := s.WriteTx(func(tx *sql.Tx) error {
		var err error
		updated, err = s.ApplyMove(tx, game.ID, white.ID, "e2e4", result)
		return err
	})
	if err != nil {
		t.Fatalf("apply move: %v", err)
	}

	if updated.Status != GameWhiteWins {
		t.Fatalf("status = %q, want WHITE_WINS", updated.Status)
	}
	if !updated.Winner.Valid || updated.Winner.Int64 != white.ID {
		t.Fatalf("winner = %+v, want %d", updated.Winner, white.ID)
	}
	if !updated.DateEnded.Valid {
		t.Fatal("finished game should carry an end date")
	}

	winner, err := s.GetUserByID(s.DB(), white.ID)
	if err != nil {
		t.Fatalf("reload winner: %v", err)
	}
	loser, err := s.GetUserByID(s.DB(), black.ID)
	if err != nil {
		t.Fatalf("reload loser: %v", err)
	}
	if winner.Wins != 1 || winner.Losses != 0 {
		t.Fatalf("winner counters: wins=%d losses=%d", winner.Wins, winner.Losses)
	}
	if loser.Losses != 1 || loser.Wins != 0 {
		t.Fatalf("loser counters: wins=%d losses=%d", loser.Wins, loser.Losses)
	}

	// The game is over; no further moves.
	err = s.WriteTx(func(tx *sql.Tx) error {
		_, err := s.ApplyMove(tx, game.ID, black.ID, "e7e5", MoveResult{FEN: testFENAfterE4, States: "{}"})
		return err
	})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("move after mate: got %v, want StatusError", err)
	}
	if statusErr.Status != GameWhiteWins {
		t.Fatalf("conflict status = %q, want WHITE_WINS", statusErr.Status)
	}
}

func TestApplyMoveDraw(t *testing.T) {
	s := newTestService(t)
	game, white, black := startGame(t, s)

	result := MoveResult{FEN: testFENAfterE4, States: "{}", GameOver: true, Draw: true}
	var updated *Game
	err := s.WriteTx(func(tx *sql.Tx) error {
		var err error
		updated, err = s.ApplyMove(tx, game.ID, white.ID, "e2e4", result)
		return err
	})
	if err != nil {
		t.Fatalf("apply move: %v", err)
	}

	if updated.Status != GameDraw {
		t.Fatalf("status = %q, want DRAW", updated.Status)
	}
	if updated.Winner.Valid {
		t.Fatalf("drawn game must have no winner, got %d", updated.Winner.Int64)
	}

	for _, id := range []int64{white.ID, black.ID} {
		user, err := s.GetUserByID(s.DB(), id)
		if err != nil {
			t.Fatalf("reload user %d: %v", id, err)
		}
		if user.Draws != 1 || user.Wins != 0 || user.Losses != 0 {
			t.Fatalf("user %d counters: wins=%d draws=%d losses=%d", id, user.Wins, user.Draws, user.Losses)
		}
	}
}

func TestForfeitGame(t *testing.T) {
	s := newTestService(t)
	game, white, black := startGame(t, s)

	// Black forfeits out of turn; that is allowed.
	var forfeited *Game
	err := s.WriteTx(func(tx *sql.Tx) error {
		var err error
		forfeited, err = s.ForfeitGame(tx, game.ID, black.ID)
		return err
	})
	if err != nil {
		t.Fatalf("forfeit: %v", err)
	}

	if forfeited.Status != GameWhiteWins {
		t.Fatalf("status = %q, want WHITE_WINS", forfeited.Status)
	}
	if !forfeited.Winner.Valid || forfeited.Winner.Int64 != white.ID {
		t.Fatalf("winner = %+v, want %d", forfeited.Winner, white.ID)
	}

	winner, err := s.GetUserByID(s.DB(), white.ID)
	if err != nil {
		t.Fatalf("reload winner: %v", err)
	}
	if winner.Wins != 1 {
		t.Fatalf("forfeit must count as a win, wins=%d", winner.Wins)
	}

	err = s.WriteTx(func(tx *sql.Tx) error {
		_, err := s.ForfeitGame(tx, game.ID, white.ID)
		return err
	})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("double forfeit: got %v, want StatusError", err)
	}

	stranger := createTestUser(t, s, "stranger")
	err = s.WriteTx(func(tx *sql.Tx) error {
		_, err := s.ForfeitGame(tx, game.ID, stranger.ID)
		return err
	})
	if !errors.Is(err, ErrNotPlayer) {
		t.Fatalf("stranger forfeiting: got %v, want ErrNotPlayer", err)
	}
}

func TestListGamesByPlayer(t *testing.T) {
	s := newTestService(t)
	game, white, _ := startGame(t, s)

	games, err := s.ListGames(s.DB(), GameFilter{Player1: &white.ID}, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 1 || games[0].ID != game.ID {
		t.Fatalf("expected the one game, got %d", len(games))
	}

	games, err = s.ListGames(s.DB(), GameFilter{InvitationID: &game.InvitationID}, ListOptions{})
	if err != nil {
		t.Fatalf("list by invitation: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected the one game, got %d", len(games))
	}
}
