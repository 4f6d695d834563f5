package api

import (
	"time"

	"github.com/jfenske/chessmate/internal/database"
)

// UserResponse is the DTO for a user's public profile. Email and password
// hash never appear here; email is only shown to the account owner via
// OwnUserResponse.
type UserResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Deleted    bool      `json:"deleted"`
	DateJoined time.Time `json:"date_joined"`
	Wins       int64     `json:"wins"`
	Draws      int64     `json:"draws"`
	Losses     int64     `json:"losses"`
}

func toUserResponse(user *database.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Deleted:    user.Deleted,
		DateJoined: user.DateJoined,
		Wins:       user.Wins,
		Draws:      user.Draws,
		Losses:     user.Losses,
	}
}

func toUserResponseList(users []*database.User) []UserResponse {
	responseList := make([]UserResponse, len(users))
	for i, user := range users {
		responseList[i] = toUserResponse(user)
	}
	return responseList
}

// OwnUserResponse is the DTO a user receives for their own account.
type OwnUserResponse struct {
	UserResponse
	Email *string `json:"email"`
}

func toOwnUserResponse(user *database.User) OwnUserResponse {
	var email *string
	if user.Email.Valid {
		email = &user.Email.String
	}
	return OwnUserResponse{
		UserResponse: toUserResponse(user),
		Email:        email,
	}
}

// InvitationResponse is the DTO for an invitation. DateAnswered is null until
// the invitation reaches a terminal status.
type InvitationResponse struct {
	ID           int64      `json:"id"`
	DateSent     time.Time  `json:"date_sent"`
	DateAnswered *time.Time `json:"date_answered"`
	FromID       int64      `json:"from_id"`
	ToID         int64      `json:"to_id"`
	GameType     string     `json:"game_type"`
	Status       string     `json:"status"`
}

func toInvitationResponse(inv *database.Invitation) InvitationResponse {
	var answered *time.Time
	if inv.DateAnswered.Valid {
		answered = &inv.DateAnswered.Time
	}
	return InvitationResponse{
		ID:           inv.ID,
		DateSent:     inv.DateSent,
		DateAnswered: answered,
		FromID:       inv.FromID,
		ToID:         inv.ToID,
		GameType:     inv.GameType,
		Status:       inv.Status,
	}
}

func toInvitationResponseList(invs []*database.Invitation) []InvitationResponse {
	responseList := make([]InvitationResponse, len(invs))
	for i, inv := range invs {
		responseList[i] = toInvitationResponse(inv)
	}
	return responseList
}

// GameResponse is the DTO for a game. Player names are resolved by the store
// so clients don't need extra lookups, including for soft-deleted players.
type GameResponse struct {
	ID           int64      `json:"id"`
	GameType     string     `json:"game_type"`
	InvitationID int64      `json:"invitation_id"`
	DateStarted  time.Time  `json:"date_started"`
	DateEnded    *time.Time `json:"date_ended"`
	Player1      int64      `json:"player_1"`
	Player2      int64      `json:"player_2"`
	Player1Name  string     `json:"player_1_name"`
	Player2Name  string     `json:"player_2_name"`
	Whomst       int64      `json:"whomst"`
	Winner       *int64     `json:"winner"`
	Status       string     `json:"status"`
	FEN          string     `json:"fen"`
	States       string     `json:"states"`
}

func toGameResponse(game *database.Game) GameResponse {
	var ended *time.Time
	if game.DateEnded.Valid {
		ended = &game.DateEnded.Time
	}
	var winner *int64
	if game.Winner.Valid {
		winner = &game.Winner.Int64
	}
	return GameResponse{
		ID:           game.ID,
		GameType:     game.GameType,
		InvitationID: game.InvitationID,
		DateStarted:  game.DateStarted,
		DateEnded:    ended,
		Player1:      game.Player1,
		Player2:      game.Player2,
		Player1Name:  game.Player1Name,
		Player2Name:  game.Player2Name,
		Whomst:       game.Whomst,
		Winner:       winner,
		Status:       game.Status,
		FEN:          game.FEN,
		States:       game.States,
	}
}

func toGameResponseList(games []*database.Game) []GameResponse {
	responseList := make([]GameResponse, len(games))
	for i, game := range games {
		responseList[i] = toGameResponse(game)
	}
	return responseList
}

// MoveResponse is the DTO for one audit-log entry.
type MoveResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	GameID     int64     `json:"game_id"`
	DatePlayed time.Time `json:"date_played"`
	Movestr    string    `json:"movestr"`
	FEN        string    `json:"fen"`
}

func toMoveResponse(move *database.Move) MoveResponse {
	return MoveResponse{
		ID:         move.ID,
		UserID:     move.UserID,
		GameID:     move.GameID,
		DatePlayed: move.DatePlayed,
		Movestr:    move.Movestr,
		FEN:        move.FEN,
	}
}

func toMoveResponseList(moves []*database.Move) []MoveResponse {
	responseList := make([]MoveResponse, len(moves))
	for i, move := range moves {
		responseList[i] = toMoveResponse(move)
	}
	return responseList
}
