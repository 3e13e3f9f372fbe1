package model

import "errors"

var (
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrIllegalMove        = errors.New("illegal move")
	ErrGameOver           = errors.New("game is over")
	ErrPromotionPending   = errors.New("promotion pending")
	ErrNoPromotionPending = errors.New("no promotion pending")
	ErrInvalidPromotion   = errors.New("invalid promotion piece")
	ErrMalformedSnapshot  = errors.New("malformed snapshot")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrGameFull           = errors.New("game is full")
	ErrNotInGame          = errors.New("player not in game")
	ErrAlreadyQueued      = errors.New("player already in queue")
	ErrAlreadyConnected   = errors.New("connection already open")
)
