package model

type Player struct {
	ID string
}

type ClientPlayer struct {
	ID       string  `json:"name"`
	Color    Color   `json:"color"`
	TimeLeft float64 `json:"timeLeft"`
	Flagged  bool    `json:"flagged"`
}

type MatchFoundEvent struct {
	GameID string `json:"gameId"`
	Color  Color  `json:"color"`
}
