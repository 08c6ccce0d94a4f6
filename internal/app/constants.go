package app

// InitialHandSize is the number of cards dealt to each seat when a game begins.
const InitialHandSize = 8

// MinPlayersToStartGame defines the minimum number of occupied seats required to start a game.
// Keep this centralized so tests or local runs can adjust the rule without touching multiple call sites.
const MinPlayersToStartGame = 2
